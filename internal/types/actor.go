package types

// Actor is the authenticated caller of a core operation.
type Actor struct {
	ID        ID
	Superuser bool
}

// SystemActor is used for transitions driven by background tasks.
var SystemActor = Actor{ID: "", Superuser: true}

func (a Actor) IsSystem() bool {
	return a.ID == "" && a.Superuser
}

// Owns reports whether the actor may act on a record owned by operatorID.
func (a Actor) Owns(operatorID *ID) bool {
	if a.Superuser {
		return true
	}
	return operatorID != nil && *operatorID == a.ID
}
