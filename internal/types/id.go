// README: Opaque identifiers shared by every module.
package types

import "github.com/google/uuid"

// ID is an opaque entity identifier (UUID text).
type ID string

func NewID() ID {
	return ID(uuid.NewString())
}

// ParseID accepts only canonical UUID text.
func ParseID(v string) (ID, bool) {
	u, err := uuid.Parse(v)
	if err != nil {
		return "", false
	}
	return ID(u.String()), true
}

func (id ID) String() string {
	return string(id)
}
