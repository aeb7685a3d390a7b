// README: JSON shapes returned by the API and their mapping from core records.
package handlers

import (
	"time"

	"dronebook/internal/models"
	"dronebook/internal/modules/flighttask"
	"dronebook/internal/modules/order"
	"dronebook/internal/types"
)

type userResponse struct {
	ID          types.ID `json:"id"`
	Email       string   `json:"email"`
	Username    string   `json:"username"`
	IsSuperuser bool     `json:"is_superuser"`
}

func toUser(u *models.User) *userResponse {
	if u == nil {
		return nil
	}
	return &userResponse{ID: u.ID, Email: u.Email, Username: u.Username, IsSuperuser: u.IsSuperuser}
}

type clubResponse struct {
	ID          types.ID   `json:"id"`
	Name        string     `json:"name"`
	Address     string     `json:"address"`
	Latitude    float64    `json:"latitude"`
	Longitude   float64    `json:"longitude"`
	IsAvailable bool       `json:"is_available"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

func toClub(c *models.Club) *clubResponse {
	if c == nil {
		return nil
	}
	return &clubResponse{
		ID:          c.ID,
		Name:        c.Name,
		Address:     c.Address,
		Latitude:    c.Latitude,
		Longitude:   c.Longitude,
		IsAvailable: c.IsAvailable,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func toClubs(in []*models.Club) []*clubResponse {
	out := make([]*clubResponse, 0, len(in))
	for _, c := range in {
		out = append(out, toClub(c))
	}
	return out
}

type equipmentResponse struct {
	ID          types.ID   `json:"id"`
	ClubID      types.ID   `json:"club_id"`
	Model       string     `json:"model"`
	IsAvailable bool       `json:"is_available"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

func toEquipment(e models.Equipment) equipmentResponse {
	return equipmentResponse{
		ID:          e.ID,
		ClubID:      e.ClubID,
		Model:       e.Model,
		IsAvailable: e.IsAvailable,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

type droneResponse struct {
	equipmentResponse
	BatteryCharge int `json:"battery_charge"`
}

func toDrone(d *models.Drone) *droneResponse {
	if d == nil {
		return nil
	}
	return &droneResponse{equipmentResponse: toEquipment(d.Equipment), BatteryCharge: d.BatteryCharge}
}

type cameraResponse struct {
	equipmentResponse
	WidthPx  int `json:"width_px"`
	HeightPx int `json:"height_px"`
	FPS      int `json:"fps"`
}

func toCamera(c *models.Camera) *cameraResponse {
	if c == nil {
		return nil
	}
	return &cameraResponse{equipmentResponse: toEquipment(c.Equipment), WidthPx: c.WidthPx, HeightPx: c.HeightPx, FPS: c.FPS}
}

type lensResponse struct {
	equipmentResponse
	MinFocalLength float64 `json:"min_focal_length"`
	MaxFocalLength float64 `json:"max_focal_length"`
	ZoomRatio      float64 `json:"zoom_ratio"`
}

func toLens(l *models.Lens) *lensResponse {
	if l == nil {
		return nil
	}
	return &lensResponse{
		equipmentResponse: toEquipment(l.Equipment),
		MinFocalLength:    l.MinFocalLength,
		MaxFocalLength:    l.MaxFocalLength,
		ZoomRatio:         l.ZoomRatio(),
	}
}

type orderResponse struct {
	ID         types.ID           `json:"id"`
	ClubID     types.ID           `json:"club_id"`
	FirstName  string             `json:"first_name"`
	LastName   string             `json:"last_name"`
	Email      string             `json:"email"`
	OrderDate  string             `json:"order_date"`
	StartTime  string             `json:"start_time"`
	EndTime    string             `json:"end_time"`
	Status     models.OrderStatus `json:"status"`
	OperatorID *types.ID          `json:"operator_id"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  *time.Time         `json:"updated_at"`
	Club       *clubResponse      `json:"club,omitempty"`
	Operator   *userResponse      `json:"operator,omitempty"`
}

func toOrder(o *models.Order) *orderResponse {
	if o == nil {
		return nil
	}
	return &orderResponse{
		ID:         o.ID,
		ClubID:     o.ClubID,
		FirstName:  o.FirstName,
		LastName:   o.LastName,
		Email:      o.Email,
		OrderDate:  o.OrderDate,
		StartTime:  o.StartTime,
		EndTime:    o.EndTime,
		Status:     o.Status,
		OperatorID: o.OperatorID,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
}

func toOrderView(v *order.View) *orderResponse {
	out := toOrder(v.Order)
	out.Club = toClub(v.Club)
	out.Operator = toUser(v.Operator)
	return out
}

func toOrderViews(in []*order.View) []*orderResponse {
	out := make([]*orderResponse, 0, len(in))
	for _, v := range in {
		out = append(out, toOrderView(v))
	}
	return out
}

type routePointBody struct {
	SequenceNumber int     `json:"sequence_number"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	Altitude       float64 `json:"altitude"`
	Color          string  `json:"color"`
}

func toRoutePoints(in []routePointBody) []models.RoutePoint {
	if in == nil {
		return nil
	}
	out := make([]models.RoutePoint, 0, len(in))
	for _, p := range in {
		out = append(out, models.RoutePoint(p))
	}
	return out
}

type routeResponse struct {
	ID       types.ID         `json:"id"`
	ClubID   types.ID         `json:"club_id"`
	LengthKm float64          `json:"length_km"`
	Points   []routePointBody `json:"points"`
}

func toRoute(r *models.Route, lengthKm float64) *routeResponse {
	if r == nil {
		return nil
	}
	pts := make([]routePointBody, 0, len(r.Points))
	for _, p := range r.Points {
		pts = append(pts, routePointBody(p))
	}
	return &routeResponse{ID: r.ID, ClubID: r.ClubID, LengthKm: lengthKm, Points: pts}
}

type flightTaskResponse struct {
	ID         types.ID        `json:"id"`
	OrderID    types.ID        `json:"order_id"`
	OperatorID types.ID        `json:"operator_id"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  *time.Time      `json:"updated_at"`
	Order      *orderResponse  `json:"order"`
	Operator   *userResponse   `json:"operator,omitempty"`
	Route      *routeResponse  `json:"route"`
	Drone      *droneResponse  `json:"drone"`
	Camera     *cameraResponse `json:"camera"`
	Lens       *lensResponse   `json:"lens"`
}

func toFlightTask(v *flighttask.View) *flightTaskResponse {
	out := &flightTaskResponse{
		ID:         v.Task.ID,
		OrderID:    v.Task.OrderID,
		OperatorID: v.Task.OperatorID,
		CreatedAt:  v.Task.CreatedAt,
		UpdatedAt:  v.Task.UpdatedAt,
		Order:      toOrder(v.Order),
		Operator:   toUser(v.Operator),
		Route:      toRoute(v.Route, v.RouteLengthKm),
		Drone:      toDrone(v.Drone),
		Camera:     toCamera(v.Camera),
		Lens:       toLens(v.Lens),
	}
	if out.Order != nil {
		out.Order.Club = toClub(v.Club)
	}
	return out
}

func toFlightTasks(in []*flighttask.View) []*flightTaskResponse {
	out := make([]*flightTaskResponse, 0, len(in))
	for _, v := range in {
		out = append(out, toFlightTask(v))
	}
	return out
}
