// README: Flight task handlers: claim an order, edit or drop the task, operator views.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dronebook/internal/http/middleware"
	"dronebook/internal/models"
	"dronebook/internal/modules/flighttask"
	"dronebook/internal/storage"
)

type FlightTaskHandler struct {
	tasks *flighttask.Service
}

func NewFlightTaskHandler(svc *flighttask.Service) *FlightTaskHandler {
	return &FlightTaskHandler{tasks: svc}
}

type createFlightTaskReq struct {
	OrderID  string           `json:"order_id" binding:"required"`
	DroneID  string           `json:"drone_id" binding:"required"`
	CameraID string           `json:"camera_id" binding:"required"`
	LensID   *string          `json:"lens_id"`
	Points   []routePointBody `json:"points" binding:"required"`
}

type updateFlightTaskReq struct {
	DroneID   *string          `json:"drone_id"`
	CameraID  *string          `json:"camera_id"`
	LensID    *string          `json:"lens_id"`
	ClearLens bool             `json:"clear_lens"`
	Points    []routePointBody `json:"points"`
}

func (h *FlightTaskHandler) Create(c *gin.Context) {
	var req createFlightTaskReq
	if !bindJSON(c, &req) {
		return
	}
	cmd := flighttask.CreateCommand{Points: toRoutePoints(req.Points)}
	var err error
	if cmd.OrderID, err = parseIDField("order_id", req.OrderID); err != nil {
		writeDomainError(c, err)
		return
	}
	if cmd.DroneID, err = parseIDField("drone_id", req.DroneID); err != nil {
		writeDomainError(c, err)
		return
	}
	if cmd.CameraID, err = parseIDField("camera_id", req.CameraID); err != nil {
		writeDomainError(c, err)
		return
	}
	if cmd.LensID, err = parseOptionalID("lens_id", req.LensID); err != nil {
		writeDomainError(c, err)
		return
	}

	v, err := h.tasks.Create(c.Request.Context(), middleware.CallerActor(c), cmd)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, toFlightTask(v))
}

func (h *FlightTaskHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateFlightTaskReq
	if !bindJSON(c, &req) {
		return
	}
	cmd := flighttask.UpdateCommand{ClearLens: req.ClearLens, Points: toRoutePoints(req.Points)}
	var err error
	if cmd.DroneID, err = parseOptionalID("drone_id", req.DroneID); err != nil {
		writeDomainError(c, err)
		return
	}
	if cmd.CameraID, err = parseOptionalID("camera_id", req.CameraID); err != nil {
		writeDomainError(c, err)
		return
	}
	if cmd.LensID, err = parseOptionalID("lens_id", req.LensID); err != nil {
		writeDomainError(c, err)
		return
	}

	v, err := h.tasks.Update(c.Request.Context(), middleware.CallerActor(c), id, cmd)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toFlightTask(v))
}

func (h *FlightTaskHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.tasks.Delete(c.Request.Context(), middleware.CallerActor(c), id); err != nil {
		writeDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *FlightTaskHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	v, err := h.tasks.Get(c.Request.Context(), middleware.CallerActor(c), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toFlightTask(v))
}

// List accepts an optional ?status= filter on the order status.
func (h *FlightTaskHandler) List(c *gin.Context) {
	var status *models.OrderStatus
	if raw := c.Query("status"); raw != "" {
		s := models.OrderStatus(raw)
		if !s.Valid() {
			writeError(c, http.StatusBadRequest, "invalid status")
			return
		}
		status = &s
	}
	actor := middleware.CallerActor(c)
	h.listWith(c, func(page storage.Page) ([]*flighttask.View, error) {
		return h.tasks.List(c.Request.Context(), actor, status, page)
	})
}

func (h *FlightTaskHandler) ListActive(c *gin.Context) {
	actor := middleware.CallerActor(c)
	h.listWith(c, func(page storage.Page) ([]*flighttask.View, error) {
		return h.tasks.ListActive(c.Request.Context(), actor, page)
	})
}

func (h *FlightTaskHandler) ListHistory(c *gin.Context) {
	actor := middleware.CallerActor(c)
	h.listWith(c, func(page storage.Page) ([]*flighttask.View, error) {
		return h.tasks.ListHistory(c.Request.Context(), actor, page)
	})
}

func (h *FlightTaskHandler) listWith(c *gin.Context, fn func(page storage.Page) ([]*flighttask.View, error)) {
	page, ok := pageFrom(c)
	if !ok {
		return
	}
	views, err := fn(page)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toFlightTasks(views))
}
