// README: Order handlers: listings, status changes and superuser management.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dronebook/internal/http/middleware"
	"dronebook/internal/models"
	"dronebook/internal/modules/order"
	"dronebook/internal/storage"
)

type OrderHandler struct {
	order *order.Service
}

func NewOrderHandler(svc *order.Service) *OrderHandler {
	return &OrderHandler{order: svc}
}

type createOrderReq struct {
	ClubID    string `json:"club_id" binding:"required"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Email     string `json:"email" binding:"required"`
	OrderDate string `json:"order_date" binding:"required"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
}

type updateOrderReq struct {
	ClubID    *string `json:"club_id"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	OrderDate *string `json:"order_date"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
}

type changeStatusReq struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

func (h *OrderHandler) listWith(c *gin.Context, fn func(page storage.Page) ([]*order.View, error)) {
	page, ok := pageFrom(c)
	if !ok {
		return
	}
	views, err := fn(page)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toOrderViews(views))
}

func (h *OrderHandler) ListNew(c *gin.Context) {
	h.listWith(c, func(page storage.Page) ([]*order.View, error) {
		return h.order.ListNew(c.Request.Context(), page)
	})
}

func (h *OrderHandler) ListAssigned(c *gin.Context) {
	actor := middleware.CallerActor(c)
	h.listWith(c, func(page storage.Page) ([]*order.View, error) {
		return h.order.ListAssigned(c.Request.Context(), actor, page)
	})
}

func (h *OrderHandler) ListAll(c *gin.Context) {
	actor := middleware.CallerActor(c)
	h.listWith(c, func(page storage.Page) ([]*order.View, error) {
		return h.order.ListAll(c.Request.Context(), actor, page)
	})
}

func (h *OrderHandler) Statuses(c *gin.Context) {
	writeJSON(c, http.StatusOK, h.order.Statuses())
}

func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	v, err := h.order.Get(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toOrderView(v))
}

func (h *OrderHandler) ChangeStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req changeStatusReq
	if !bindJSON(c, &req) {
		return
	}
	v, err := h.order.ChangeStatus(c.Request.Context(), middleware.CallerActor(c), id, req.Status)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toOrderView(v))
}

func (h *OrderHandler) Create(c *gin.Context) {
	var req createOrderReq
	if !bindJSON(c, &req) {
		return
	}
	clubID, err := parseIDField("club_id", req.ClubID)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	v, err := h.order.Create(c.Request.Context(), middleware.CallerActor(c), order.CreateCommand{
		ClubID:    clubID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		OrderDate: req.OrderDate,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, toOrderView(v))
}

func (h *OrderHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateOrderReq
	if !bindJSON(c, &req) {
		return
	}
	clubID, err := parseOptionalID("club_id", req.ClubID)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	v, err := h.order.Update(c.Request.Context(), middleware.CallerActor(c), id, order.UpdateCommand{
		ClubID:    clubID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		OrderDate: req.OrderDate,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toOrderView(v))
}

func (h *OrderHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.order.Delete(c.Request.Context(), middleware.CallerActor(c), id); err != nil {
		writeDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

