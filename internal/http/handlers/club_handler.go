// README: Club handlers; archive, activate and delete go through the archival guard.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dronebook/internal/http/middleware"
	"dronebook/internal/modules/club"
	"dronebook/internal/storage"
)

type ClubHandler struct {
	clubs *club.Service
	guard *club.Guard
}

func NewClubHandler(svc *club.Service, guard *club.Guard) *ClubHandler {
	return &ClubHandler{clubs: svc, guard: guard}
}

type createClubReq struct {
	Name      string   `json:"name" binding:"required"`
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type updateClubReq struct {
	Name      *string  `json:"name"`
	Address   *string  `json:"address"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type archiveClubResponse struct {
	Club              *clubResponse `json:"club"`
	EquipmentArchived int64         `json:"equipment_archived"`
}

func (h *ClubHandler) List(c *gin.Context) {
	page, ok := pageFrom(c)
	if !ok {
		return
	}
	clubs, err := h.clubs.ListClubs(c.Request.Context(), storage.ClubFilter{
		IncludeArchived: includeArchived(c, middleware.CallerActor(c)),
		Page:            page,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toClubs(clubs))
}

func (h *ClubHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	cl, err := h.clubs.GetClub(c.Request.Context(), id, includeArchived(c, middleware.CallerActor(c)))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toClub(cl))
}

func (h *ClubHandler) Create(c *gin.Context) {
	var req createClubReq
	if !bindJSON(c, &req) {
		return
	}
	cl, err := h.clubs.CreateClub(c.Request.Context(), club.CreateClubCommand{
		Name:      req.Name,
		Address:   req.Address,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, toClub(cl))
}

func (h *ClubHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateClubReq
	if !bindJSON(c, &req) {
		return
	}
	cl, err := h.clubs.UpdateClub(c.Request.Context(), id, club.UpdateClubCommand(req))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toClub(cl))
}

func (h *ClubHandler) Archive(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	res, err := h.guard.ArchiveClub(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, archiveClubResponse{Club: toClub(res.Club), EquipmentArchived: res.EquipmentArchived})
}

func (h *ClubHandler) Activate(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	cl, err := h.guard.ActivateClub(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toClub(cl))
}

func (h *ClubHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.guard.DeleteClub(c.Request.Context(), id); err != nil {
		writeDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
