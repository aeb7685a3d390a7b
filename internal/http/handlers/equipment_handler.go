// README: Drone, camera and lens handlers. Lifecycle routes are shared across kinds.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dronebook/internal/http/middleware"
	"dronebook/internal/models"
	"dronebook/internal/modules/club"
	"dronebook/internal/storage"
)

type EquipmentHandler struct {
	clubs *club.Service
	guard *club.Guard
}

func NewEquipmentHandler(svc *club.Service, guard *club.Guard) *EquipmentHandler {
	return &EquipmentHandler{clubs: svc, guard: guard}
}

type createDroneReq struct {
	ClubID        string `json:"club_id" binding:"required"`
	Model         string `json:"model" binding:"required"`
	BatteryCharge int    `json:"battery_charge"`
}

type updateDroneReq struct {
	ClubID        *string `json:"club_id"`
	Model         *string `json:"model"`
	BatteryCharge *int    `json:"battery_charge"`
}

type createCameraReq struct {
	ClubID   string `json:"club_id" binding:"required"`
	Model    string `json:"model" binding:"required"`
	WidthPx  int    `json:"width_px"`
	HeightPx int    `json:"height_px"`
	FPS      int    `json:"fps"`
}

type updateCameraReq struct {
	ClubID   *string `json:"club_id"`
	Model    *string `json:"model"`
	WidthPx  *int    `json:"width_px"`
	HeightPx *int    `json:"height_px"`
	FPS      *int    `json:"fps"`
}

type createLensReq struct {
	ClubID         string  `json:"club_id" binding:"required"`
	Model          string  `json:"model" binding:"required"`
	MinFocalLength float64 `json:"min_focal_length"`
	MaxFocalLength float64 `json:"max_focal_length"`
}

type updateLensReq struct {
	ClubID         *string  `json:"club_id"`
	Model          *string  `json:"model"`
	MinFocalLength *float64 `json:"min_focal_length"`
	MaxFocalLength *float64 `json:"max_focal_length"`
}

// filter reads ?club_id= and ?include_archived=.
func (h *EquipmentHandler) filter(c *gin.Context) (storage.EquipmentFilter, bool) {
	page, ok := pageFrom(c)
	if !ok {
		return storage.EquipmentFilter{}, false
	}
	f := storage.EquipmentFilter{
		IncludeArchived: includeArchived(c, middleware.CallerActor(c)),
		Page:            page,
	}
	if raw := c.Query("club_id"); raw != "" {
		id, err := parseIDField("club_id", raw)
		if err != nil {
			writeDomainError(c, err)
			return storage.EquipmentFilter{}, false
		}
		f.ClubID = &id
	}
	return f, true
}

func (h *EquipmentHandler) ListDrones(c *gin.Context) {
	f, ok := h.filter(c)
	if !ok {
		return
	}
	drones, err := h.clubs.ListDrones(c.Request.Context(), f)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	out := make([]*droneResponse, 0, len(drones))
	for _, d := range drones {
		out = append(out, toDrone(d))
	}
	writeJSON(c, http.StatusOK, out)
}

func (h *EquipmentHandler) GetDrone(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	d, err := h.clubs.GetDrone(c.Request.Context(), id, includeArchived(c, middleware.CallerActor(c)))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toDrone(d))
}

func (h *EquipmentHandler) CreateDrone(c *gin.Context) {
	var req createDroneReq
	if !bindJSON(c, &req) {
		return
	}
	clubID, err := parseIDField("club_id", req.ClubID)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	d, err := h.clubs.CreateDrone(c.Request.Context(), club.DroneInput{ClubID: clubID, Model: req.Model, BatteryCharge: req.BatteryCharge})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, toDrone(d))
}

func (h *EquipmentHandler) UpdateDrone(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateDroneReq
	if !bindJSON(c, &req) {
		return
	}
	clubID, err := parseOptionalID("club_id", req.ClubID)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	d, err := h.clubs.UpdateDrone(c.Request.Context(), id, club.DronePatch{ClubID: clubID, Model: req.Model, BatteryCharge: req.BatteryCharge})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toDrone(d))
}

func (h *EquipmentHandler) ListCameras(c *gin.Context) {
	f, ok := h.filter(c)
	if !ok {
		return
	}
	cameras, err := h.clubs.ListCameras(c.Request.Context(), f)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	out := make([]*cameraResponse, 0, len(cameras))
	for _, cam := range cameras {
		out = append(out, toCamera(cam))
	}
	writeJSON(c, http.StatusOK, out)
}

func (h *EquipmentHandler) GetCamera(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	cam, err := h.clubs.GetCamera(c.Request.Context(), id, includeArchived(c, middleware.CallerActor(c)))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toCamera(cam))
}

func (h *EquipmentHandler) CreateCamera(c *gin.Context) {
	var req createCameraReq
	if !bindJSON(c, &req) {
		return
	}
	clubID, err := parseIDField("club_id", req.ClubID)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	cam, err := h.clubs.CreateCamera(c.Request.Context(), club.CameraInput{
		ClubID:   clubID,
		Model:    req.Model,
		WidthPx:  req.WidthPx,
		HeightPx: req.HeightPx,
		FPS:      req.FPS,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, toCamera(cam))
}

func (h *EquipmentHandler) UpdateCamera(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateCameraReq
	if !bindJSON(c, &req) {
		return
	}
	clubID, err := parseOptionalID("club_id", req.ClubID)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	cam, err := h.clubs.UpdateCamera(c.Request.Context(), id, club.CameraPatch{
		ClubID:   clubID,
		Model:    req.Model,
		WidthPx:  req.WidthPx,
		HeightPx: req.HeightPx,
		FPS:      req.FPS,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toCamera(cam))
}

func (h *EquipmentHandler) ListLenses(c *gin.Context) {
	f, ok := h.filter(c)
	if !ok {
		return
	}
	lenses, err := h.clubs.ListLenses(c.Request.Context(), f)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	out := make([]*lensResponse, 0, len(lenses))
	for _, l := range lenses {
		out = append(out, toLens(l))
	}
	writeJSON(c, http.StatusOK, out)
}

func (h *EquipmentHandler) GetLens(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	l, err := h.clubs.GetLens(c.Request.Context(), id, includeArchived(c, middleware.CallerActor(c)))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toLens(l))
}

func (h *EquipmentHandler) CreateLens(c *gin.Context) {
	var req createLensReq
	if !bindJSON(c, &req) {
		return
	}
	clubID, err := parseIDField("club_id", req.ClubID)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	l, err := h.clubs.CreateLens(c.Request.Context(), club.LensInput{
		ClubID:         clubID,
		Model:          req.Model,
		MinFocalLength: req.MinFocalLength,
		MaxFocalLength: req.MaxFocalLength,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, toLens(l))
}

func (h *EquipmentHandler) UpdateLens(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateLensReq
	if !bindJSON(c, &req) {
		return
	}
	clubID, err := parseOptionalID("club_id", req.ClubID)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	l, err := h.clubs.UpdateLens(c.Request.Context(), id, club.LensPatch{
		ClubID:         clubID,
		Model:          req.Model,
		MinFocalLength: req.MinFocalLength,
		MaxFocalLength: req.MaxFocalLength,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toLens(l))
}

// Archive, Activate and Delete return handlers bound to one equipment kind.

func (h *EquipmentHandler) Archive(kind models.EquipmentKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		e, err := h.guard.ArchiveEquipment(c.Request.Context(), kind, id)
		if err != nil {
			writeDomainError(c, err)
			return
		}
		writeJSON(c, http.StatusOK, toEquipment(*e))
	}
}

func (h *EquipmentHandler) Activate(kind models.EquipmentKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		e, err := h.guard.ActivateEquipment(c.Request.Context(), kind, id)
		if err != nil {
			writeDomainError(c, err)
			return
		}
		writeJSON(c, http.StatusOK, toEquipment(*e))
	}
}

func (h *EquipmentHandler) Delete(kind models.EquipmentKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		if err := h.guard.DeleteEquipment(c.Request.Context(), kind, id); err != nil {
			writeDomainError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
