// README: Health endpoint; reports the last sweeper pass when a sweeper runs in-process.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dronebook/internal/modules/sweeper"
)

// SweepReporter is satisfied by *sweeper.Sweeper.
type SweepReporter interface {
	LastResult() (sweeper.Result, bool)
}

type HealthHandler struct {
	sweeper SweepReporter
}

func NewHealthHandler(s SweepReporter) *HealthHandler {
	return &HealthHandler{sweeper: s}
}

type sweepResponse struct {
	At        time.Time `json:"at"`
	Scanned   int       `json:"scanned"`
	Cancelled int       `json:"cancelled"`
	Started   int       `json:"started"`
	Completed int       `json:"completed"`
	Skipped   int       `json:"skipped"`
	Error     string    `json:"error,omitempty"`
}

type healthResponse struct {
	Status    string         `json:"status"`
	LastSweep *sweepResponse `json:"last_sweep"`
}

func (h *HealthHandler) Get(c *gin.Context) {
	resp := healthResponse{Status: "ok"}
	if h.sweeper != nil {
		if r, ok := h.sweeper.LastResult(); ok {
			resp.LastSweep = &sweepResponse{
				At:        r.At,
				Scanned:   r.Scanned,
				Cancelled: r.Cancelled,
				Started:   r.Started,
				Completed: r.Completed,
				Skipped:   r.Skipped,
				Error:     r.Error,
			}
			if r.Error != "" {
				resp.Status = "degraded"
			}
		}
	}
	writeJSON(c, http.StatusOK, resp)
}
