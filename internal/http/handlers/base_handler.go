// README: Base handler utilities (JSON helpers, error mapping, path and paging params).
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"dronebook/internal/storage"
	"dronebook/internal/types"
)

const (
	defaultPageLimit = 100
	maxPageLimit     = 1000
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// statusFor maps the core error taxonomy onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrBadRequest), errors.Is(err, types.ErrInvalidRoute):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrUnavailable),
		errors.Is(err, types.ErrOrderNotBookable),
		errors.Is(err, types.ErrInvalidTransition),
		errors.Is(err, types.ErrInvalidState),
		errors.Is(err, types.ErrConflict),
		errors.Is(err, types.ErrAlreadyArchived),
		errors.Is(err, types.ErrAlreadyActive),
		errors.Is(err, types.ErrConcurrentUpdate):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeDomainError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		writeError(c, status, "internal error")
		return
	}
	writeError(c, status, err.Error())
}

// pathID reads a UUID path parameter and writes a 400 when it is malformed.
func pathID(c *gin.Context, name string) (types.ID, bool) {
	id, ok := types.ParseID(c.Param(name))
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid "+name)
	}
	return id, ok
}

func parseIDField(field, v string) (types.ID, error) {
	id, ok := types.ParseID(v)
	if !ok {
		return "", badRequest("invalid " + field)
	}
	return id, nil
}

func parseOptionalID(field string, v *string) (*types.ID, error) {
	if v == nil {
		return nil, nil
	}
	id, err := parseIDField(field, *v)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// pageFrom reads ?skip=&limit=. An absent or zero limit means defaultPageLimit.
func pageFrom(c *gin.Context) (storage.Page, bool) {
	var p storage.Page
	for name, dst := range map[string]*int{"skip": &p.Offset, "limit": &p.Limit} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(c, http.StatusBadRequest, "invalid "+name)
			return storage.Page{}, false
		}
		*dst = n
	}
	switch {
	case p.Limit == 0:
		p.Limit = defaultPageLimit
	case p.Limit > maxPageLimit:
		p.Limit = maxPageLimit
	}
	return p, true
}

// includeArchived honours ?include_archived=true for superusers only.
func includeArchived(c *gin.Context, actor types.Actor) bool {
	v, _ := strconv.ParseBool(strings.TrimSpace(c.Query("include_archived")))
	return v && actor.Superuser
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json: "+err.Error())
		return false
	}
	return true
}

type badRequestError string

func (e badRequestError) Error() string { return string(e) }
func (e badRequestError) Unwrap() error { return types.ErrBadRequest }

func badRequest(msg string) error { return badRequestError(msg) }
