package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"dronebook/internal/types"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{types.ErrBadRequest, http.StatusBadRequest},
		{fmt.Errorf("%w: bad loop", types.ErrInvalidRoute), http.StatusBadRequest},
		{badRequest("invalid club_id"), http.StatusBadRequest},
		{types.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("load: %w", types.ErrNotFound), http.StatusNotFound},
		{types.ErrUnavailable, http.StatusConflict},
		{types.ErrOrderNotBookable, http.StatusConflict},
		{types.ErrInvalidTransition, http.StatusConflict},
		{types.ErrInvalidState, http.StatusConflict},
		{types.ErrConflict, http.StatusConflict},
		{types.ErrAlreadyArchived, http.StatusConflict},
		{types.ErrAlreadyActive, http.StatusConflict},
		{types.ErrConcurrentUpdate, http.StatusConflict},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusFor(tc.err); got != tc.want {
			t.Errorf("statusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestPageFrom(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		query       string
		ok          bool
		skip, limit int
	}{
		{"", true, 0, defaultPageLimit},
		{"?limit=0", true, 0, defaultPageLimit},
		{"?skip=20&limit=5", true, 20, 5},
		{"?limit=5000", true, 0, maxPageLimit},
		{"?limit=-1", false, 0, 0},
		{"?skip=abc", false, 0, 0},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/orders"+tc.query, nil)

		p, ok := pageFrom(c)
		if ok != tc.ok {
			t.Errorf("pageFrom(%q) ok = %v, want %v", tc.query, ok, tc.ok)
			continue
		}
		if !ok {
			if w.Code != http.StatusBadRequest {
				t.Errorf("pageFrom(%q) status = %d, want 400", tc.query, w.Code)
			}
			continue
		}
		if p.Offset != tc.skip || p.Limit != tc.limit {
			t.Errorf("pageFrom(%q) = skip %d limit %d, want %d %d", tc.query, p.Offset, p.Limit, tc.skip, tc.limit)
		}
	}
}
