package flighttask

import (
	"context"
	"errors"
	"testing"

	"dronebook/internal/models"
	"dronebook/internal/storage"
	"dronebook/internal/types"
)

func TestValidateRoute(t *testing.T) {
	pt := func(seq int, lat, lng float64) models.RoutePoint {
		return models.RoutePoint{SequenceNumber: seq, Latitude: lat, Longitude: lng}
	}
	cases := []struct {
		name   string
		points []models.RoutePoint
		ok     bool
	}{
		{"empty", nil, false},
		{"single point", []models.RoutePoint{pt(1, 10, 10)}, false},
		{"two identical points", []models.RoutePoint{pt(1, 10, 10), pt(2, 10, 10)}, true},
		{"closed loop", []models.RoutePoint{pt(1, 10, 10), pt(2, 11, 11), pt(3, 10, 10)}, true},
		{"open path", []models.RoutePoint{pt(1, 10, 10), pt(2, 11, 11), pt(3, 10, 10.0001)}, false},
		{"latitude out of range", []models.RoutePoint{pt(1, 91, 10), pt(2, 11, 11), pt(3, 91, 10)}, false},
		{"longitude out of range", []models.RoutePoint{pt(1, 10, 10), pt(2, 11, -181), pt(3, 10, 10)}, false},
		{"edge coordinates", []models.RoutePoint{pt(1, -90, 180), pt(2, 90, -180), pt(3, -90, 180)}, true},
		{"zero sequence number", []models.RoutePoint{pt(0, 10, 10), pt(1, 10, 10)}, false},
	}
	for _, tc := range cases {
		err := ValidateRoute(tc.points)
		if tc.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && !errors.Is(err, types.ErrInvalidRoute) {
			t.Errorf("%s: got %v, want ErrInvalidRoute", tc.name, err)
		}
	}
}

func TestAllocate(t *testing.T) {
	f := newFixture(t)
	alloc := NewAllocator()
	missing := types.ID("missing")

	cases := []struct {
		name string
		req  Request
		want error
	}{
		{"ok", Request{DroneID: f.droneID, CameraID: f.cameraID, LensID: &f.lensID, Points: loop()}, nil},
		{"ok without lens", Request{DroneID: f.droneID, CameraID: f.cameraID, Points: loop()}, nil},
		{"missing drone", Request{DroneID: missing, CameraID: f.cameraID, Points: loop()}, types.ErrNotFound},
		{"missing camera", Request{DroneID: f.droneID, CameraID: missing, Points: loop()}, types.ErrNotFound},
		{"missing lens", Request{DroneID: f.droneID, CameraID: f.cameraID, LensID: &missing, Points: loop()}, types.ErrNotFound},
		{"archived drone", Request{DroneID: f.archivedDroneID, CameraID: f.cameraID, Points: loop()}, types.ErrUnavailable},
		{"drone of another club", Request{DroneID: f.foreignDroneID, CameraID: f.cameraID, Points: loop()}, types.ErrUnavailable},
		{"camera id used as drone", Request{DroneID: f.cameraID, CameraID: f.cameraID, Points: loop()}, types.ErrNotFound},
		{"bad route", Request{DroneID: f.droneID, CameraID: f.cameraID, Points: loop()[:1]}, types.ErrInvalidRoute},
	}

	ctx := context.Background()
	for _, tc := range cases {
		err := f.store.View(ctx, func(tx storage.Tx) error {
			o, err := tx.GetOrder(ctx, f.orderID)
			if err != nil {
				return err
			}
			_, err = alloc.Allocate(ctx, tx, o, tc.req)
			return err
		})
		if tc.want == nil && err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
		}
		if tc.want != nil && !errors.Is(err, tc.want) {
			t.Errorf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestCheckBookable(t *testing.T) {
	f := newFixture(t)
	alloc := NewAllocator()
	ctx := context.Background()

	check := func(id types.ID) error {
		return f.store.View(ctx, func(tx storage.Tx) error {
			_, err := alloc.CheckBookable(ctx, tx, id)
			return err
		})
	}

	if err := check(f.orderID); err != nil {
		t.Fatalf("fresh order should be bookable: %v", err)
	}
	if err := check("missing"); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("missing order: got %v", err)
	}

	f.create(t, operator)
	if err := check(f.orderID); !errors.Is(err, types.ErrOrderNotBookable) {
		t.Fatalf("claimed order: got %v", err)
	}
}
