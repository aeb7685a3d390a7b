// README: Order aggregate, status vocabulary and scheduled window parsing.
package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"dronebook/internal/types"
)

type OrderStatus string

const (
	StatusNew          OrderStatus = "new"
	StatusInProcessing OrderStatus = "in_processing"
	StatusInProgress   OrderStatus = "in_progress"
	StatusCompleted    OrderStatus = "completed"
	StatusCancelled    OrderStatus = "cancelled"
)

// OrderStatuses lists the vocabulary in lifecycle order.
var OrderStatuses = []OrderStatus{
	StatusNew,
	StatusInProcessing,
	StatusInProgress,
	StatusCompleted,
	StatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

const DateLayout = "2006-01-02"

type Order struct {
	ID            types.ID
	ClubID        types.ID
	FirstName     string
	LastName      string
	Email         string
	OrderDate     string // YYYY-MM-DD
	StartTime     string // HH:MM:SS
	EndTime       string // HH:MM:SS
	Status        OrderStatus
	StatusVersion int
	OperatorID    *types.ID
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}

// Window combines the order date with its start and end times in loc.
// Seconds are dropped: the window is resolved to the minute.
func (o *Order) Window(loc *time.Location) (start, end time.Time, err error) {
	day, err := time.ParseInLocation(DateLayout, o.OrderDate, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("order date %q: %w", o.OrderDate, err)
	}
	sh, sm, _, err := ParseClock(o.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start time: %w", err)
	}
	eh, em, _, err := ParseClock(o.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end time: %w", err)
	}
	y, m, d := day.Date()
	start = time.Date(y, m, d, sh, sm, 0, 0, loc)
	end = time.Date(y, m, d, eh, em, 0, 0, loc)
	return start, end, nil
}

// ParseClock parses "HH:MM" or "HH:MM:SS".
func ParseClock(v string) (hour, minute, second int, err error) {
	parts := strings.Split(strings.TrimSpace(v), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, 0, 0, fmt.Errorf("malformed time %q", v)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		if len(p) != 2 || !isDigit(p[0]) || !isDigit(p[1]) {
			return 0, 0, 0, fmt.Errorf("malformed time %q", v)
		}
		n, convErr := strconv.Atoi(p)
		if convErr != nil {
			return 0, 0, 0, fmt.Errorf("malformed time %q", v)
		}
		nums[i] = n
	}
	if nums[0] > 23 || nums[1] > 59 || nums[2] > 59 {
		return 0, 0, 0, fmt.Errorf("time out of range %q", v)
	}
	return nums[0], nums[1], nums[2], nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// NormalizeClock returns v as HH:MM:SS.
func NormalizeClock(v string) (string, error) {
	h, m, s, err := ParseClock(v)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s), nil
}

type OrderEvent struct {
	ID          int64
	OrderID     types.ID
	FromStatus  OrderStatus
	ToStatus    OrderStatus
	ActorType   string
	ActorID     *types.ID
	CreatedAt   time.Time
	PublishedAt *time.Time
}
