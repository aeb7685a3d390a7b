package models

import "testing"

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		h, m, s int
		wantErr bool
	}{
		{in: "09:30", h: 9, m: 30},
		{in: "23:59:59", h: 23, m: 59, s: 59},
		{in: " 00:00 ", h: 0, m: 0},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "9:00", wantErr: true},
		{in: "-1:30", wantErr: true},
		{in: "00:-5", wantErr: true},
		{in: "+1:00", wantErr: true},
		{in: "10:00:-1", wantErr: true},
		{in: "ab:cd", wantErr: true},
		{in: "10", wantErr: true},
	}
	for _, tt := range tests {
		h, m, s, err := ParseClock(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseClock(%q) = %02d:%02d:%02d, want error", tt.in, h, m, s)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if h != tt.h || m != tt.m || s != tt.s {
			t.Errorf("ParseClock(%q) = %d,%d,%d, want %d,%d,%d", tt.in, h, m, s, tt.h, tt.m, tt.s)
		}
	}
}
