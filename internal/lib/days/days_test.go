package days

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUntil(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		deadline time.Time
		want     int
	}{
		{"three full days", now.AddDate(0, 0, 3), 3},
		{"less than a day truncates to zero", now.Add(23 * time.Hour), 0},
		{"exactly one day", now.Add(24 * time.Hour), 1},
		{"overdue by two days", now.AddDate(0, 0, -2), -2},
		{"same instant", now, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Until(now, tt.deadline))
		})
	}
}
