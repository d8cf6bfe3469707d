package scans

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthScore(t *testing.T) {
	cases := []struct {
		name   string
		total  int
		broken int
		want   int
	}{
		{"empty crawl is healthy", 0, 0, 100},
		{"empty crawl ignores broken count", 0, 5, 100},
		{"one in ten broken", 10, 1, 90},
		{"everything broken", 10, 10, 0},
		{"rounds to nearest", 3, 1, 67},
		{"nothing broken", 25, 0, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HealthScore(tc.total, tc.broken))
		})
	}
}
