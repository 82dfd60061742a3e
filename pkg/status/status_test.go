package status

import (
	"testing"

	"github.com/lysa-se/controller/pkg/state"
	"github.com/stretchr/testify/assert"
)

func pointer[K any](val K) *K {
	return &val
}

func TestLines(t *testing.T) {
	var tests = []struct {
		name     string
		rep      state.Report
		expected []string
	}{
		{
			name:     "on with time",
			rep:      state.Report{Relay: pointer(true), Override: pointer(false), Time: pointer("9:30 PM")},
			expected: []string{"Light State: ON", "9:30 PM"},
		},
		{
			name:     "off with time",
			rep:      state.Report{Relay: pointer(false), Override: pointer(false), Time: pointer("12:05 AM")},
			expected: []string{"Light State: OFF", "12:05 AM"},
		},
		{
			name:     "override replaces the time line",
			rep:      state.Report{Relay: pointer(true), Override: pointer(true), Time: pointer("9:30 PM")},
			expected: []string{"Light State: ON", "OVERRIDE ON"},
		},
		{
			name:     "failed sync still shows the sentinel display",
			rep:      state.Report{Relay: pointer(false), Override: pointer(false), Time: pointer("Time Error")},
			expected: []string{"Light State: OFF", "Time Error"},
		},
		{
			name:     "no time available",
			rep:      state.Report{Relay: pointer(false)},
			expected: []string{"Light State: OFF"},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Lines(tt.rep))
		})
	}
}

func TestRenderWithoutServerOnlyLogs(t *testing.T) {
	p := New(nil, "light/status", "light/metrics")
	assert.NotPanics(t, func() {
		p.Render(state.Report{Relay: pointer(true), Time: pointer("9:30 PM")})
	})
}
