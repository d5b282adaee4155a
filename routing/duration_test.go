package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		seconds float64
		want    string
	}{
		{"zero", 0, "0 sec"},
		{"under a minute", 45, "45 sec"},
		{"fraction truncated", 59.9, "59 sec"},
		{"exact minute", 60, "1 min"},
		{"minutes and seconds", 125, "2 min 5 sec"},
		{"exact minutes", 600, "10 min"},
		{"long walk", 3725.4, "62 min 5 sec"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, FormatDuration(tt.seconds))
		})
	}
}
