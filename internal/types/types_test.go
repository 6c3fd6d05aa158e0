package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurationFields_TotalSeconds(t *testing.T) {
	d := DurationFields{Days: 1, Hours: 2, Minutes: 3, Seconds: 4}
	assert.Equal(t, 86400+2*3600+3*60+4, d.TotalSeconds())
	assert.Equal(t, 0, DurationFields{}.TotalSeconds())
}

func TestParseDurationFields(t *testing.T) {
	tests := []struct {
		in   string
		want DurationFields
	}{
		{"0:0:0:30", DurationFields{Seconds: 30}},
		{"1:02:03:04", DurationFields{Days: 1, Hours: 2, Minutes: 3, Seconds: 4}},
		{"1:30", DurationFields{Minutes: 1, Seconds: 30}},
		{"45", DurationFields{Seconds: 45}},
		{" 2:0:0 ", DurationFields{Hours: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDurationFields(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDurationFields_Invalid(t *testing.T) {
	for _, in := range []string{"", "a:b", "1:2:3:4:5", "0:24:0:0", "0:0:60:0", "366:0:0:0", "-1"} {
		_, err := ParseDurationFields(in)
		assert.Error(t, err, in)
	}
}

func TestDefaults(t *testing.T) {
	assert.Len(t, DefaultProducts(), 3)
	assert.Len(t, DefaultMachines(), 8)
}
