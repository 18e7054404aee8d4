package kinematic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplacement(t *testing.T) {
	tests := []struct {
		name            string
		initialVelocity float64
		time            float64
		acceleration    float64
		want            float64
	}{
		{name: "at rest", want: 0},
		{name: "constant velocity", initialVelocity: 25, time: 0.1, want: 2.5},
		{name: "free fall", time: 1, acceleration: Gravity, want: -4.9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Displacement(tt.initialVelocity, tt.time, tt.acceleration), 1e-9)
		})
	}
}

func TestFinalVelocity(t *testing.T) {
	assert.InDelta(t, -9.8, FinalVelocity(0, 1, Gravity), 1e-9)
	assert.InDelta(t, 5.2, FinalVelocity(10, 0.5, -9.6), 1e-9)
}

func TestVector3_Displacement(t *testing.T) {
	v := Vector3{X: 0, Y: 0, Z: 25}
	got := Vector3{}.Add(v.Displacement(0.1))
	assert.InDelta(t, 0, got.X, 1e-9)
	assert.InDelta(t, 0, got.Y, 1e-9)
	assert.InDelta(t, 2.5, got.Z, 1e-9)
	assert.Equal(t, Vector3{X: 2, Y: 4, Z: 6}, Vector3{X: 1, Y: 2, Z: 3}.Scale(2))
}
