package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMedianRTT(t *testing.T) {
	tests := []struct {
		name string
		rtts []int64
		want int64
	}{
		{name: "empty", rtts: nil, want: 0},
		{name: "odd", rtts: []int64{30, 10, 20}, want: 20},
		{name: "even", rtts: []int64{40, 10, 20, 30}, want: 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, medianRTT(tt.rtts))
		})
	}
}

func TestRemoveOutlierRTTs(t *testing.T) {
	assert.Equal(t, []int64{10, 12, 11}, removeOutlierRTTs([]int64{10, 12, 500, 11}))
	// small values are never outliers
	assert.Equal(t, []int64{1, 2, 15}, removeOutlierRTTs([]int64{1, 2, 15}))
}

func TestRTTWindow(t *testing.T) {
	w := &rttWindow{}
	assert.Zero(t, w.Ping())

	for i := 0; i < 15; i++ {
		w.Add(10)
	}
	assert.Equal(t, rttWindowSize, w.Len())
	assert.Equal(t, 10.0, w.Ping())

	// one spike is ignored
	w.Add(400)
	assert.Equal(t, 10.0, w.Ping())

	w.Add(16)
	assert.InDelta(t, 96.0/9.0, w.Ping(), 1e-9)
}
