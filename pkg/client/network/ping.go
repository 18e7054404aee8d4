package network

import "sort"

const (
	// rttWindowSize is the number of recent round trips the ping estimate uses
	rttWindowSize = 10
	// rttOutlierFloorMs is the RTT under which a sample is never an outlier
	rttOutlierFloorMs = 20
)

// rttWindow keeps the most recent round trip times in milliseconds.
type rttWindow struct {
	samples []int64
}

func (w *rttWindow) Add(rttMs int64) {
	w.samples = append(w.samples, rttMs)
	for len(w.samples) > rttWindowSize {
		w.samples = w.samples[1:]
	}
}

func (w *rttWindow) Len() int {
	return len(w.samples)
}

// Ping is the mean of the window after outliers are removed.
func (w *rttWindow) Ping() float64 {
	samples := removeOutlierRTTs(w.samples)
	if len(samples) == 0 {
		return 0
	}
	total := 0.0
	for _, s := range samples {
		total += float64(s)
	}
	return total / float64(len(samples))
}

// removeOutlierRTTs drops samples above twice the median unless they are
// under rttOutlierFloorMs.
func removeOutlierRTTs(rtts []int64) []int64 {
	result := make([]int64, 0, len(rtts))
	median := medianRTT(rtts)
	for _, rtt := range rtts {
		if rtt > 2*median && rtt > rttOutlierFloorMs {
			continue
		}
		result = append(result, rtt)
	}
	return result
}

func medianRTT(rtts []int64) int64 {
	if len(rtts) == 0 {
		return 0
	}
	sorted := make([]int64, len(rtts))
	copy(sorted, rtts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
