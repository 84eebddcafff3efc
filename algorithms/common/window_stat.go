package common

import "math"

// WindowStat is one evaluation of a sliding-window statistic: the window
// starts at Start, spans Length samples, and aggregates to Value.
type WindowStat struct {
	Start  int     `json:"start"`
	Length int     `json:"length"`
	Value  float64 `json:"value"`
}

// WindowLength resolves a window size given as a fixed sample count and as
// a percentage of n; the larger wins, never exceeding n.
func WindowLength(samples int, percent float64, n int) int {
	w := samples
	if p := int(math.Ceil(percent / 100 * float64(n))); p > w {
		w = p
	}
	if w > n {
		w = n
	}
	return w
}

// CenteredMean returns the mean of the window of length w centred on i,
// clipped to [0, len(data)), leaving out data[i] itself. The window slides
// instead of shrinking at the edges so that it always covers w samples
// when the data allows.
func CenteredMean(data []float64, i, w int) WindowStat {
	n := len(data)
	start := i - w/2
	if start+w > n {
		start = n - w
	}
	if start < 0 {
		start = 0
	}
	end := start + w
	if end > n {
		end = n
	}

	sum := 0.0
	count := 0
	for k := start; k < end; k++ {
		if k == i {
			continue
		}
		sum += data[k]
		count++
	}

	stat := WindowStat{Start: start, Length: end - start, Value: math.NaN()}
	if count > 0 {
		stat.Value = sum / float64(count)
	}
	return stat
}
