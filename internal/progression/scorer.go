package progression

// Axis names an aggregate score axis. Each axis is a weighted subset of
// the metric vector.
type Axis string

const (
	AxisTrust    Axis = "trust"
	AxisOpenness Axis = "openness"
)

// AxisWeights maps metrics to their relative weight on one axis. Weights
// need not sum to 1; aggregation normalizes by the weight total.
type AxisWeights map[Metric]float64

// AggregateScore is the windowed composite along both axes, each scaled
// to 0-100.
type AggregateScore struct {
	Trust    float64 `json:"trust"`
	Openness float64 `json:"openness"`
}

// Scorer keeps the fixed-capacity sliding window of per-message metric
// vectors and aggregates them. It has no state beyond the window: the same
// window contents and weights always produce the same score.
type Scorer struct {
	size   int
	window []Vector
}

// DefaultWindowSize is the window capacity used when config supplies none.
const DefaultWindowSize = 10

// NewScorer creates a scorer with the given window capacity. Sizes below 1
// fall back to DefaultWindowSize.
func NewScorer(size int) *Scorer {
	if size < 1 {
		size = DefaultWindowSize
	}
	return &Scorer{size: size, window: make([]Vector, 0, size)}
}

// NewScorerFromWindow restores a scorer from a persisted window, keeping
// only the newest entries if the persisted window exceeds size.
func NewScorerFromWindow(size int, window []Vector) *Scorer {
	s := NewScorer(size)
	for _, v := range window {
		s.Observe(v)
	}
	return s
}

// Observe appends a metric vector, evicting the oldest entry when the
// window is full.
func (s *Scorer) Observe(v Vector) {
	if len(s.window) == s.size {
		copy(s.window, s.window[1:])
		s.window[len(s.window)-1] = v
	} else {
		s.window = append(s.window, v)
	}
}

// Len returns the number of vectors currently in the window.
func (s *Scorer) Len() int {
	return len(s.window)
}

// Window returns a copy of the window, oldest first.
func (s *Scorer) Window() []Vector {
	out := make([]Vector, len(s.window))
	for i, v := range s.window {
		cp := make(Vector, len(v))
		for m, f := range v {
			cp[m] = f
		}
		out[i] = cp
	}
	return out
}

// Average returns the per-metric mean over the window. An empty window
// yields a zero vector.
func (s *Scorer) Average() Vector {
	avg := make(Vector, len(AllMetrics()))
	if len(s.window) == 0 {
		return avg
	}
	for _, v := range s.window {
		for m, f := range v {
			avg[m] += f
		}
	}
	n := float64(len(s.window))
	for m := range avg {
		avg[m] /= n
	}
	return avg
}

// Aggregate computes the weighted composite of the window-averaged metrics
// along both axes. Each axis is the weight-normalized sum scaled to 0-100,
// so it stays bounded regardless of the weight totals.
func (s *Scorer) Aggregate(trust, openness AxisWeights) AggregateScore {
	avg := s.Average()
	return AggregateScore{
		Trust:    axisScore(avg, trust),
		Openness: axisScore(avg, openness),
	}
}

func axisScore(avg Vector, weights AxisWeights) float64 {
	var sum, total float64
	for m, w := range weights {
		sum += w * avg[m]
		total += w
	}
	if total == 0 {
		return 0
	}
	return clamp01(sum/total) * 100
}
