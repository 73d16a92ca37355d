package placement

// MaxItemsCount bounds the number of props of each kind.
const MaxItemsCount = 30

// GameSettings holds the requested number of props per kind.
type GameSettings struct {
	CubesCount   int `json:"cubes_count" yaml:"cubes_count"`
	SpheresCount int `json:"spheres_count" yaml:"spheres_count"`
}

// DefaultSettings returns half of maxItems for each kind.
func DefaultSettings(maxItems int) GameSettings {
	if maxItems <= 0 {
		maxItems = MaxItemsCount
	}
	return GameSettings{
		CubesCount:   maxItems / 2,
		SpheresCount: maxItems / 2,
	}
}

// Clamp keeps both counts within [0, maxItems].
func (s GameSettings) Clamp(maxItems int) GameSettings {
	if maxItems <= 0 {
		maxItems = MaxItemsCount
	}
	return GameSettings{
		CubesCount:   clampInt(s.CubesCount, 0, maxItems),
		SpheresCount: clampInt(s.SpheresCount, 0, maxItems),
	}
}

// Total is the number of props requested.
func (s GameSettings) Total() int {
	return s.CubesCount + s.SpheresCount
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
