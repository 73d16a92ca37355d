package placement

import (
	"fmt"
	"math"
	"math/rand"
)

// Point2D is a grid coordinate on the horizontal plane.
type Point2D struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// SafeZonePolicy selects how the area around the car's start is kept clear.
type SafeZonePolicy string

const (
	// PolicyRadius skips grid points inside a square of SafeZoneRadius.
	PolicyRadius SafeZonePolicy = "radius"
	// PolicyOffset starts the grid at LegacySafeZoneOffset. Kept for old layouts.
	PolicyOffset SafeZonePolicy = "offset"
)

const LegacySafeZoneOffset = 5

// ParsePolicy maps a config value to a policy.
func ParsePolicy(s string) (SafeZonePolicy, error) {
	switch SafeZonePolicy(s) {
	case PolicyRadius, "":
		return PolicyRadius, nil
	case PolicyOffset:
		return PolicyOffset, nil
	}
	return "", fmt.Errorf("unknown safe zone policy %q", s)
}

// Layout describes the placement grid.
type Layout struct {
	TileSize    int `json:"tile_size" yaml:"tile_size"`
	UpperBorder int `json:"upper_border" yaml:"upper_border"`
}

func DefaultLayout() Layout {
	return Layout{TileSize: 5, UpperBorder: 25}
}

// SafeZoneRadius is half a tile plus one unit.
func (l Layout) SafeZoneRadius() float64 {
	return float64(l.TileSize)/2 + 1
}

func (l Layout) valid() bool {
	return l.TileSize > 0 && l.UpperBorder > 0
}

// InSafeZone reports whether p falls inside the radius safe zone.
func (l Layout) InSafeZone(p Point2D) bool {
	r := l.SafeZoneRadius()
	return math.Abs(float64(p.X)) <= r && math.Abs(float64(p.Y)) <= r
}

// Placement is the split of sampled coordinates between prop kinds.
type Placement struct {
	Cubes   []Point2D `json:"cubes"`
	Spheres []Point2D `json:"spheres"`
}

func (p Placement) Len() int {
	return len(p.Cubes) + len(p.Spheres)
}

// All returns cubes followed by spheres.
func (p Placement) All() []Point2D {
	out := make([]Point2D, 0, p.Len())
	out = append(out, p.Cubes...)
	return append(out, p.Spheres...)
}

// Candidates enumerates every placeable grid point for the layout, unshuffled.
func Candidates(l Layout, policy SafeZonePolicy) []Point2D {
	if !l.valid() {
		return nil
	}
	if policy == PolicyOffset {
		return offsetCandidates(l)
	}

	var out []Point2D
	for x := 0; x < l.UpperBorder; x += l.TileSize {
		for y := 0; y < l.UpperBorder; y += l.TileSize {
			p := Point2D{X: x, Y: y}
			if l.InSafeZone(p) {
				continue
			}

			out = append(out, p, Point2D{X: -x, Y: -y})

			// Axis points are already covered by the point reflection.
			if x != 0 && y != 0 {
				out = append(out, Point2D{X: -x, Y: y}, Point2D{X: x, Y: -y})
			}
		}
	}
	return out
}

func offsetCandidates(l Layout) []Point2D {
	var out []Point2D
	for x := LegacySafeZoneOffset; x < l.UpperBorder; x += l.TileSize {
		for y := LegacySafeZoneOffset; y < l.UpperBorder; y += l.TileSize {
			out = append(out,
				Point2D{X: x, Y: y},
				Point2D{X: x, Y: -y},
				Point2D{X: -x, Y: y},
				Point2D{X: -x, Y: -y},
			)
		}
	}
	return out
}

// Shuffle permutes points in place with a uniform Fisher-Yates shuffle.
func Shuffle(points []Point2D, rng *rand.Rand) {
	if rng == nil {
		rand.Shuffle(len(points), func(i, j int) {
			points[i], points[j] = points[j], points[i]
		})
		return
	}
	rng.Shuffle(len(points), func(i, j int) {
		points[i], points[j] = points[j], points[i]
	})
}

// Sample draws settings.Total() distinct coordinates and splits them: the
// first CubesCount go to cubes, the rest to spheres. When the grid has fewer
// candidates than requested, every candidate is returned.
func Sample(settings GameSettings, l Layout, policy SafeZonePolicy, rng *rand.Rand) Placement {
	if settings.CubesCount < 0 {
		settings.CubesCount = 0
	}
	if settings.SpheresCount < 0 {
		settings.SpheresCount = 0
	}

	coords := Candidates(l, policy)
	Shuffle(coords, rng)

	count := settings.Total()
	if count > len(coords) {
		count = len(coords)
	}
	coords = coords[:count]

	cubes := settings.CubesCount
	if cubes > count {
		cubes = count
	}

	return Placement{
		Cubes:   coords[:cubes:cubes],
		Spheres: coords[cubes:],
	}
}
