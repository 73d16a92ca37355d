package scene

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/jakecoffman/cp"
	"github.com/playmatatu/billiards/internal/navigation"
	"github.com/playmatatu/billiards/internal/placement"
)

var ErrSceneDisposed = errors.New("scene disposed")

// Options controls how a scene is laid out.
type Options struct {
	Layout   placement.Layout
	Policy   placement.SafeZonePolicy
	GameArea navigation.GameArea
	MaxItems int
	Rand     *rand.Rand
	// Placement overrides sampling when set.
	Placement *placement.Placement
}

// DefaultOptions returns the stock layout with a time-seeded source.
func DefaultOptions() Options {
	return Options{
		Layout:   placement.DefaultLayout(),
		Policy:   placement.PolicyRadius,
		GameArea: navigation.NewGameArea(navigation.DefaultGameAreaSize),
		MaxItems: placement.MaxItemsCount,
	}
}

// EventType names an event emitted while stepping a scene.
type EventType string

const (
	EventPropDestroyed EventType = "prop_destroyed"
	EventCarSteered    EventType = "car_steered"
)

// Event is something that happened in a scene that clients should hear about.
type Event struct {
	Type     EventType            `json:"type"`
	SceneID  string               `json:"scene_id"`
	PropID   string               `json:"prop_id,omitempty"`
	Kind     PropKind             `json:"kind,omitempty"`
	Position navigation.Point3D   `json:"position"`
	Steering *navigation.Steering `json:"steering,omitempty"`
	At       time.Time            `json:"at"`
}

// Entity describes a static scene entity for the renderer.
type Entity struct {
	ID        string  `json:"id"`
	Width     float64 `json:"width"`
	Depth     float64 `json:"depth"`
	Y         float64 `json:"y"`
	Visible   bool    `json:"visible"`
	Pickable  bool    `json:"pickable"`
	Navigable bool    `json:"navigable"`
}

// Snapshot is the full serializable state of a scene.
type Snapshot struct {
	SceneID   string                 `json:"scene_id"`
	Settings  placement.GameSettings `json:"settings"`
	Car       CarState               `json:"car"`
	Props     []PropState            `json:"props"`
	Destroyed int                    `json:"destroyed"`
	Steps     int                    `json:"steps"`
	Elapsed   float64                `json:"elapsed"`
	Disposed  bool                   `json:"disposed"`
}

// Scene is the authoritative simulation of one sandbox session.
type Scene struct {
	ID        string
	Settings  placement.GameSettings
	Placement placement.Placement
	CreatedAt time.Time

	space        *cp.Space
	car          *Car
	props        []*Prop
	area         navigation.GameArea
	destroyed    int
	steps        int
	elapsed      float64
	lastActivity time.Time
	pending      []Event // accepted picks, reported by the next Step
	disposed     bool
	mu           sync.Mutex
}

// New builds a scene: grounds, car and props placed by the sampler.
func New(id string, settings placement.GameSettings, opts Options) *Scene {
	if opts.MaxItems <= 0 {
		opts.MaxItems = placement.MaxItemsCount
	}
	if opts.GameArea.HalfSize <= 0 {
		opts.GameArea = navigation.NewGameArea(navigation.DefaultGameAreaSize)
	}
	if opts.Layout.TileSize <= 0 || opts.Layout.UpperBorder <= 0 {
		opts.Layout = placement.DefaultLayout()
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	settings = settings.Clamp(opts.MaxItems)

	var layout placement.Placement
	if opts.Placement != nil {
		layout = *opts.Placement
	} else {
		layout = placement.Sample(settings, opts.Layout, opts.Policy, rng)
	}

	now := time.Now()
	s := &Scene{
		ID:           id,
		Settings:     settings,
		Placement:    layout,
		CreatedAt:    now,
		lastActivity: now,
		area:         opts.GameArea,
		space:        cp.NewSpace(),
	}

	s.car = newCar()
	s.space.AddBody(s.car.body)
	s.space.AddShape(s.car.shape)

	for i, c := range layout.Cubes {
		p := newBoxProp(fmt.Sprintf("box-%d", i), float64(c.X), float64(c.Y), randomSize(rng))
		s.addProp(p)
	}
	for i, c := range layout.Spheres {
		p := newSphereProp(fmt.Sprintf("sphere-%d", i), float64(c.X), float64(c.Y), randomSize(rng))
		s.addProp(p)
	}

	return s
}

func randomSize(rng *rand.Rand) int {
	return MinPropSize + rng.Intn(MaxPropSize-MinPropSize+1)
}

func (s *Scene) addProp(p *Prop) {
	s.space.AddBody(p.body)
	s.space.AddShape(p.shape)
	s.props = append(s.props, p)
}

// Entities lists the static planes of the scene.
func Entities() []Entity {
	return []Entity{
		{ID: GroundID, Width: GroundSize, Depth: GroundSize, Visible: true},
		{ID: CarGroundID, Width: CarGroundSize, Depth: CarGroundSize, Pickable: true, Navigable: true},
		{ID: DestroyerGroundID, Width: CarGroundSize, Depth: CarGroundSize, Y: DestroyerY},
	}
}

// Pick applies a pointer event to the car. Only picks on the navigable
// ground inside the game area steer it; an accepted pick is reported as an
// EventCarSteered by the next Step.
func (s *Scene) Pick(event navigation.PickEvent) (navigation.Steering, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return navigation.Steering{}, false, ErrSceneDisposed
	}
	steering, ok := navigation.HandlePick(event, CarGroundID, s.car, s.area)
	if !ok {
		return steering, false, nil
	}

	now := time.Now()
	s.lastActivity = now
	st := steering
	s.pending = append(s.pending, Event{
		Type:     EventCarSteered,
		SceneID:  s.ID,
		Position: *event.Point,
		Steering: &st,
		At:       now,
	})
	return steering, true, nil
}

// Step advances the simulation by dt seconds. It returns the picks
// accepted since the last step followed by the props destroyed in it.
func (s *Scene) Step(dt float64) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return nil, ErrSceneDisposed
	}
	if dt <= 0 {
		return nil, nil
	}

	s.space.Step(dt)
	s.steps++
	s.elapsed += dt

	events := s.pending
	s.pending = nil
	live := s.props[:0]
	for _, p := range s.props {
		if !p.falling && !p.onGround() {
			// Off the edge: no longer in contact with anything on the plane.
			p.falling = true
			s.space.RemoveShape(p.shape)
		}
		if p.falling {
			p.vy += Gravity * dt
			p.height += p.vy * dt
		}
		if p.bottom() <= DestroyerY {
			events = append(events, Event{
				Type:     EventPropDestroyed,
				SceneID:  s.ID,
				PropID:   p.ID,
				Kind:     p.Kind,
				Position: p.position(),
				At:       time.Now(),
			})
			s.disposeProp(p)
			s.destroyed++
			continue
		}
		live = append(live, p)
	}
	for i := len(live); i < len(s.props); i++ {
		s.props[i] = nil
	}
	s.props = live

	return events, nil
}

func (s *Scene) disposeProp(p *Prop) {
	if p.disposed {
		return
	}
	if !p.falling {
		s.space.RemoveShape(p.shape)
	}
	s.space.RemoveBody(p.body)
	p.disposed = true
}

// Snapshot captures the current state.
func (s *Scene) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		SceneID:   s.ID,
		Settings:  s.Settings,
		Destroyed: s.destroyed,
		Steps:     s.steps,
		Elapsed:   s.elapsed,
		Disposed:  s.disposed,
		Props:     make([]PropState, 0, len(s.props)),
	}
	if s.car != nil {
		snap.Car = s.car.state()
	}
	for _, p := range s.props {
		snap.Props = append(snap.Props, p.state())
	}
	return snap
}

// LiveProps returns how many props are still in the scene.
func (s *Scene) LiveProps() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.props)
}

// Destroyed returns how many props have fallen onto the destroyer plane.
func (s *Scene) Destroyed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyed
}

// Touch marks the scene as in use so idle expiry leaves it alone.
func (s *Scene) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = time.Now()
}

// LastActivity is the time of the last interaction or creation.
func (s *Scene) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

func (s *Scene) IsDisposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

// Dispose releases the physics space. Safe to call more than once.
func (s *Scene) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return
	}
	for _, p := range s.props {
		s.disposeProp(p)
	}
	s.props = nil
	s.pending = nil
	s.space.RemoveShape(s.car.shape)
	s.space.RemoveBody(s.car.body)
	s.space = nil
	s.disposed = true
}
