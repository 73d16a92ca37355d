package scene

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	mrand "math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/playmatatu/billiards/internal/config"
	"github.com/playmatatu/billiards/internal/navigation"
	"github.com/playmatatu/billiards/internal/placement"
	"github.com/redis/go-redis/v9"
)

var (
	ErrSceneNotFound = errors.New("scene not found")
	ErrSceneEnded    = errors.New("scene ended")
)

// EventsChannel is the Redis channel scene events are published on.
const EventsChannel = "scene_events"

// Recorder persists session history. Implementations must tolerate being
// called from the tick goroutine.
type Recorder interface {
	RecordSession(ctx context.Context, sceneID, token string, settings placement.GameSettings) error
	RecordPick(ctx context.Context, sceneID string, event navigation.PickEvent, steering navigation.Steering) error
	EndSession(ctx context.Context, sceneID string, destroyed int) error
}

// Manager owns every live scene, keyed by its access token. Restarting
// under a token replaces and disposes the previous scene.
type Manager struct {
	scenes   map[string]*Scene // token -> scene
	tokens   map[string]string // scene ID -> token
	shared   SharedState
	recorder Recorder
	instance string
	config   *config.Config
	rng      *mrand.Rand
	rngMu    sync.Mutex
	mu       sync.RWMutex
}

// NewManager creates a manager. rdb and recorder may be nil.
func NewManager(rdb *redis.Client, recorder Recorder, cfg *config.Config) *Manager {
	if cfg == nil {
		cfg = &config.Config{
			MaxItemsCount:      placement.MaxItemsCount,
			GameAreaSize:       navigation.DefaultGameAreaSize,
			TileSize:           5,
			UpperBorder:        25,
			SafeZonePolicy:     string(placement.PolicyRadius),
			TickRateHz:         DefaultTickRate,
			SceneExpiryMinutes: 30,
		}
	}
	m := &Manager{
		scenes:   make(map[string]*Scene),
		tokens:   make(map[string]string),
		recorder: recorder,
		instance: uuid.NewString(),
		config:   cfg,
		rng:      mrand.New(mrand.NewSource(time.Now().UnixNano())),
	}
	if rdb != nil {
		m.shared = NewRedisState(rdb)
	}
	return m
}

// UseSharedState replaces the cross-instance store.
func (m *Manager) UseSharedState(shared SharedState) {
	m.shared = shared
}

// OptionsFromConfig maps configuration onto scene options.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := DefaultOptions()
	if cfg == nil {
		return opts
	}
	if cfg.TileSize > 0 && cfg.UpperBorder > 0 {
		opts.Layout = placement.Layout{TileSize: cfg.TileSize, UpperBorder: cfg.UpperBorder}
	}
	if policy, err := placement.ParsePolicy(cfg.SafeZonePolicy); err == nil {
		opts.Policy = policy
	} else {
		log.Printf("[SCENE] %v; using radius policy", err)
	}
	opts.GameArea = navigation.NewGameArea(cfg.GameAreaSize)
	if cfg.MaxItemsCount > 0 {
		opts.MaxItems = cfg.MaxItemsCount
	}
	return opts
}

func (m *Manager) GetConfig() *config.Config {
	return m.config
}

// InstanceID identifies this process on the shared events channel.
func (m *Manager) InstanceID() string {
	return m.instance
}

// tokenSource feeds generateToken.
var tokenSource io.Reader = rand.Reader

// generateToken generates a secure random token
func generateToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := io.ReadFull(tokenSource, bytes); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// generateSceneID generates a unique scene ID
func generateSceneID() string {
	return "scene_" + uuid.NewString()
}

func (m *Manager) newScene(settings placement.GameSettings) *Scene {
	opts := OptionsFromConfig(m.config)
	m.rngMu.Lock()
	opts.Rand = mrand.New(mrand.NewSource(m.rng.Int63()))
	m.rngMu.Unlock()
	return New(generateSceneID(), settings, opts)
}

// Create starts a new scene and returns it with its access token.
func (m *Manager) Create(ctx context.Context, settings placement.GameSettings) (*Scene, string, error) {
	token, err := generateToken(16)
	if err != nil {
		return nil, "", err
	}
	s := m.newScene(settings)

	m.mu.Lock()
	m.scenes[token] = s
	m.tokens[s.ID] = token
	m.mu.Unlock()

	log.Printf("[SCENE] Created %s (cubes=%d spheres=%d placed=%d)", s.ID, s.Settings.CubesCount, s.Settings.SpheresCount, s.Placement.Len())

	if m.recorder != nil {
		if err := m.recorder.RecordSession(ctx, s.ID, token, s.Settings); err != nil {
			log.Printf("[DB] Failed to record session %s: %v", s.ID, err)
		}
	}
	m.saveSnapshot(ctx, token, s.Snapshot())

	return s, token, nil
}

// Get returns the live scene for a token.
func (m *Manager) Get(token string) (*Scene, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.scenes[token]
	if !ok {
		return nil, ErrSceneNotFound
	}
	return s, nil
}

// Touch records activity on the scene behind token.
func (m *Manager) Touch(token string) error {
	s, err := m.Get(token)
	if err != nil {
		return err
	}
	s.Touch()
	return nil
}

// TokenFor returns the token a scene is registered under.
func (m *Manager) TokenFor(sceneID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tokens[sceneID]
	return t, ok
}

// Restart builds a fresh scene with new settings under the same token. The
// previous scene is disposed.
func (m *Manager) Restart(ctx context.Context, token string, settings placement.GameSettings) (*Scene, error) {
	if _, err := m.Get(token); err != nil {
		return nil, err
	}
	s := m.newScene(settings)

	m.mu.Lock()
	old, ok := m.scenes[token]
	if !ok {
		// Ended while the new scene was being built.
		m.mu.Unlock()
		s.Dispose()
		return nil, ErrSceneNotFound
	}
	m.scenes[token] = s
	delete(m.tokens, old.ID)
	m.tokens[s.ID] = token
	m.mu.Unlock()

	destroyed := old.Destroyed()
	old.Dispose()
	log.Printf("[SCENE] Restarted %s -> %s (cubes=%d spheres=%d)", old.ID, s.ID, s.Settings.CubesCount, s.Settings.SpheresCount)

	if m.recorder != nil {
		if err := m.recorder.EndSession(ctx, old.ID, destroyed); err != nil {
			log.Printf("[DB] Failed to end session %s: %v", old.ID, err)
		}
		if err := m.recorder.RecordSession(ctx, s.ID, token, s.Settings); err != nil {
			log.Printf("[DB] Failed to record session %s: %v", s.ID, err)
		}
	}
	m.saveSnapshot(ctx, token, s.Snapshot())

	return s, nil
}

// Pick routes a pointer event to the scene behind token. Any pick, accepted
// or not, counts as activity.
func (m *Manager) Pick(ctx context.Context, token string, event navigation.PickEvent) (navigation.Steering, bool, error) {
	s, err := m.Get(token)
	if err != nil {
		return navigation.Steering{}, false, err
	}

	steering, ok, err := s.Pick(event)
	if errors.Is(err, ErrSceneDisposed) {
		return navigation.Steering{}, false, ErrSceneEnded
	}
	if err != nil {
		return navigation.Steering{}, false, err
	}
	s.Touch()
	if !ok {
		return steering, false, nil
	}

	if m.recorder != nil {
		if err := m.recorder.RecordPick(ctx, s.ID, event, steering); err != nil {
			log.Printf("[DB] Failed to record pick for %s: %v", s.ID, err)
		}
	}
	return steering, true, nil
}

// End disposes the scene behind token and forgets it.
func (m *Manager) End(ctx context.Context, token string) error {
	m.mu.Lock()
	s, ok := m.scenes[token]
	if !ok {
		m.mu.Unlock()
		return ErrSceneNotFound
	}
	delete(m.scenes, token)
	delete(m.tokens, s.ID)
	m.mu.Unlock()

	destroyed := s.Destroyed()
	s.Dispose()
	log.Printf("[SCENE] Ended %s (destroyed=%d)", s.ID, destroyed)

	if m.recorder != nil {
		if err := m.recorder.EndSession(ctx, s.ID, destroyed); err != nil {
			log.Printf("[DB] Failed to end session %s: %v", s.ID, err)
		}
	}
	if m.shared != nil {
		if err := m.shared.DeleteSnapshot(ctx, token); err != nil {
			log.Printf("[REDIS] Failed to delete snapshot for %s: %v", s.ID, err)
		}
	}
	return nil
}

// Count returns the number of live scenes.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.scenes)
}

func (m *Manager) snapshotScenes() map[string]*Scene {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]*Scene, len(m.scenes))
	for token, s := range m.scenes {
		out[token] = s
	}
	return out
}

// saveSnapshot stores the latest snapshot for an hour.
func (m *Manager) saveSnapshot(ctx context.Context, token string, snap Snapshot) {
	if m.shared == nil {
		return
	}
	data, err := json.Marshal(snap)
	if err != nil {
		log.Printf("[REDIS] Failed to marshal snapshot for %s: %v", snap.SceneID, err)
		return
	}
	if err := m.shared.SaveSnapshot(ctx, token, data, time.Hour); err != nil {
		log.Printf("[REDIS] Failed to save snapshot for %s: %v", snap.SceneID, err)
	}
}

// LoadSnapshot reads the last snapshot saved for token by any instance.
func (m *Manager) LoadSnapshot(ctx context.Context, token string) (*Snapshot, error) {
	if m.shared == nil {
		return nil, ErrSceneNotFound
	}
	data, err := m.shared.LoadSnapshot(ctx, token)
	if err != nil {
		return nil, err
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// PublishedEvent is the payload sent on the events channel.
type PublishedEvent struct {
	Type    EventType `json:"type"`
	Origin  string    `json:"origin"`
	Token   string    `json:"token"`
	SceneID string    `json:"scene_id"`
	Event   Event     `json:"event"`
}

// publishEvents fans events out to every server instance.
func (m *Manager) publishEvents(ctx context.Context, token string, events []Event) {
	if m.shared == nil {
		return
	}
	for _, ev := range events {
		b, err := json.Marshal(PublishedEvent{
			Type:    ev.Type,
			Origin:  m.instance,
			Token:   token,
			SceneID: ev.SceneID,
			Event:   ev,
		})
		if err != nil {
			continue
		}
		if err := m.shared.Publish(ctx, b); err != nil {
			log.Printf("[REDIS] publish %s failed for %s: %v", ev.Type, ev.SceneID, err)
		}
	}
}
