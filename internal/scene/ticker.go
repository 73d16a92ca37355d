package scene

import (
	"context"
	"log"
	"time"
)

// TickListener receives each scene's state after a step. events is empty on
// most ticks.
type TickListener func(token string, snap Snapshot, events []Event)

// Tick steps every live scene by dt and reports to listener.
func (m *Manager) Tick(ctx context.Context, dt float64, listener TickListener) int {
	stepped := 0
	for token, s := range m.snapshotScenes() {
		events, err := s.Step(dt)
		if err != nil {
			// Restarted or ended since the registry was copied.
			continue
		}
		stepped++

		for _, ev := range events {
			if ev.Type == EventPropDestroyed {
				log.Printf("[SCENE] %s destroyed %s %s", ev.SceneID, ev.Kind, ev.PropID)
			}
		}
		if len(events) > 0 {
			m.publishEvents(ctx, token, events)
		}

		if listener != nil {
			listener(token, s.Snapshot(), events)
		}
	}
	return stepped
}

// StartTicker steps all scenes at the configured rate until ctx is done.
// Snapshots are written to Redis once per second.
func (m *Manager) StartTicker(ctx context.Context, listener TickListener) error {
	rate := m.config.TickRateHz
	if rate <= 0 {
		rate = DefaultTickRate
	}
	interval := time.Second / time.Duration(rate)
	dt := interval.Seconds()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("[TICK] Scene ticker started (%d Hz)", rate)
	n := 0
	for {
		select {
		case <-ctx.Done():
			log.Println("[TICK] Scene ticker stopping")
			return ctx.Err()
		case <-ticker.C:
			n++
			persist := n%rate == 0
			m.Tick(ctx, dt, func(token string, snap Snapshot, events []Event) {
				if persist {
					m.saveSnapshot(ctx, token, snap)
				}
				if listener != nil {
					listener(token, snap, events)
				}
			})
		}
	}
}

// ExpireIdle ends scenes whose last activity is older than maxIdle.
// Scenes for which watched reports true are kept and marked active.
func (m *Manager) ExpireIdle(ctx context.Context, maxIdle time.Duration, watched func(token string) bool) int {
	expired := 0
	for token, s := range m.snapshotScenes() {
		if watched != nil && watched(token) {
			s.Touch()
			continue
		}
		if time.Since(s.LastActivity()) < maxIdle {
			continue
		}
		if err := m.End(ctx, token); err == nil {
			expired++
		}
	}
	return expired
}

// StartExpiryChecker ends idle scenes every minute until ctx is done.
// watched may be nil.
func (m *Manager) StartExpiryChecker(ctx context.Context, watched func(token string) bool) error {
	maxIdle := time.Duration(m.config.SceneExpiryMinutes) * time.Minute
	if maxIdle <= 0 {
		maxIdle = 30 * time.Minute
	}

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	log.Println("[EXPIRY] Scene expiry checker started")
	for {
		select {
		case <-ctx.Done():
			log.Println("[EXPIRY] Scene expiry checker stopping")
			return ctx.Err()
		case <-ticker.C:
			if n := m.ExpireIdle(ctx, maxIdle, watched); n > 0 {
				log.Printf("[EXPIRY] Ended %d idle scenes", n)
			}
		}
	}
}
