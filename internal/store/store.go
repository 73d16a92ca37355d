package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/billiards/internal/models"
	"github.com/playmatatu/billiards/internal/navigation"
	"github.com/playmatatu/billiards/internal/placement"
	"golang.org/x/crypto/bcrypt"
)

var ErrSessionNotFound = errors.New("session not found")

// Store persists scene sessions and accepted picks in Postgres.
type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// HashToken hashes a scene access token for storage.
func HashToken(token string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash token: %w", err)
	}
	return string(h), nil
}

// VerifyToken checks a plain token against its stored hash.
func VerifyToken(hashed, token string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(token)) == nil
}

// RecordSession inserts an ACTIVE session row. Only a bcrypt hash of the
// token is stored.
func (s *Store) RecordSession(ctx context.Context, sceneID, token string, settings placement.GameSettings) error {
	hash, err := HashToken(token)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO game_sessions (scene_id, token_hash, cubes_count, spheres_count, status, created_at) VALUES ($1,$2,$3,$4,$5,NOW())`,
		sceneID, hash, settings.CubesCount, settings.SpheresCount, models.SessionActive,
	)
	if err != nil {
		return fmt.Errorf("insert session %s: %w", sceneID, err)
	}
	return nil
}

// VerifySession reports whether token opens the session stored for sceneID.
func (s *Store) VerifySession(ctx context.Context, sceneID, token string) (bool, error) {
	gs, err := s.GetSession(ctx, sceneID)
	if err != nil {
		return false, err
	}
	return VerifyToken(gs.TokenHash, token), nil
}

// GetSession loads a session by scene ID.
func (s *Store) GetSession(ctx context.Context, sceneID string) (*models.GameSession, error) {
	var gs models.GameSession
	err := s.db.GetContext(ctx, &gs,
		`SELECT id, scene_id, token_hash, cubes_count, spheres_count, status, props_destroyed, pick_count, created_at, ended_at
		 FROM game_sessions WHERE scene_id = $1`, sceneID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", sceneID, err)
	}
	return &gs, nil
}

// RecordPick stores an accepted pick and bumps the session's pick counter.
func (s *Store) RecordPick(ctx context.Context, sceneID string, event navigation.PickEvent, steering navigation.Steering) error {
	if event.Point == nil {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin pick tx: %w", err)
	}
	defer tx.Rollback()

	pe := models.PickEvent{
		TargetX:   event.Point.X,
		TargetZ:   event.Point.Z,
		VelocityX: steering.Velocity.X,
		VelocityZ: steering.Velocity.Z,
		Heading:   steering.Heading,
	}
	if err := tx.GetContext(ctx, &pe.SessionID, `UPDATE game_sessions SET pick_count = pick_count + 1 WHERE scene_id = $1 RETURNING id`, sceneID); err != nil {
		return fmt.Errorf("bump pick count for %s: %w", sceneID, err)
	}

	if _, err := tx.NamedExecContext(ctx,
		`INSERT INTO pick_events (session_id, target_x, target_z, velocity_x, velocity_z, heading, created_at)
		 VALUES (:session_id, :target_x, :target_z, :velocity_x, :velocity_z, :heading, NOW())`, pe,
	); err != nil {
		return fmt.Errorf("insert pick for %s: %w", sceneID, err)
	}

	return tx.Commit()
}

// EndSession marks a session ENDED with its final destruction count.
func (s *Store) EndSession(ctx context.Context, sceneID string, destroyed int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE game_sessions SET status = $1, props_destroyed = $2, ended_at = NOW() WHERE scene_id = $3 AND status = $4`,
		models.SessionEnded, destroyed, sceneID, models.SessionActive,
	)
	if err != nil {
		return fmt.Errorf("end session %s: %w", sceneID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// RecentSessions lists the latest sessions, newest first.
func (s *Store) RecentSessions(ctx context.Context, limit int) ([]models.GameSession, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var out []models.GameSession
	err := s.db.SelectContext(ctx, &out,
		`SELECT id, scene_id, token_hash, cubes_count, spheres_count, status, props_destroyed, pick_count, created_at, ended_at
		 FROM game_sessions ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return out, nil
}

// PickHistory returns a session's accepted picks in the order they happened.
func (s *Store) PickHistory(ctx context.Context, sceneID string, limit int) ([]models.PickEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	out := []models.PickEvent{}
	err := s.db.SelectContext(ctx, &out,
		`SELECT p.id, p.session_id, p.target_x, p.target_z, p.velocity_x, p.velocity_z, p.heading, p.created_at
		 FROM pick_events p JOIN game_sessions g ON g.id = p.session_id
		 WHERE g.scene_id = $1 ORDER BY p.id LIMIT $2`, sceneID, limit)
	if err != nil {
		return nil, fmt.Errorf("list picks for %s: %w", sceneID, err)
	}
	return out, nil
}
