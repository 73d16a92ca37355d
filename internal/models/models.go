package models

import (
	"database/sql"
	"time"
)

// GameSession is one sandbox scene run. A restart ends the current row and
// starts a new one.
type GameSession struct {
	ID             int          `db:"id" json:"id"`
	SceneID        string       `db:"scene_id" json:"scene_id"`
	TokenHash      string       `db:"token_hash" json:"-"`
	CubesCount     int          `db:"cubes_count" json:"cubes_count"`
	SpheresCount   int          `db:"spheres_count" json:"spheres_count"`
	Status         string       `db:"status" json:"status"`
	PropsDestroyed int          `db:"props_destroyed" json:"props_destroyed"`
	PickCount      int          `db:"pick_count" json:"pick_count"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
	EndedAt        sql.NullTime `db:"ended_at" json:"ended_at,omitempty"`
}

// PickEvent is an accepted click that steered the car.
type PickEvent struct {
	ID        int       `db:"id" json:"id"`
	SessionID int       `db:"session_id" json:"session_id"`
	TargetX   float64   `db:"target_x" json:"target_x"`
	TargetZ   float64   `db:"target_z" json:"target_z"`
	VelocityX float64   `db:"velocity_x" json:"velocity_x"`
	VelocityZ float64   `db:"velocity_z" json:"velocity_z"`
	Heading   float64   `db:"heading" json:"heading"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

const (
	SessionActive = "ACTIVE"
	SessionEnded  = "ENDED"
)
