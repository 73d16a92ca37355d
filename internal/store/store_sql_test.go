package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/billiards/internal/models"
	"github.com/playmatatu/billiards/internal/navigation"
	"github.com/playmatatu/billiards/internal/placement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sessionColumns = []string{
	"id", "scene_id", "token_hash", "cubes_count", "spheres_count",
	"status", "props_destroyed", "pick_count", "created_at", "ended_at",
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(sqlx.NewDb(db, "postgres")), mock
}

func q(prefix string) string {
	return regexp.QuoteMeta(prefix)
}

func TestRecordSession(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec(q("INSERT INTO game_sessions (scene_id, token_hash, cubes_count, spheres_count, status, created_at)")).
		WithArgs("scene-1", sqlmock.AnyArg(), 2, 3, models.SessionActive).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := st.RecordSession(context.Background(), "scene-1", "tok", placement.GameSettings{CubesCount: 2, SpheresCount: 3})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordSessionInsertError(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec(q("INSERT INTO game_sessions")).WillReturnError(errors.New("duplicate key"))

	err := st.RecordSession(context.Background(), "scene-1", "tok", placement.GameSettings{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scene-1")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordPick(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(q("UPDATE game_sessions SET pick_count = pick_count + 1 WHERE scene_id = $1 RETURNING id")).
		WithArgs("scene-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectExec(q("INSERT INTO pick_events (session_id, target_x, target_z, velocity_x, velocity_z, heading, created_at)")).
		WithArgs(7, 3.0, 4.0, 0.6, 0.8, 0.5).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := st.RecordPick(context.Background(), "scene-1",
		navigation.PickEvent{Kind: navigation.EventPick, Point: &navigation.Point3D{X: 3, Z: 4}},
		navigation.Steering{Velocity: navigation.Point3D{X: 0.6, Z: 0.8}, Heading: 0.5},
	)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordPickRollsBackOnUnknownSession(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(q("UPDATE game_sessions SET pick_count")).
		WithArgs("gone").
		WillReturnError(errors.New("sql: no rows in result set"))
	mock.ExpectRollback()

	err := st.RecordPick(context.Background(), "gone",
		navigation.PickEvent{Kind: navigation.EventPick, Point: &navigation.Point3D{X: 1}},
		navigation.Steering{},
	)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordPickWithoutPointSkipsDatabase(t *testing.T) {
	st, mock := newMockStore(t)

	require.NoError(t, st.RecordPick(context.Background(), "scene-1", navigation.PickEvent{}, navigation.Steering{}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEndSession(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec(q("UPDATE game_sessions SET status = $1, props_destroyed = $2, ended_at = NOW()")).
		WithArgs(models.SessionEnded, 4, "scene-1", models.SessionActive).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("UPDATE game_sessions SET status")).
		WithArgs(models.SessionEnded, 4, "scene-1", models.SessionActive).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, st.EndSession(context.Background(), "scene-1", 4))
	assert.ErrorIs(t, st.EndSession(context.Background(), "scene-1", 4), ErrSessionNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentSessionsLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"zero uses default", 0, 20},
		{"too large uses default", 500, 20},
		{"explicit", 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, mock := newMockStore(t)
			mock.ExpectQuery(q("SELECT id, scene_id")).
				WithArgs(tt.want).
				WillReturnRows(sqlmock.NewRows(sessionColumns).
					AddRow(2, "scene-2", "h", 1, 1, models.SessionActive, 0, 0, time.Now(), nil))

			sessions, err := st.RecentSessions(context.Background(), tt.limit)
			require.NoError(t, err)
			require.Len(t, sessions, 1)
			assert.Equal(t, "scene-2", sessions[0].SceneID)
			assert.False(t, sessions[0].EndedAt.Valid)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGetSessionNotFound(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(q("SELECT id, scene_id")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(sessionColumns))

	_, err := st.GetSession(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifySession(t *testing.T) {
	hash, err := HashToken("tok")
	require.NoError(t, err)

	st, mock := newMockStore(t)
	for i := 0; i < 2; i++ {
		mock.ExpectQuery(q("SELECT id, scene_id")).
			WithArgs("scene-1").
			WillReturnRows(sqlmock.NewRows(sessionColumns).
				AddRow(1, "scene-1", hash, 2, 2, models.SessionActive, 0, 3, time.Now(), nil))
	}

	ok, err := st.VerifySession(context.Background(), "scene-1", "tok")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = st.VerifySession(context.Background(), "scene-1", "other")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPickHistory(t *testing.T) {
	st, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery(q("SELECT p.id, p.session_id")).
		WithArgs("scene-1", 100).
		WillReturnRows(sqlmock.NewRows([]string{"id", "session_id", "target_x", "target_z", "velocity_x", "velocity_z", "heading", "created_at"}).
			AddRow(1, 7, 3.0, 4.0, 0.6, 0.8, 0.5, now).
			AddRow(2, 7, -1.0, 0.0, -1.0, 0.0, 3.1, now))

	picks, err := st.PickHistory(context.Background(), "scene-1", 0)
	require.NoError(t, err)
	require.Len(t, picks, 2)
	assert.Equal(t, 7, picks[0].SessionID)
	assert.InDelta(t, 3.0, picks[0].TargetX, 1e-9)
	assert.InDelta(t, 3.1, picks[1].Heading, 1e-9)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPickHistoryEmpty(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(q("SELECT p.id")).
		WithArgs("scene-1", 10).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	picks, err := st.PickHistory(context.Background(), "scene-1", 10)
	require.NoError(t, err)
	assert.NotNil(t, picks)
	assert.Empty(t, picks)
	require.NoError(t, mock.ExpectationsWereMet())
}
