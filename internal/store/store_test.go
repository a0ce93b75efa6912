package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"modernc.org/sqlite"

	"github.com/verte-zerg/shottrack/internal/model"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "shottrack.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
	})
	return s
}

func TestOpenInitialisesMeta(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	version, err := s.AppVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, AppVersion, version)

	saved, err := s.LastSaved(ctx)
	require.NoError(t, err)
	assert.Nil(t, saved)

	shots, err := s.ListShots(ctx)
	require.NoError(t, err)
	assert.Empty(t, shots)
}

func TestReplaceShotsRoundTrip(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	shots := []model.Shot{
		{ID: "b", Coordinates: &model.Point{X: 12.5, Y: 90}, Made: true, ShotValue: model.ShotValueThree,
			ContestLevel: "Contested", ShotCreationType: "Catch and shoot", DribbleCount: 1,
			CustomFields: model.CustomFields{"Hand": model.TextValue("Left"), "Fatigue": model.NumberValue(4)},
			Timestamp: now.Add(-time.Minute)},
		{ID: "a", ShotValue: model.ShotValueTwo, ShotType: "Hook", Timestamp: now},
	}
	require.NoError(t, s.ReplaceShots(ctx, shots))

	got, err := s.ListShots(ctx)
	require.NoError(t, err)
	assert.Equal(t, shots, got)

	saved, err := s.LastSaved(ctx)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.True(t, now.Equal(*saved))

	require.NoError(t, s.ReplaceShots(ctx, shots[1:]))
	got, err = s.ListShots(ctx)
	require.NoError(t, err)
	assert.Equal(t, shots[1:], got)
}

func TestReplaceParametersRoundTrip(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	params := []model.CustomParameter{
		{ID: "1709316000001", Name: "Hand", Type: model.ParameterCategorical, Options: []string{"Left", "Right"}, Icon: "✋"},
		{ID: "p2", Name: "Fatigue", Type: model.ParameterNumeric, Min: 0, Max: 10, Icon: "📊"},
	}
	require.NoError(t, s.ReplaceParameters(ctx, params))

	got, err := s.ListParameters(ctx)
	require.NoError(t, err)
	assert.Equal(t, params, got)

	require.NoError(t, s.ReplaceParameters(ctx, nil))
	got, err = s.ListParameters(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestInfo(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	require.NoError(t, s.ReplaceShots(ctx, []model.Shot{{ID: "1"}, {ID: "2"}}))
	require.NoError(t, s.ReplaceParameters(ctx, []model.CustomParameter{{ID: "p", Name: "Hand", Type: model.ParameterCategorical, Options: []string{"L"}}}))

	info, err := s.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, info.Shots)
	assert.Equal(t, 1, info.Parameters)
	assert.Positive(t, info.SizeBytes)
	assert.NotNil(t, info.LastSaved)
	assert.Equal(t, AppVersion, info.AppVersion)
	assert.Equal(t, s.Path(), info.Path)
}

func TestIsQuotaExceeded(t *testing.T) {
	assert.False(t, IsQuotaExceeded(nil))
	assert.False(t, IsQuotaExceeded(errors.New("boom")))

	s := openTemp(t)
	ctx := context.Background()

	_, err := s.db.ExecContext(ctx, `INSERT INTO meta (key) VALUES ('broken')`)
	require.Error(t, err)
	var se *sqlite.Error
	require.True(t, errors.As(err, &se))
	assert.False(t, IsQuotaExceeded(err))

	var pages int64
	require.NoError(t, s.db.QueryRowContext(ctx, `PRAGMA page_count`).Scan(&pages))
	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`PRAGMA max_page_count = %d`, pages))
	require.NoError(t, err)

	big := strings.Repeat("x", 64*1024)
	shots := make([]model.Shot, 0, 8)
	for i := 0; i < 8; i++ {
		shots = append(shots, model.Shot{ID: model.ID(fmt.Sprint(i)), CustomFields: model.CustomFields{"Notes": model.TextValue(big)}})
	}
	err = s.ReplaceShots(ctx, shots)
	require.Error(t, err)
	assert.True(t, IsQuotaExceeded(err), "unexpected error: %v", err)
}
