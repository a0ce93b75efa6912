package state

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/shottrack/internal/export"
	"github.com/verte-zerg/shottrack/internal/model"
)

type fakeBackend struct {
	mu          sync.Mutex
	shots       []model.Shot
	params      []model.CustomParameter
	shotWrites  int
	paramWrites int
	fail        error
}

func (f *fakeBackend) ListShots(context.Context) ([]model.Shot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shots, nil
}

func (f *fakeBackend) ListParameters(context.Context) ([]model.CustomParameter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.params, nil
}

func (f *fakeBackend) ReplaceShots(_ context.Context, shots []model.Shot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.shots = shots
	f.shotWrites++
	return nil
}

func (f *fakeBackend) ReplaceParameters(_ context.Context, params []model.CustomParameter) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.params = params
	f.paramWrites++
	return nil
}

func (f *fakeBackend) writes() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shotWrites, f.paramWrites
}

func sequentialIDs() func() model.ID {
	n := 0
	return func() model.ID {
		n++
		return model.ID(fmt.Sprintf("id-%d", n))
	}
}

func newTestState(t *testing.T, backend *fakeBackend, debounce time.Duration) *State {
	t.Helper()
	now := time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)
	s, err := Open(context.Background(), backend, Options{
		Debounce: debounce,
		Now:      func() time.Time { return now },
		NewID:    sequentialIDs(),
	})
	require.NoError(t, err)
	return s
}

func at(x, y float64) *model.Point { return &model.Point{X: x, Y: y} }

func TestAddShotAssignsIDAndSuggestsValue(t *testing.T) {
	s := newTestState(t, &fakeBackend{}, time.Hour)

	shot, err := s.AddShot(ShotInput{Coordinates: &model.Point{X: 10, Y: 90}, Made: true, ContestLevel: "Contested"})
	require.NoError(t, err)
	assert.Equal(t, model.ID("id-1"), shot.ID)
	assert.Equal(t, model.ShotValueThree, shot.ShotValue)
	assert.Equal(t, time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC), shot.Timestamp)

	paint, err := s.AddShot(ShotInput{Coordinates: &model.Point{X: 50, Y: 80}})
	require.NoError(t, err)
	assert.Equal(t, model.ShotValueTwo, paint.ShotValue)

	explicit, err := s.AddShot(ShotInput{Coordinates: &model.Point{X: 50, Y: 80}, ShotValue: model.ShotValueThree})
	require.NoError(t, err)
	assert.Equal(t, model.ShotValueThree, explicit.ShotValue)

	assert.Len(t, s.Shots(), 3)
}

func TestAddShotValidation(t *testing.T) {
	s := newTestState(t, &fakeBackend{}, time.Hour)
	_, err := s.AddParameter(ParameterInput{Name: "Fatigue", Type: model.ParameterNumeric, Min: 0, Max: 10})
	require.NoError(t, err)
	_, err = s.AddParameter(ParameterInput{Name: "Hand", Type: model.ParameterCategorical, Options: []string{"Left", "Right"}})
	require.NoError(t, err)

	cases := map[string]ShotInput{
		"no coordinates":   {Made: true},
		"unknown contest":  {Coordinates: at(50, 80), ContestLevel: "Heavily"},
		"bad shot value":   {Coordinates: at(50, 80), ShotValue: "4"},
		"negative dribble": {Coordinates: at(50, 80), DribbleCount: -1},
		"off court":        {Coordinates: at(101, 5)},
		"unknown field":    {Coordinates: at(50, 80), CustomFields: model.CustomFields{"Mood": model.TextValue("ok")}},
		"numeric as text":  {Coordinates: at(50, 80), CustomFields: model.CustomFields{"Fatigue": model.TextValue("high")}},
		"numeric range":    {Coordinates: at(50, 80), CustomFields: model.CustomFields{"Fatigue": model.NumberValue(11)}},
		"unknown option":   {Coordinates: at(50, 80), CustomFields: model.CustomFields{"Hand": model.TextValue("Both")}},
	}
	for name, in := range cases {
		_, err := s.AddShot(in)
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", name, err)
		}
	}
	assert.Empty(t, s.Shots())

	shot, err := s.AddShot(ShotInput{Coordinates: at(50, 80), CustomFields: model.CustomFields{
		"Fatigue": model.TextValue("7"),
		"Hand":    model.TextValue(""),
	}})
	require.NoError(t, err)
	assert.Equal(t, model.CustomFields{"Fatigue": model.NumberValue(7)}, shot.CustomFields)
}

func TestAddShotRequiresCoordinates(t *testing.T) {
	s := newTestState(t, &fakeBackend{}, time.Hour)
	_, err := s.AddShot(ShotInput{Made: true})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, s.Shots())

	shot, err := s.AddShot(ShotInput{Coordinates: at(50, 80), Made: true})
	require.NoError(t, err)
	assert.True(t, shot.ShotValue.Valid())
}

func TestDeleteAndClearShots(t *testing.T) {
	s := newTestState(t, &fakeBackend{}, time.Hour)
	first, err := s.AddShot(ShotInput{Coordinates: at(50, 80), Made: true})
	require.NoError(t, err)
	_, err = s.AddShot(ShotInput{Coordinates: at(10, 90)})
	require.NoError(t, err)

	assert.True(t, s.DeleteShot(first.ID))
	assert.False(t, s.DeleteShot(first.ID))
	assert.Len(t, s.Shots(), 1)

	s.ClearShots()
	assert.Empty(t, s.Shots())
	assert.Equal(t, 0, s.Summary().Overall.Total)
}

func TestShotsReturnsCopies(t *testing.T) {
	s := newTestState(t, &fakeBackend{}, time.Hour)
	_, err := s.AddShot(ShotInput{Coordinates: &model.Point{X: 50, Y: 80}})
	require.NoError(t, err)

	shots := s.Shots()
	shots[0].Coordinates.X = 0
	shots[0].Made = true
	assert.Equal(t, 50.0, s.Shots()[0].Coordinates.X)
	assert.False(t, s.Shots()[0].Made)
}

func TestParameterLifecycle(t *testing.T) {
	s := newTestState(t, &fakeBackend{}, time.Hour)

	p, err := s.AddParameter(ParameterInput{Name: " Hand ", Type: model.ParameterCategorical, Options: []string{"", "Left", " Right ", "Left"}})
	require.NoError(t, err)
	assert.Equal(t, "Hand", p.Name)
	assert.Equal(t, []string{"Left", "Right"}, p.Options)
	assert.Equal(t, DefaultIcon, p.Icon)

	_, err = s.AddParameter(ParameterInput{Name: "Hand", Type: model.ParameterCategorical, Options: []string{"x"}})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = s.AddParameter(ParameterInput{Name: "Blank", Type: model.ParameterCategorical, Options: []string{" "}})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = s.AddParameter(ParameterInput{Name: "Range", Type: model.ParameterNumeric, Min: 5, Max: 5})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = s.AddParameter(ParameterInput{Name: "Kind", Type: "boolean"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	updated, err := s.UpdateParameter(p.ID, ParameterInput{Name: "Hand", Type: model.ParameterNumeric, Min: 0, Max: 3, Icon: "✋"})
	require.NoError(t, err)
	assert.Equal(t, p.ID, updated.ID)
	assert.Nil(t, updated.Options)
	assert.Equal(t, "✋", updated.Icon)

	_, err = s.UpdateParameter("missing", ParameterInput{Name: "X", Type: model.ParameterNumeric, Min: 0, Max: 1})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.True(t, s.DeleteParameter(p.ID))
	assert.False(t, s.DeleteParameter(p.ID))
	assert.Empty(t, s.Parameters())
}

func TestDebouncedSaveCoalesces(t *testing.T) {
	backend := &fakeBackend{}
	s := newTestState(t, backend, 20*time.Millisecond)
	for i := 0; i < 5; i++ {
		_, err := s.AddShot(ShotInput{Coordinates: at(50, 80), Made: i%2 == 0})
		require.NoError(t, err)
	}
	require.Eventually(t, func() bool {
		shots, _ := backend.writes()
		return shots == 1
	}, time.Second, 5*time.Millisecond)

	stored, err := backend.ListShots(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored, 5)

	_, params := backend.writes()
	assert.Equal(t, 0, params)
}

func TestFlushAndClose(t *testing.T) {
	backend := &fakeBackend{}
	s := newTestState(t, backend, time.Hour)
	_, err := s.AddShot(ShotInput{Coordinates: at(50, 80)})
	require.NoError(t, err)
	_, err = s.AddParameter(ParameterInput{Name: "Hand", Type: model.ParameterCategorical, Options: []string{"L"}})
	require.NoError(t, err)

	require.NoError(t, s.Flush(context.Background()))
	shots, params := backend.writes()
	assert.Equal(t, 1, shots)
	assert.Equal(t, 1, params)

	require.NoError(t, s.Flush(context.Background()))
	shots, params = backend.writes()
	assert.Equal(t, 1, shots, "clean collections are not rewritten")
	assert.Equal(t, 1, params)

	_, err = s.AddShot(ShotInput{Coordinates: at(10, 90)})
	require.NoError(t, err)
	require.NoError(t, s.Close(context.Background()))
	shots, _ = backend.writes()
	assert.Equal(t, 2, shots)
}

func TestSaveFailureKeepsMemory(t *testing.T) {
	backend := &fakeBackend{fail: errors.New("database or disk is full")}
	var mu sync.Mutex
	var reported []string
	s, err := Open(context.Background(), backend, Options{
		Debounce: time.Hour,
		OnSaveError: func(collection string, _ error) {
			mu.Lock()
			reported = append(reported, collection)
			mu.Unlock()
		},
	})
	require.NoError(t, err)

	_, err = s.AddShot(ShotInput{Coordinates: at(50, 80), Made: true})
	require.NoError(t, err)
	require.Error(t, s.Flush(context.Background()))
	assert.Len(t, s.Shots(), 1)
	mu.Lock()
	assert.Equal(t, []string{CollectionShots}, reported)
	mu.Unlock()

	backend.mu.Lock()
	backend.fail = nil
	backend.mu.Unlock()
	require.NoError(t, s.Flush(context.Background()))
	stored, err := backend.ListShots(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestExportImportRoundTrip(t *testing.T) {
	src := newTestState(t, &fakeBackend{}, time.Hour)
	_, err := src.AddParameter(ParameterInput{Name: "Fatigue", Type: model.ParameterNumeric, Min: 0, Max: 10})
	require.NoError(t, err)
	_, err = src.AddShot(ShotInput{Coordinates: &model.Point{X: 50, Y: 60}, Made: true, ShotType: "Jumpshot",
		CustomFields: model.CustomFields{"Fatigue": model.NumberValue(3)}})
	require.NoError(t, err)

	data, err := export.EncodeBackup(src.Export(time.Now()))
	require.NoError(t, err)

	dst := newTestState(t, &fakeBackend{}, time.Hour)
	require.True(t, dst.Import(data))
	assert.Equal(t, src.Shots(), dst.Shots())
	assert.Equal(t, src.Parameters(), dst.Parameters())
	assert.Equal(t, src.Summary(), dst.Summary())
}

func TestImportRejectsWithoutPartialApply(t *testing.T) {
	s := newTestState(t, &fakeBackend{}, time.Hour)
	_, err := s.AddShot(ShotInput{Coordinates: at(50, 80), Made: true})
	require.NoError(t, err)

	assert.False(t, s.Import([]byte(`{"shots": []}`)))
	assert.False(t, s.Import([]byte(`{"shots": [], "customParameters": "nope"}`)))
	assert.False(t, s.Import([]byte(`not json`)))
	assert.Len(t, s.Shots(), 1)

	assert.True(t, s.Import([]byte(`{"shots": [{"made": true}], "customParameters": []}`)))
	shots := s.Shots()
	require.Len(t, shots, 1)
	assert.NotEmpty(t, shots[0].ID)
	assert.Nil(t, shots[0].Coordinates)
	assert.Equal(t, 1, s.Summary().MissingCoordinates)
}

func TestLoadReadsBackend(t *testing.T) {
	backend := &fakeBackend{
		shots:  []model.Shot{{ID: "a", Coordinates: &model.Point{X: 50, Y: 80}, Made: true}},
		params: []model.CustomParameter{{ID: "p", Name: "Hand", Type: model.ParameterCategorical, Options: []string{"L"}}},
	}
	s := newTestState(t, backend, time.Hour)
	assert.Len(t, s.Shots(), 1)
	assert.Len(t, s.Parameters(), 1)

	paint, ok := s.Summary().Segment("Paint")
	require.True(t, ok)
	assert.Equal(t, 1, paint.Made)

	require.NoError(t, s.Flush(context.Background()))
	shots, params := backend.writes()
	assert.Equal(t, 0, shots)
	assert.Equal(t, 0, params)
}
