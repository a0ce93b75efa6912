// Package state holds the authoritative in-memory shot and parameter
// collections and persists them in the background.
package state

import (
	"context"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/verte-zerg/shottrack/internal/court"
	"github.com/verte-zerg/shottrack/internal/metrics"
	"github.com/verte-zerg/shottrack/internal/model"
	"github.com/verte-zerg/shottrack/internal/stats"
)

// DefaultDebounce is the idle time before a changed collection is written.
const DefaultDebounce = 500 * time.Millisecond

// Collection names, as used in logs and metrics.
const (
	CollectionShots      = "shots"
	CollectionParameters = "customParameters"
)

var (
	// ErrNotFound is returned for unknown shot or parameter ids.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned when an input fails validation.
	ErrInvalidInput = errors.New("invalid input")
)

// Backend is the durable storage behind a State.
type Backend interface {
	ListShots(ctx context.Context) ([]model.Shot, error)
	ReplaceShots(ctx context.Context, shots []model.Shot) error
	ListParameters(ctx context.Context) ([]model.CustomParameter, error)
	ReplaceParameters(ctx context.Context, params []model.CustomParameter) error
}

// Options configures a State. Zero values pick defaults.
type Options struct {
	Debounce time.Duration
	Logger   *zap.Logger
	Metrics  *metrics.Manager
	Table    court.Table
	Now      func() time.Time
	NewID    func() model.ID
	// OnSaveError is called after a durable write fails. Memory is untouched
	// and the collection stays dirty until a later save succeeds.
	OnSaveError func(collection string, err error)
}

// State is the single owner of the shot and parameter collections. All
// methods are safe for concurrent use.
type State struct {
	backend  Backend
	log      *zap.Logger
	metrics  *metrics.Manager
	table    court.Table
	now      func() time.Time
	newID    func() model.ID
	onError  func(string, error)
	validate *validator.Validate

	mu     sync.Mutex
	shots  []model.Shot
	params []model.CustomParameter
	dirty  map[string]bool
	gen    map[string]uint64
	closed bool

	saveMu   sync.Mutex
	debounce map[string]func(func())
}

// New creates an empty State backed by backend. Call Load to read stored data.
func New(backend Backend, opts Options) *State {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Table == nil {
		opts.Table = court.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = func() model.ID { return model.ID(uuid.NewString()) }
	}
	return &State{
		backend:  backend,
		log:      opts.Logger,
		metrics:  opts.Metrics,
		table:    opts.Table,
		now:      opts.Now,
		newID:    opts.NewID,
		onError:  opts.OnSaveError,
		validate: newValidator(),
		dirty:    map[string]bool{},
		gen:      map[string]uint64{},
		debounce: map[string]func(func()){
			CollectionShots:      debounce.New(opts.Debounce),
			CollectionParameters: debounce.New(opts.Debounce),
		},
	}
}

// Open creates a State and loads both collections from backend.
func Open(ctx context.Context, backend Backend, opts Options) (*State, error) {
	s := New(backend, opts)
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Load replaces memory with the stored collections.
func (s *State) Load(ctx context.Context) error {
	shots, err := s.backend.ListShots(ctx)
	if err != nil {
		return errors.Wrap(err, "load shots")
	}
	params, err := s.backend.ListParameters(ctx)
	if err != nil {
		return errors.Wrap(err, "load parameters")
	}
	s.mu.Lock()
	s.shots = shots
	s.params = params
	s.dirty = map[string]bool{}
	s.mu.Unlock()
	s.metrics.SetSizes(len(shots), len(params))
	s.log.Debug("loaded state", zap.Int("shots", len(shots)), zap.Int("parameters", len(params)))
	return nil
}

// Table returns the segment table the state classifies shots with.
func (s *State) Table() court.Table {
	return s.table
}

// Shots returns a copy of the shots in recording order.
func (s *State) Shots() []model.Shot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneShots(s.shots)
}

// Parameters returns a copy of the parameter definitions in creation order.
func (s *State) Parameters() []model.CustomParameter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneParams(s.params)
}

// Summary aggregates a snapshot of the current collections.
func (s *State) Summary() stats.Summary {
	s.mu.Lock()
	shots := cloneShots(s.shots)
	params := cloneParams(s.params)
	s.mu.Unlock()
	return stats.Aggregate(shots, params, s.table)
}

// Flush writes every dirty collection now.
func (s *State) Flush(ctx context.Context) error {
	errShots := s.save(ctx, CollectionShots)
	errParams := s.save(ctx, CollectionParameters)
	return errors.CombineErrors(errShots, errParams)
}

// Close stops background saves and writes pending changes.
func (s *State) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return s.Flush(ctx)
}

// markDirty must be called with mu held.
func (s *State) markDirty(collection string) {
	s.dirty[collection] = true
	s.gen[collection]++
	if s.closed {
		return
	}
	s.debounce[collection](func() {
		s.mu.Lock()
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return
		}
		if err := s.save(context.Background(), collection); err != nil {
			s.log.Debug("debounced save failed", zap.String("collection", collection), zap.Error(err))
		}
	})
}

func (s *State) save(ctx context.Context, collection string) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	if !s.dirty[collection] {
		s.mu.Unlock()
		return nil
	}
	gen := s.gen[collection]
	var write func() error
	switch collection {
	case CollectionShots:
		shots := cloneShots(s.shots)
		write = func() error { return s.backend.ReplaceShots(ctx, shots) }
	default:
		params := cloneParams(s.params)
		write = func() error { return s.backend.ReplaceParameters(ctx, params) }
	}
	s.mu.Unlock()

	start := time.Now()
	err := write()
	s.metrics.ObserveSave(collection, time.Since(start), err)
	if err != nil {
		s.log.Error("failed to save", zap.String("collection", collection), zap.Error(err))
		if s.onError != nil {
			s.onError(collection, err)
		}
		return errors.Wrapf(err, "save %s", collection)
	}

	s.mu.Lock()
	if s.gen[collection] == gen {
		s.dirty[collection] = false
	}
	s.mu.Unlock()
	s.log.Debug("saved", zap.String("collection", collection))
	return nil
}

func (s *State) publishSizes() {
	s.metrics.SetSizes(len(s.shots), len(s.params))
}

func cloneShots(in []model.Shot) []model.Shot {
	out := make([]model.Shot, len(in))
	for i, shot := range in {
		out[i] = shot.Clone()
	}
	return out
}

func cloneParams(in []model.CustomParameter) []model.CustomParameter {
	out := make([]model.CustomParameter, len(in))
	for i, p := range in {
		out[i] = p.Clone()
	}
	return out
}
