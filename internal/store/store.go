// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/verte-zerg/shottrack/internal/model"
)

// AppVersion is recorded in the meta table on first open.
const AppVersion = "1.0.0"

const (
	metaLastSaved  = "last_saved"
	metaAppVersion = "app_version"
)

// Store wraps SQLite access for shots and parameter definitions.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Info describes the durable storage.
type Info struct {
	Path       string
	SizeBytes  int64
	Shots      int
	Parameters int
	LastSaved  *time.Time
	AppVersion string
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "create data dir")
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)
	store := &Store{db: db, path: path, now: time.Now}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS shots (
			position INTEGER PRIMARY KEY,
			id TEXT NOT NULL,
			x REAL,
			y REAL,
			made INTEGER NOT NULL,
			shot_value TEXT NOT NULL,
			contest_level TEXT NOT NULL,
			shot_creation_type TEXT NOT NULL,
			defense_type TEXT NOT NULL,
			shot_type TEXT NOT NULL,
			post_move TEXT NOT NULL,
			dribble_count INTEGER NOT NULL,
			custom_fields TEXT NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS custom_parameters (
			position INTEGER PRIMARY KEY,
			id TEXT NOT NULL,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			options TEXT NOT NULL,
			min_value INTEGER NOT NULL,
			max_value INTEGER NOT NULL,
			icon TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`INSERT OR IGNORE INTO meta (key, value) VALUES ('` + metaAppVersion + `', '` + AppVersion + `');`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return errors.Wrap(err, "migrate")
		}
	}
	return nil
}

// ListShots returns all shots in recording order.
func (s *Store) ListShots(ctx context.Context) ([]model.Shot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, x, y, made, shot_value, contest_level, shot_creation_type,
		defense_type, shot_type, post_move, dribble_count, custom_fields, recorded_at
		FROM shots ORDER BY position ASC`)
	if err != nil {
		return nil, errors.Wrap(err, "query shots")
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var shots []model.Shot
	for rows.Next() {
		var (
			shot       model.Shot
			id         string
			x, y       sql.NullFloat64
			shotValue  string
			fields     string
			recordedAt string
		)
		if err := rows.Scan(&id, &x, &y, &shot.Made, &shotValue, &shot.ContestLevel, &shot.ShotCreationType,
			&shot.DefenseType, &shot.ShotType, &shot.PostMove, &shot.DribbleCount, &fields, &recordedAt); err != nil {
			return nil, errors.Wrap(err, "scan shot")
		}
		shot.ID = model.ID(id)
		shot.ShotValue = model.ShotValue(shotValue)
		if x.Valid && y.Valid {
			shot.Coordinates = &model.Point{X: x.Float64, Y: y.Float64}
		}
		if fields != "" && fields != "null" {
			if err := sonic.UnmarshalString(fields, &shot.CustomFields); err != nil {
				return nil, errors.Wrapf(err, "decode custom fields of shot %s", id)
			}
		}
		if recordedAt != "" {
			ts, err := time.Parse(time.RFC3339Nano, recordedAt)
			if err != nil {
				return nil, errors.Wrapf(err, "parse timestamp of shot %s", id)
			}
			shot.Timestamp = ts
		}
		shots = append(shots, shot)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate shots")
	}
	return shots, nil
}

// ReplaceShots overwrites the stored shots with the given collection.
func (s *Store) ReplaceShots(ctx context.Context, shots []model.Shot) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM shots`); err != nil {
		return errors.Wrap(err, "clear shots")
	}
	if len(shots) > 0 {
		stmt, perr := tx.PrepareContext(ctx,
			`INSERT INTO shots (position, id, x, y, made, shot_value, contest_level, shot_creation_type,
			 defense_type, shot_type, post_move, dribble_count, custom_fields, recorded_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if perr != nil {
			err = errors.Wrap(perr, "prepare shot insert")
			return err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for i, shot := range shots {
			var x, y sql.NullFloat64
			if shot.Coordinates != nil {
				x = sql.NullFloat64{Float64: shot.Coordinates.X, Valid: true}
				y = sql.NullFloat64{Float64: shot.Coordinates.Y, Valid: true}
			}
			fields := "null"
			if len(shot.CustomFields) > 0 {
				fields, err = sonic.MarshalString(shot.CustomFields)
				if err != nil {
					return errors.Wrapf(err, "encode custom fields of shot %s", shot.ID)
				}
			}
			if _, err = stmt.ExecContext(ctx, i, string(shot.ID), x, y, shot.Made, string(shot.ShotValue),
				shot.ContestLevel, shot.ShotCreationType, shot.DefenseType, shot.ShotType, shot.PostMove,
				shot.DribbleCount, fields, formatTime(shot.Timestamp)); err != nil {
				return errors.Wrapf(err, "insert shot %s", shot.ID)
			}
		}
	}
	if err = s.touch(ctx, tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "commit shots")
	}
	return nil
}

// ListParameters returns the parameter definitions in creation order.
func (s *Store) ListParameters(ctx context.Context) ([]model.CustomParameter, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, type, options, min_value, max_value, icon
		FROM custom_parameters ORDER BY position ASC`)
	if err != nil {
		return nil, errors.Wrap(err, "query parameters")
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var params []model.CustomParameter
	for rows.Next() {
		var (
			p       model.CustomParameter
			id      string
			typ     string
			options string
		)
		if err := rows.Scan(&id, &p.Name, &typ, &options, &p.Min, &p.Max, &p.Icon); err != nil {
			return nil, errors.Wrap(err, "scan parameter")
		}
		p.ID = model.ID(id)
		p.Type = model.ParameterType(typ)
		if options != "" && options != "null" {
			if err := sonic.UnmarshalString(options, &p.Options); err != nil {
				return nil, errors.Wrapf(err, "decode options of parameter %s", id)
			}
		}
		params = append(params, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate parameters")
	}
	return params, nil
}

// ReplaceParameters overwrites the stored parameter definitions.
func (s *Store) ReplaceParameters(ctx context.Context, params []model.CustomParameter) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM custom_parameters`); err != nil {
		return errors.Wrap(err, "clear parameters")
	}
	for i, p := range params {
		options := "null"
		if p.Options != nil {
			options, err = sonic.MarshalString(p.Options)
			if err != nil {
				return errors.Wrapf(err, "encode options of parameter %s", p.ID)
			}
		}
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO custom_parameters (position, id, name, type, options, min_value, max_value, icon)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			i, string(p.ID), p.Name, string(p.Type), options, p.Min, p.Max, p.Icon); err != nil {
			return errors.Wrapf(err, "insert parameter %s", p.ID)
		}
	}
	if err = s.touch(ctx, tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "commit parameters")
	}
	return nil
}

// LastSaved returns the time of the most recent write, or nil before the first.
func (s *Store) LastSaved(ctx context.Context) (*time.Time, error) {
	value, ok, err := s.meta(ctx, metaLastSaved)
	if err != nil || !ok {
		return nil, err
	}
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return nil, errors.Wrap(err, "parse last saved")
	}
	return &ts, nil
}

// AppVersion returns the data version marker.
func (s *Store) AppVersion(ctx context.Context) (string, error) {
	value, _, err := s.meta(ctx, metaAppVersion)
	return value, err
}

// Info reports counts and the on-disk size of the database.
func (s *Store) Info(ctx context.Context) (Info, error) {
	info := Info{Path: s.path}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM shots`).Scan(&info.Shots); err != nil {
		return Info{}, errors.Wrap(err, "count shots")
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM custom_parameters`).Scan(&info.Parameters); err != nil {
		return Info{}, errors.Wrap(err, "count parameters")
	}
	var pageCount, pageSize int64
	if err := s.db.QueryRowContext(ctx, `PRAGMA page_count`).Scan(&pageCount); err != nil {
		return Info{}, errors.Wrap(err, "page count")
	}
	if err := s.db.QueryRowContext(ctx, `PRAGMA page_size`).Scan(&pageSize); err != nil {
		return Info{}, errors.Wrap(err, "page size")
	}
	info.SizeBytes = pageCount * pageSize
	lastSaved, err := s.LastSaved(ctx)
	if err != nil {
		return Info{}, err
	}
	info.LastSaved = lastSaved
	version, err := s.AppVersion(ctx)
	if err != nil {
		return Info{}, err
	}
	info.AppVersion = version
	return info, nil
}

// IsQuotaExceeded reports whether err means the database or disk is full.
func IsQuotaExceeded(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code()&0xff == sqlite3.SQLITE_FULL
}

func (s *Store) touch(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		metaLastSaved, formatTime(s.now())); err != nil {
		return errors.Wrap(err, "update last saved")
	}
	return nil
}

func (s *Store) meta(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "read meta %s", key)
	}
	return value, true, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
