package trackers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/samuelfneumann/gowalk/reward"
	"github.com/samuelfneumann/gowalk/timestep"

	_ "modernc.org/sqlite"
)

var schema = []string{`
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		description TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`, `
	CREATE TABLE IF NOT EXISTS episodes (
		run_id TEXT NOT NULL,
		episode INTEGER NOT NULL,
		steps INTEGER NOT NULL,
		success INTEGER NOT NULL,
		total REAL NOT NULL,
		PRIMARY KEY (run_id, episode)
	)`, `
	CREATE TABLE IF NOT EXISTS episode_terms (
		run_id TEXT NOT NULL,
		episode INTEGER NOT NULL,
		term TEXT NOT NULL,
		value REAL NOT NULL,
		PRIMARY KEY (run_id, episode, term)
	)`,
}

// SQLite tracks the sum of each reward term over each episode of an
// experiment in a SQLite database. Rows are keyed by a run ID, so that
// many runs may share one database. Episodes are written as soon as
// they finish; Save closes the database.
type SQLite struct {
	db    *sql.DB
	runID uuid.UUID

	episode int
	steps   int
	total   float64
	terms   map[string]float64
}

// NewSQLite opens or creates the database at path and registers a new
// run with it. If runID is uuid.Nil, a random run ID is generated.
func NewSQLite(ctx context.Context, path string, runID uuid.UUID,
	description string) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("newSQLite: sqlite path is required")
	}
	if runID == uuid.Nil {
		runID = uuid.New()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("newSQLite: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("newSQLite: %v", err)
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("newSQLite: could not create tables: %v",
				err)
		}
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, description, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			description = excluded.description
	`, runID.String(), description, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("newSQLite: could not register run: %v", err)
	}

	return &SQLite{
		db:    db,
		runID: runID,
		terms: make(map[string]float64),
	}, nil
}

// RunID returns the ID of the tracked run
func (s *SQLite) RunID() uuid.UUID {
	return s.runID
}

// Track implements the tracker.Tracker interface
func (s *SQLite) Track(traj timestep.Trajectory, rewards reward.Result) error {
	if s.db == nil {
		return errors.New("track: database closed")
	}
	if err := checkLength(traj, rewards); err != nil {
		return fmt.Errorf("track: %v", err)
	}

	for t, step := range traj {
		s.steps++
		s.total += rewards.Total[t]
		for _, name := range rewards.Names {
			s.terms[name] += rewards.Terms[name][t]
		}

		if step.Done {
			if err := s.write(step.Success); err != nil {
				return fmt.Errorf("track: %v", err)
			}
			s.episode++
			s.steps, s.total = 0, 0
			s.terms = make(map[string]float64)
		}
	}
	return nil
}

// write writes the current episode to the database
func (s *SQLite) write(success bool) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT INTO episodes (run_id, episode, steps, success, total)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id, episode) DO UPDATE SET
			steps = excluded.steps,
			success = excluded.success,
			total = excluded.total
	`, s.runID.String(), s.episode, s.steps, boolToInt(success), s.total)
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	for term, value := range s.terms {
		_, err = tx.Exec(`
			INSERT INTO episode_terms (run_id, episode, term, value)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(run_id, episode, term) DO UPDATE SET
				value = excluded.value
		`, s.runID.String(), s.episode, term, value)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Returns returns the return of each finished episode of the run, in
// episode order
func (s *SQLite) Returns(ctx context.Context) ([]float64, error) {
	if s.db == nil {
		return nil, errors.New("returns: database closed")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT total FROM episodes WHERE run_id = ? ORDER BY episode
	`, s.runID.String())
	if err != nil {
		return nil, fmt.Errorf("returns: %v", err)
	}
	defer rows.Close()

	var returns []float64
	for rows.Next() {
		var total float64
		if err := rows.Scan(&total); err != nil {
			return nil, fmt.Errorf("returns: %v", err)
		}
		returns = append(returns, total)
	}
	return returns, rows.Err()
}

// TermSums returns the sum of each reward term over the given episode
// of the run, sorted by term name
func (s *SQLite) TermSums(ctx context.Context, episode int) ([]string,
	[]float64, error) {
	if s.db == nil {
		return nil, nil, errors.New("termSums: database closed")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT term, value FROM episode_terms
		WHERE run_id = ? AND episode = ?
	`, s.runID.String(), episode)
	if err != nil {
		return nil, nil, fmt.Errorf("termSums: %v", err)
	}
	defer rows.Close()

	sums := make(map[string]float64)
	for rows.Next() {
		var term string
		var value float64
		if err := rows.Scan(&term, &value); err != nil {
			return nil, nil, fmt.Errorf("termSums: %v", err)
		}
		sums[term] = value
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("termSums: %v", err)
	}

	names := make([]string, 0, len(sums))
	for name := range sums {
		names = append(names, name)
	}
	sort.Strings(names)
	values := make([]float64, len(names))
	for i, name := range names {
		values[i] = sums[name]
	}
	return names, values, nil
}

// Save closes the database. Episodes are written as they finish, so
// an unfinished episode is discarded.
func (s *SQLite) Save() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
