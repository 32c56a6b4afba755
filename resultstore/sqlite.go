package resultstore

import (
	"context"
	"database/sql"
	"math"
	"sync"

	"github.com/pkg/errors"

	"github.com/g1o/QuasiRecomb/hmmlib"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps results in a single table, with the number of states,
// log-likelihood and BIC as columns for querying.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return errors.Wrap(err, "open sqlite")
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return errors.Wrap(err, "ping sqlite")
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return errors.Wrap(err, "create tables")
	}

	s.db = db
	return nil
}

// nullable maps NaN, which SQLite cannot hold, to NULL.
func nullable(x float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: x, Valid: !math.IsNaN(x)}
}

func (s *SQLiteStore) Save(ctx context.Context, or *hmmlib.OptimalResult) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := hmmlib.EncodeResult(or)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO results (id, k, llh, bic, termination, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			k = excluded.k,
			llh = excluded.llh,
			bic = excluded.bic,
			termination = excluded.termination,
			payload = excluded.payload
	`, or.RunID, or.NState, nullable(or.LogLike), nullable(or.BIC), or.Termination.String(), payload)
	return errors.Wrapf(err, "save result %s", or.RunID)
}

func (s *SQLiteStore) Get(ctx context.Context, runID string) (*hmmlib.OptimalResult, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM results WHERE id = ?`, runID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, errors.Wrapf(err, "get result %s", runID)
	}

	or, err := hmmlib.DecodeResult(payload)
	if err != nil {
		return nil, false, errors.Wrapf(err, "decode result %s", runID)
	}
	return or, true, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Summary, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT id, k, llh, bic, termination FROM results ORDER BY k, id`)
	if err != nil {
		return nil, errors.Wrap(err, "list results")
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sm Summary
		var llh, bic sql.NullFloat64
		if err := rows.Scan(&sm.RunID, &sm.NState, &llh, &bic, &sm.Termination); err != nil {
			return nil, errors.Wrap(err, "scan result")
		}
		sm.LogLike, sm.BIC = math.NaN(), math.NaN()
		if llh.Valid {
			sm.LogLike = llh.Float64
		}
		if bic.Valid {
			sm.BIC = bic.Float64
		}
		out = append(out, sm)
	}

	return out, errors.Wrap(rows.Err(), "list results")
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS results (
			id TEXT PRIMARY KEY,
			k INTEGER NOT NULL,
			llh REAL,
			bic REAL,
			termination TEXT NOT NULL,
			payload BLOB NOT NULL
		);
	`)
	return err
}
