// Package store persists per-temperature scan records in sqlite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const (
	tableResults = "results"

	timeout = 3 * time.Second
)

// Record is the per-temperature output record consumed by downstream
// plotting and validation.
type Record struct {
	L     int
	T     float64
	C     float64
	Chi   float64
	U4    float64
	EMean float64
	MMean float64
}

// DB stores scan records keyed by system size and temperature.
type DB struct {
	Path string

	db *sql.DB
}

// Open opens the database at dbPath, creating it if needed.
func Open(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", dbPath))
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	if err := prepareDB(db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "")
	}
	return &DB{Path: dbPath, db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Put inserts a record, replacing any previous record at the same system
// size and temperature. A NaN Binder cumulant from a degenerate run is
// stored as NULL, since sqlite has no NaN.
func (d *DB) Put(rec Record) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	u4 := sql.NullFloat64{Float64: rec.U4, Valid: !math.IsNaN(rec.U4)}
	sqlStr := fmt.Sprintf(`INSERT OR REPLACE INTO %s (l, t, c, chi, u4, e_mean, m_mean) VALUES (?, ?, ?, ?, ?, ?, ?)`, tableResults)
	args := []any{rec.L, rec.T, rec.C, rec.Chi, u4, rec.EMean, rec.MMean}
	if _, err := d.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return errors.Wrap(err, fmt.Sprintf("%s %#v", sqlStr, args))
	}
	return nil
}

// List returns the records of one system size, temperatures ascending.
func (d *DB) List(l int) ([]Record, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	sqlStr := fmt.Sprintf(`SELECT l, t, c, chi, u4, e_mean, m_mean FROM %s WHERE l=? ORDER BY t`, tableResults)
	rows, err := d.db.QueryContext(ctx, sqlStr, l)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer rows.Close()

	recs := make([]Record, 0)
	for rows.Next() {
		var rec Record
		var u4 sql.NullFloat64
		if err := rows.Scan(&rec.L, &rec.T, &rec.C, &rec.Chi, &u4, &rec.EMean, &rec.MMean); err != nil {
			return nil, errors.Wrap(err, "")
		}
		rec.U4 = math.NaN()
		if u4.Valid {
			rec.U4 = u4.Float64
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	return recs, nil
}

// Sizes returns the distinct system sizes present, ascending.
func (d *DB) Sizes() ([]int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	sqlStr := fmt.Sprintf(`SELECT DISTINCT l FROM %s ORDER BY l`, tableResults)
	rows, err := d.db.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer rows.Close()

	sizes := make([]int, 0)
	for rows.Next() {
		var l int
		if err := rows.Scan(&l); err != nil {
			return nil, errors.Wrap(err, "")
		}
		sizes = append(sizes, l)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	return sizes, nil
}

func prepareDB(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	sqlStr := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (l INTEGER, t REAL, c REAL, chi REAL, u4 REAL, e_mean REAL, m_mean REAL, PRIMARY KEY (l, t)) STRICT`, tableResults)
	if _, err := db.ExecContext(ctx, sqlStr); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}
