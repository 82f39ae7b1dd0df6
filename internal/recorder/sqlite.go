package recorder

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"CostOfCapital/internal/model"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id          TEXT PRIMARY KEY,
			timestamp   INTEGER NOT NULL,
			scenario    TEXT,
			role        TEXT,
			year        INTEGER,
			adjustment  TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_scenario ON runs(scenario)`,

		`CREATE TABLE IF NOT EXISTS aggregate_rows (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL,
			tbl         TEXT NOT NULL,
			key         TEXT NOT NULL,
			entity      TEXT,
			financing   TEXT,
			weight      REAL,
			z           REAL,
			rho         REAL,
			ucc         REAL,
			metr        REAL,
			mettr       REAL,
			tax_wedge   REAL,
			eatr        REAL,
			excluded    INTEGER,
			flag        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_aggregate_run ON aggregate_rows(run_id, tbl)`,

		`CREATE TABLE IF NOT EXISTS diff_rows (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     INTEGER NOT NULL,
			comparison_id TEXT NOT NULL,
			scenario      TEXT,
			tbl           TEXT,
			key           TEXT,
			industry      TEXT,
			entity        TEXT,
			financing     TEXT,
			variable      TEXT,
			baseline      REAL,
			reform        REAL,
			change_pp     REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_diff_scenario ON diff_rows(scenario, tbl, key)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(run *RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO runs
		(id, timestamp, scenario, role, year, adjustment)
		VALUES (?,?,?,?,?,?)`,
		run.ID, time.Now().Unix(), run.Scenario, run.Role, run.Year, run.Adjustment,
	)
	return err
}

func (r *SQLiteRecorder) RecordAggregates(runID, table string, rows []model.AggregateRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO aggregate_rows
		(run_id, tbl, key, entity, financing, weight,
		 z, rho, ucc, metr, mettr, tax_wedge, eatr, excluded, flag)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		m := row.Measures
		if _, err := stmt.Exec(
			runID, table, row.Key, string(row.Entity), string(row.Financing), row.Weight,
			nullable(m.Z), nullable(m.Rho), nullable(m.UCC), nullable(m.METR), nullable(m.METTR), nullable(m.TaxWedge), nullable(m.EATR),
			row.Excluded, string(m.Flag),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert %s/%s: %w", table, row.Key, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordDiff(comparisonID, scenario string, rows []model.DiffRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO diff_rows
		(timestamp, comparison_id, scenario, tbl, key, industry, entity, financing,
		 variable, baseline, reform, change_pp)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, d := range rows {
		if _, err := stmt.Exec(
			now, comparisonID, scenario, d.Table, d.Key, d.Industry, string(d.Entity), string(d.Financing),
			d.Variable, nullable(d.Baseline), nullable(d.Reform), nullable(d.ChangePP),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert %s/%s: %w", d.Table, d.Key, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) LatestOverall(scenario string, e model.Entity, f model.Financing, variable string) (model.DiffRow, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var base, reform, change sql.NullFloat64
	d := model.DiffRow{Table: "entity", Key: model.OverallKey, Entity: e, Financing: f, Variable: variable}
	err := r.db.QueryRow(`SELECT baseline, reform, change_pp FROM diff_rows
		WHERE scenario = ? AND tbl = ? AND key = ? AND entity = ? AND financing = ? AND variable = ?
		ORDER BY id DESC LIMIT 1`,
		scenario, d.Table, d.Key, string(e), string(f), variable,
	).Scan(&base, &reform, &change)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DiffRow{}, false, nil
	}
	if err != nil {
		return model.DiffRow{}, false, fmt.Errorf("query latest %s: %w", scenario, err)
	}
	d.Baseline, d.Reform, d.ChangePP = value(base), value(reform), value(change)
	return d, true, nil
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}

// nullable stores non-finite values as NULL.
func nullable(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func value(n sql.NullFloat64) float64 {
	if !n.Valid {
		return math.NaN()
	}
	return n.Float64
}
