package ledger

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"landcover/pkg/model"
)

// Ledger records every training run and its fold results in SQLite so
// experiments with different grids can be compared later.
type Ledger struct {
	db *sql.DB
}

func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		raster_path TEXT NOT NULL,
		vector_path TEXT NOT NULL,
		mode        TEXT NOT NULL,
		policy      TEXT NOT NULL,
		samples     INTEGER NOT NULL DEFAULT 0,
		feature_rows INTEGER NOT NULL DEFAULT 0,
		skipped     INTEGER NOT NULL DEFAULT 0,
		started_at  DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS folds (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id        INTEGER NOT NULL,
		kernel        INTEGER NOT NULL,
		learning_rate REAL NOT NULL,
		fold          INTEGER NOT NULL,
		val_accuracy  REAL NOT NULL,
		val_loss      REAL NOT NULL,
		epochs        INTEGER NOT NULL,
		confusion     TEXT DEFAULT '',
		selected      INTEGER NOT NULL DEFAULT 0,
		recorded_at   DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_folds_run ON folds(run_id);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error { return l.db.Close() }

// Run describes one training invocation.
type Run struct {
	ID         int64
	RasterPath string
	VectorPath string
	Mode       string
	Policy     string
	Samples    int
	Rows       int
	Skipped    int
	StartedAt  time.Time
}

func (l *Ledger) StartRun(r Run) (int64, error) {
	res, err := l.db.Exec(
		`INSERT INTO runs (raster_path, vector_path, mode, policy, samples, feature_rows, skipped, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RasterPath, r.VectorPath, r.Mode, r.Policy, r.Samples, r.Rows, r.Skipped, r.StartedAt,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Fold is a stored fold result.
type Fold struct {
	ID           int64
	Kernel       int
	LearningRate float64
	Fold         int
	ValAccuracy  float64
	ValLoss      float64
	Epochs       int
	Confusion    [][]int
	Selected     bool
}

func (l *Ledger) RecordFold(runID int64, r model.Result) (int64, error) {
	cm, err := json.Marshal(r.Confusion)
	if err != nil {
		return 0, err
	}
	res, err := l.db.Exec(
		`INSERT INTO folds (run_id, kernel, learning_rate, fold, val_accuracy, val_loss, epochs, confusion)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, r.Kernel, r.LearningRate, r.Fold, r.Score.ValAccuracy, r.Score.ValLoss, len(r.History), string(cm),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// MarkSelected flags the fold whose model was kept for classification.
func (l *Ledger) MarkSelected(runID int64, r model.Result) error {
	_, err := l.db.Exec(
		`UPDATE folds SET selected = 1
		 WHERE run_id = ? AND kernel = ? AND learning_rate = ? AND fold = ?`,
		runID, r.Kernel, r.LearningRate, r.Fold,
	)
	return err
}

func (l *Ledger) Folds(runID int64) ([]Fold, error) {
	rows, err := l.db.Query(
		`SELECT id, kernel, learning_rate, fold, val_accuracy, val_loss, epochs, confusion, selected
		 FROM folds WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Fold
	for rows.Next() {
		var f Fold
		var cm string
		if err := rows.Scan(&f.ID, &f.Kernel, &f.LearningRate, &f.Fold, &f.ValAccuracy, &f.ValLoss, &f.Epochs, &cm, &f.Selected); err != nil {
			return nil, err
		}
		if cm != "" {
			if err := json.Unmarshal([]byte(cm), &f.Confusion); err != nil {
				return nil, err
			}
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Runs lists recorded runs, newest first.
func (l *Ledger) Runs() ([]Run, error) {
	rows, err := l.db.Query(
		`SELECT id, raster_path, vector_path, mode, policy, samples, feature_rows, skipped, started_at
		 FROM runs ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.RasterPath, &r.VectorPath, &r.Mode, &r.Policy, &r.Samples, &r.Rows, &r.Skipped, &r.StartedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
