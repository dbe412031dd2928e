package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"soil-bot/internal/domain/entity"
	"soil-bot/internal/domain/port"
)

// SQLiteAnalysisRepository история анализов в SQLite (modernc.org/sqlite).
type SQLiteAnalysisRepository struct {
	db *sql.DB
}

// Прагмы из DSN драйвер применяет к каждому новому соединению пула
var sqlitePragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"synchronous(NORMAL)",
}

// NewSQLiteAnalysisRepository открывает базу по пути dsn и включает WAL.
func NewSQLiteAnalysisRepository(dsn string) (*SQLiteAnalysisRepository, error) {
	db, err := sql.Open("sqlite", withPragmas(dsn))
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "sqlite: connect")
	}
	return &SQLiteAnalysisRepository{db: db}, nil
}

func withPragmas(dsn string) string {
	params := make([]string, 0, len(sqlitePragmas))
	for _, p := range sqlitePragmas {
		params = append(params, "_pragma="+p)
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

const analysisMigration = `
CREATE TABLE IF NOT EXISTS soil_analysis_results (
	id              TEXT PRIMARY KEY,
	operator_id     INTEGER NOT NULL,
	location        TEXT NOT NULL,
	total_weight    REAL NOT NULL,
	gravel_weight   REAL NOT NULL,
	sand_weight     REAL NOT NULL,
	gravel_percent  REAL NOT NULL,
	sand_percent    REAL NOT NULL,
	fines_percent   REAL NOT NULL,
	soil_type       TEXT NOT NULL,
	image_soil_type TEXT,
	confidence      REAL,
	status          TEXT NOT NULL DEFAULT 'PENDING',
	save_status     TEXT,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_soil_analysis_results_operator ON soil_analysis_results(operator_id, created_at);
`

func (r *SQLiteAnalysisRepository) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, analysisMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (r *SQLiteAnalysisRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteAnalysisRepository) Save(ctx context.Context, rec *entity.AnalysisRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO soil_analysis_results (
			id, operator_id, location, total_weight, gravel_weight, sand_weight,
			gravel_percent, sand_percent, fines_percent, soil_type, image_soil_type,
			confidence, status, save_status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.OperatorID, rec.Location, rec.TotalWeight, rec.GravelWeight, rec.SandWeight,
		rec.Fractions.GravelPercent, rec.Fractions.SandPercent, rec.Fractions.FinesPercent,
		rec.SoilType, rec.ImageSoilType, rec.Confidence, string(rec.Status), rec.SaveStatus,
		rec.CreatedAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: insert analysis %s", rec.ID)
}

func (r *SQLiteAnalysisRepository) ListByOperator(ctx context.Context, operatorID int64, limit int) ([]*entity.AnalysisRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, operator_id, location, total_weight, gravel_weight, sand_weight,
			gravel_percent, sand_percent, fines_percent, soil_type,
			COALESCE(image_soil_type, ''), COALESCE(confidence, 0), status,
			COALESCE(save_status, ''), created_at
		FROM soil_analysis_results
		WHERE operator_id = ?
		ORDER BY created_at DESC
		LIMIT ?`,
		operatorID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list analyses")
	}
	defer rows.Close()

	var out []*entity.AnalysisRecord
	for rows.Next() {
		var (
			rec       entity.AnalysisRecord
			status    string
			createdAt time.Time
		)
		if err := rows.Scan(
			&rec.ID, &rec.OperatorID, &rec.Location, &rec.TotalWeight, &rec.GravelWeight, &rec.SandWeight,
			&rec.Fractions.GravelPercent, &rec.Fractions.SandPercent, &rec.Fractions.FinesPercent,
			&rec.SoilType, &rec.ImageSoilType, &rec.Confidence, &status, &rec.SaveStatus, &createdAt,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan analysis")
		}
		rec.Status = entity.ReviewStatus(status)
		rec.CreatedAt = createdAt
		out = append(out, &rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate analyses")
}

var _ port.AnalysisRepository = (*SQLiteAnalysisRepository)(nil)
