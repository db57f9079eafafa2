package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"crewopt/internal/workforce"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresConfig is the database section of the application config.
type PostgresConfig struct {
	DSN            string `koanf:"dsn"`
	MaxOpenConns   int    `koanf:"max_open_conns" validate:"gte=0"`
	MaxIdleConns   int    `koanf:"max_idle_conns" validate:"gte=0"`
	MaxIdleTime    int    `koanf:"max_idle_time" validate:"gte=0"`
	ConnectTimeout int    `koanf:"connect_timeout" validate:"gte=0"`
	QueryTimeout   int    `koanf:"query_timeout" validate:"gte=0"`
}

func DefaultPostgresConfig() PostgresConfig {
	return PostgresConfig{
		MaxOpenConns:   5,
		MaxIdleConns:   5,
		MaxIdleTime:    300,
		ConnectTimeout: 5,
		QueryTimeout:   10,
	}
}

// Schema creates the tables Postgres reads and writes.
const Schema = `
CREATE TABLE IF NOT EXISTS workers (
	id               TEXT PRIMARY KEY,
	name             TEXT NOT NULL DEFAULT '',
	tier             SMALLINT NOT NULL CHECK (tier BETWEEN 1 AND 3),
	experience_years DOUBLE PRECISION NOT NULL DEFAULT 0,
	efficiency       DOUBLE PRECISION NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS task_types (
	code                TEXT PRIMARY KEY,
	product_name        TEXT NOT NULL DEFAULT '',
	estimated_duration  DOUBLE PRECISION NOT NULL,
	lead_required       INTEGER NOT NULL DEFAULT 0,
	qualified_required  INTEGER NOT NULL DEFAULT 0,
	apprentice_required INTEGER NOT NULL DEFAULT 0,
	department          TEXT NOT NULL DEFAULT '',
	difficulty          INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS performance_records (
	task_code     TEXT NOT NULL,
	worker_id     TEXT NOT NULL,
	project_index INTEGER NOT NULL,
	score         DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (task_code, worker_id, project_index)
);
CREATE TABLE IF NOT EXISTS duration_records (
	task_code  TEXT NOT NULL,
	department TEXT NOT NULL DEFAULT '',
	idx        INTEGER NOT NULL,
	duration   DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (task_code, idx)
);
`

// Postgres reads datasets through the pgx database/sql driver.
type Postgres struct {
	cfg    PostgresConfig
	dbpool *sql.DB
}

// OpenPostgres creates the pool and pings it.
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*Postgres, error) {
	dbpool, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	dbpool.SetMaxOpenConns(cfg.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.MaxIdleTime) * time.Second)

	pingCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open does not connect.
	if err := dbpool.PingContext(pingCtx); err != nil {
		dbpool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return NewPostgres(cfg, dbpool), nil
}

func NewPostgres(cfg PostgresConfig, dbpool *sql.DB) *Postgres {
	return &Postgres{
		cfg:    cfg,
		dbpool: dbpool,
	}
}

func (p *Postgres) Close() error {
	return p.dbpool.Close()
}

func (p *Postgres) timeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(p.cfg.QueryTimeout)*time.Second)
}

func (p *Postgres) EnsureSchema(ctx context.Context) error {
	ctx, cancel := p.timeout(ctx)
	defer cancel()

	_, err := p.dbpool.ExecContext(ctx, Schema)
	return err
}

func (p *Postgres) Load(ctx context.Context) (workforce.Dataset, error) {
	var (
		ds  workforce.Dataset
		err error
	)

	if ds.Workers, err = p.GetAllWorkers(ctx); err != nil {
		return ds, fmt.Errorf("workers: %w", err)
	}
	if ds.Tasks, err = p.GetAllTaskTypes(ctx); err != nil {
		return ds, fmt.Errorf("task types: %w", err)
	}
	if len(ds.Workers) == 0 || len(ds.Tasks) == 0 {
		return ds, ErrNotFound
	}
	if ds.Performance, err = p.GetAllPerformance(ctx); err != nil {
		return ds, fmt.Errorf("performance: %w", err)
	}
	if ds.Durations, err = p.GetAllDurations(ctx); err != nil {
		return ds, fmt.Errorf("durations: %w", err)
	}

	if err := ds.Validate(); err != nil {
		return ds, err
	}
	return ds, nil
}

func (p *Postgres) GetAllWorkers(ctx context.Context) ([]workforce.Worker, error) {
	query := `
		SELECT id, name, tier, experience_years, efficiency FROM workers ORDER BY id
	`

	ctx, cancel := p.timeout(ctx)
	defer cancel()

	rows, err := p.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workers []workforce.Worker
	for rows.Next() {
		var w workforce.Worker
		dst := []any{&w.ID, &w.Name, &w.Tier, &w.Experience, &w.Efficiency}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		workers = append(workers, w)
	}

	return workers, rows.Err()
}

func (p *Postgres) GetAllTaskTypes(ctx context.Context) ([]workforce.TaskType, error) {
	query := `
		SELECT code, product_name, estimated_duration, lead_required, qualified_required,
		       apprentice_required, department, difficulty
		FROM task_types ORDER BY code
	`

	ctx, cancel := p.timeout(ctx)
	defer cancel()

	rows, err := p.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []workforce.TaskType
	for rows.Next() {
		var t workforce.TaskType
		dst := []any{
			&t.Code, &t.ProductName, &t.EstimatedDuration,
			&t.Requirement.Lead, &t.Requirement.Qualified, &t.Requirement.Apprentice,
			&t.Department, &t.Difficulty,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}

	return tasks, rows.Err()
}

func (p *Postgres) GetAllPerformance(ctx context.Context) ([]workforce.PerformanceRecord, error) {
	query := `
		SELECT task_code, worker_id, project_index, score
		FROM performance_records ORDER BY worker_id, task_code, project_index
	`

	ctx, cancel := p.timeout(ctx)
	defer cancel()

	rows, err := p.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []workforce.PerformanceRecord
	for rows.Next() {
		var r workforce.PerformanceRecord
		dst := []any{&r.TaskCode, &r.WorkerID, &r.ProjectIndex, &r.Score}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

func (p *Postgres) GetAllDurations(ctx context.Context) ([]workforce.DurationRecord, error) {
	query := `
		SELECT task_code, department, idx, duration
		FROM duration_records ORDER BY task_code, idx
	`

	ctx, cancel := p.timeout(ctx)
	defer cancel()

	rows, err := p.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []workforce.DurationRecord
	for rows.Next() {
		var r workforce.DurationRecord
		dst := []any{&r.TaskCode, &r.Department, &r.Index, &r.Duration}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

// Save upserts the catalog and inserts unseen history rows in one transaction.
func (p *Postgres) Save(ctx context.Context, ds workforce.Dataset) error {
	ctx, cancel := p.timeout(ctx)
	defer cancel()

	tx, err := p.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, w := range ds.Workers {
		query := `
			INSERT INTO workers (id, name, tier, experience_years, efficiency)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE
			SET name = $2, tier = $3, experience_years = $4, efficiency = $5
		`
		args := []any{w.ID, w.Name, w.Tier, w.Experience, w.Efficiency}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("worker %s: %w", w.ID, err)
		}
	}

	for _, t := range ds.Tasks {
		query := `
			INSERT INTO task_types (code, product_name, estimated_duration, lead_required,
			                        qualified_required, apprentice_required, department, difficulty)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (code) DO UPDATE
			SET product_name = $2, estimated_duration = $3, lead_required = $4,
			    qualified_required = $5, apprentice_required = $6, department = $7, difficulty = $8
		`
		args := []any{
			t.Code, t.ProductName, t.EstimatedDuration,
			t.Requirement.Lead, t.Requirement.Qualified, t.Requirement.Apprentice,
			t.Department, t.Difficulty,
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("task type %s: %w", t.Code, err)
		}
	}

	for _, r := range ds.Performance {
		query := `
			INSERT INTO performance_records (task_code, worker_id, project_index, score)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT DO NOTHING
		`
		if _, err := tx.ExecContext(ctx, query, r.TaskCode, r.WorkerID, r.ProjectIndex, r.Score); err != nil {
			return err
		}
	}

	for _, r := range ds.Durations {
		query := `
			INSERT INTO duration_records (task_code, department, idx, duration)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT DO NOTHING
		`
		if _, err := tx.ExecContext(ctx, query, r.TaskCode, r.Department, r.Index, r.Duration); err != nil {
			return err
		}
	}

	return tx.Commit()
}
