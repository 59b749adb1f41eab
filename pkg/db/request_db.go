package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGeneration/config"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGeneration/pkg/models"
)

const (
	CREATE_REQUEST_TABLE = `CREATE TABLE IF NOT EXISTS generation_requests(
		id SERIAL PRIMARY KEY,
		correlation_id VARCHAR(255) NOT NULL,
		status VARCHAR(32) NOT NULL,
		code VARCHAR(64) NOT NULL,
		prompt TEXT NOT NULL,
		aspect_ratio VARCHAR(16) NOT NULL,
		resolution VARCHAR(16) NOT NULL,
		file_count INTEGER NOT NULL,
		image_url VARCHAR(1024) NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		duration_ms BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS generation_requests_correlation_id_idx ON generation_requests(correlation_id);`

	insertRequest = `INSERT INTO generation_requests(correlation_id, status, code, prompt, aspect_ratio, resolution, file_count, image_url, width, height, duration_ms)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`

	selectLatestByCorrelationID = `SELECT * FROM generation_requests WHERE correlation_id=$1 ORDER BY id DESC LIMIT 1`
)

var ErrNotFound = errors.New("request not found")

type RequestDatabase interface {
	CreateRequest(ctx context.Context, req *models.Request) (int, error)
	GetRequestByCorrelationID(ctx context.Context, correlationID string) (*models.Request, error)
}

type RequestDatabaseImpl struct {
	db *sqlx.DB
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, cfg config.Postgres) (*sqlx.DB, error) {
	return sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
}

func NewRequestDatabase(autoCreate bool, db *sqlx.DB) (*RequestDatabaseImpl, error) {
	if autoCreate {
		if err := Migrate(context.Background(), db); err != nil {
			return nil, err
		}
	}
	return &RequestDatabaseImpl{db: db}, nil
}

// Migrate creates the ledger table and its index when missing.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, CREATE_REQUEST_TABLE)
	return err
}

func (r *RequestDatabaseImpl) CreateRequest(ctx context.Context, req *models.Request) (int, error) {
	var id int
	err := r.db.QueryRowContext(ctx, insertRequest,
		req.CorrelationID, req.Status, req.Code, req.Prompt, req.AspectRatio, req.Resolution,
		req.FileCount, req.ImageURL, req.Width, req.Height, req.DurationMS).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *RequestDatabaseImpl) GetRequestByCorrelationID(ctx context.Context, correlationID string) (*models.Request, error) {
	request := &models.Request{}
	err := r.db.GetContext(ctx, request, selectLatestByCorrelationID, correlationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return request, nil
}
