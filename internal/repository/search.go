package repository

import (
	"context"
	"fmt"

	"github.com/langchou/parkspot/internal/models"
)

// SearchRepository 搜索日志仓库
type SearchRepository struct {
	db *DB
}

// NewSearchRepository 创建搜索日志仓库
func NewSearchRepository(db *DB) *SearchRepository {
	return &SearchRepository{db: db}
}

// Create 记录一次完成的搜索
func (r *SearchRepository) Create(ctx context.Context, log *models.SearchLog) error {
	query := `
		INSERT INTO searches (session_id, kind, query, latitude, longitude, result_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := r.db.Pool.QueryRow(ctx, query,
		log.SessionID,
		string(log.Kind),
		log.Query,
		log.Latitude,
		log.Longitude,
		log.ResultCount,
		log.CreatedAt,
	).Scan(&log.ID)

	if err != nil {
		return fmt.Errorf("insert search: %w", err)
	}
	return nil
}

// ListRecent 最近的搜索记录，新的在前
func (r *SearchRepository) ListRecent(ctx context.Context, limit int) ([]*models.SearchLog, error) {
	query := `
		SELECT id, session_id, kind, query, latitude, longitude, result_count, created_at
		FROM searches ORDER BY created_at DESC, id DESC LIMIT $1
	`
	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list searches: %w", err)
	}
	defer rows.Close()

	var logs []*models.SearchLog
	for rows.Next() {
		log := &models.SearchLog{}
		var kind string
		err := rows.Scan(
			&log.ID,
			&log.SessionID,
			&kind,
			&log.Query,
			&log.Latitude,
			&log.Longitude,
			&log.ResultCount,
			&log.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan search: %w", err)
		}
		log.Kind = models.SearchKind(kind)
		logs = append(logs, log)
	}

	return logs, rows.Err()
}
