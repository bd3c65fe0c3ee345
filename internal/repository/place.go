package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/langchou/parkspot/internal/models"
)

// ErrPlaceNotFound 目录中没有该停车场
var ErrPlaceNotFound = errors.New("place not found")

// PlaceRepository 停车场目录仓库
type PlaceRepository struct {
	db *DB
}

// NewPlaceRepository 创建停车场目录仓库
func NewPlaceRepository(db *DB) *PlaceRepository {
	return &PlaceRepository{db: db}
}

const upsertPlaceQuery = `
	INSERT INTO parking_places (id, name, address, latitude, longitude, price, rating, review_count,
		walking_time, walking_distance, available_spots, total_spots, category, features,
		photo_url, photo_urls, first_seen_at, last_seen_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $17)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		address = EXCLUDED.address,
		latitude = EXCLUDED.latitude,
		longitude = EXCLUDED.longitude,
		price = EXCLUDED.price,
		rating = EXCLUDED.rating,
		review_count = EXCLUDED.review_count,
		walking_time = EXCLUDED.walking_time,
		walking_distance = EXCLUDED.walking_distance,
		available_spots = EXCLUDED.available_spots,
		total_spots = EXCLUDED.total_spots,
		category = EXCLUDED.category,
		features = EXCLUDED.features,
		photo_url = EXCLUDED.photo_url,
		photo_urls = EXCLUDED.photo_urls,
		last_seen_at = EXCLUDED.last_seen_at
`

// UpsertBatch 批量写入停车场，已存在的刷新属性与 last_seen_at
func (r *PlaceRepository) UpsertBatch(ctx context.Context, parkings []models.ParkingLocation) error {
	if len(parkings) == 0 {
		return nil
	}

	now := time.Now()
	batch := &pgx.Batch{}
	for _, p := range parkings {
		batch.Queue(upsertPlaceQuery,
			p.ID,
			p.Name,
			p.Address,
			p.Location.Lat,
			p.Location.Lng,
			p.Price,
			p.Rating,
			p.ReviewCount,
			p.WalkingTime,
			p.WalkingDistance,
			p.AvailableSpots,
			p.TotalSpots,
			string(p.Category),
			nonNil(p.Features),
			p.PhotoURL,
			nonNil(p.PhotoURLs),
			now,
		)
	}

	if err := r.db.Pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert parking places: %w", err)
	}
	return nil
}

// GetByID 通过地点 ID 获取目录条目
func (r *PlaceRepository) GetByID(ctx context.Context, id string) (*models.CatalogPlace, error) {
	query := `
		SELECT id, name, address, latitude, longitude, price, rating, review_count,
			walking_time, walking_distance, available_spots, total_spots, category, features,
			photo_url, photo_urls, first_seen_at, last_seen_at
		FROM parking_places WHERE id = $1
	`
	p := &models.CatalogPlace{}
	var category string
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.Address,
		&p.Location.Lat,
		&p.Location.Lng,
		&p.Price,
		&p.Rating,
		&p.ReviewCount,
		&p.WalkingTime,
		&p.WalkingDistance,
		&p.AvailableSpots,
		&p.TotalSpots,
		&category,
		&p.Features,
		&p.PhotoURL,
		&p.PhotoURLs,
		&p.FirstSeenAt,
		&p.LastSeenAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrPlaceNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get parking place: %w", err)
	}
	p.Category = models.Category(category)
	return p, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
