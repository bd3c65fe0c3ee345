package enrich

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/langchou/parkspot/internal/api/places"
	"github.com/langchou/parkspot/internal/models"
)

// PhotoResolver 照片解析能力，places.Gateway 的子集
type PhotoResolver interface {
	ResolvePhoto(ctx context.Context, photoName string, maxWidth, maxHeight int) (string, bool)
	FallbackPhotoURL(photoName string, maxWidth, maxHeight int) (string, bool)
}

var _ PhotoResolver = (places.Gateway)(nil)

// AddressResolver 补全缺失地址的逆地理编码
type AddressResolver interface {
	ReverseGeocode(ctx context.Context, loc models.LatLng) (string, error)
}

// Options 管道配置
type Options struct {
	PhotoMaxPx  int
	GallerySize int // 每个停车场最多解析的照片数
	Concurrency int
	MaxGeocodes int // 每批最多的逆地理编码请求数
}

// Pipeline 把原始地点记录转换为 ParkingLocation
type Pipeline struct {
	photos    PhotoResolver
	addresses AddressResolver // 可为空
	source    Source
	opts      Options
	logger    *zap.Logger
}

// NewPipeline 创建增强管道
func NewPipeline(photos PhotoResolver, source Source, opts Options, logger *zap.Logger) *Pipeline {
	if opts.PhotoMaxPx <= 0 {
		opts.PhotoMaxPx = 400
	}
	if opts.GallerySize <= 0 {
		opts.GallerySize = 1
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}
	if opts.MaxGeocodes <= 0 {
		opts.MaxGeocodes = 5
	}
	return &Pipeline{photos: photos, source: source, opts: opts, logger: logger}
}

// SetAddressResolver 启用缺失地址的逆地理编码
func (p *Pipeline) SetAddressResolver(r AddressResolver) {
	p.addresses = r
}

// Enrich 输出顺序与输入一致，坐标不可用的记录被排除
// 各条记录并发处理，结果按下标回填
func (p *Pipeline) Enrich(ctx context.Context, records []models.PlaceRecord) []models.ParkingLocation {
	valid := make([]models.PlaceRecord, 0, len(records))
	for _, rec := range records {
		if rec.Location == nil || !rec.Location.Valid() {
			p.logger.Debug("Dropping place without usable location", zap.String("place_id", rec.ID))
			continue
		}
		valid = append(valid, rec)
	}

	out := make([]models.ParkingLocation, len(valid))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)
	for i, rec := range valid {
		g.Go(func() error {
			out[i] = p.enrichOne(gctx, rec)
			return nil
		})
	}
	_ = g.Wait()

	p.resolveAddresses(ctx, out)
	AssignCategories(out)
	return out
}

func (p *Pipeline) enrichOne(ctx context.Context, rec models.PlaceRecord) models.ParkingLocation {
	attrs := p.source.Attributes(rec)

	loc := models.ParkingLocation{
		ID:              rec.ID,
		Name:            rec.DisplayName,
		Address:         rec.FormattedAddress,
		Location:        *rec.Location,
		Price:           attrs.Price,
		Rating:          attrs.Rating,
		ReviewCount:     attrs.ReviewCount,
		WalkingTime:     attrs.WalkingTime,
		WalkingDistance: models.WalkingDistanceLabel(attrs.WalkingTime),
		AvailableSpots:  attrs.AvailableSpots,
		TotalSpots:      attrs.TotalSpots,
		Features:        attrs.Features,
	}
	if loc.Name == "" {
		loc.Name = models.PlaceholderName
	}

	for i, ph := range rec.Photos {
		if i >= p.opts.GallerySize {
			break
		}
		if u, ok := p.photoURL(ctx, rec.ID, ph.Name); ok {
			loc.PhotoURLs = append(loc.PhotoURLs, u)
		}
	}
	if len(loc.PhotoURLs) > 0 {
		loc.PhotoURL = loc.PhotoURLs[0]
	}

	return loc
}

// resolveAddresses 照片全部解析完后再串行补全缺失地址
// 逆地理编码有限流，每批最多 MaxGeocodes 次，其余直接使用占位地址
func (p *Pipeline) resolveAddresses(ctx context.Context, locs []models.ParkingLocation) {
	lookups := 0
	for i := range locs {
		if locs[i].Address != "" {
			continue
		}
		if p.addresses != nil && lookups < p.opts.MaxGeocodes && ctx.Err() == nil {
			lookups++
			addr, err := p.addresses.ReverseGeocode(ctx, locs[i].Location)
			if err != nil {
				p.logger.Debug("Reverse geocode failed", zap.String("place_id", locs[i].ID), zap.Error(err))
			}
			locs[i].Address = addr
		}
		if locs[i].Address == "" {
			locs[i].Address = models.PlaceholderAddress
		}
	}
}

// photoURL 先解析直链，失败则拼接回退地址，都不可用时返回 false
func (p *Pipeline) photoURL(ctx context.Context, placeID, photoName string) (string, bool) {
	if photoName == "" {
		return "", false
	}
	size := p.opts.PhotoMaxPx
	if u, ok := p.photos.ResolvePhoto(ctx, photoName, size, size); ok {
		return u, true
	}

	u, ok := p.photos.FallbackPhotoURL(photoName, size, size)
	if ok {
		p.logger.Debug("Using fallback photo URL", zap.String("place_id", placeID))
	} else {
		p.logger.Warn("Photo unavailable", zap.String("place_id", placeID), zap.String("photo", photoName))
	}
	return u, ok
}

// AssignCategories 按位置给前三个不同 id 的停车场打标签，其余清空
func AssignCategories(locs []models.ParkingLocation) {
	order := []models.Category{
		models.CategoryBestValue,
		models.CategoryShortestWalk,
		models.CategoryHighestRated,
	}

	seen := make(map[string]bool, len(locs))
	next := 0
	for i := range locs {
		locs[i].Category = models.CategoryNone
		if seen[locs[i].ID] {
			continue
		}
		seen[locs[i].ID] = true
		if next < len(order) {
			locs[i].Category = order[next]
			next++
		}
	}
}
