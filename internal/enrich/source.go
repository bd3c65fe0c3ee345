package enrich

import (
	"math"
	"math/rand/v2"
	"sync"

	"github.com/langchou/parkspot/internal/models"
)

// 合成数据的取值区间（闭区间）
const (
	PriceMin       = 15
	PriceMax       = 64
	RatingMin      = 3.5
	RatingMax      = 5.0
	ReviewCountMin = 50
	ReviewCountMax = 349
	WalkingMin     = 2
	WalkingMax     = 16
	AvailableMax   = 19
	ExtraSpotsMax  = 29
)

// FeatureVocabulary 设施标签，按固定顺序取前缀
var FeatureVocabulary = []string{"Security Camera", "Covered", "EV Charging"}

// 上游价格等级到每小时价格的映射
var priceLevelPrices = map[string]int{
	models.PriceLevelFree:          15,
	models.PriceLevelInexpensive:   25,
	models.PriceLevelModerate:      35,
	models.PriceLevelExpensive:     50,
	models.PriceLevelVeryExpensive: 64,
}

// Attributes 上游数据源缺失的价格、评分和车位信息
type Attributes struct {
	Price          int
	Rating         float64
	ReviewCount    int
	WalkingTime    int
	AvailableSpots int
	TotalSpots     int
	Features       []string
}

// Source 增强数据来源，可替换为真实的价格/车位数据
type Source interface {
	Attributes(rec models.PlaceRecord) Attributes
}

// SyntheticSource 在固定区间内随机生成属性，上游有值时优先使用上游
type SyntheticSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSyntheticSource 创建随机数据源
func NewSyntheticSource() *SyntheticSource {
	return &SyntheticSource{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// NewSeededSource 固定种子，便于复现
func NewSeededSource(seed uint64) *SyntheticSource {
	return &SyntheticSource{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *SyntheticSource) Attributes(rec models.PlaceRecord) Attributes {
	s.mu.Lock()
	defer s.mu.Unlock()

	attrs := Attributes{
		Price:          PriceMin + s.rng.IntN(PriceMax-PriceMin+1),
		Rating:         roundTenth(RatingMin + s.rng.Float64()*(RatingMax-RatingMin)),
		ReviewCount:    ReviewCountMin + s.rng.IntN(ReviewCountMax-ReviewCountMin+1),
		WalkingTime:    WalkingMin + s.rng.IntN(WalkingMax-WalkingMin+1),
		AvailableSpots: s.rng.IntN(AvailableMax + 1),
	}
	attrs.TotalSpots = attrs.AvailableSpots + s.rng.IntN(ExtraSpotsMax+1)
	attrs.Features = append([]string(nil), FeatureVocabulary[:1+s.rng.IntN(len(FeatureVocabulary))]...)

	if price, ok := priceLevelPrices[rec.PriceLevel]; ok {
		attrs.Price = price
	}
	if rec.Rating != nil && !math.IsNaN(*rec.Rating) && *rec.Rating > 0 {
		attrs.Rating = clampFloat(roundTenth(*rec.Rating), RatingMin, RatingMax)
	}
	if rec.UserRatingCount != nil && *rec.UserRatingCount > 0 {
		attrs.ReviewCount = clampInt(*rec.UserRatingCount, ReviewCountMin, ReviewCountMax)
	}

	return attrs
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
