package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twpayne/go-polyline"

	"github.com/unimap/unimap/metrics"
	"github.com/unimap/unimap/utils"
)

// DefaultCacheTTL is how long a computed route is reused.
const DefaultCacheTTL = 600 * time.Second

// Cache is the subset of utils.Cache the proxy needs.
type Cache interface {
	GetBytes(ctx context.Context, key string) ([]byte, bool)
	SetBytes(ctx context.Context, key string, b []byte, ttl time.Duration)
}

// Result is the JSON document returned to map clients.
type Result struct {
	// Coordinates are [lng, lat] pairs.
	Coordinates [][2]float64 `json:"coordinates"`
	// Distance in meters.
	Distance float64 `json:"distance"`
	Duration string  `json:"duration"`
}

// Service proxies route requests to a Provider and caches the answers.
type Service struct {
	provider Provider
	cache    Cache
	ttl      time.Duration
}

// NewService creates a Service. A non-positive ttl uses DefaultCacheTTL.
func NewService(provider Provider, cache Cache, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Service{provider: provider, cache: cache, ttl: ttl}
}

// CacheKey derives the cache key from the literal request strings.
// "1.0,2.0" and "1,2" are distinct keys.
func CacheKey(start, end string) string {
	return "cache:route:" + start + "_" + end
}

// Route returns the JSON-encoded Result for start/end ("lat,lng" strings).
// Cached documents are returned verbatim without contacting the provider.
func (s *Service) Route(ctx context.Context, start, end string) ([]byte, error) {
	if start == "" || end == "" {
		return nil, ErrMissingParameter
	}

	key := CacheKey(start, end)
	if b, ok := s.cache.GetBytes(ctx, key); ok {
		metrics.RecordCacheLookup(true)
		return b, nil
	}
	metrics.RecordCacheLookup(false)

	from, err := ParseCoordinate(start)
	if err != nil {
		return nil, err
	}
	to, err := ParseCoordinate(end)
	if err != nil {
		return nil, err
	}

	route, err := s.provider.Directions(ctx, from, to)
	if err != nil {
		utils.Sugar.Warnw("route upstream failed", "start", start, "end", end, "err", err)
		return nil, err
	}

	coords, err := DecodeGeometry(route.Geometry)
	if err != nil {
		return nil, err
	}

	b, err := json.Marshal(Result{
		Coordinates: coords,
		Distance:    route.Distance,
		Duration:    FormatDuration(route.Duration),
	})
	if err != nil {
		return nil, fmt.Errorf("encode route: %w", err)
	}

	s.cache.SetBytes(ctx, key, b, s.ttl)
	return b, nil
}

// DecodeGeometry decodes a precision-5 encoded polyline into [lng, lat] pairs.
func DecodeGeometry(encoded string) ([][2]float64, error) {
	points, rest, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("%w: decode polyline: %v", ErrUpstream, err)
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("%w: decode polyline: %d trailing bytes", ErrUpstream, len(rest))
	}
	coords := make([][2]float64, 0, len(points))
	for _, p := range points {
		coords = append(coords, [2]float64{p[1], p[0]})
	}
	return coords, nil
}
