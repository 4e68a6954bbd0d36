package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/yukikurage/tripmate-api/internal/constants"
)

var (
	ErrInvalidWeatherQuery  = errors.New("a valid latitude and longitude or a place name is required")
	ErrWeatherUnavailable   = errors.New("weather provider unavailable")
	ErrWeatherNotConfigured = errors.New("weather lookups are not configured")
)

// WeatherCache stores recent weather lookups.
type WeatherCache interface {
	Get(ctx context.Context, key string) (*Weather, bool)
	Set(ctx context.Context, key string, weather *Weather)
}

// RedisWeatherCache is a WeatherCache kept in Redis with a fixed TTL.
// Cache errors are logged and treated as misses.
type RedisWeatherCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisWeatherCache(client *redis.Client, ttl time.Duration) *RedisWeatherCache {
	return &RedisWeatherCache{client: client, ttl: ttl}
}

func (c *RedisWeatherCache) Get(ctx context.Context, key string) (*Weather, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.WarnContext(ctx, "weather cache read failed", "key", key, "error", err)
		}
		return nil, false
	}

	var weather Weather
	if err := json.Unmarshal(data, &weather); err != nil {
		return nil, false
	}
	return &weather, true
}

func (c *RedisWeatherCache) Set(ctx context.Context, key string, weather *Weather) {
	data, err := json.Marshal(weather)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "weather cache write failed", "key", key, "error", err)
	}
}

// WeatherService validates weather queries and fronts the provider with an
// optional cache.
type WeatherService struct {
	provider WeatherProvider
	cache    WeatherCache
}

// NewWeatherService creates a WeatherService. provider and cache may be nil.
func NewWeatherService(provider WeatherProvider, cache WeatherCache) *WeatherService {
	return &WeatherService{provider: provider, cache: cache}
}

func parseCoordinate(raw string, limit float64) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.Abs(v) > limit {
		return 0, false
	}
	return v, true
}

// ByCoordinates returns the current weather at lat/lon given as query strings.
func (s *WeatherService) ByCoordinates(ctx context.Context, rawLat, rawLon string) (*Weather, error) {
	lat, okLat := parseCoordinate(rawLat, 90)
	lon, okLon := parseCoordinate(rawLon, 180)
	if !okLat || !okLon {
		return nil, ErrInvalidWeatherQuery
	}

	key := fmt.Sprintf("weather:coord:%.3f:%.3f", lat, lon)
	return s.lookup(ctx, key, func(ctx context.Context) (*Weather, error) {
		return s.provider.ByCoordinates(ctx, lat, lon)
	})
}

// ByPlace returns the current weather for a place name such as "Paris,FR".
func (s *WeatherService) ByPlace(ctx context.Context, place string) (*Weather, error) {
	place = strings.TrimSpace(place)
	if place == "" {
		return nil, ErrInvalidWeatherQuery
	}

	key := "weather:place:" + strings.ToLower(place)
	return s.lookup(ctx, key, func(ctx context.Context) (*Weather, error) {
		return s.provider.ByPlace(ctx, place)
	})
}

func (s *WeatherService) lookup(ctx context.Context, key string, fetch func(context.Context) (*Weather, error)) (*Weather, error) {
	if s.provider == nil {
		return nil, ErrWeatherNotConfigured
	}

	if s.cache != nil {
		if weather, ok := s.cache.Get(ctx, key); ok {
			return weather, nil
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, constants.WeatherTimeout)
	defer cancel()

	weather, err := fetch(fetchCtx)
	if err != nil {
		slog.WarnContext(ctx, "weather lookup failed", "key", key, "error", err)
		return nil, ErrWeatherUnavailable
	}

	if s.cache != nil {
		s.cache.Set(ctx, key, weather)
	}
	return weather, nil
}
