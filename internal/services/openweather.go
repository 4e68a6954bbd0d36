package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	defaultOpenWeatherURL = "https://api.openweathermap.org/data/2.5/weather"
	openWeatherIconURL    = "https://openweathermap.org/img/wn/%s@2x.png"
)

// Weather is the current weather at a place.
type Weather struct {
	Name        string  `json:"name"`
	TempC       float64 `json:"tempC"`
	Description string  `json:"description"`
	IconURL     string  `json:"iconUrl"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

// WeatherProvider looks up current weather conditions.
type WeatherProvider interface {
	ByCoordinates(ctx context.Context, lat, lon float64) (*Weather, error)
	ByPlace(ctx context.Context, place string) (*Weather, error)
}

// OpenWeatherClient is a WeatherProvider for the OpenWeather current
// weather API.
type OpenWeatherClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// OpenWeatherOption configures an OpenWeatherClient.
type OpenWeatherOption func(*OpenWeatherClient)

// WithOpenWeatherURL points the client at a different endpoint.
func WithOpenWeatherURL(baseURL string) OpenWeatherOption {
	return func(c *OpenWeatherClient) {
		c.baseURL = baseURL
	}
}

// NewOpenWeatherClient creates an OpenWeatherClient. Requests are bounded
// by timeout.
func NewOpenWeatherClient(apiKey string, timeout time.Duration, opts ...OpenWeatherOption) *OpenWeatherClient {
	c := &OpenWeatherClient{
		apiKey:     apiKey,
		baseURL:    defaultOpenWeatherURL,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *OpenWeatherClient) ByCoordinates(ctx context.Context, lat, lon float64) (*Weather, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	return c.fetch(ctx, params)
}

func (c *OpenWeatherClient) ByPlace(ctx context.Context, place string) (*Weather, error) {
	params := url.Values{}
	params.Set("q", place)
	return c.fetch(ctx, params)
}

type openWeatherResponse struct {
	Name  string `json:"name"`
	Coord struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
}

func (c *OpenWeatherClient) fetch(ctx context.Context, params url.Values) (*Weather, error) {
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("openweather: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openweather: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("openweather: status %d: %s", resp.StatusCode, body)
	}

	var payload openWeatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("openweather: decode response: %w", err)
	}
	if len(payload.Weather) == 0 {
		return nil, fmt.Errorf("openweather: response has no conditions")
	}

	return &Weather{
		Name:        payload.Name,
		TempC:       payload.Main.Temp,
		Description: payload.Weather[0].Description,
		IconURL:     fmt.Sprintf(openWeatherIconURL, payload.Weather[0].Icon),
		Lat:         payload.Coord.Lat,
		Lon:         payload.Coord.Lon,
	}, nil
}
