// Package weather looks up places and current conditions from OpenWeather.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/msomdec/askhub/internal/domain"
)

// OpenWeather calls the OpenWeather geocoding and current weather APIs.
type OpenWeather struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// NewOpenWeather creates a client with a 10 second timeout.
func NewOpenWeather(apiKey, baseURL string) *OpenWeather {
	return &OpenWeather{
		APIKey:     strings.TrimSpace(apiKey),
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type geoResult struct {
	Name    string `json:"name"`
	State   string `json:"state"`
	Country string `json:"country"`
}

type weatherResult struct {
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Dt int64 `json:"dt"`
}

func (c *OpenWeather) ReverseGeocode(ctx context.Context, lat, lon float64) (*domain.Location, error) {
	var results []geoResult
	if err := c.get(ctx, "/geo/1.0/reverse", lat, lon, url.Values{"limit": {"1"}}, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, errors.New("no place found for coordinates")
	}
	r := results[0]
	return &domain.Location{City: r.Name, State: r.State, Country: r.Country}, nil
}

func (c *OpenWeather) CurrentWeather(ctx context.Context, lat, lon float64) (*domain.WeatherReport, error) {
	var w weatherResult
	if err := c.get(ctx, "/data/2.5/weather", lat, lon, url.Values{"units": {"metric"}}, &w); err != nil {
		return nil, err
	}
	report := &domain.WeatherReport{TemperatureC: w.Main.Temp}
	if len(w.Weather) > 0 {
		report.Condition = w.Weather[0].Main
		report.Description = w.Weather[0].Description
	}
	if w.Dt > 0 {
		report.ObservedAt = time.Unix(w.Dt, 0).UTC()
	}
	return report, nil
}

func (c *OpenWeather) get(ctx context.Context, path string, lat, lon float64, extra url.Values, dst any) error {
	if c.APIKey == "" {
		return errors.New("missing OPENWEATHER_API_KEY")
	}

	q := url.Values{}
	for k, v := range extra {
		q[k] = v
	}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("appid", c.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("openweather %s http %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode openweather %s: %w", path, err)
	}
	return nil
}
