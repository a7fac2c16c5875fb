package weather_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/msomdec/askhub/internal/weather"
)

func newFakeOpenWeather(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("appid") != "ow-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/geo/1.0/reverse":
			if r.URL.Query().Get("lat") != "18.52" || r.URL.Query().Get("lon") != "73.85" {
				t.Errorf("unexpected coordinates %s", r.URL.RawQuery)
			}
			w.Write([]byte(`[{"name":"Pune","state":"Maharashtra","country":"IN"}]`))
		case "/data/2.5/weather":
			if r.URL.Query().Get("units") != "metric" {
				t.Errorf("expected metric units")
			}
			w.Write([]byte(`{"main":{"temp":29.5},"weather":[{"main":"Clouds","description":"scattered clouds"}],"dt":1767225600}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenWeather_ReverseGeocode(t *testing.T) {
	srv := newFakeOpenWeather(t)
	c := weather.NewOpenWeather("ow-key", srv.URL)

	loc, err := c.ReverseGeocode(context.Background(), 18.52, 73.85)
	if err != nil {
		t.Fatalf("ReverseGeocode: %v", err)
	}
	if loc.City != "Pune" || loc.State != "Maharashtra" || loc.Country != "IN" {
		t.Fatalf("unexpected location %+v", loc)
	}
}

func TestOpenWeather_CurrentWeather(t *testing.T) {
	srv := newFakeOpenWeather(t)
	c := weather.NewOpenWeather("ow-key", srv.URL)

	report, err := c.CurrentWeather(context.Background(), 18.52, 73.85)
	if err != nil {
		t.Fatalf("CurrentWeather: %v", err)
	}
	if report.TemperatureC != 29.5 || report.Condition != "Clouds" || report.ObservedAt.IsZero() {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestOpenWeather_HTTPError(t *testing.T) {
	srv := newFakeOpenWeather(t)
	c := weather.NewOpenWeather("wrong", srv.URL)

	if _, err := c.CurrentWeather(context.Background(), 1, 2); err == nil {
		t.Fatal("expected error for rejected key")
	}
}
