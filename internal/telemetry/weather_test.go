package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPWeatherForecast(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"condition": "sunny", "temperature_c": 28.5}`))
	}))
	defer srv.Close()

	f, err := NewHTTPWeather(srv.URL, "secret").Forecast(context.Background())
	if err != nil {
		t.Fatalf("Forecast returned error: %v", err)
	}
	if f.Condition != "sunny" || f.TemperatureC != 28.5 {
		t.Fatalf("forecast=%+v", f)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("auth header=%q", gotAuth)
	}
}

func TestHTTPWeatherErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := NewHTTPWeather(srv.URL, "").Forecast(context.Background()); err == nil {
		t.Fatal("expected status error, got nil")
	}
}

func TestHTTPWeatherBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	if _, err := NewHTTPWeather(srv.URL, "").Forecast(context.Background()); err == nil {
		t.Fatal("expected parse error, got nil")
	}
}
