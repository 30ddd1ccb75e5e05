package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestPharmacyService(geoURL string) *PharmacyService {
	return &PharmacyService{
		radius:      5000,
		fallbackLat: 28.6139,
		fallbackLng: 77.2090,
		geoURL:      geoURL,
		httpClient: &http.Client{
			Timeout: 500 * time.Millisecond,
		},
		logger: zap.NewNop(),
	}
}

func TestLocateUsesGeolocationResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","lat":12.9716,"lon":77.5946}`))
	}))
	defer server.Close()

	svc := newTestPharmacyService(server.URL)

	lat, lng := svc.locate(context.Background())
	assert.Equal(t, 12.9716, lat)
	assert.Equal(t, 77.5946, lng)
}

func TestLocateFallsBackWhenUnreachable(t *testing.T) {
	svc := newTestPharmacyService("http://127.0.0.1:1")

	lat, lng := svc.locate(context.Background())
	assert.Equal(t, 28.6139, lat)
	assert.Equal(t, 77.2090, lng)
}

func TestLocateFallsBackOnLookupFailureStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"fail","message":"private range"}`))
	}))
	defer server.Close()

	svc := newTestPharmacyService(server.URL)

	lat, lng := svc.locate(context.Background())
	assert.Equal(t, 28.6139, lat)
	assert.Equal(t, 77.2090, lng)
}
