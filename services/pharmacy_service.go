package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"googlemaps.github.io/maps"

	"health-copilot-backend/config"
	"health-copilot-backend/models"
)

// PharmacyLocator finds pharmacies near the caller's approximate location,
// optionally filtered by a medicine keyword.
type PharmacyLocator interface {
	FindNearby(ctx context.Context, keyword string) ([]models.Pharmacy, error)
}

const geolocationURL = "http://ip-api.com/json"

type PharmacyService struct {
	mapsClient  *maps.Client
	radius      uint
	fallbackLat float64
	fallbackLng float64
	geoURL      string
	httpClient  *http.Client
	logger      *zap.Logger
}

func NewPharmacyService(cfg config.MapsConfig, logger *zap.Logger) (*PharmacyService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create maps client: %w", err)
	}

	return &PharmacyService{
		mapsClient:  client,
		radius:      cfg.SearchRadius,
		fallbackLat: cfg.FallbackLat,
		fallbackLng: cfg.FallbackLng,
		geoURL:      geolocationURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}, nil
}

func (s *PharmacyService) FindNearby(ctx context.Context, keyword string) ([]models.Pharmacy, error) {
	lat, lng := s.locate(ctx)

	resp, err := s.mapsClient.NearbySearch(ctx, &maps.NearbySearchRequest{
		Location: &maps.LatLng{Lat: lat, Lng: lng},
		Radius:   s.radius,
		Type:     maps.PlaceTypePharmacy,
		Keyword:  keyword,
	})
	if err != nil {
		return nil, fmt.Errorf("nearby pharmacy search: %w", err)
	}

	pharmacies := make([]models.Pharmacy, 0, len(resp.Results))
	for _, r := range resp.Results {
		loc := r.Geometry.Location
		pharmacies = append(pharmacies, models.Pharmacy{
			Name:     r.Name,
			Address:  r.Vicinity,
			MapsLink: fmt.Sprintf("https://www.google.com/maps/search/?api=1&query=%f,%f", loc.Lat, loc.Lng),
		})
	}
	return pharmacies, nil
}

type geoResponse struct {
	Status string  `json:"status"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
}

// locate resolves the caller's approximate coordinates by IP. Any failure
// falls back to the configured fixed coordinates.
func (s *PharmacyService) locate(ctx context.Context) (float64, float64) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.geoURL, nil)
	if err != nil {
		return s.fallbackLat, s.fallbackLng
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Warn("geolocation lookup failed, using fallback coordinates", zap.Error(err))
		return s.fallbackLat, s.fallbackLng
	}
	defer resp.Body.Close()

	var geo geoResponse
	if err := json.NewDecoder(resp.Body).Decode(&geo); err != nil || geo.Status != "success" {
		s.logger.Warn("geolocation response unusable, using fallback coordinates")
		return s.fallbackLat, s.fallbackLng
	}

	return geo.Lat, geo.Lon
}
