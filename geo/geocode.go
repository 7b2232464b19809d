package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"
)

// Geocoder resolves street addresses to coordinates through the Google
// Geocoding REST API.
type Geocoder struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func NewGeocoder() *Geocoder {
	return &Geocoder{
		BaseURL: "https://maps.googleapis.com/maps/api/geocode/json",
		APIKey:  os.Getenv("GOOGLE_MAPS_API_KEY"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Resolve returns lng, lat for an address.
func (g *Geocoder) Resolve(ctx context.Context, address string) (float64, float64, error) {
	if g.APIKey == "" {
		return 0, 0, fmt.Errorf("geocoder: GOOGLE_MAPS_API_KEY not set")
	}

	q := url.Values{}
	q.Set("address", address)
	q.Set("key", g.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return 0, 0, err
	}

	resp, err := g.HTTP.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()

	var out geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, 0, err
	}
	if out.Status != "OK" || len(out.Results) == 0 {
		return 0, 0, fmt.Errorf("geocoder: no result for %q (status %s)", address, out.Status)
	}

	loc := out.Results[0].Geometry.Location
	return loc.Lng, loc.Lat, nil
}
