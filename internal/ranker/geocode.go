package ranker

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// LatLng is a geographic coordinate.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Geocoder resolves a ZIP to a coordinate. Implementations are best-effort;
// callers always receive a usable center.
type Geocoder interface {
	GeocodeZip(ctx context.Context, zip string) LatLng
}

// Regional fallbacks keyed by ZIP prefix, with a default metro center.
var (
	bayAreaCenter = LatLng{Lat: 37.789, Lng: -122.401}
	defaultCenter = LatLng{Lat: 40.7505, Lng: -73.9934}
)

func fallbackCenter(zip string) LatLng {
	if strings.HasPrefix(zip, "94") {
		return bayAreaCenter
	}
	return defaultCenter
}

// staticGeocoder serves only the fixed regional table.
type staticGeocoder struct{}

func (staticGeocoder) GeocodeZip(_ context.Context, zip string) LatLng {
	return fallbackCenter(zip)
}

// StaticGeocoder returns the offline regional-table geocoder.
func StaticGeocoder() Geocoder { return staticGeocoder{} }

// googleGeocoder queries the Google geocoding API, falling back to the
// regional table on any failure.
type googleGeocoder struct {
	key   string
	httpc *http.Client
	log   *zap.Logger
}

type googleGeocodeResponse struct {
	Results []struct {
		Geometry struct {
			Location LatLng `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

func (g *googleGeocoder) GeocodeZip(ctx context.Context, zip string) LatLng {
	params := url.Values{}
	params.Set("address", zip)
	params.Set("key", g.key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://maps.googleapis.com/maps/api/geocode/json?"+params.Encode(), nil)
	if err != nil {
		return fallbackCenter(zip)
	}
	resp, err := g.httpc.Do(req)
	if err != nil {
		g.log.Debug("geocode failed", zap.String("zip", zip), zap.Error(err))
		return fallbackCenter(zip)
	}
	defer resp.Body.Close()

	var parsed googleGeocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil || len(parsed.Results) == 0 {
		return fallbackCenter(zip)
	}
	loc := parsed.Results[0].Geometry.Location
	if loc.Lat == 0 && loc.Lng == 0 {
		return fallbackCenter(zip)
	}
	return loc
}

// haversineMiles is the great-circle distance between two coordinates.
func haversineMiles(a, b LatLng) float64 {
	const earthRadiusMiles = 3958.8
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)
	lat1 := toRad(a.Lat)
	lat2 := toRad(b.Lat)
	h := math.Pow(math.Sin(dLat/2), 2) + math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dLng/2), 2)
	return 2 * earthRadiusMiles * math.Asin(math.Sqrt(h))
}
