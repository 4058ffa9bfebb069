package ranker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

// Place is one raw fulfillment candidate from a places source.
type Place struct {
	ID       string
	Name     string
	Address  string
	Location LatLng
	Types    []string
	Website  string
}

// PlacesSource finds and enriches fulfillment candidates. A nil source means
// no external ranking is configured and the ranker synthesizes candidates.
type PlacesSource interface {
	TextSearch(ctx context.Context, query string, center LatLng, radiusMeters int) ([]Place, error)
	NearbySearch(ctx context.Context, center LatLng, radiusMeters int, placeType, keyword string) ([]Place, error)
	Details(ctx context.Context, placeID string) (Place, error)
}

type googlePlaces struct {
	key   string
	httpc *http.Client
	log   *zap.Logger
}

type googlePlaceResult struct {
	PlaceID  string `json:"place_id"`
	Name     string `json:"name"`
	Address  string `json:"formatted_address"`
	Types    []string `json:"types"`
	Website  string   `json:"website"`
	Geometry struct {
		Location LatLng `json:"location"`
	} `json:"geometry"`
}

func (r googlePlaceResult) toPlace() Place {
	return Place{
		ID:       r.PlaceID,
		Name:     r.Name,
		Address:  r.Address,
		Location: r.Geometry.Location,
		Types:    r.Types,
		Website:  r.Website,
	}
}

func (g *googlePlaces) TextSearch(ctx context.Context, query string, center LatLng, radiusMeters int) ([]Place, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("key", g.key)
	params.Set("region", "us")
	params.Set("location", fmt.Sprintf("%f,%f", center.Lat, center.Lng))
	params.Set("radius", fmt.Sprintf("%d", radiusMeters))
	return g.search(ctx, "https://maps.googleapis.com/maps/api/place/textsearch/json", params)
}

func (g *googlePlaces) NearbySearch(ctx context.Context, center LatLng, radiusMeters int, placeType, keyword string) ([]Place, error) {
	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", center.Lat, center.Lng))
	params.Set("radius", fmt.Sprintf("%d", radiusMeters))
	params.Set("type", placeType)
	params.Set("keyword", keyword)
	params.Set("key", g.key)
	return g.search(ctx, "https://maps.googleapis.com/maps/api/place/nearbysearch/json", params)
}

func (g *googlePlaces) search(ctx context.Context, endpoint string, params url.Values) ([]Place, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var parsed struct {
		Results []googlePlaceResult `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	places := make([]Place, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		if r.PlaceID == "" {
			continue
		}
		places = append(places, r.toPlace())
	}
	return places, nil
}

func (g *googlePlaces) Details(ctx context.Context, placeID string) (Place, error) {
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("key", g.key)
	params.Set("fields", "place_id,website,name,types,geometry,formatted_address")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://maps.googleapis.com/maps/api/place/details/json?"+params.Encode(), nil)
	if err != nil {
		return Place{}, err
	}
	resp, err := g.httpc.Do(req)
	if err != nil {
		return Place{}, err
	}
	defer resp.Body.Close()

	var parsed struct {
		Result googlePlaceResult `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Place{}, err
	}
	return parsed.Result.toPlace(), nil
}
