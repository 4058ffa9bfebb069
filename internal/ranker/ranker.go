// Package ranker discovers and scores nearby fulfillment candidates for a
// destination ZIP.
package ranker

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"

	"go.uber.org/zap"
)

const (
	searchRadiusMeters = 20_000
	maxNodes           = 20
	detailLimit        = 4
	detailLimitProbe   = 6
)

// Node is one ranked fulfillment candidate. Produced fresh per call, never
// persisted.
type Node struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Address       string  `json:"address,omitempty"`
	Website       string  `json:"website,omitempty"`
	ProductURL    string  `json:"productUrl,omitempty"`
	DistanceMiles float64 `json:"distanceMiles"`
	ETAMinutes    int     `json:"etaMinutes"`
	Stock         int     `json:"stock"`
	Score         float64 `json:"score"`
	ProductMatch  bool    `json:"productMatch"`
}

// Request carries the product context used to bias candidate search.
type Request struct {
	Zip       string
	Query     string
	Brand     string
	StyleCode string
	Probe     bool
}

// Ranker geocodes the destination and ranks nearby candidates by brand
// affinity, category fit, distance and an optional website probe.
type Ranker struct {
	geocoder Geocoder
	places   PlacesSource
	httpc    *http.Client
	log      *zap.Logger
}

func New(geocoder Geocoder, places PlacesSource, httpc *http.Client, log *zap.Logger) *Ranker {
	return &Ranker{
		geocoder: geocoder,
		places:   places,
		httpc:    httpc,
		log:      log.Named("ranker"),
	}
}

// Rank returns candidates ordered by descending score, ties broken by
// ascending distance. Without a configured places source it returns a small
// synthetic list anchored at the geocoded center so downstream logic always
// has data. A configured source that answers with zero candidates is an
// empty result, not a fallback: the destination genuinely has no stores.
func (r *Ranker) Rank(ctx context.Context, req Request) []Node {
	center := r.geocoder.GeocodeZip(ctx, req.Zip)
	if r.places == nil {
		return syntheticNodes(center)
	}

	merged, order, searched := r.collectCandidates(ctx, req, center)
	if len(merged) == 0 {
		if searched {
			return nil
		}
		return syntheticNodes(center)
	}

	enriched := r.enrich(ctx, merged, order, req.Probe)

	var probes map[string]probeResult
	if req.Probe {
		probes = r.probeWebsites(ctx, enriched, req.StyleCode, req.Query)
	}

	nodes := make([]Node, 0, len(merged))
	for id, place := range merged {
		if det, ok := enriched[id]; ok {
			place = det
		}
		nodes = append(nodes, r.scoreNode(place, center, req.Brand, probes[id]))
	}

	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Score != nodes[j].Score {
			return nodes[i].Score > nodes[j].Score
		}
		return nodes[i].DistanceMiles < nodes[j].DistanceMiles
	})
	if len(nodes) > maxNodes {
		nodes = nodes[:maxNodes]
	}
	return nodes
}

// collectCandidates issues up to three ranked queries and merges results by
// place id, first occurrence winning. searched reports whether at least one
// query completed, so callers can tell an empty answer from a dead source.
func (r *Ranker) collectCandidates(ctx context.Context, req Request, center LatLng) (map[string]Place, []string, bool) {
	brand := strings.TrimSpace(req.Brand)
	query := strings.TrimSpace(req.Query)

	type search func() ([]Place, error)
	var searches []search
	if req.StyleCode != "" && brand != "" {
		q := fmt.Sprintf("%s %s retailer", brand, req.StyleCode)
		searches = append(searches, func() ([]Place, error) {
			return r.places.TextSearch(ctx, q, center, searchRadiusMeters)
		})
	}
	if brand != "" && query != "" {
		q := brand + " store"
		searches = append(searches, func() ([]Place, error) {
			return r.places.TextSearch(ctx, q, center, searchRadiusMeters)
		})
	}
	keyword := brand
	if keyword == "" {
		keyword = "sneakers"
	}
	searches = append(searches, func() ([]Place, error) {
		return r.places.NearbySearch(ctx, center, searchRadiusMeters, "shoe_store", keyword)
	})

	merged := make(map[string]Place)
	var order []string
	searched := false
	for _, s := range searches {
		places, err := s()
		if err != nil {
			r.log.Debug("places query failed", zap.Error(err))
			continue
		}
		searched = true
		for _, p := range places {
			if _, seen := merged[p.ID]; !seen {
				merged[p.ID] = p
				order = append(order, p.ID)
			}
		}
	}
	return merged, order, searched
}

// enrich fetches details for the top candidates, best effort.
func (r *Ranker) enrich(ctx context.Context, merged map[string]Place, order []string, probe bool) map[string]Place {
	limit := detailLimit
	if probe {
		limit = detailLimitProbe
	}
	ids := order
	if len(ids) > limit {
		ids = ids[:limit]
	}

	enriched := make(map[string]Place, len(ids))
	for _, id := range ids {
		det, err := r.places.Details(ctx, id)
		if err != nil || det.ID == "" {
			continue
		}
		if det.Location.Lat == 0 && det.Location.Lng == 0 {
			det.Location = merged[id].Location
		}
		enriched[id] = det
	}
	return enriched
}

func (r *Ranker) scoreNode(place Place, center LatLng, brand string, probe probeResult) Node {
	loc := place.Location
	if loc.Lat == 0 && loc.Lng == 0 {
		loc = center
	}
	distance := haversineMiles(center, loc)

	var brandBoost float64
	brandLower := strings.ToLower(strings.TrimSpace(brand))
	if brandLower != "" {
		if strings.Contains(strings.ToLower(place.Name), brandLower) {
			brandBoost += 0.5
		}
		if place.Website != "" && strings.Contains(strings.ToLower(place.Website), brandLower) {
			brandBoost += 0.1
		}
	}

	var typeBoost float64
	if hasType(place.Types, "shoe_store") {
		typeBoost += 0.2
	}
	if hasType(place.Types, "clothing_store") {
		typeBoost += 0.1
	}

	distanceBoost := math.Max(0, 0.2-math.Min(distance, 20)*(0.2/20))

	var probeBoost float64
	if probe.productMatch {
		probeBoost = 0.25
	}

	score := math.Min(0.99, 0.3+brandBoost+typeBoost+distanceBoost+probeBoost)

	return Node{
		ID:            place.ID,
		Name:          place.Name,
		Address:       place.Address,
		Website:       place.Website,
		ProductURL:    probe.productURL,
		DistanceMiles: distance,
		ETAMinutes:    etaMinutes(distance),
		Stock:         stockEstimate(distance),
		Score:         math.Round(score*100) / 100,
		ProductMatch:  probe.productMatch,
	}
}

// etaMinutes is a fixed average-speed-plus-dispatch-overhead model.
func etaMinutes(distanceMiles float64) int {
	eta := int(math.Round(distanceMiles/20*60 + 30))
	if eta < 30 {
		return 30
	}
	return eta
}

func stockEstimate(distanceMiles float64) int {
	stock := int(math.Round(8 - distanceMiles))
	if stock < 1 {
		return 1
	}
	return stock
}

func hasType(types []string, want string) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}

// syntheticNodes anchors a fixed candidate list at the geocoded center so
// the rest of the pipeline always has data to reason about.
func syntheticNodes(center LatLng) []Node {
	fixtures := []struct {
		id, name, website string
		dLat, dLng        float64
	}{
		{"demo_a", "Downtown Sneaker Co", "https://example.com/downtown", 0.02, -0.01},
		{"demo_b", "City Sports Outfitters", "https://example.com/citysports", -0.03, 0.015},
		{"demo_c", "Uptown Active", "https://example.com/uptown", 0.05, 0.02},
	}
	nodes := make([]Node, 0, len(fixtures))
	for _, f := range fixtures {
		distance := haversineMiles(center, LatLng{Lat: center.Lat + f.dLat, Lng: center.Lng + f.dLng})
		nodes = append(nodes, Node{
			ID:            f.id,
			Name:          f.name,
			Website:       f.website,
			DistanceMiles: distance,
			ETAMinutes:    etaMinutes(distance),
			Stock:         stockEstimate(distance),
			Score:         0.6,
		})
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Score != nodes[j].Score {
			return nodes[i].Score > nodes[j].Score
		}
		return nodes[i].DistanceMiles < nodes[j].DistanceMiles
	})
	return nodes
}
