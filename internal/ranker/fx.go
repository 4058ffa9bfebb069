package ranker

import (
	"net/http"

	"github.com/shinertx/jenni-shopify/internal/config"
	"github.com/shinertx/jenni-shopify/internal/observability/tracing"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("ranker",
	fx.Provide(NewFromConfig),
)

// NewFromConfig wires the Google geocoder and places source when a Maps key
// is present; otherwise the ranker runs on the static fallbacks.
func NewFromConfig(cfg config.Config, log *zap.Logger) *Ranker {
	mapsClient := tracing.WrapHTTPClient(&http.Client{Timeout: cfg.Maps.Timeout})
	probeClient := tracing.WrapHTTPClient(&http.Client{Timeout: probeTimeout})

	var geocoder Geocoder = staticGeocoder{}
	var places PlacesSource
	if cfg.Maps.APIKey != "" {
		geocoder = &googleGeocoder{key: cfg.Maps.APIKey, httpc: mapsClient, log: log.Named("ranker.geocode")}
		places = &googlePlaces{key: cfg.Maps.APIKey, httpc: mapsClient, log: log.Named("ranker.places")}
	}
	return New(geocoder, places, probeClient, log)
}
