// Package decision combines eligibility, ranked fulfillment candidates and
// unit economics into a single call-to-action for the shopper.
package decision

import (
	"context"
	"strings"
	"time"

	"github.com/shinertx/jenni-shopify/internal/clock"
	"github.com/shinertx/jenni-shopify/internal/config"
	"github.com/shinertx/jenni-shopify/internal/eligibility"
	"github.com/shinertx/jenni-shopify/internal/fingerprint"
	"github.com/shinertx/jenni-shopify/internal/profitguard"
	"github.com/shinertx/jenni-shopify/internal/ranker"
	"go.uber.org/zap"
)

const (
	CTAArrivesToday = "arrives_today"
	CTAPickupToday  = "pickup_today"
	CTAFallback     = "fallback"

	ReasonOK                 = "ok"
	ReasonTooFar             = "too_far"
	ReasonLowTrust           = "low_trust"
	ReasonLowMargin          = "low_margin"
	ReasonNoNearbyStores     = "no_nearby_stores"
	ReasonNotInNetwork       = "not_in_network"
	ReasonEconomicsBlock     = "economics_block"
	ReasonLowMatchConfidence = "low_match_confidence"
)

const (
	topNodeCount       = 5
	defaultPrice       = 80.0
	defaultDistance    = 4.0
	defaultTrust       = 0.6
	confidenceCutoff   = 0.5
	checkPass          = "pass"
	checkHold          = "hold"
	defaultStoreID     = "demo-store"
	defaultSearchQuery = "sneakers"
)

// NodeEconomics is a ranked node annotated with its own ProfitGuard numbers.
type NodeEconomics struct {
	ranker.Node
	CourierEstimate float64 `json:"courier_est"`
	Margin          float64 `json:"margin"`
	Floor           float64 `json:"floor"`
	TrustScore      float64 `json:"trustScore"`
	Pass            bool    `json:"pgPass"`
}

// Checks reports the three independent pass/hold gates.
type Checks struct {
	Profit   string `json:"profit"`
	Trust    string `json:"trust"`
	Distance string `json:"distance"`
}

// Outcome is the CTA plus its machine-checkable reason.
type Outcome struct {
	CTA    string `json:"cta"`
	Checks Checks `json:"checks"`
	Reason string `json:"reason"`
}

// Economics summarizes the aggregate ProfitGuard view.
type Economics struct {
	SalePrice float64 `json:"salePrice"`
	BuyCost   float64 `json:"buyCost"`
	Fee       float64 `json:"fee"`
	Courier   float64 `json:"courier"`
	Margin    float64 `json:"margin"`
	Floor     float64 `json:"floor"`
	Pass      bool    `json:"pass"`
	Trust     Trust   `json:"trust"`
}

// Trust pairs the best node's score with the configured threshold.
type Trust struct {
	Score     float64 `json:"score"`
	Threshold float64 `json:"threshold"`
}

// Product echoes the fingerprint back with match metadata.
type Product struct {
	Title              string  `json:"title,omitempty"`
	Brand              string  `json:"brand,omitempty"`
	SKU                string  `json:"sku,omitempty"`
	GTIN               string  `json:"gtin,omitempty"`
	StyleCode          string  `json:"styleCode,omitempty"`
	FingerprintQuality float64 `json:"fingerprintQuality"`
	MatchConfidence    float64 `json:"matchConfidence"`
	MatchType          string  `json:"matchType"`
	SubstitutionLevel  int     `json:"substitutionLevel"`
}

// Resolution is the single decision payload returned per request.
type Resolution struct {
	Eligible           bool               `json:"eligible"`
	SameDay            bool               `json:"sameDay"`
	ETAMinutes         *int               `json:"etaMinutes"`
	MatchingScore      float64            `json:"matching_score"`
	NodeCount          int                `json:"node_count"`
	Nodes              []NodeEconomics    `json:"nodes"`
	ExactMatch         bool               `json:"exactMatch"`
	MatchMethod        string             `json:"match_method"`
	MatchType          string             `json:"matchType"`
	SubstitutionLevel  int                `json:"substitutionLevel"`
	Economics          Economics          `json:"economics"`
	Product            Product            `json:"product"`
	Decision           Outcome            `json:"decision"`
	ProfitGuard        profitguard.Result `json:"profitGuard"`
	WaitlistOffered    bool               `json:"waitlistOffered"`
	SuggestedIncentive *string            `json:"suggestedIncentive"`
}

// Engine runs the resolution pipeline. Provider failures degrade to a valid
// not-eligible decision; the engine never surfaces a bare error for them.
type Engine struct {
	cfg         config.ProfitGuard
	eligibility *eligibility.Client
	ranker      *ranker.Ranker
	clock       clock.Clock
	log         *zap.Logger
}

func NewEngine(cfg config.Config, elig *eligibility.Client, rk *ranker.Ranker, clk clock.Clock, log *zap.Logger) *Engine {
	return &Engine{
		cfg:         cfg.ProfitGuard,
		eligibility: elig,
		ranker:      rk,
		clock:       clk,
		log:         log.Named("decision"),
	}
}

// Resolve runs the full pipeline for one ZIP + fingerprint.
func (e *Engine) Resolve(ctx context.Context, zip string, fp fingerprint.Fingerprint) Resolution {
	query := firstNonEmpty(fp.StyleCode, fp.SKU, fp.Title, defaultSearchQuery)
	nodes := e.ranker.Rank(ctx, ranker.Request{
		Zip:       zip,
		Query:     query,
		Brand:     fp.Brand,
		StyleCode: fp.StyleCode,
	})
	top := nodes
	if len(top) > topNodeCount {
		top = top[:topNodeCount]
	}

	distance := defaultDistance
	trustScore := defaultTrust
	if len(top) > 0 {
		if top[0].DistanceMiles > 0 {
			distance = top[0].DistanceMiles
		}
		if top[0].Score > 0 {
			trustScore = top[0].Score
		}
	}

	var eligible, exactMatch bool
	var buyCost float64
	if fp.GTIN != "" {
		result, err := e.eligibility.Check(ctx, eligibility.Query{
			StoreID: defaultStoreID,
			Zip:     zip,
			GTIN:    fp.GTIN,
		})
		if err != nil {
			e.log.Warn("eligibility check degraded", zap.String("gtin", fp.GTIN), zap.Error(err))
		} else {
			eligible = result.Eligible
			exactMatch = result.Eligible
			if result.MinPrice != nil {
				buyCost = *result.MinPrice
			}
		}
	} else {
		eligible = len(top) > 0
	}

	var etaMinutes *int
	if eligible {
		eta := regionETAMinutes(zip)
		etaMinutes = &eta
	}

	price := fp.Price
	if price <= 0 {
		if buyCost > 0 {
			price = buyCost
		} else {
			price = defaultPrice
		}
	}

	aggregate := profitguard.Compute(profitguard.Inputs{
		Price:         price,
		DistanceMiles: distance,
		TrustScore:    trustScore,
		BuyCost:       buyCost,
	}, e.cfg)

	withEconomics := make([]NodeEconomics, 0, len(top))
	anyPass := false
	for _, n := range top {
		d := n.DistanceMiles
		if d <= 0 {
			d = distance
		}
		trust := n.Score
		if trust <= 0 {
			trust = trustScore
		}
		pg := profitguard.Compute(profitguard.Inputs{
			Price:         price,
			DistanceMiles: d,
			TrustScore:    trust,
			BuyCost:       buyCost,
		}, e.cfg)
		if pg.Pass {
			anyPass = true
		}
		withEconomics = append(withEconomics, NodeEconomics{
			Node:            n,
			CourierEstimate: pg.CourierEstimate,
			Margin:          pg.Margin,
			Floor:           pg.Floor,
			TrustScore:      profitguard.Round2(trust),
			Pass:            pg.Pass,
		})
	}

	sameDay := false
	if etaMinutes != nil {
		now := e.clock.Now()
		eta := now.Add(time.Duration(*etaMinutes) * time.Minute)
		sameDay = sameCalendarDay(now, eta)
	}

	profitPass := aggregate.Pass || anyPass
	trustPass := trustScore >= e.cfg.TrustThreshold
	distancePass := etaMinutes != nil && sameDay && *etaMinutes <= e.cfg.ETACutoffMinutes

	cta := CTAFallback
	switch {
	case eligible && profitPass && trustPass && distancePass:
		cta = CTAArrivesToday
	case !profitPass && trustPass && distancePass && len(withEconomics) > 0:
		cta = CTAPickupToday
	}

	confidence := fp.Confidence()
	reason := deriveReason(profitPass, trustPass, distancePass)
	switch {
	case !eligible && len(top) == 0:
		reason = ReasonNoNearbyStores
	case !eligible:
		reason = ReasonNotInNetwork
	case !anyPass && !aggregate.Pass:
		reason = ReasonEconomicsBlock
	}
	if confidence < confidenceCutoff {
		reason = ReasonLowMatchConfidence
	}

	meta := fp.Meta()
	marginHeadroom := profitguard.Round2(aggregate.Margin - aggregate.Floor)
	var incentive *string
	if aggregate.Pass && marginHeadroom > maxFloat(4, aggregate.Floor*0.4) {
		v := "free_2day_shipping"
		incentive = &v
	}
	waitlist := !eligible && (reason == ReasonNoNearbyStores || reason == ReasonNotInNetwork)

	landed := aggregate.LandedCost
	return Resolution{
		Eligible:          eligible && (anyPass || aggregate.Pass),
		SameDay:           sameDay,
		ETAMinutes:        etaMinutes,
		MatchingScore:     confidence,
		NodeCount:         len(withEconomics),
		Nodes:             withEconomics,
		ExactMatch:        exactMatch,
		MatchMethod:       fp.MatchMethod(),
		MatchType:         meta.MatchType,
		SubstitutionLevel: meta.SubstitutionLevel,
		Economics: Economics{
			SalePrice: profitguard.Round2(price),
			BuyCost:   landed,
			Fee:       aggregate.Fee,
			Courier:   aggregate.CourierEstimate,
			Margin:    aggregate.Margin,
			Floor:     aggregate.Floor,
			Pass:      aggregate.Pass,
			Trust:     Trust{Score: profitguard.Round2(trustScore), Threshold: e.cfg.TrustThreshold},
		},
		Product: Product{
			Title:              fp.Title,
			Brand:              fp.Brand,
			SKU:                fp.SKU,
			GTIN:               fp.GTIN,
			StyleCode:          fp.StyleCode,
			FingerprintQuality: fp.Quality(),
			MatchConfidence:    confidence,
			MatchType:          meta.MatchType,
			SubstitutionLevel:  meta.SubstitutionLevel,
		},
		Decision: Outcome{
			CTA: cta,
			Checks: Checks{
				Profit:   passOrHold(profitPass),
				Trust:    passOrHold(trustPass),
				Distance: passOrHold(distancePass),
			},
			Reason: reason,
		},
		ProfitGuard:        aggregate,
		WaitlistOffered:    waitlist,
		SuggestedIncentive: incentive,
	}
}

// deriveReason reports the first failing check in profit, trust, distance
// order.
func deriveReason(profit, trust, distance bool) string {
	switch {
	case !profit:
		return ReasonLowMargin
	case !trust:
		return ReasonLowTrust
	case !distance:
		return ReasonTooFar
	default:
		return ReasonOK
	}
}

// regionETAMinutes is the resolved-delivery heuristic: Bay Area ZIPs run a
// shorter courier window than the default metro.
func regionETAMinutes(zip string) int {
	if strings.HasPrefix(zip, "94") {
		return 80
	}
	return 110
}

func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func passOrHold(pass bool) string {
	if pass {
		return checkPass
	}
	return checkHold
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
