// Package profitguard computes per-fulfillment unit economics: landed cost,
// platform fee, courier estimate and margin against a configurable floor.
package profitguard

import (
	"math"

	"github.com/shinertx/jenni-shopify/internal/config"
)

const (
	ReasonOK        = "ok"
	ReasonLowMargin = "low_margin"
	ReasonLowTrust  = "low_trust"
)

// Inputs describe one candidate fulfillment. BuyCost, when positive, is the
// known procurement cost and replaces the COGS-percentage estimate.
type Inputs struct {
	Price         float64
	DistanceMiles float64
	TrustScore    float64
	BuyCost       float64
}

// Result is the economics verdict. All monetary fields are rounded to two
// decimals.
type Result struct {
	Price           float64 `json:"price"`
	LandedCost      float64 `json:"landed_cost"`
	Fee             float64 `json:"fee"`
	CourierEstimate float64 `json:"courier_est"`
	Margin          float64 `json:"margin"`
	Floor           float64 `json:"floor"`
	TrustScore      float64 `json:"trustScore"`
	Pass            bool    `json:"pass"`
	Reason          string  `json:"reason"`
}

// Compute is a pure function of its inputs and the coefficient set.
func Compute(in Inputs, pg config.ProfitGuard) Result {
	courier := pg.CourierBase + pg.CourierPerMile*in.DistanceMiles
	fee := pg.FeePct * in.Price
	landed := pg.CogsPct * in.Price
	if in.BuyCost > 0 {
		landed = in.BuyCost
	}
	floor := math.Max(pg.FloorAbs, pg.FloorPct*in.Price)
	margin := in.Price - landed - fee - courier
	pass := margin >= floor && in.TrustScore >= pg.TrustThreshold

	reason := ReasonOK
	if !pass {
		if in.TrustScore < pg.TrustThreshold {
			reason = ReasonLowTrust
		} else {
			reason = ReasonLowMargin
		}
	}

	return Result{
		Price:           in.Price,
		LandedCost:      Round2(landed),
		Fee:             Round2(fee),
		CourierEstimate: Round2(courier),
		Margin:          Round2(margin),
		Floor:           Round2(floor),
		TrustScore:      Round2(in.TrustScore),
		Pass:            pass,
		Reason:          reason,
	}
}

// Round2 rounds to two decimal places, half away from zero.
func Round2(n float64) float64 {
	return math.Round(n*100) / 100
}
