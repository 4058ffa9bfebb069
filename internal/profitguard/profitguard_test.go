package profitguard

import (
	"testing"

	"github.com/shinertx/jenni-shopify/internal/config"
)

func testCoefficients() config.ProfitGuard {
	return config.ProfitGuard{
		FloorAbs:       8,
		FloorPct:       0.12,
		FeePct:         0.08,
		CogsPct:        0.6,
		CourierBase:    7,
		CourierPerMile: 1.2,
		TrustThreshold: 0.5,
	}
}

func TestComputePassingScenario(t *testing.T) {
	got := Compute(Inputs{Price: 100, DistanceMiles: 5, TrustScore: 0.8, BuyCost: 60}, testCoefficients())

	if got.CourierEstimate != 13.00 {
		t.Fatalf("expected courier 13.00, got %v", got.CourierEstimate)
	}
	if got.Fee != 8.00 {
		t.Fatalf("expected fee 8.00, got %v", got.Fee)
	}
	if got.LandedCost != 60.00 {
		t.Fatalf("expected landed cost 60.00, got %v", got.LandedCost)
	}
	if got.Margin != 19.00 {
		t.Fatalf("expected margin 19.00, got %v", got.Margin)
	}
	if got.Floor != 12.00 {
		t.Fatalf("expected floor 12.00, got %v", got.Floor)
	}
	if !got.Pass {
		t.Fatalf("expected pass, got reason %q", got.Reason)
	}
	if got.Reason != ReasonOK {
		t.Fatalf("expected reason ok, got %q", got.Reason)
	}
}

func TestComputeUsesCogsEstimateWithoutBuyCost(t *testing.T) {
	got := Compute(Inputs{Price: 100, DistanceMiles: 5, TrustScore: 0.8}, testCoefficients())
	if got.LandedCost != 60.00 {
		t.Fatalf("expected estimated landed cost 60.00, got %v", got.LandedCost)
	}

	got = Compute(Inputs{Price: 100, DistanceMiles: 5, TrustScore: 0.8, BuyCost: 45}, testCoefficients())
	if got.LandedCost != 45.00 {
		t.Fatalf("expected buy cost 45.00, got %v", got.LandedCost)
	}
	if got.Margin != 34.00 {
		t.Fatalf("expected margin 34.00, got %v", got.Margin)
	}
}

func TestComputeLowTrustWinsOverLowMargin(t *testing.T) {
	// Both conditions fail; low_trust takes precedence.
	got := Compute(Inputs{Price: 20, DistanceMiles: 15, TrustScore: 0.2, BuyCost: 18}, testCoefficients())
	if got.Pass {
		t.Fatalf("expected fail")
	}
	if got.Reason != ReasonLowTrust {
		t.Fatalf("expected low_trust, got %q", got.Reason)
	}

	got = Compute(Inputs{Price: 20, DistanceMiles: 15, TrustScore: 0.9, BuyCost: 18}, testCoefficients())
	if got.Pass {
		t.Fatalf("expected fail")
	}
	if got.Reason != ReasonLowMargin {
		t.Fatalf("expected low_margin, got %q", got.Reason)
	}
}

func TestComputeFloorUsesMaxOfAbsAndPct(t *testing.T) {
	got := Compute(Inputs{Price: 30, TrustScore: 0.8}, testCoefficients())
	if got.Floor != 8.00 {
		t.Fatalf("expected absolute floor 8.00, got %v", got.Floor)
	}

	got = Compute(Inputs{Price: 200, TrustScore: 0.8}, testCoefficients())
	if got.Floor != 24.00 {
		t.Fatalf("expected percentage floor 24.00, got %v", got.Floor)
	}
}

func TestComputeIsPure(t *testing.T) {
	in := Inputs{Price: 100, DistanceMiles: 5, TrustScore: 0.8, BuyCost: 60}
	first := Compute(in, testCoefficients())
	second := Compute(in, testCoefficients())
	if first != second {
		t.Fatalf("expected identical results, got %+v and %+v", first, second)
	}
}
