package tax

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var testRef = time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

func amount(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func TestComputeContributionDefaultTable(t *testing.T) {
	cases := []struct {
		name string
		base string
		want string
	}{
		{"zero", "0", "0"},
		{"inside first bracket", "1000.00", "75.00"},
		{"first bracket boundary", "1412.00", "105.90"},
		{"spans three brackets", "3000.00", "258.82"},
		{"top of table", "7786.02", "908.86"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeContribution(DefaultContributionTable(), amount(tc.base))
			if !got.Equal(amount(tc.want)) {
				t.Fatalf("base %s: got %s, want %s", tc.base, got, tc.want)
			}
		})
	}
}

func TestContributionCeiling(t *testing.T) {
	calc := NewCalculator(nil)
	got := calc.Contribution(context.Background(), "tenant-1", amount("10000.00"), testRef)
	if !got.Equal(ContributionCeiling) {
		t.Fatalf("expected ceiling %s, got %s", ContributionCeiling, got)
	}
}

func TestContributionMonotonic(t *testing.T) {
	calc := NewCalculator(nil)
	previous := decimal.Zero
	for base := int64(0); base <= 12000; base += 250 {
		got := calc.Contribution(context.Background(), "tenant-1", decimal.NewFromInt(base), testRef)
		if got.LessThan(previous) {
			t.Fatalf("contribution decreased at base %d: %s < %s", base, got, previous)
		}
		if got.GreaterThan(ContributionCeiling) {
			t.Fatalf("contribution exceeded ceiling at base %d: %s", base, got)
		}
		previous = got
	}
}

func TestComputeWithholdingDefaultTable(t *testing.T) {
	cases := []struct {
		name string
		base string
		want string
	}{
		{"exempt", "2000.00", "0"},
		{"exempt boundary", "2259.20", "0"},
		{"just above exempt", "2259.21", "0.00"},
		{"second bracket", "2500.00", "18.06"},
		{"top bracket", "5000.00", "479.00"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeWithholding(DefaultWithholdingTable(), amount(tc.base))
			if !got.Equal(amount(tc.want)) {
				t.Fatalf("base %s: got %s, want %s", tc.base, got, tc.want)
			}
		})
	}
}

// Crossing into a bracket with its own deduction constant must not lower the
// tax relative to the top of the previous bracket.
func TestWithholdingContinuousAtBoundaries(t *testing.T) {
	table := DefaultWithholdingTable()
	boundaries := []string{"2826.65", "3751.05", "4664.68"}
	step := amount("0.01")
	for _, boundary := range boundaries {
		below := ComputeWithholding(table, amount(boundary))
		above := ComputeWithholding(table, amount(boundary).Add(step))
		if above.LessThan(below) {
			t.Fatalf("downward jump at %s: %s above vs %s below", boundary, above, below)
		}
	}
}

func TestWithholdingNeverNegative(t *testing.T) {
	got := ComputeWithholding(DefaultWithholdingTable(), amount("2260.00"))
	if got.IsNegative() {
		t.Fatalf("expected non-negative withholding, got %s", got)
	}
}

type stubResolver struct {
	brackets []Bracket
	err      error
}

func (s stubResolver) Brackets(ctx context.Context, tenantID string, kind Kind, ref time.Time) ([]Bracket, error) {
	return s.brackets, s.err
}

func TestCalculatorFallsBackOnResolverError(t *testing.T) {
	calc := NewCalculator(stubResolver{err: errors.New("db down")})
	got := calc.Contribution(context.Background(), "tenant-1", amount("3000.00"), testRef)
	if !got.Equal(amount("258.82")) {
		t.Fatalf("expected default-table result 258.82, got %s", got)
	}
}

func TestCalculatorFallsBackOnEmptyTable(t *testing.T) {
	calc := NewCalculator(stubResolver{})
	got := calc.Withholding(context.Background(), "tenant-1", amount("5000.00"), testRef)
	if !got.Equal(amount("479.00")) {
		t.Fatalf("expected default-table result 479.00, got %s", got)
	}
}

func TestCalculatorUsesTenantBrackets(t *testing.T) {
	flat := []Bracket{{
		Kind:          KindContribution,
		MinValue:      decimal.Zero,
		Rate:          amount("10"),
		EffectiveFrom: testRef,
	}}
	calc := NewCalculator(stubResolver{brackets: flat})
	got := calc.Contribution(context.Background(), "tenant-1", amount("500.00"), testRef)
	if !got.Equal(amount("50.00")) {
		t.Fatalf("expected 50.00 from tenant table, got %s", got)
	}
}

// A resolver may hand back rows without date filtering; expired or future
// brackets are dropped and an all-expired table falls back to the defaults.
func TestCalculatorFiltersInactiveBrackets(t *testing.T) {
	expiredTo := time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC)
	expired := Bracket{
		Kind:          KindContribution,
		MinValue:      decimal.Zero,
		Rate:          amount("50"),
		EffectiveFrom: time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC),
		EffectiveTo:   &expiredTo,
	}
	current := Bracket{
		Kind:          KindContribution,
		MinValue:      decimal.Zero,
		Rate:          amount("10"),
		EffectiveFrom: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
	}

	calc := NewCalculator(stubResolver{brackets: []Bracket{expired, current}})
	got := calc.Contribution(context.Background(), "tenant-1", amount("500.00"), testRef)
	if !got.Equal(amount("50.00")) {
		t.Fatalf("expected 50.00 from the active bracket, got %s", got)
	}

	calc = NewCalculator(stubResolver{brackets: []Bracket{expired}})
	got = calc.Contribution(context.Background(), "tenant-1", amount("3000.00"), testRef)
	if !got.Equal(amount("258.82")) {
		t.Fatalf("expected default-table fallback 258.82, got %s", got)
	}
}

func TestBracketActiveAt(t *testing.T) {
	until := time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC)
	bracket := Bracket{EffectiveFrom: defaultsEffectiveFrom, EffectiveTo: &until}

	if bracket.ActiveAt(time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatal("bracket should not be active before effective_from")
	}
	if !bracket.ActiveAt(testRef) {
		t.Fatal("bracket should be active inside its range")
	}
	if bracket.ActiveAt(time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatal("bracket should not be active after effective_to")
	}
}
