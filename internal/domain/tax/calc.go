package tax

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Resolver supplies the active bracket table for one tenant and tax kind,
// ordered by ascending min value. An empty result means the tenant has no
// table of its own and the caller falls back to the defaults.
type Resolver interface {
	Brackets(ctx context.Context, tenantID string, kind Kind, ref time.Time) ([]Bracket, error)
}

// Calculator binds the two bracket algorithms to a Resolver and the
// statutory ceiling. A nil resolver always computes from the default tables.
type Calculator struct {
	resolver Resolver
	ceiling  decimal.Decimal
}

func NewCalculator(resolver Resolver) *Calculator {
	return &Calculator{resolver: resolver, ceiling: ContributionCeiling}
}

// Contribution computes the contribution tax on base for the tenant's table
// active at ref, capped at the statutory ceiling. Resolver failures degrade
// to the default table instead of failing the calculation.
func (c *Calculator) Contribution(ctx context.Context, tenantID string, base decimal.Decimal, ref time.Time) decimal.Decimal {
	brackets := c.brackets(ctx, tenantID, KindContribution, ref, DefaultContributionTable)
	amount := ComputeContribution(brackets, base)
	if amount.GreaterThan(c.ceiling) {
		return c.ceiling
	}
	return amount
}

// Withholding computes the withholding tax on base for the tenant's table
// active at ref. The base is expected to already exclude the contribution
// tax and any per-dependent deduction.
func (c *Calculator) Withholding(ctx context.Context, tenantID string, base decimal.Decimal, ref time.Time) decimal.Decimal {
	brackets := c.brackets(ctx, tenantID, KindWithholding, ref, DefaultWithholdingTable)
	return ComputeWithholding(brackets, base)
}

func (c *Calculator) brackets(ctx context.Context, tenantID string, kind Kind, ref time.Time, fallback func() []Bracket) []Bracket {
	if c.resolver == nil {
		return fallback()
	}
	brackets, err := c.resolver.Brackets(ctx, tenantID, kind, ref)
	if err != nil {
		slog.Warn("tax bracket lookup failed, using default table", "tenantId", tenantID, "kind", kind, "err", err)
		return fallback()
	}
	brackets = activeBrackets(brackets, ref)
	if len(brackets) == 0 {
		return fallback()
	}
	return brackets
}

// activeBrackets drops rows whose effective range does not cover ref. The
// store already filters in SQL; this guards resolvers that do not.
func activeBrackets(brackets []Bracket, ref time.Time) []Bracket {
	active := brackets[:0]
	for _, bracket := range brackets {
		if bracket.ActiveAt(ref) {
			active = append(active, bracket)
		}
	}
	return active
}

// ComputeContribution walks the brackets in ascending order consuming the
// base cumulatively: each bracket taxes at most its own width, the open top
// bracket taxes whatever remains. Every bracket's share is rounded to two
// decimals as it is computed.
func ComputeContribution(brackets []Bracket, base decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	remaining := base
	for _, bracket := range brackets {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
		taxable := remaining
		if bracket.MaxValue.Valid {
			width := bracket.MaxValue.Decimal.Sub(bracket.MinValue)
			if taxable.GreaterThan(width) {
				taxable = width
			}
		}
		total = total.Add(taxable.Mul(bracket.Rate).Div(hundred).Round(2))
		remaining = remaining.Sub(taxable)
	}
	return total
}

// ComputeWithholding applies the effective-rate model: the deepest bracket
// whose min does not exceed the base taxes the whole base at its rate minus
// the bracket's flat deduction, floored at zero.
func ComputeWithholding(brackets []Bracket, base decimal.Decimal) decimal.Decimal {
	for i := len(brackets) - 1; i >= 0; i-- {
		bracket := brackets[i]
		if bracket.MinValue.GreaterThan(base) {
			continue
		}
		amount := base.Mul(bracket.Rate).Div(hundred).Round(2).Sub(bracket.Deduction)
		if amount.IsNegative() {
			return decimal.Zero
		}
		return amount
	}
	return decimal.Zero
}
