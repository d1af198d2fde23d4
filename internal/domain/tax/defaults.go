package tax

import (
	"time"

	"github.com/shopspring/decimal"
)

// Statutory amounts that sit outside the bracket tables.
var (
	// ContributionCeiling caps the contribution tax computed from the
	// default table (full consumption of the table lands exactly here).
	ContributionCeiling = decimal.RequireFromString("908.86")

	// DependentDeduction is subtracted from the withholding base once per
	// declared dependent.
	DependentDeduction = decimal.RequireFromString("189.59")

	// FGTSRate is the employer severance-fund percentage. Reported on the
	// payroll, never deducted from net pay.
	FGTSRate = decimal.RequireFromString("8")
)

var defaultsEffectiveFrom = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// DefaultContributionTable is the fallback contribution (INSS) table used
// when a tenant has no brackets of its own. Bounds are cumulative salary
// intervals consumed in ascending order.
func DefaultContributionTable() []Bracket {
	return []Bracket{
		contributionBracket("0", "1412.00", "7.5"),
		contributionBracket("1412.00", "2666.68", "9"),
		contributionBracket("2666.68", "4000.03", "12"),
		contributionBracket("4000.03", "", "14"),
	}
}

// DefaultWithholdingTable is the fallback withholding (IRRF) table. The
// effective-rate model picks the deepest bracket whose min does not exceed
// the base, so the exempt range is the zero-rate first row.
func DefaultWithholdingTable() []Bracket {
	return []Bracket{
		withholdingBracket("0", "2259.20", "0", "0"),
		withholdingBracket("2259.21", "2826.65", "7.5", "169.44"),
		withholdingBracket("2826.66", "3751.05", "15", "381.44"),
		withholdingBracket("3751.06", "4664.68", "22.5", "662.77"),
		withholdingBracket("4664.69", "", "27.5", "896.00"),
	}
}

func contributionBracket(min, max, rate string) Bracket {
	return Bracket{
		Kind:          KindContribution,
		MinValue:      decimal.RequireFromString(min),
		MaxValue:      nullableAmount(max),
		Rate:          decimal.RequireFromString(rate),
		EffectiveFrom: defaultsEffectiveFrom,
	}
}

func withholdingBracket(min, max, rate, deduction string) Bracket {
	return Bracket{
		Kind:          KindWithholding,
		MinValue:      decimal.RequireFromString(min),
		MaxValue:      nullableAmount(max),
		Rate:          decimal.RequireFromString(rate),
		Deduction:     decimal.RequireFromString(deduction),
		EffectiveFrom: defaultsEffectiveFrom,
	}
}

func nullableAmount(value string) decimal.NullDecimal {
	if value == "" {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(value), Valid: true}
}
