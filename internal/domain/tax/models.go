package tax

import (
	"time"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindContribution Kind = "contribution"
	KindWithholding  Kind = "withholding"
)

// Bracket is one row of a progressive tax table. Min and Max are cumulative
// salary bounds; Max is empty on the open-ended top bracket. Deduction is the
// flat amount subtracted by the withholding kind and stays zero otherwise.
type Bracket struct {
	Kind          Kind
	MinValue      decimal.Decimal
	MaxValue      decimal.NullDecimal
	Rate          decimal.Decimal
	Deduction     decimal.Decimal
	EffectiveFrom time.Time
	EffectiveTo   *time.Time
}

// ActiveAt reports whether the bracket's effective-date range covers ref.
func (b Bracket) ActiveAt(ref time.Time) bool {
	if b.EffectiveFrom.After(ref) {
		return false
	}
	if b.EffectiveTo != nil && b.EffectiveTo.Before(ref) {
		return false
	}
	return true
}
