package tax

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// Brackets returns the tenant's brackets of the given kind whose effective
// range covers ref, ordered by ascending min value.
func (s *Store) Brackets(ctx context.Context, tenantID string, kind Kind, ref time.Time) ([]Bracket, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT kind, min_value, max_value, rate, deduction, effective_from, effective_to
    FROM tax_brackets
    WHERE tenant_id = $1
      AND kind = $2
      AND effective_from <= $3
      AND (effective_to IS NULL OR effective_to >= $3)
    ORDER BY min_value
  `, tenantID, string(kind), ref)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var brackets []Bracket
	for rows.Next() {
		var bracket Bracket
		var kindValue string
		var effectiveTo *time.Time
		if err := rows.Scan(&kindValue, &bracket.MinValue, &bracket.MaxValue, &bracket.Rate, &bracket.Deduction, &bracket.EffectiveFrom, &effectiveTo); err != nil {
			return nil, err
		}
		bracket.Kind = Kind(kindValue)
		bracket.EffectiveTo = effectiveTo
		brackets = append(brackets, bracket)
	}
	return brackets, rows.Err()
}
