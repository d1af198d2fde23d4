package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"folha/internal/domain/tax"
	"folha/internal/platform/config"
)

func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	tenantID, err := ensureTenant(ctx, pool, cfg.SeedTenantName)
	if err != nil {
		return err
	}

	return ensureTaxBrackets(ctx, pool, tenantID)
}

func ensureTenant(ctx context.Context, pool *pgxpool.Pool, name string) (string, error) {
	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM tenants WHERE name = $1", name).Scan(&id)
	if err == nil {
		return id, nil
	}

	err = pool.QueryRow(ctx, "INSERT INTO tenants (name) VALUES ($1) RETURNING id", name).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

// ensureTaxBrackets seeds the compiled-in default tables for a tenant that
// has no bracket rows yet. Tenants with their own tables are left alone.
func ensureTaxBrackets(ctx context.Context, pool *pgxpool.Pool, tenantID string) error {
	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(1) FROM tax_brackets WHERE tenant_id = $1", tenantID).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	brackets := append(tax.DefaultContributionTable(), tax.DefaultWithholdingTable()...)
	for _, bracket := range brackets {
		var maxValue any
		if bracket.MaxValue.Valid {
			maxValue = bracket.MaxValue.Decimal
		}
		_, err := pool.Exec(ctx, `
      INSERT INTO tax_brackets (tenant_id, kind, min_value, max_value, rate, deduction, effective_from, effective_to)
      VALUES ($1, $2, $3, $4, $5, $6, $7, NULL)
    `, tenantID, string(bracket.Kind), bracket.MinValue, maxValue, bracket.Rate, bracket.Deduction, bracket.EffectiveFrom)
		if err != nil {
			return err
		}
	}
	return nil
}
