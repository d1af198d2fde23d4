package db

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

func readInitMigration(t *testing.T) string {
	t.Helper()
	path := filepath.Join("..", "..", "..", "migrations", "0001_init.sql")
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	return string(content)
}

func tableBlock(t *testing.T, sql, table string) string {
	t.Helper()
	pattern := regexp.MustCompile(`(?s)CREATE TABLE IF NOT EXISTS ` + table + ` \((.*?)\);`)
	match := pattern.FindStringSubmatch(sql)
	if match == nil {
		t.Fatalf("table %s not found in migration", table)
	}
	return match[1]
}

// The store binds decimal.NullDecimal for reference, quantity and percentage;
// an absent value encodes as SQL NULL, so the columns must be nullable
// numerics or the first inserted payroll item fails the schema.
func TestPayrollItemOptionalColumnsAreNullableNumerics(t *testing.T) {
	block := tableBlock(t, readInitMigration(t), "payroll_items")

	for _, column := range []string{"reference", "quantity", "percentage"} {
		line := ""
		for _, candidate := range strings.Split(block, "\n") {
			if strings.HasPrefix(strings.TrimSpace(candidate), column+" ") {
				line = strings.TrimSpace(candidate)
				break
			}
		}
		if line == "" {
			t.Fatalf("column %s not found in payroll_items", column)
		}
		if !strings.Contains(line, "NUMERIC") {
			t.Fatalf("column %s must be NUMERIC, got %q", column, line)
		}
		if strings.Contains(line, "NOT NULL") {
			t.Fatalf("column %s must be nullable, got %q", column, line)
		}
	}
}
