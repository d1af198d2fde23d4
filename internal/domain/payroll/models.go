package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payroll is the computed aggregate for one (tenant, employee, competency).
// Employee fields are a snapshot taken at calculation time, not live
// references. Totals are always derived from the items, never hand-edited.
type Payroll struct {
	ID           string `json:"id"`
	TenantID     string `json:"tenantId"`
	RunID        string `json:"runId,omitempty"`
	EmployeeID   string `json:"employeeId"`
	EmployeeName string `json:"employeeName"`
	TaxID        string `json:"taxId"`
	Registration string `json:"registration"`
	Department   string `json:"department"`
	Position     string `json:"position"`
	RefMonth     int    `json:"refMonth"`
	RefYear      int    `json:"refYear"`

	BaseSalary      decimal.Decimal `json:"baseSalary"`
	Items           []Item          `json:"items"`
	TotalEarnings   decimal.Decimal `json:"totalEarnings"`
	TotalDeductions decimal.Decimal `json:"totalDeductions"`
	NetSalary       decimal.Decimal `json:"netSalary"`

	// FGTS is employer-side: reported on the payslip, never deducted.
	FGTSAmount decimal.Decimal `json:"fgtsAmount"`

	// Tax bases retained for the payslip view.
	ContributionBase decimal.Decimal `json:"contributionBase"`
	WithholdingBase  decimal.Decimal `json:"withholdingBase"`

	Status             string    `json:"status"`
	CalculationVersion int       `json:"calculationVersion"`
	CalculatedAt       time.Time `json:"calculatedAt"`
}

// Item is one payslip line. Reference is the rate basis (hourly rate, gross),
// Quantity the hours or days, Percentage the premium rate, when they apply.
type Item struct {
	Type        string              `json:"type"`
	Code        string              `json:"code"`
	Description string              `json:"description"`
	Reference   decimal.NullDecimal `json:"reference,omitempty"`
	Quantity    decimal.NullDecimal `json:"quantity,omitempty"`
	Percentage  decimal.NullDecimal `json:"percentage,omitempty"`
	Amount      decimal.Decimal     `json:"amount"`
	SortOrder   int                 `json:"sortOrder"`
}

// Run is the batch envelope for one competency.
type Run struct {
	ID                 string          `json:"id"`
	TenantID           string          `json:"tenantId"`
	RefMonth           int             `json:"refMonth"`
	RefYear            int             `json:"refYear"`
	Status             string          `json:"status"`
	StartedAt          time.Time       `json:"startedAt"`
	FinishedAt         *time.Time      `json:"finishedAt,omitempty"`
	ProcessedEmployees int             `json:"processedEmployees"`
	FailedEmployees    int             `json:"failedEmployees"`
	TotalEarnings      decimal.Decimal `json:"totalEarnings"`
	TotalDeductions    decimal.Decimal `json:"totalDeductions"`
	TotalNet           decimal.Decimal `json:"totalNet"`
	ClosedBy           string          `json:"closedBy,omitempty"`
	ClosedAt           *time.Time      `json:"closedAt,omitempty"`
}

// RunOutcome is the structured result of a batch: which employees produced a
// payroll and which failed, with reasons. Failures never abort the batch.
type RunOutcome struct {
	Run       Run          `json:"run"`
	Succeeded []RunSuccess `json:"succeeded"`
	Failed    []RunFailure `json:"failed"`
}

type RunSuccess struct {
	EmployeeID string `json:"employeeId"`
	PayrollID  string `json:"payrollId"`
}

type RunFailure struct {
	EmployeeID string `json:"employeeId"`
	Reason     string `json:"reason"`
}

type Totals struct {
	Earnings   decimal.Decimal
	Deductions decimal.Decimal
	Net        decimal.Decimal
}

// deriveTotals sums the items by type. Net is earnings minus deductions.
func deriveTotals(items []Item) Totals {
	totals := Totals{Earnings: decimal.Zero, Deductions: decimal.Zero}
	for _, item := range items {
		switch item.Type {
		case ItemTypeEarning:
			totals.Earnings = totals.Earnings.Add(item.Amount)
		case ItemTypeDeduction:
			totals.Deductions = totals.Deductions.Add(item.Amount)
		}
	}
	totals.Net = totals.Earnings.Sub(totals.Deductions)
	return totals
}
