package payroll

import (
	"context"
	"time"
)

type StoreAPI interface {
	CreatePayroll(ctx context.Context, payroll *Payroll) error
	// ReplacePayroll removes the prior payroll row and inserts the new one
	// inside a single transaction.
	ReplacePayroll(ctx context.Context, priorID string, payroll *Payroll) error
	PayrollByID(ctx context.Context, tenantID, payrollID string) (Payroll, error)
	PayrollByEmployeeCompetency(ctx context.Context, tenantID, employeeID string, month, year int) (Payroll, error)
	ListPayrolls(ctx context.Context, tenantID string, month, year, limit, offset int) ([]Payroll, error)

	CreateRun(ctx context.Context, tenantID string, month, year int) (Run, error)
	RunByID(ctx context.Context, tenantID, runID string) (Run, error)
	// LatestRunByCompetency returns the most recent run for the competency,
	// ErrRunNotFound when none exists.
	LatestRunByCompetency(ctx context.Context, tenantID string, month, year int) (Run, error)
	CompetencyClosed(ctx context.Context, tenantID string, month, year int) (bool, error)
	ListRuns(ctx context.Context, tenantID string, limit, offset int) ([]Run, error)
	FinishRun(ctx context.Context, runID string, processed, failed int) (Run, error)
	// CloseCompetency flips every non-cancelled payroll of the competency to
	// CLOSED and the run itself to CLOSED, in one transaction.
	CloseCompetency(ctx context.Context, tenantID, runID, actor string, month, year int, at time.Time) (Run, error)
	CancelRun(ctx context.Context, tenantID, runID string) (Run, error)

	TenantName(ctx context.Context, tenantID string) (string, error)
}
