package payroll

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const payrollColumns = `
    id, tenant_id, COALESCE(run_id::text, ''), employee_id, employee_name, tax_id, registration,
    department, position, ref_month, ref_year, base_salary, total_earnings,
    total_deductions, net_salary, fgts_amount, contribution_base,
    withholding_base, status, calculation_version, calculated_at`

func (s *Store) CreatePayroll(ctx context.Context, payroll *Payroll) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := insertPayroll(ctx, tx, payroll); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) ReplacePayroll(ctx context.Context, priorID string, payroll *Payroll) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
    DELETE FROM payrolls
    WHERE id = $1 AND tenant_id = $2 AND status <> $3
  `, priorID, payroll.TenantID, StatusClosed)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPayrollNotFound
	}

	if err := insertPayroll(ctx, tx, payroll); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func insertPayroll(ctx context.Context, tx pgx.Tx, payroll *Payroll) error {
	if payroll.ID == "" {
		payroll.ID = uuid.NewString()
	}

	_, err := tx.Exec(ctx, `
    INSERT INTO payrolls (
      id, tenant_id, run_id, employee_id, employee_name, tax_id, registration,
      department, position, ref_month, ref_year, base_salary, total_earnings,
      total_deductions, net_salary, fgts_amount, contribution_base,
      withholding_base, status, calculation_version, calculated_at
    ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
  `, payroll.ID, payroll.TenantID, nullIfEmpty(payroll.RunID), payroll.EmployeeID,
		payroll.EmployeeName, payroll.TaxID, payroll.Registration, payroll.Department,
		payroll.Position, payroll.RefMonth, payroll.RefYear, payroll.BaseSalary,
		payroll.TotalEarnings, payroll.TotalDeductions, payroll.NetSalary,
		payroll.FGTSAmount, payroll.ContributionBase, payroll.WithholdingBase,
		payroll.Status, payroll.CalculationVersion, payroll.CalculatedAt)
	if err != nil {
		return err
	}

	for _, item := range payroll.Items {
		if _, err := tx.Exec(ctx, `
      INSERT INTO payroll_items (payroll_id, item_type, code, description, reference, quantity, percentage, amount, sort_order)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    `, payroll.ID, item.Type, item.Code, item.Description, item.Reference, item.Quantity, item.Percentage, item.Amount, item.SortOrder); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) PayrollByID(ctx context.Context, tenantID, payrollID string) (Payroll, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+payrollColumns+`
    FROM payrolls
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, payrollID)
	return s.scanPayrollWithItems(ctx, row)
}

func (s *Store) PayrollByEmployeeCompetency(ctx context.Context, tenantID, employeeID string, month, year int) (Payroll, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+payrollColumns+`
    FROM payrolls
    WHERE tenant_id = $1 AND employee_id = $2 AND ref_month = $3 AND ref_year = $4
      AND status <> $5
    ORDER BY calculated_at DESC
    LIMIT 1
  `, tenantID, employeeID, month, year, StatusCancelled)
	return s.scanPayrollWithItems(ctx, row)
}

func (s *Store) ListPayrolls(ctx context.Context, tenantID string, month, year, limit, offset int) ([]Payroll, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+payrollColumns+`
    FROM payrolls
    WHERE tenant_id = $1
      AND ($2 = 0 OR ref_month = $2)
      AND ($3 = 0 OR ref_year = $3)
    ORDER BY employee_name
    LIMIT $4 OFFSET $5
  `, tenantID, month, year, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payrolls []Payroll
	for rows.Next() {
		payroll, err := scanPayroll(rows)
		if err != nil {
			return nil, err
		}
		payrolls = append(payrolls, payroll)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range payrolls {
		items, err := s.payrollItems(ctx, payrolls[i].ID)
		if err != nil {
			return nil, err
		}
		payrolls[i].Items = items
	}
	return payrolls, nil
}

func (s *Store) scanPayrollWithItems(ctx context.Context, row pgx.Row) (Payroll, error) {
	payroll, err := scanPayroll(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Payroll{}, ErrPayrollNotFound
		}
		return Payroll{}, err
	}
	items, err := s.payrollItems(ctx, payroll.ID)
	if err != nil {
		return Payroll{}, err
	}
	payroll.Items = items
	return payroll, nil
}

func scanPayroll(row pgx.Row) (Payroll, error) {
	var payroll Payroll
	err := row.Scan(
		&payroll.ID, &payroll.TenantID, &payroll.RunID, &payroll.EmployeeID,
		&payroll.EmployeeName, &payroll.TaxID, &payroll.Registration,
		&payroll.Department, &payroll.Position, &payroll.RefMonth, &payroll.RefYear,
		&payroll.BaseSalary, &payroll.TotalEarnings, &payroll.TotalDeductions,
		&payroll.NetSalary, &payroll.FGTSAmount, &payroll.ContributionBase,
		&payroll.WithholdingBase, &payroll.Status, &payroll.CalculationVersion,
		&payroll.CalculatedAt)
	return payroll, err
}

func (s *Store) payrollItems(ctx context.Context, payrollID string) ([]Item, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT item_type, code, description, reference, quantity, percentage, amount, sort_order
    FROM payroll_items
    WHERE payroll_id = $1
    ORDER BY sort_order
  `, payrollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.Type, &item.Code, &item.Description, &item.Reference, &item.Quantity, &item.Percentage, &item.Amount, &item.SortOrder); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

const runColumns = `
    id, tenant_id, ref_month, ref_year, status, started_at, finished_at,
    processed_employees, failed_employees, total_earnings, total_deductions,
    total_net, COALESCE(closed_by, ''), closed_at`

func (s *Store) CreateRun(ctx context.Context, tenantID string, month, year int) (Run, error) {
	row := s.DB.QueryRow(ctx, `
    INSERT INTO payroll_runs (id, tenant_id, ref_month, ref_year, status, started_at)
    VALUES ($1,$2,$3,$4,$5,now())
    RETURNING `+runColumns+`
  `, uuid.NewString(), tenantID, month, year, RunStatusProcessing)
	return scanRun(row)
}

func (s *Store) RunByID(ctx context.Context, tenantID, runID string) (Run, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+runColumns+`
    FROM payroll_runs
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, runID)
	run, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Run{}, ErrRunNotFound
	}
	return run, err
}

func (s *Store) LatestRunByCompetency(ctx context.Context, tenantID string, month, year int) (Run, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+runColumns+`
    FROM payroll_runs
    WHERE tenant_id = $1 AND ref_month = $2 AND ref_year = $3
    ORDER BY started_at DESC
    LIMIT 1
  `, tenantID, month, year)
	run, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Run{}, ErrRunNotFound
	}
	return run, err
}

func (s *Store) CompetencyClosed(ctx context.Context, tenantID string, month, year int) (bool, error) {
	var closed bool
	err := s.DB.QueryRow(ctx, `
    SELECT EXISTS (
      SELECT 1 FROM payroll_runs
      WHERE tenant_id = $1 AND ref_month = $2 AND ref_year = $3 AND status = $4
    )
  `, tenantID, month, year, RunStatusClosed).Scan(&closed)
	return closed, err
}

func (s *Store) ListRuns(ctx context.Context, tenantID string, limit, offset int) ([]Run, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+runColumns+`
    FROM payroll_runs
    WHERE tenant_id = $1
    ORDER BY started_at DESC
    LIMIT $2 OFFSET $3
  `, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// FinishRun marks the run PROCESSED and recomputes its summary totals from
// the payrolls that were attached to it.
func (s *Store) FinishRun(ctx context.Context, runID string, processed, failed int) (Run, error) {
	row := s.DB.QueryRow(ctx, `
    UPDATE payroll_runs r
    SET status = $2,
        finished_at = now(),
        processed_employees = $3,
        failed_employees = $4,
        total_earnings = t.earnings,
        total_deductions = t.deductions,
        total_net = t.net
    FROM (
      SELECT COALESCE(SUM(total_earnings), 0) AS earnings,
             COALESCE(SUM(total_deductions), 0) AS deductions,
             COALESCE(SUM(net_salary), 0) AS net
      FROM payrolls
      WHERE run_id = $1 AND status <> $5
    ) t
    WHERE r.id = $1
    RETURNING `+runColumnsQualified("r")+`
  `, runID, RunStatusProcessed, processed, failed, StatusCancelled)
	run, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Run{}, ErrRunNotFound
	}
	return run, err
}

func (s *Store) CloseCompetency(ctx context.Context, tenantID, runID, actor string, month, year int, at time.Time) (Run, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Run{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
    UPDATE payrolls
    SET status = $4
    WHERE tenant_id = $1 AND ref_month = $2 AND ref_year = $3 AND status <> $5
  `, tenantID, month, year, StatusClosed, StatusCancelled); err != nil {
		return Run{}, err
	}

	row := tx.QueryRow(ctx, `
    UPDATE payroll_runs
    SET status = $3, closed_by = $4, closed_at = $5
    WHERE tenant_id = $1 AND id = $2
    RETURNING `+runColumns+`
  `, tenantID, runID, RunStatusClosed, actor, at)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Run{}, ErrRunNotFound
		}
		return Run{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Run{}, err
	}
	return run, nil
}

func (s *Store) CancelRun(ctx context.Context, tenantID, runID string) (Run, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Run{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
    UPDATE payrolls SET status = $2 WHERE run_id = $1 AND status <> $3
  `, runID, StatusCancelled, StatusClosed); err != nil {
		return Run{}, err
	}

	row := tx.QueryRow(ctx, `
    UPDATE payroll_runs
    SET status = $3, finished_at = COALESCE(finished_at, now())
    WHERE tenant_id = $1 AND id = $2
    RETURNING `+runColumns+`
  `, tenantID, runID, RunStatusCancelled)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Run{}, ErrRunNotFound
		}
		return Run{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Run{}, err
	}
	return run, nil
}

func (s *Store) TenantName(ctx context.Context, tenantID string) (string, error) {
	var name string
	err := s.DB.QueryRow(ctx, "SELECT name FROM tenants WHERE id = $1", tenantID).Scan(&name)
	return name, err
}

func scanRun(row pgx.Row) (Run, error) {
	var run Run
	err := row.Scan(
		&run.ID, &run.TenantID, &run.RefMonth, &run.RefYear, &run.Status,
		&run.StartedAt, &run.FinishedAt, &run.ProcessedEmployees,
		&run.FailedEmployees, &run.TotalEarnings, &run.TotalDeductions,
		&run.TotalNet, &run.ClosedBy, &run.ClosedAt)
	return run, err
}

func runColumnsQualified(alias string) string {
	return alias + `.id, ` + alias + `.tenant_id, ` + alias + `.ref_month, ` + alias + `.ref_year, ` +
		alias + `.status, ` + alias + `.started_at, ` + alias + `.finished_at, ` +
		alias + `.processed_employees, ` + alias + `.failed_employees, ` +
		alias + `.total_earnings, ` + alias + `.total_deductions, ` + alias + `.total_net, ` +
		`COALESCE(` + alias + `.closed_by, ''), ` + alias + `.closed_at`
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
