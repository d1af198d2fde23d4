// Package hr backs the payroll collaborator interfaces with the HR tables:
// employee master data, time-and-attendance aggregates, vacations, bonus
// awards and benefit enrollments.
package hr

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"folha/internal/domain/payroll"
)

const employeeStatusActive = "active"

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) Employee(ctx context.Context, tenantID, employeeID string) (payroll.EmployeeSnapshot, error) {
	var employee payroll.EmployeeSnapshot
	err := s.DB.QueryRow(ctx, `
    SELECT e.id, e.full_name, e.tax_id, e.registration_number,
           COALESCE(d.name, ''), e.position, e.base_salary, e.weekly_hours,
           e.monthly_hours, e.dependents, e.hire_date,
           e.transport_voucher, e.transport_voucher_rate,
           e.meal_voucher, e.meal_voucher_amount,
           e.health_insurance, e.health_insurance_amount
    FROM employees e
    LEFT JOIN departments d ON e.department_id = d.id
    WHERE e.tenant_id = $1 AND e.id = $2
  `, tenantID, employeeID).Scan(
		&employee.ID, &employee.FullName, &employee.TaxID, &employee.Registration,
		&employee.Department, &employee.Position, &employee.BaseSalary,
		&employee.WeeklyHours, &employee.MonthlyHours, &employee.Dependents,
		&employee.HireDate, &employee.TransportVoucher, &employee.TransportVoucherRate,
		&employee.MealVoucher, &employee.MealVoucherAmount,
		&employee.HealthInsurance, &employee.HealthInsuranceAmount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.EmployeeSnapshot{}, payroll.ErrEmployeeNotFound
		}
		return payroll.EmployeeSnapshot{}, err
	}
	return employee, nil
}

func (s *Store) ActiveEmployeeIDs(ctx context.Context, tenantID string) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id
    FROM employees
    WHERE tenant_id = $1 AND status = $2
    ORDER BY full_name
  `, tenantID, employeeStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectIDs(rows)
}

func (s *Store) EmployeeIDsByDepartments(ctx context.Context, tenantID string, departmentIDs []string) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id
    FROM employees
    WHERE tenant_id = $1 AND status = $2 AND department_id = ANY($3)
    ORDER BY full_name
  `, tenantID, employeeStatusActive, departmentIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectIDs(rows)
}

// Attendance returns the aggregate for the competency; a missing row means a
// plain full month and is not an error.
func (s *Store) Attendance(ctx context.Context, tenantID, employeeID string, month, year int) (payroll.AttendanceFacts, error) {
	var facts payroll.AttendanceFacts
	err := s.DB.QueryRow(ctx, `
    SELECT days_in_month, worked_days, overtime50_hours, overtime100_hours,
           night_hours, absence_days
    FROM attendance_facts
    WHERE tenant_id = $1 AND employee_id = $2 AND ref_month = $3 AND ref_year = $4
  `, tenantID, employeeID, month, year).Scan(
		&facts.DaysInMonth, &facts.WorkedDays, &facts.Overtime50Hours,
		&facts.Overtime100Hours, &facts.NightHours, &facts.AbsenceDays)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.AttendanceFacts{}, nil
		}
		return payroll.AttendanceFacts{}, err
	}
	return facts, nil
}

func (s *Store) Vacations(ctx context.Context, tenantID, employeeID string, month, year int) ([]payroll.VacationFacts, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT total_days, pay_amount, bonus_amount
    FROM vacations
    WHERE tenant_id = $1 AND employee_id = $2 AND ref_month = $3 AND ref_year = $4
    ORDER BY created_at
  `, tenantID, employeeID, month, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vacations []payroll.VacationFacts
	for rows.Next() {
		var vacation payroll.VacationFacts
		if err := rows.Scan(&vacation.Days, &vacation.Pay, &vacation.Bonus); err != nil {
			return nil, err
		}
		vacations = append(vacations, vacation)
	}
	return vacations, rows.Err()
}

// Bonuses sums the awards granted for the competency.
func (s *Store) Bonuses(ctx context.Context, tenantID, employeeID string, month, year int) (payroll.BonusFacts, error) {
	var facts payroll.BonusFacts
	err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(SUM(bonus_amount), 0), COALESCE(SUM(commission_amount), 0),
           COALESCE(MAX(reason), '')
    FROM bonus_awards
    WHERE tenant_id = $1 AND employee_id = $2 AND ref_month = $3 AND ref_year = $4
  `, tenantID, employeeID, month, year).Scan(&facts.Bonus, &facts.Commission, &facts.Reason)
	if err != nil {
		return payroll.BonusFacts{}, err
	}
	return facts, nil
}

func (s *Store) Benefits(ctx context.Context, tenantID, employeeID string, month, year int) ([]payroll.BenefitLine, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT category, COALESCE(code, ''), name, fixed_value, percentage, amount
    FROM benefit_enrollments
    WHERE tenant_id = $1 AND employee_id = $2
      AND effective_from <= make_date($4, $3, 1)
      AND (effective_to IS NULL OR effective_to >= make_date($4, $3, 1))
    ORDER BY name
  `, tenantID, employeeID, month, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var benefits []payroll.BenefitLine
	for rows.Next() {
		var benefit payroll.BenefitLine
		if err := rows.Scan(&benefit.Category, &benefit.Code, &benefit.Name, &benefit.FixedValue, &benefit.Percentage, &benefit.Amount); err != nil {
			return nil, err
		}
		benefits = append(benefits, benefit)
	}
	return benefits, rows.Err()
}

func collectIDs(rows pgx.Rows) ([]string, error) {
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
