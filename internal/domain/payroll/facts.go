package payroll

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// EmployeeSnapshot carries the employee master data the engine reads. It is
// copied into the payroll at calculation time.
type EmployeeSnapshot struct {
	ID           string
	FullName     string
	TaxID        string
	Registration string
	Department   string
	Position     string
	BaseSalary   decimal.Decimal
	WeeklyHours  int
	MonthlyHours int
	Dependents   int
	HireDate     time.Time

	TransportVoucher      bool
	TransportVoucherRate  decimal.NullDecimal
	MealVoucher           bool
	MealVoucherAmount     decimal.Decimal
	HealthInsurance       bool
	HealthInsuranceAmount decimal.Decimal
}

// AttendanceFacts are the period-scoped time-and-attendance aggregates.
// Everything is optional: a zero value means a normal full month.
type AttendanceFacts struct {
	DaysInMonth      int
	WorkedDays       *int
	Overtime50Hours  decimal.Decimal
	Overtime100Hours decimal.Decimal
	NightHours       decimal.Decimal
	AbsenceDays      decimal.Decimal
}

// VacationFacts is one vacation window paid inside the competency.
type VacationFacts struct {
	Days  int
	Pay   decimal.Decimal
	Bonus decimal.Decimal
}

type BonusFacts struct {
	Bonus      decimal.Decimal
	Commission decimal.Decimal
	Reason     string
}

// BenefitLine is one benefit computed by the benefits collaborator. Code is
// the explicit payroll item code; when the collaborator does not supply one
// the engine falls back to keyword mapping on Name.
type BenefitLine struct {
	Category   string
	Code       string
	Name       string
	FixedValue decimal.Decimal
	Percentage decimal.NullDecimal
	Amount     decimal.Decimal
}

// Collaborator boundaries. The orchestrator treats every source except the
// employee directory as fallback-safe: a failed call degrades to empty facts.

type EmployeeDirectory interface {
	Employee(ctx context.Context, tenantID, employeeID string) (EmployeeSnapshot, error)
	ActiveEmployeeIDs(ctx context.Context, tenantID string) ([]string, error)
	EmployeeIDsByDepartments(ctx context.Context, tenantID string, departmentIDs []string) ([]string, error)
}

type AttendanceSource interface {
	Attendance(ctx context.Context, tenantID, employeeID string, month, year int) (AttendanceFacts, error)
}

type VacationSource interface {
	Vacations(ctx context.Context, tenantID, employeeID string, month, year int) ([]VacationFacts, error)
}

type BonusSource interface {
	Bonuses(ctx context.Context, tenantID, employeeID string, month, year int) (BonusFacts, error)
}

type BenefitSource interface {
	Benefits(ctx context.Context, tenantID, employeeID string, month, year int) ([]BenefitLine, error)
}
