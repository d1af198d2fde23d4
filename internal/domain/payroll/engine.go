package payroll

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"folha/internal/domain/tax"
)

// monthlyHoursDivisor converts the monthly base salary into an hourly rate.
var monthlyHoursDivisor = decimal.NewFromInt(220)

var (
	hundred         = decimal.NewFromInt(100)
	thirty          = decimal.NewFromInt(30)
	overtime50Rate  = decimal.RequireFromString("1.5")
	overtime100Rate = decimal.RequireFromString("2")
	nightRate       = decimal.RequireFromString("0.2")
	transportCap    = decimal.RequireFromString("6")
)

// Engine computes a full payroll for one employee and one competency. It is
// a pure function over its inputs: nothing is persisted and no input is
// mutated.
type Engine struct {
	taxes *tax.Calculator
}

func NewEngine(taxes *tax.Calculator) *Engine {
	return &Engine{taxes: taxes}
}

func (e *Engine) Calculate(ctx context.Context, tenantID string, employee EmployeeSnapshot, attendance AttendanceFacts, vacations []VacationFacts, bonus BonusFacts, benefits []BenefitLine, month, year int) (Payroll, error) {
	if err := validateCompetency(month, year); err != nil {
		return Payroll{}, err
	}

	refDate := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	builder := newItemBuilder()
	baseSalary := employee.BaseSalary

	daysInMonth := attendance.DaysInMonth
	if daysInMonth <= 0 {
		daysInMonth = 30
	}
	workedDays := effectiveWorkedDays(employee, attendance, daysInMonth, month, year)

	// 1. Base salary, prorated when the employee worked a partial month.
	if workedDays < daysInMonth {
		prorated := baseSalary.
			Div(decimal.NewFromInt(int64(daysInMonth))).
			Mul(decimal.NewFromInt(int64(workedDays))).
			Round(2)
		builder.earning(CodeBaseSalary, fmt.Sprintf("Base salary (proportional %d/%d days)", workedDays, daysInMonth), Item{
			Reference: nullDecimal(baseSalary),
			Quantity:  nullDecimal(decimal.NewFromInt(int64(workedDays))),
			Amount:    prorated,
		})
	} else {
		builder.earning(CodeBaseSalary, "Base salary", Item{Amount: baseSalary})
	}

	hourlyRate := baseSalary.DivRound(monthlyHoursDivisor, 4)

	// 2-4. Hour-based premiums.
	if attendance.Overtime50Hours.IsPositive() {
		builder.earning(CodeOvertime50, "Overtime 50%", Item{
			Reference:  nullDecimal(hourlyRate),
			Quantity:   nullDecimal(attendance.Overtime50Hours),
			Percentage: nullDecimal(decimal.NewFromInt(50)),
			Amount:     hourlyRate.Mul(overtime50Rate).Mul(attendance.Overtime50Hours).Round(2),
		})
	}
	if attendance.Overtime100Hours.IsPositive() {
		builder.earning(CodeOvertime100, "Overtime 100%", Item{
			Reference:  nullDecimal(hourlyRate),
			Quantity:   nullDecimal(attendance.Overtime100Hours),
			Percentage: nullDecimal(decimal.NewFromInt(100)),
			Amount:     hourlyRate.Mul(overtime100Rate).Mul(attendance.Overtime100Hours).Round(2),
		})
	}
	if attendance.NightHours.IsPositive() {
		builder.earning(CodeNightPremium, "Night shift premium", Item{
			Reference:  nullDecimal(hourlyRate),
			Quantity:   nullDecimal(attendance.NightHours),
			Percentage: nullDecimal(decimal.NewFromInt(20)),
			Amount:     hourlyRate.Mul(nightRate).Mul(attendance.NightHours).Round(2),
		})
	}

	// 5-6. Flat bonus and commission.
	if bonus.Bonus.IsPositive() {
		description := "Performance bonus"
		if bonus.Reason != "" {
			description = fmt.Sprintf("Performance bonus (%s)", bonus.Reason)
		}
		builder.earning(CodeBonus, description, Item{Amount: bonus.Bonus.Round(2)})
	}
	if bonus.Commission.IsPositive() {
		builder.earning(CodeCommission, "Commission", Item{Amount: bonus.Commission.Round(2)})
	}

	// 7. Vacation pay plus the constitutional one-third bonus.
	for _, vacation := range vacations {
		if !vacation.Pay.IsPositive() {
			continue
		}
		builder.earning(CodeVacationPay, fmt.Sprintf("Vacation pay (%d days)", vacation.Days), Item{
			Quantity: nullDecimal(decimal.NewFromInt(int64(vacation.Days))),
			Amount:   vacation.Pay.Round(2),
		})
		if vacation.Bonus.IsPositive() {
			builder.earning(CodeVacationBonus, "Vacation bonus (1/3)", Item{Amount: vacation.Bonus.Round(2)})
		}
	}

	// 8. Benefit earnings.
	for _, benefit := range benefits {
		if benefit.Category == ItemTypeEarning && benefit.Amount.IsPositive() {
			builder.earning(CodeOtherEarning, benefit.Name, Item{
				Percentage: benefit.Percentage,
				Amount:     benefit.Amount.Round(2),
			})
		}
	}

	// Gross so far is the tax base; unpaid absence is removed from it below.
	grossSalary := deriveTotals(builder.items).Earnings

	// 9. Absence deduction, always over a 30-day divisor.
	if attendance.AbsenceDays.IsPositive() {
		absence := baseSalary.Div(thirty).Mul(attendance.AbsenceDays).Round(2)
		builder.deduction(CodeAbsence, fmt.Sprintf("Absence (%s days)", attendance.AbsenceDays.String()), Item{
			Quantity: nullDecimal(attendance.AbsenceDays),
			Amount:   absence,
		})
		grossSalary = grossSalary.Sub(absence)
	}

	// 10. Benefit deductions.
	for _, benefit := range benefits {
		if benefit.Category == ItemTypeDeduction && benefit.Amount.IsPositive() {
			builder.deduction(benefitDeductionCode(benefit), benefit.Name, Item{
				Percentage: benefit.Percentage,
				Amount:     benefit.Amount.Round(2),
			})
		}
	}

	// 11. Contribution tax (INSS) on the absence-adjusted gross.
	contribution := decimal.Zero
	if grossSalary.IsPositive() {
		contribution = e.taxes.Contribution(ctx, tenantID, grossSalary, refDate)
		if contribution.IsPositive() {
			builder.deduction(CodeINSS, "INSS", Item{
				Reference: nullDecimal(grossSalary),
				Amount:    contribution,
			})
		}
	}

	// 12. Withholding tax (IRRF) on gross minus INSS minus dependents.
	withholdingBase := grossSalary.Sub(contribution)
	if employee.Dependents > 0 {
		withholdingBase = withholdingBase.Sub(tax.DependentDeduction.Mul(decimal.NewFromInt(int64(employee.Dependents))))
	}
	if withholdingBase.IsNegative() {
		withholdingBase = decimal.Zero
	}
	if withholdingBase.IsPositive() {
		withholding := e.taxes.Withholding(ctx, tenantID, withholdingBase, refDate)
		if withholding.IsPositive() {
			builder.deduction(CodeIRRF, "IRRF", Item{
				Reference: nullDecimal(withholdingBase),
				Amount:    withholding,
			})
		}
	}

	// 13. FGTS memo, never part of the deductions.
	fgts := decimal.Zero
	if grossSalary.IsPositive() {
		fgts = grossSalary.Mul(tax.FGTSRate).Div(hundred).Round(2)
	}

	// 14-16. Voucher and insurance deductions from the employee record.
	if employee.TransportVoucher {
		rate := transportCap
		if employee.TransportVoucherRate.Valid {
			rate = employee.TransportVoucherRate.Decimal
		}
		transport := baseSalary.Mul(rate).Div(hundred).Round(2)
		if transport.IsPositive() {
			builder.deduction(CodeTransportVoucher, "Transport voucher", Item{
				Percentage: nullDecimal(rate),
				Amount:     transport,
			})
		}
	}
	if employee.MealVoucher && employee.MealVoucherAmount.IsPositive() {
		builder.deduction(CodeMealVoucher, "Meal voucher", Item{Amount: employee.MealVoucherAmount.Round(2)})
	}
	if employee.HealthInsurance && employee.HealthInsuranceAmount.IsPositive() {
		builder.deduction(CodeHealthInsurance, "Health insurance", Item{Amount: employee.HealthInsuranceAmount.Round(2)})
	}

	totals := deriveTotals(builder.items)

	return Payroll{
		TenantID:           tenantID,
		EmployeeID:         employee.ID,
		EmployeeName:       employee.FullName,
		TaxID:              employee.TaxID,
		Registration:       employee.Registration,
		Department:         employee.Department,
		Position:           employee.Position,
		RefMonth:           month,
		RefYear:            year,
		BaseSalary:         baseSalary,
		Items:              builder.items,
		TotalEarnings:      totals.Earnings,
		TotalDeductions:    totals.Deductions,
		NetSalary:          totals.Net,
		FGTSAmount:         fgts,
		ContributionBase:   grossSalary,
		WithholdingBase:    withholdingBase,
		Status:             StatusCalculated,
		CalculationVersion: 1,
		CalculatedAt:       time.Now().UTC(),
	}, nil
}

// effectiveWorkedDays prefers the attendance-reported value; otherwise a hire
// date inside the competency shortens the month, and a full month is assumed
// after that.
func effectiveWorkedDays(employee EmployeeSnapshot, attendance AttendanceFacts, daysInMonth, month, year int) int {
	if attendance.WorkedDays != nil {
		return *attendance.WorkedDays
	}
	hire := employee.HireDate
	if !hire.IsZero() && int(hire.Month()) == month && hire.Year() == year {
		worked := daysInMonth - hire.Day() + 1
		if worked < 0 {
			return 0
		}
		return worked
	}
	return daysInMonth
}

// benefitDeductionCode uses the collaborator-supplied code when present and
// falls back to keyword matching on the display name.
func benefitDeductionCode(benefit BenefitLine) string {
	if benefit.Code != "" {
		return benefit.Code
	}
	name := strings.ToLower(benefit.Name)
	switch {
	case strings.Contains(name, "transport"):
		return CodeTransportVoucher
	case strings.Contains(name, "meal"), strings.Contains(name, "food"):
		return CodeMealVoucher
	case strings.Contains(name, "health"):
		return CodeHealthInsurance
	default:
		return CodeOtherDeduction
	}
}

type itemBuilder struct {
	items []Item
	next  int
}

func newItemBuilder() *itemBuilder {
	return &itemBuilder{}
}

func (b *itemBuilder) earning(code, description string, item Item) {
	b.append(ItemTypeEarning, code, description, item)
}

func (b *itemBuilder) deduction(code, description string, item Item) {
	b.append(ItemTypeDeduction, code, description, item)
}

func (b *itemBuilder) append(itemType, code, description string, item Item) {
	item.Type = itemType
	item.Code = code
	item.Description = description
	item.SortOrder = b.next
	b.next++
	b.items = append(b.items, item)
}

func nullDecimal(value decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: value, Valid: true}
}
