package payroll

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folha/internal/domain/tax"
)

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func newTestEngine() *Engine {
	return NewEngine(tax.NewCalculator(nil))
}

func findItem(t *testing.T, items []Item, code string) Item {
	t.Helper()
	for _, item := range items {
		if item.Code == code {
			return item
		}
	}
	t.Fatalf("item %s not found", code)
	return Item{}
}

func hasItem(items []Item, code string) bool {
	for _, item := range items {
		if item.Code == code {
			return true
		}
	}
	return false
}

func assertAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func TestCalculateSimpleMonth(t *testing.T) {
	engine := newTestEngine()
	employee := EmployeeSnapshot{
		ID:         "emp-1",
		FullName:   "Ana Souza",
		BaseSalary: dec("3000"),
	}

	result, err := engine.Calculate(context.Background(), "tenant-1", employee, AttendanceFacts{}, nil, BonusFacts{}, nil, 6, 2024)
	require.NoError(t, err)

	require.Len(t, result.Items, 3)
	assertAmount(t, "3000", findItem(t, result.Items, CodeBaseSalary).Amount)
	assertAmount(t, "258.82", findItem(t, result.Items, CodeINSS).Amount)
	assertAmount(t, "36.15", findItem(t, result.Items, CodeIRRF).Amount)

	assertAmount(t, "3000", result.TotalEarnings)
	assertAmount(t, "294.97", result.TotalDeductions)
	assertAmount(t, "2705.03", result.NetSalary)
	assertAmount(t, "240.00", result.FGTSAmount)
	assertAmount(t, "3000", result.ContributionBase)
	assertAmount(t, "2741.18", result.WithholdingBase)

	assert.Equal(t, StatusCalculated, result.Status)
	assert.Equal(t, 1, result.CalculationVersion)
	assert.Equal(t, "Ana Souza", result.EmployeeName)
}

func TestCalculateHourPremiums(t *testing.T) {
	engine := newTestEngine()
	employee := EmployeeSnapshot{ID: "emp-1", BaseSalary: dec("2200")}
	attendance := AttendanceFacts{
		Overtime50Hours:  dec("10"),
		Overtime100Hours: dec("4"),
		NightHours:       dec("8"),
	}

	result, err := engine.Calculate(context.Background(), "tenant-1", employee, attendance, nil, BonusFacts{}, nil, 3, 2024)
	require.NoError(t, err)

	// hourly rate 2200/220 = 10.0000
	ot50 := findItem(t, result.Items, CodeOvertime50)
	assertAmount(t, "150.00", ot50.Amount)
	require.True(t, ot50.Reference.Valid)
	assertAmount(t, "10", ot50.Reference.Decimal)

	assertAmount(t, "80.00", findItem(t, result.Items, CodeOvertime100).Amount)
	assertAmount(t, "16.00", findItem(t, result.Items, CodeNightPremium).Amount)

	assertAmount(t, "2446", result.TotalEarnings)
	assertAmount(t, "198.96", findItem(t, result.Items, CodeINSS).Amount)
	assert.False(t, hasItem(result.Items, CodeIRRF), "withholding base below the exempt ceiling")
	assertAmount(t, "2247.04", result.NetSalary)
	assertAmount(t, "195.68", result.FGTSAmount)
}

func TestCalculateHireMonthProration(t *testing.T) {
	engine := newTestEngine()
	employee := EmployeeSnapshot{
		ID:         "emp-1",
		BaseSalary: dec("3000"),
		HireDate:   time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC),
	}

	result, err := engine.Calculate(context.Background(), "tenant-1", employee, AttendanceFacts{}, nil, BonusFacts{}, nil, 6, 2024)
	require.NoError(t, err)

	base := findItem(t, result.Items, CodeBaseSalary)
	assertAmount(t, "1500.00", base.Amount)
	require.True(t, base.Quantity.Valid)
	assertAmount(t, "15", base.Quantity.Decimal)

	assertAmount(t, "113.82", findItem(t, result.Items, CodeINSS).Amount)
	assert.False(t, hasItem(result.Items, CodeIRRF))
	assertAmount(t, "1386.18", result.NetSalary)
	assertAmount(t, "120.00", result.FGTSAmount)
}

func TestCalculateWorkedDaysOverrideWinsOverHireDate(t *testing.T) {
	engine := newTestEngine()
	worked := 20
	employee := EmployeeSnapshot{
		ID:         "emp-1",
		BaseSalary: dec("3000"),
		HireDate:   time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC),
	}

	result, err := engine.Calculate(context.Background(), "tenant-1", employee, AttendanceFacts{WorkedDays: &worked}, nil, BonusFacts{}, nil, 6, 2024)
	require.NoError(t, err)

	assertAmount(t, "2000.00", findItem(t, result.Items, CodeBaseSalary).Amount)
}

func TestCalculateAbsenceReducesTaxBase(t *testing.T) {
	engine := newTestEngine()
	employee := EmployeeSnapshot{ID: "emp-1", BaseSalary: dec("3000")}
	attendance := AttendanceFacts{AbsenceDays: dec("2")}

	result, err := engine.Calculate(context.Background(), "tenant-1", employee, attendance, nil, BonusFacts{}, nil, 6, 2024)
	require.NoError(t, err)

	assertAmount(t, "200.00", findItem(t, result.Items, CodeAbsence).Amount)
	assertAmount(t, "2800", result.ContributionBase)
	assertAmount(t, "234.82", findItem(t, result.Items, CodeINSS).Amount)
	assertAmount(t, "22.95", findItem(t, result.Items, CodeIRRF).Amount)
	assertAmount(t, "2542.23", result.NetSalary)
}

func TestCalculateDependentDeduction(t *testing.T) {
	engine := newTestEngine()
	employee := EmployeeSnapshot{ID: "emp-1", BaseSalary: dec("3000"), Dependents: 2}

	result, err := engine.Calculate(context.Background(), "tenant-1", employee, AttendanceFacts{}, nil, BonusFacts{}, nil, 6, 2024)
	require.NoError(t, err)

	// 2741.18 - 2 * 189.59 = 2362.00
	assertAmount(t, "2362.00", result.WithholdingBase)
	assertAmount(t, "7.71", findItem(t, result.Items, CodeIRRF).Amount)
}

func TestCalculateVouchersAndInsurance(t *testing.T) {
	engine := newTestEngine()
	employee := EmployeeSnapshot{
		ID:                    "emp-1",
		BaseSalary:            dec("3000"),
		TransportVoucher:      true,
		MealVoucher:           true,
		MealVoucherAmount:     dec("50"),
		HealthInsurance:       true,
		HealthInsuranceAmount: dec("200"),
	}

	result, err := engine.Calculate(context.Background(), "tenant-1", employee, AttendanceFacts{}, nil, BonusFacts{}, nil, 6, 2024)
	require.NoError(t, err)

	transport := findItem(t, result.Items, CodeTransportVoucher)
	assertAmount(t, "180.00", transport.Amount)
	require.True(t, transport.Percentage.Valid)
	assertAmount(t, "6", transport.Percentage.Decimal)

	assertAmount(t, "50", findItem(t, result.Items, CodeMealVoucher).Amount)
	assertAmount(t, "200", findItem(t, result.Items, CodeHealthInsurance).Amount)
	assertAmount(t, "2275.03", result.NetSalary)
}

func TestCalculateCustomTransportRate(t *testing.T) {
	engine := newTestEngine()
	employee := EmployeeSnapshot{
		ID:                   "emp-1",
		BaseSalary:           dec("3000"),
		TransportVoucher:     true,
		TransportVoucherRate: decimal.NullDecimal{Decimal: dec("4"), Valid: true},
	}

	result, err := engine.Calculate(context.Background(), "tenant-1", employee, AttendanceFacts{}, nil, BonusFacts{}, nil, 6, 2024)
	require.NoError(t, err)

	assertAmount(t, "120.00", findItem(t, result.Items, CodeTransportVoucher).Amount)
}

func TestCalculateVacationBonusAndCommission(t *testing.T) {
	engine := newTestEngine()
	employee := EmployeeSnapshot{ID: "emp-1", BaseSalary: dec("3000")}
	vacations := []VacationFacts{{Days: 10, Pay: dec("1000"), Bonus: dec("333.33")}}
	bonus := BonusFacts{Bonus: dec("500"), Commission: dec("250"), Reason: "Q2 target"}

	result, err := engine.Calculate(context.Background(), "tenant-1", employee, AttendanceFacts{}, vacations, bonus, nil, 6, 2024)
	require.NoError(t, err)

	assert.Equal(t, "Performance bonus (Q2 target)", findItem(t, result.Items, CodeBonus).Description)
	assertAmount(t, "1000", findItem(t, result.Items, CodeVacationPay).Amount)
	assertAmount(t, "333.33", findItem(t, result.Items, CodeVacationBonus).Amount)

	assertAmount(t, "5083.33", result.TotalEarnings)
	assertAmount(t, "530.48", findItem(t, result.Items, CodeINSS).Amount)
	assertAmount(t, "361.62", findItem(t, result.Items, CodeIRRF).Amount)
	assertAmount(t, "4191.23", result.NetSalary)
	assertAmount(t, "406.67", result.FGTSAmount)
}

func TestCalculateBenefitLines(t *testing.T) {
	engine := newTestEngine()
	employee := EmployeeSnapshot{ID: "emp-1", BaseSalary: dec("3000")}
	benefits := []BenefitLine{
		{Category: ItemTypeEarning, Name: "Home office allowance", Amount: dec("100")},
		{Category: ItemTypeDeduction, Name: "Transport pass", Amount: dec("90")},
	}

	result, err := engine.Calculate(context.Background(), "tenant-1", employee, AttendanceFacts{}, nil, BonusFacts{}, benefits, 6, 2024)
	require.NoError(t, err)

	assertAmount(t, "100", findItem(t, result.Items, CodeOtherEarning).Amount)
	// keyword fallback maps "Transport pass" to the transport voucher code
	assertAmount(t, "90", findItem(t, result.Items, CodeTransportVoucher).Amount)

	assertAmount(t, "3100", result.ContributionBase)
	assertAmount(t, "270.82", findItem(t, result.Items, CodeINSS).Amount)
	assertAmount(t, "42.94", findItem(t, result.Items, CodeIRRF).Amount)
	assertAmount(t, "2696.24", result.NetSalary)
}

func TestCalculateSuppressesZeroLines(t *testing.T) {
	engine := newTestEngine()
	employee := EmployeeSnapshot{ID: "emp-1", BaseSalary: dec("1000")}

	result, err := engine.Calculate(context.Background(), "tenant-1", employee, AttendanceFacts{}, nil, BonusFacts{}, nil, 6, 2024)
	require.NoError(t, err)

	require.Len(t, result.Items, 2)
	assertAmount(t, "75.00", findItem(t, result.Items, CodeINSS).Amount)
	assert.False(t, hasItem(result.Items, CodeIRRF))
	assert.False(t, hasItem(result.Items, CodeOvertime50))
}

func TestCalculateItemOrderAndTotalsInvariant(t *testing.T) {
	engine := newTestEngine()
	worked := 30
	employee := EmployeeSnapshot{
		ID:                    "emp-1",
		BaseSalary:            dec("4000"),
		Dependents:            1,
		TransportVoucher:      true,
		MealVoucher:           true,
		MealVoucherAmount:     dec("40"),
		HealthInsurance:       true,
		HealthInsuranceAmount: dec("150"),
	}
	attendance := AttendanceFacts{
		DaysInMonth:      30,
		WorkedDays:       &worked,
		Overtime50Hours:  dec("6"),
		NightHours:       dec("5"),
		AbsenceDays:      dec("1"),
	}
	vacations := []VacationFacts{{Days: 5, Pay: dec("666.67"), Bonus: dec("222.22")}}
	bonus := BonusFacts{Bonus: dec("300"), Commission: dec("120")}
	benefits := []BenefitLine{
		{Category: ItemTypeEarning, Name: "Language stipend", Amount: dec("80")},
		{Category: ItemTypeDeduction, Code: CodeOtherDeduction, Name: "Union fee", Amount: dec("35")},
	}

	result, err := engine.Calculate(context.Background(), "tenant-1", employee, attendance, vacations, bonus, benefits, 6, 2024)
	require.NoError(t, err)

	wantOrder := []string{
		CodeBaseSalary, CodeOvertime50, CodeNightPremium, CodeBonus,
		CodeCommission, CodeVacationPay, CodeVacationBonus, CodeOtherEarning,
		CodeAbsence, CodeOtherDeduction, CodeINSS, CodeIRRF,
		CodeTransportVoucher, CodeMealVoucher, CodeHealthInsurance,
	}
	require.Len(t, result.Items, len(wantOrder))
	for i, code := range wantOrder {
		assert.Equal(t, code, result.Items[i].Code, "position %d", i)
		assert.Equal(t, i, result.Items[i].SortOrder)
	}

	earnings, deductions := decimal.Zero, decimal.Zero
	for _, item := range result.Items {
		switch item.Type {
		case ItemTypeEarning:
			earnings = earnings.Add(item.Amount)
		case ItemTypeDeduction:
			deductions = deductions.Add(item.Amount)
		}
	}
	require.True(t, result.TotalEarnings.Equal(earnings))
	require.True(t, result.TotalDeductions.Equal(deductions))
	require.True(t, result.NetSalary.Equal(earnings.Sub(deductions)))
}

func TestCalculateRejectsInvalidCompetency(t *testing.T) {
	engine := newTestEngine()
	employee := EmployeeSnapshot{ID: "emp-1", BaseSalary: dec("3000")}

	_, err := engine.Calculate(context.Background(), "tenant-1", employee, AttendanceFacts{}, nil, BonusFacts{}, nil, 13, 2024)
	require.ErrorIs(t, err, ErrInvalidCompetency)

	_, err = engine.Calculate(context.Background(), "tenant-1", employee, AttendanceFacts{}, nil, BonusFacts{}, nil, 0, 2024)
	require.ErrorIs(t, err, ErrInvalidCompetency)

	_, err = engine.Calculate(context.Background(), "tenant-1", employee, AttendanceFacts{}, nil, BonusFacts{}, nil, 6, 2201)
	require.ErrorIs(t, err, ErrInvalidCompetency)

	_, err = engine.Calculate(context.Background(), "tenant-1", employee, AttendanceFacts{}, nil, BonusFacts{}, nil, 6, 1899)
	require.ErrorIs(t, err, ErrInvalidCompetency)
}

func TestBenefitDeductionCodeFallback(t *testing.T) {
	cases := []struct {
		benefit BenefitLine
		want    string
	}{
		{BenefitLine{Code: CodeHealthInsurance, Name: "whatever"}, CodeHealthInsurance},
		{BenefitLine{Name: "Transport card"}, CodeTransportVoucher},
		{BenefitLine{Name: "Meal allowance"}, CodeMealVoucher},
		{BenefitLine{Name: "Food card"}, CodeMealVoucher},
		{BenefitLine{Name: "Health plan"}, CodeHealthInsurance},
		{BenefitLine{Name: "Gym membership"}, CodeOtherDeduction},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, benefitDeductionCode(tc.benefit), tc.benefit.Name)
	}
}
