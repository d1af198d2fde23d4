package payroll

const (
	StatusCalculated   = "CALCULATED"
	StatusRecalculated = "RECALCULATED"
	StatusClosed       = "CLOSED"
	StatusCancelled    = "CANCELLED"

	RunStatusProcessing = "PROCESSING"
	RunStatusProcessed  = "PROCESSED"
	RunStatusClosed     = "CLOSED"
	RunStatusCancelled  = "CANCELLED"

	ItemTypeEarning   = "EARNING"
	ItemTypeDeduction = "DEDUCTION"
)

// Line-item codes, listed in payslip order.
const (
	CodeBaseSalary       = "BASE_SALARY"
	CodeOvertime50       = "OVERTIME_50"
	CodeOvertime100      = "OVERTIME_100"
	CodeNightPremium     = "NIGHT_PREMIUM"
	CodeBonus            = "BONUS"
	CodeCommission       = "COMMISSION"
	CodeVacationPay      = "VACATION_PAY"
	CodeVacationBonus    = "VACATION_BONUS"
	CodeOtherEarning     = "OTHER_EARNING"
	CodeAbsence          = "ABSENCE"
	CodeINSS             = "INSS"
	CodeIRRF             = "IRRF"
	CodeTransportVoucher = "TRANSPORT_VOUCHER"
	CodeMealVoucher      = "MEAL_VOUCHER"
	CodeHealthInsurance  = "HEALTH_INSURANCE"
	CodeOtherDeduction   = "OTHER_DEDUCTION"
)
