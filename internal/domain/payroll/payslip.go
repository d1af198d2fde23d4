package payroll

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PayslipView is the document-agnostic payslip: header fields, the line
// items grouped by type, totals and tax bases. Rendering it into a document
// format happens outside this module.
type PayslipView struct {
	CompanyName  string `json:"companyName"`
	EmployeeName string `json:"employeeName"`
	TaxID        string `json:"taxId"`
	Registration string `json:"registration"`
	Department   string `json:"department"`
	Position     string `json:"position"`
	Competency   string `json:"competency"`

	Earnings   []PayslipLine `json:"earnings"`
	Deductions []PayslipLine `json:"deductions"`

	TotalEarnings    decimal.Decimal `json:"totalEarnings"`
	TotalDeductions  decimal.Decimal `json:"totalDeductions"`
	NetSalary        decimal.Decimal `json:"netSalary"`
	BaseSalary       decimal.Decimal `json:"baseSalary"`
	ContributionBase decimal.Decimal `json:"contributionBase"`
	WithholdingBase  decimal.Decimal `json:"withholdingBase"`
	FGTSAmount       decimal.Decimal `json:"fgtsAmount"`
}

type PayslipLine struct {
	Code        string              `json:"code"`
	Description string              `json:"description"`
	Reference   decimal.NullDecimal `json:"reference,omitempty"`
	Quantity    decimal.NullDecimal `json:"quantity,omitempty"`
	Amount      decimal.Decimal     `json:"amount"`
}

// BuildPayslip derives the payslip view from a computed payroll. Items keep
// their calculation order inside each group.
func BuildPayslip(companyName string, payroll Payroll) PayslipView {
	view := PayslipView{
		CompanyName:      companyName,
		EmployeeName:     payroll.EmployeeName,
		TaxID:            payroll.TaxID,
		Registration:     payroll.Registration,
		Department:       payroll.Department,
		Position:         payroll.Position,
		Competency:       fmt.Sprintf("%02d/%04d", payroll.RefMonth, payroll.RefYear),
		TotalEarnings:    payroll.TotalEarnings,
		TotalDeductions:  payroll.TotalDeductions,
		NetSalary:        payroll.NetSalary,
		BaseSalary:       payroll.BaseSalary,
		ContributionBase: payroll.ContributionBase,
		WithholdingBase:  payroll.WithholdingBase,
		FGTSAmount:       payroll.FGTSAmount,
	}

	for _, item := range payroll.Items {
		line := PayslipLine{
			Code:        item.Code,
			Description: item.Description,
			Reference:   item.Reference,
			Quantity:    item.Quantity,
			Amount:      item.Amount,
		}
		switch item.Type {
		case ItemTypeEarning:
			view.Earnings = append(view.Earnings, line)
		case ItemTypeDeduction:
			view.Deductions = append(view.Deductions, line)
		}
	}
	return view
}
