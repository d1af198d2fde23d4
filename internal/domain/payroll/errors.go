package payroll

import "errors"

var (
	ErrPayrollNotFound   = errors.New("payroll not found")
	ErrRunNotFound       = errors.New("payroll run not found")
	ErrEmployeeNotFound  = errors.New("employee not found")
	ErrCompetencyClosed  = errors.New("competency is closed")
	ErrPayrollClosed     = errors.New("payroll is closed")
	ErrRunNotProcessed   = errors.New("payroll run must be processed before closing")
	ErrRunAlreadyClosed  = errors.New("payroll run already closed")
	ErrInvalidCompetency = errors.New("invalid competency")
)
