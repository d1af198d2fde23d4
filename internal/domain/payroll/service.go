package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Service orchestrates the run/period lifecycle: it gathers facts from the
// collaborators, drives the engine, and enforces the closed-competency
// invariant. Batch processing is a sequential loop with per-employee
// isolation; one employee's failure never aborts the run.
type Service struct {
	store      StoreAPI
	engine     *Engine
	directory  EmployeeDirectory
	attendance AttendanceSource
	vacations  VacationSource
	bonuses    BonusSource
	benefits   BenefitSource
	locks      *keyedLocks
}

func NewService(store StoreAPI, engine *Engine, directory EmployeeDirectory, attendance AttendanceSource, vacations VacationSource, bonuses BonusSource, benefits BenefitSource) *Service {
	return &Service{
		store:      store,
		engine:     engine,
		directory:  directory,
		attendance: attendance,
		vacations:  vacations,
		bonuses:    bonuses,
		benefits:   benefits,
		locks:      newKeyedLocks(),
	}
}

type IndividualRequest struct {
	TenantID   string
	EmployeeID string
	Month      int
	Year       int
}

type BatchRequest struct {
	TenantID      string
	Month         int
	Year          int
	EmployeeIDs   []string
	DepartmentIDs []string
}

// ProcessIndividual computes (or recomputes) one employee's payroll for the
// competency. Reprocessing replaces the prior payroll and increments its
// calculation version; a closed competency or closed payroll is rejected.
func (s *Service) ProcessIndividual(ctx context.Context, req IndividualRequest) (Payroll, error) {
	if err := validateCompetency(req.Month, req.Year); err != nil {
		return Payroll{}, err
	}
	if err := s.guardCompetencyOpen(ctx, req.TenantID, req.Month, req.Year); err != nil {
		return Payroll{}, err
	}

	release := s.locks.acquire(calculationKey(req.TenantID, req.EmployeeID, req.Month, req.Year))
	defer release()

	return s.processEmployee(ctx, req.TenantID, "", req.EmployeeID, req.Month, req.Year)
}

// ProcessBatch creates a run and processes the resolved employee set
// sequentially. Per-employee failures are recorded on the outcome and in the
// run counters; previously processed employees are never rolled back.
func (s *Service) ProcessBatch(ctx context.Context, req BatchRequest) (RunOutcome, error) {
	if err := validateCompetency(req.Month, req.Year); err != nil {
		return RunOutcome{}, err
	}
	if err := s.guardCompetencyOpen(ctx, req.TenantID, req.Month, req.Year); err != nil {
		return RunOutcome{}, err
	}

	employeeIDs, err := s.resolveEmployeeSet(ctx, req)
	if err != nil {
		return RunOutcome{}, err
	}

	run, err := s.store.CreateRun(ctx, req.TenantID, req.Month, req.Year)
	if err != nil {
		return RunOutcome{}, err
	}

	outcome := RunOutcome{Run: run}
	for _, employeeID := range employeeIDs {
		payroll, err := s.processBatchMember(ctx, req.TenantID, run.ID, employeeID, req.Month, req.Year)
		if err != nil {
			slog.Warn("batch payroll calculation failed", "runId", run.ID, "employeeId", employeeID, "err", err)
			outcome.Failed = append(outcome.Failed, RunFailure{EmployeeID: employeeID, Reason: err.Error()})
			continue
		}
		outcome.Succeeded = append(outcome.Succeeded, RunSuccess{EmployeeID: employeeID, PayrollID: payroll.ID})
	}

	finished, err := s.store.FinishRun(ctx, run.ID, len(outcome.Succeeded), len(outcome.Failed))
	if err != nil {
		return RunOutcome{}, err
	}
	outcome.Run = finished
	return outcome, nil
}

func (s *Service) processBatchMember(ctx context.Context, tenantID, runID, employeeID string, month, year int) (Payroll, error) {
	release := s.locks.acquire(calculationKey(tenantID, employeeID, month, year))
	defer release()
	return s.processEmployee(ctx, tenantID, runID, employeeID, month, year)
}

func (s *Service) processEmployee(ctx context.Context, tenantID, runID, employeeID string, month, year int) (Payroll, error) {
	prior, err := s.store.PayrollByEmployeeCompetency(ctx, tenantID, employeeID, month, year)
	havePrior := err == nil
	if err != nil && !errors.Is(err, ErrPayrollNotFound) {
		return Payroll{}, err
	}
	if havePrior && prior.Status == StatusClosed {
		return Payroll{}, ErrPayrollClosed
	}

	employee, err := s.directory.Employee(ctx, tenantID, employeeID)
	if err != nil {
		return Payroll{}, fmt.Errorf("employee lookup: %w", err)
	}

	attendance, vacations, bonuses, benefits := s.gatherFacts(ctx, tenantID, employeeID, month, year)

	payroll, err := s.engine.Calculate(ctx, tenantID, employee, attendance, vacations, bonuses, benefits, month, year)
	if err != nil {
		return Payroll{}, err
	}
	payroll.RunID = runID

	if havePrior {
		payroll.CalculationVersion = prior.CalculationVersion + 1
		payroll.Status = StatusRecalculated
		if err := s.store.ReplacePayroll(ctx, prior.ID, &payroll); err != nil {
			return Payroll{}, err
		}
		return payroll, nil
	}

	if err := s.store.CreatePayroll(ctx, &payroll); err != nil {
		return Payroll{}, err
	}
	return payroll, nil
}

// gatherFacts collects the period-scoped facts. Every source is fallback-safe:
// a failed call degrades to empty facts with a warning so a partial outage
// never blocks the calculation.
func (s *Service) gatherFacts(ctx context.Context, tenantID, employeeID string, month, year int) (AttendanceFacts, []VacationFacts, BonusFacts, []BenefitLine) {
	attendance, err := s.attendance.Attendance(ctx, tenantID, employeeID, month, year)
	if err != nil {
		slog.Warn("attendance facts unavailable, assuming full month", "employeeId", employeeID, "err", err)
		attendance = AttendanceFacts{}
	}

	vacations, err := s.vacations.Vacations(ctx, tenantID, employeeID, month, year)
	if err != nil {
		slog.Warn("vacation facts unavailable", "employeeId", employeeID, "err", err)
		vacations = nil
	}

	bonuses, err := s.bonuses.Bonuses(ctx, tenantID, employeeID, month, year)
	if err != nil {
		slog.Warn("bonus facts unavailable", "employeeId", employeeID, "err", err)
		bonuses = BonusFacts{}
	}

	benefits, err := s.benefits.Benefits(ctx, tenantID, employeeID, month, year)
	if err != nil {
		slog.Warn("benefit facts unavailable", "employeeId", employeeID, "err", err)
		benefits = nil
	}

	return attendance, vacations, bonuses, benefits
}

// resolveEmployeeSet picks the batch population: the explicit id list and the
// department lists deduplicated by employee id (first occurrence wins), or
// every active employee when neither is given.
func (s *Service) resolveEmployeeSet(ctx context.Context, req BatchRequest) ([]string, error) {
	if len(req.EmployeeIDs) == 0 && len(req.DepartmentIDs) == 0 {
		ids, err := s.directory.ActiveEmployeeIDs(ctx, req.TenantID)
		if err != nil {
			return nil, fmt.Errorf("active employee lookup: %w", err)
		}
		return ids, nil
	}

	seen := map[string]bool{}
	var ids []string
	appendIDs := func(candidates []string) {
		for _, id := range candidates {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
	}

	appendIDs(req.EmployeeIDs)
	if len(req.DepartmentIDs) > 0 {
		departmentIDs, err := s.directory.EmployeeIDsByDepartments(ctx, req.TenantID, req.DepartmentIDs)
		if err != nil {
			return nil, fmt.Errorf("department employee lookup: %w", err)
		}
		appendIDs(departmentIDs)
	}
	return ids, nil
}

// CloseCompetency makes the competency immutable: every non-cancelled payroll
// in it becomes CLOSED and the run records the actor and timestamp. Requires
// the latest run to be in PROCESSED state.
func (s *Service) CloseCompetency(ctx context.Context, tenantID string, month, year int, actor string) (Run, error) {
	if err := validateCompetency(month, year); err != nil {
		return Run{}, err
	}

	run, err := s.store.LatestRunByCompetency(ctx, tenantID, month, year)
	if err != nil {
		return Run{}, err
	}
	switch run.Status {
	case RunStatusClosed:
		return Run{}, ErrRunAlreadyClosed
	case RunStatusProcessed:
	default:
		return Run{}, ErrRunNotProcessed
	}

	return s.store.CloseCompetency(ctx, tenantID, run.ID, actor, month, year, time.Now().UTC())
}

// CancelRun abandons a run that has not been closed; its payrolls are
// cancelled alongside it.
func (s *Service) CancelRun(ctx context.Context, tenantID, runID string) (Run, error) {
	run, err := s.store.RunByID(ctx, tenantID, runID)
	if err != nil {
		return Run{}, err
	}
	if run.Status == RunStatusClosed {
		return Run{}, ErrRunAlreadyClosed
	}
	return s.store.CancelRun(ctx, tenantID, runID)
}

func (s *Service) Payroll(ctx context.Context, tenantID, payrollID string) (Payroll, error) {
	return s.store.PayrollByID(ctx, tenantID, payrollID)
}

func (s *Service) Payrolls(ctx context.Context, tenantID string, month, year, limit, offset int) ([]Payroll, error) {
	return s.store.ListPayrolls(ctx, tenantID, month, year, limit, offset)
}

func (s *Service) Run(ctx context.Context, tenantID, runID string) (Run, error) {
	return s.store.RunByID(ctx, tenantID, runID)
}

func (s *Service) Runs(ctx context.Context, tenantID string, limit, offset int) ([]Run, error) {
	return s.store.ListRuns(ctx, tenantID, limit, offset)
}

// Payslip builds the rendered-elsewhere payslip view of a stored payroll.
func (s *Service) Payslip(ctx context.Context, tenantID, payrollID string) (PayslipView, error) {
	payroll, err := s.store.PayrollByID(ctx, tenantID, payrollID)
	if err != nil {
		return PayslipView{}, err
	}
	tenantName, err := s.store.TenantName(ctx, tenantID)
	if err != nil {
		slog.Warn("tenant name lookup failed", "tenantId", tenantID, "err", err)
		tenantName = ""
	}
	return BuildPayslip(tenantName, payroll), nil
}

func (s *Service) guardCompetencyOpen(ctx context.Context, tenantID string, month, year int) error {
	closed, err := s.store.CompetencyClosed(ctx, tenantID, month, year)
	if err != nil {
		return err
	}
	if closed {
		return ErrCompetencyClosed
	}
	return nil
}

func validateCompetency(month, year int) error {
	if month < 1 || month > 12 || year < 1900 || year > 2200 {
		return fmt.Errorf("%w: %02d/%d", ErrInvalidCompetency, month, year)
	}
	return nil
}

func calculationKey(tenantID, employeeID string, month, year int) string {
	return fmt.Sprintf("%s/%s/%04d-%02d", tenantID, employeeID, year, month)
}
