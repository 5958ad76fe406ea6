package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-patrol-api/internal/models"
	"github.com/noah-isme/sma-patrol-api/internal/repository"
	appErrors "github.com/noah-isme/sma-patrol-api/pkg/errors"
	"github.com/noah-isme/sma-patrol-api/pkg/export"
)

const clockLayout = "15:04"

type leaveRepository interface {
	Table() string
	Append(ctx context.Context, requests []models.LeaveRequest) error
}

// LeaveConfig holds leave workflow constraints.
type LeaveConfig struct {
	// LateReturnCutoff is the latest accepted return time, inclusive, as HH:MM.
	LateReturnCutoff string
	Location         *time.Location
}

// LeaveService builds per-session leave carts and submits them in bulk.
type LeaveService struct {
	repo      leaveRepository
	roster    studentResolver
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	cutoff    time.Duration
	location  *time.Location
	now       func() time.Time
}

// NewLeaveService constructs a LeaveService.
func NewLeaveService(repo leaveRepository, roster studentResolver, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger, cfg LeaveConfig) (*LeaveService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.LateReturnCutoff == "" {
		cfg.LateReturnCutoff = "22:30"
	}
	cutoff, err := clockOffset(cfg.LateReturnCutoff)
	if err != nil {
		return nil, fmt.Errorf("late return cutoff: %w", err)
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &LeaveService{
		repo:      repo,
		roster:    roster,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
		cutoff:    cutoff,
		location:  cfg.Location,
		now:       time.Now,
	}, nil
}

// Add validates a multi-student leave entry and appends one request per
// student to the session cart.
func (s *LeaveService) Add(ctx context.Context, sess *Session, req models.AddLeaveRequest) ([]models.LeaveRequest, error) {
	identity := sess.Identity
	if !identity.Can(models.ModeLeave) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "leave entry is not enabled for this role")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid leave payload")
	}
	category, ok := models.ParseLeaveCategory(req.Category)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown leave category %q", req.Category))
	}
	if req.EndDate < req.StartDate {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date must not be before start date")
	}

	detail := strings.TrimSpace(req.Detail)
	location := strings.TrimSpace(req.Location)
	contact := strings.TrimSpace(req.Contact)
	switch category {
	case models.LeaveLateReturn:
		if err := s.checkReturnTime(detail); err != nil {
			return nil, err
		}
	case models.LeaveOvernight:
		if location == "" || contact == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "overnight leave requires a location and a contact")
		}
	}

	students, err := resolveStudents(ctx, s.roster, identity, req.StudentIDs)
	if err != nil {
		return nil, err
	}

	existing := sess.Leaves.List()
	recordDate := s.now().In(s.location).Format(dateLayout)
	entries := make([]models.LeaveRequest, 0, len(students))
	for _, st := range students {
		for _, e := range existing {
			if e.StudentID == st.ID && e.Category == category && e.StartDate == req.StartDate {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s already has a %s entry starting %s in the cart", st.ID, category.Label(), req.StartDate))
			}
		}
		entries = append(entries, models.LeaveRequest{
			RecordDate:  recordDate,
			Class:       st.Class,
			Seat:        st.Seat,
			StudentID:   st.ID,
			StudentName: st.Name,
			Category:    category,
			StartDate:   req.StartDate,
			EndDate:     req.EndDate,
			Detail:      detail,
			Location:    location,
			Contact:     contact,
			Handler:     identity.ReporterLabel(),
		})
	}
	sess.Leaves.Stage(entries...)
	return entries, nil
}

// Cart lists the session's pending leave requests.
func (s *LeaveService) Cart(sess *Session) []models.LeaveRequest {
	return sess.Leaves.List()
}

// Clear empties the session cart.
func (s *LeaveService) Clear(sess *Session) int {
	return sess.Leaves.Clear()
}

// Submit appends the cart in one bulk write, keeps a print receipt on the
// session and clears the cart. A failed write leaves the cart untouched.
func (s *LeaveService) Submit(ctx context.Context, sess *Session) (*models.SubmitReceipt, error) {
	if !sess.Identity.Can(models.ModeLeave) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "leave entry is not enabled for this role")
	}
	if sess.Leaves.Len() == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "leave cart is empty")
	}

	var submitted []models.LeaveRequest
	start := time.Now()
	rows, err := sess.Leaves.Commit(func(requests []models.LeaveRequest) error {
		if err := s.repo.Append(ctx, requests); err != nil {
			return err
		}
		submitted = requests
		return nil
	})
	s.metrics.RecordCommit(s.repo.Table(), rows, time.Since(start), err)
	if err != nil {
		s.logger.Warn("leave submit failed", zap.String("session_id", sess.ID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrCommitFailed.Code, appErrors.ErrCommitFailed.Status, appErrors.ErrCommitFailed.Message)
	}

	now := time.Now()
	receipt := &models.SubmitReceipt{
		BatchID:     uuid.NewString(),
		Table:       s.repo.Table(),
		Title:       "學生請假外宿登記表",
		Rows:        rows,
		SubmittedAt: now.UTC(),
		Submitter:   sess.Identity.ReporterLabel(),
		Dataset:     export.FromRows(repository.LeaveHeader, repository.LeaveRows(submitted)),
	}
	sess.SetReceipt(ReceiptLeave, receipt)
	s.logger.Info("leave batch submitted", zap.String("batch_id", receipt.BatchID), zap.Int("rows", rows), zap.String("handler", receipt.Submitter))
	return receipt, nil
}

// checkReturnTime enforces an HH:MM return time no later than the cutoff.
func (s *LeaveService) checkReturnTime(detail string) error {
	offset, err := clockOffset(detail)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "late return requires a return time formatted as HH:MM")
	}
	if offset > s.cutoff {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("return time %s is after the %s cutoff", detail, formatClock(s.cutoff)))
	}
	return nil
}

func clockOffset(raw string) (time.Duration, error) {
	t, err := time.Parse(clockLayout, strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func formatClock(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}
