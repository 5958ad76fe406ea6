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

type disciplineRepository interface {
	Table() string
	Append(ctx context.Context, recs []models.DisciplinaryRecommendation) error
}

// DisciplineService builds per-session recommendation carts and submits them in bulk.
type DisciplineService struct {
	repo      disciplineRepository
	roster    studentResolver
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	location  *time.Location
	now       func() time.Time
}

// NewDisciplineService constructs a DisciplineService.
func NewDisciplineService(repo disciplineRepository, roster studentResolver, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger, loc *time.Location) *DisciplineService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if loc == nil {
		loc = time.Local
	}
	return &DisciplineService{
		repo:      repo,
		roster:    roster,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
		location:  loc,
		now:       time.Now,
	}
}

// Add validates a multi-student recommendation and appends one row per
// student to the session cart.
func (s *DisciplineService) Add(ctx context.Context, sess *Session, req models.AddDisciplineRequest) ([]models.DisciplinaryRecommendation, error) {
	identity := sess.Identity
	if !identity.Can(models.ModeDiscipline) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "discipline entry is not enabled for this role")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid recommendation payload")
	}
	kind, ok := models.ParseDisciplineKind(req.Kind)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown recommendation kind %q", req.Kind))
	}
	item := strings.TrimSpace(req.Item)
	if !models.ValidDisciplineItem(kind, item) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("item %q is not valid for %s", item, kind.Label()))
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a justification is required")
	}

	students, err := resolveStudents(ctx, s.roster, identity, req.StudentIDs)
	if err != nil {
		return nil, err
	}

	existing := sess.Discipline.List()
	date := s.now().In(s.location).Format(dateLayout)
	entries := make([]models.DisciplinaryRecommendation, 0, len(students))
	for _, st := range students {
		for _, e := range existing {
			if e.StudentID == st.ID && e.Kind == kind && e.Item == item {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s already has a %s recommendation in the cart", st.ID, item))
			}
		}
		entries = append(entries, models.DisciplinaryRecommendation{
			Date:      date,
			Kind:      kind,
			StudentID: st.ID,
			Class:     st.Class,
			SeatName:  strings.TrimSpace(st.Seat + " " + st.Name),
			Item:      item,
			Reason:    reason,
			Count:     req.Count,
			Submitter: identity.ReporterLabel(),
		})
	}
	sess.Discipline.Stage(entries...)
	return entries, nil
}

// Cart lists the session's pending recommendations.
func (s *DisciplineService) Cart(sess *Session) []models.DisciplinaryRecommendation {
	return sess.Discipline.List()
}

// Clear empties the session cart.
func (s *DisciplineService) Clear(sess *Session) int {
	return sess.Discipline.Clear()
}

// Submit appends the cart in one bulk write, keeps a print receipt on the
// session and clears the cart. A failed write leaves the cart untouched.
func (s *DisciplineService) Submit(ctx context.Context, sess *Session) (*models.SubmitReceipt, error) {
	if !sess.Identity.Can(models.ModeDiscipline) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "discipline entry is not enabled for this role")
	}
	if sess.Discipline.Len() == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "recommendation cart is empty")
	}

	var submitted []models.DisciplinaryRecommendation
	start := time.Now()
	rows, err := sess.Discipline.Commit(func(recs []models.DisciplinaryRecommendation) error {
		if err := s.repo.Append(ctx, recs); err != nil {
			return err
		}
		submitted = recs
		return nil
	})
	s.metrics.RecordCommit(s.repo.Table(), rows, time.Since(start), err)
	if err != nil {
		s.logger.Warn("recommendation submit failed", zap.String("session_id", sess.ID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrCommitFailed.Code, appErrors.ErrCommitFailed.Status, appErrors.ErrCommitFailed.Message)
	}

	receipt := &models.SubmitReceipt{
		BatchID:     uuid.NewString(),
		Table:       s.repo.Table(),
		Title:       "學生獎懲建議表",
		Rows:        rows,
		SubmittedAt: time.Now().UTC(),
		Submitter:   sess.Identity.ReporterLabel(),
		Dataset:     export.FromRows(repository.DisciplineHeader, repository.DisciplineRows(submitted)),
	}
	sess.SetReceipt(ReceiptDiscipline, receipt)
	s.logger.Info("recommendation batch submitted", zap.String("batch_id", receipt.BatchID), zap.Int("rows", rows), zap.String("submitter", receipt.Submitter))
	return receipt, nil
}
