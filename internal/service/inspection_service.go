package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-patrol-api/internal/models"
	appErrors "github.com/noah-isme/sma-patrol-api/pkg/errors"
)

const dateLayout = "2006-01-02"

type inspectionRepository interface {
	Table() string
	Append(ctx context.Context, records []models.InspectionRecord) error
	List(ctx context.Context) ([]models.InspectionRecord, int, error)
}

type studentResolver interface {
	Resolve(ctx context.Context, id string) (models.Student, error)
	KnownClass(ctx context.Context, class string) bool
}

// InspectionService stages patrol observations, commits them in bulk and
// summarises the committed history.
type InspectionService struct {
	repo      inspectionRepository
	roster    studentResolver
	scoring   *ScoringTable
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	location  *time.Location
	now       func() time.Time
}

// NewInspectionService constructs an InspectionService. loc is the school's
// local time zone used for record dates.
func NewInspectionService(repo inspectionRepository, roster studentResolver, scoring *ScoringTable, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger, loc *time.Location) *InspectionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if scoring == nil {
		scoring = NewScoringTable()
	}
	if loc == nil {
		loc = time.Local
	}
	return &InspectionService{
		repo:      repo,
		roster:    roster,
		scoring:   scoring,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
		location:  loc,
		now:       time.Now,
	}
}

// Stage validates one entry, scores it and appends it to the session's staging area.
func (s *InspectionService) Stage(ctx context.Context, sess *Session, req models.StageInspectionRequest) (*models.InspectionRecord, error) {
	identity := sess.Identity
	if !identity.Can(models.ModePatrol) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "patrol entry is not enabled for this role")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid inspection payload")
	}
	if !models.ValidTimeSlot(req.TimeSlot) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown time slot %q", req.TimeSlot))
	}

	kind := models.RecordKind(req.Kind)
	record := models.InspectionRecord{
		Date:     s.now().In(s.location).Format(dateLayout),
		TimeSlot: req.TimeSlot,
		Kind:     kind,
		Category: models.StatusCategory(req.Category),
		Reporter: identity.ReporterLabel(),
	}

	switch kind {
	case models.RecordKindClass:
		class := strings.TrimSpace(req.Class)
		if class == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "class is required for class records")
		}
		if !s.roster.KnownClass(ctx, class) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown class %q", class))
		}
		record.Class = class
	case models.RecordKindIndividual:
		student, err := s.roster.Resolve(ctx, req.StudentID)
		if err != nil {
			return nil, err
		}
		record.Class = student.Class
		record.Seat = student.Seat
		record.StudentID = student.ID
		record.StudentName = student.Name
	}
	if !identity.CoversClass(record.Class) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("class %s is outside your scope", record.Class))
	}

	result, err := s.scoring.Evaluate(kind, record.Category, req.Note, models.Direction(req.Direction))
	if err != nil {
		return nil, err
	}
	record.Score = result.Delta
	record.Status = result.Status

	if req.ScoreOverride != nil {
		if !identity.Privileged() {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "manual score override requires a privileged role")
		}
		record.Score = models.NewScore(*req.ScoreOverride)
	}

	sess.Inspections.Stage(record)
	return &record, nil
}

// Staged lists the session's pending records.
func (s *InspectionService) Staged(sess *Session) []models.InspectionRecord {
	return sess.Inspections.List()
}

// Clear drops the session's pending records.
func (s *InspectionService) Clear(sess *Session) int {
	return sess.Inspections.Clear()
}

// Commit appends every staged record in one bulk write. On failure nothing is
// cleared so the caller can retry.
func (s *InspectionService) Commit(ctx context.Context, sess *Session) (*models.BatchReceipt, error) {
	if !sess.Identity.Can(models.ModePatrol) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "patrol entry is not enabled for this role")
	}
	if sess.Inspections.Len() == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no staged records to commit")
	}

	start := time.Now()
	rows, err := sess.Inspections.Commit(func(records []models.InspectionRecord) error {
		return s.repo.Append(ctx, records)
	})
	s.metrics.RecordCommit(s.repo.Table(), rows, time.Since(start), err)
	if err != nil {
		s.logger.Warn("inspection commit failed", zap.String("session_id", sess.ID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrCommitFailed.Code, appErrors.ErrCommitFailed.Status, appErrors.ErrCommitFailed.Message)
	}

	receipt := &models.BatchReceipt{
		BatchID:     uuid.NewString(),
		Table:       s.repo.Table(),
		Rows:        rows,
		CommittedAt: time.Now().UTC(),
	}
	s.logger.Info("inspection batch committed",
		zap.String("batch_id", receipt.BatchID),
		zap.Int("rows", rows),
		zap.String("reporter", sess.Identity.ReporterLabel()),
	)
	return receipt, nil
}

// Summarize recomputes the view of one day from the full committed history.
// Privileged identities see every row in scope; everyone else sees only the
// rows they reported. Class-scoped identities are held to their own class.
func (s *InspectionService) Summarize(ctx context.Context, identity models.Identity, date, scope string) (*models.InspectionSummary, error) {
	if !identity.Can(models.ModeReport) && !identity.Can(models.ModePatrol) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "reporting is not enabled for this role")
	}

	date = strings.TrimSpace(date)
	if date == "" {
		date = s.now().In(s.location).Format(dateLayout)
	} else if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be formatted as YYYY-MM-DD")
	}

	scope, err := effectiveScope(identity, scope)
	if err != nil {
		return nil, err
	}

	history, malformed, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to read inspection history")
	}
	if malformed > 0 {
		s.logger.Warn("skipped inspection rows with unreadable scores", zap.Int("rows", malformed))
	}

	privileged := identity.Privileged()
	summary := &models.InspectionSummary{
		Date:       date,
		Scope:      scope,
		Privileged: privileged,
		Records:    make([]models.InspectionRecord, 0),
	}
	byClass := map[string]*models.ScoreTotal{}
	byReporter := map[string]*models.ScoreTotal{}

	for _, rec := range history {
		if rec.Date != date {
			continue
		}
		if scope != models.ScopeSchoolWide && rec.Class != scope {
			continue
		}
		if !privileged && !identity.Reported(rec.Reporter) {
			continue
		}
		summary.Records = append(summary.Records, rec)
		summary.Total += rec.Score
		addTotal(byClass, rec.Class, rec.Score)
		addTotal(byReporter, rec.Reporter, rec.Score)
	}
	summary.ClassTotals = sortedTotals(byClass)
	summary.ReporterTotals = sortedTotals(byReporter)
	return summary, nil
}

// effectiveScope narrows a requested scope to what identity may see.
func effectiveScope(identity models.Identity, requested string) (string, error) {
	requested = models.NormalizeScope(requested)
	if identity.SchoolWide() {
		return requested, nil
	}
	if requested != models.ScopeSchoolWide && requested != identity.Scope {
		return "", appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("class %s is outside your scope", requested))
	}
	return identity.Scope, nil
}

func addTotal(totals map[string]*models.ScoreTotal, key string, score models.Score) {
	t, ok := totals[key]
	if !ok {
		t = &models.ScoreTotal{Key: key}
		totals[key] = t
	}
	t.Count++
	t.Total += score
}

func sortedTotals(totals map[string]*models.ScoreTotal) []models.ScoreTotal {
	out := make([]models.ScoreTotal, 0, len(totals))
	for _, t := range totals {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
