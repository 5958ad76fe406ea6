package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-patrol-api/internal/models"
	"github.com/noah-isme/sma-patrol-api/internal/repository"
	appErrors "github.com/noah-isme/sma-patrol-api/pkg/errors"
	"github.com/noah-isme/sma-patrol-api/pkg/sheet"
)

type inspectionFixture struct {
	store *sheet.MemoryStore
	repo  *repository.InspectionRepository
	svc   *InspectionService
}

func newInspectionFixture(t *testing.T, students ...models.Student) *inspectionFixture {
	t.Helper()
	store := sheet.NewMemoryStore()
	repo := repository.NewInspectionRepository(store, "inspections")
	require.NoError(t, repo.EnsureTable(context.Background()))
	svc := NewInspectionService(repo, newTestRoster(students...), NewScoringTable(), validator.New(), nil, zap.NewNop(), time.UTC)
	svc.now = func() time.Time { return fixedNow }
	return &inspectionFixture{store: store, repo: repo, svc: svc}
}

func individualEntry(studentID string, category models.StatusCategory) models.StageInspectionRequest {
	return models.StageInspectionRequest{
		TimeSlot:  models.TimeSlots[0],
		Kind:      string(models.RecordKindIndividual),
		StudentID: studentID,
		Category:  string(category),
	}
}

func classEntry(class string, category models.StatusCategory) models.StageInspectionRequest {
	return models.StageInspectionRequest{
		TimeSlot: models.TimeSlots[4],
		Kind:     string(models.RecordKindClass),
		Class:    class,
		Category: string(category),
	}
}

func TestInspectionServiceRejectsUnknownStudent(t *testing.T) {
	f := newInspectionFixture(t, studentX)
	sess := newTestSession(supervisor)

	_, err := f.svc.Stage(context.Background(), sess, individualEntry("999999", models.CategoryLateAbsent))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Zero(t, sess.Inspections.Len())
}

func TestInspectionServiceHomeroomTeacherFlow(t *testing.T) {
	f := newInspectionFixture(t, studentX)
	ctx := context.Background()
	sess := newTestSession(homeroomA)

	record, err := f.svc.Stage(ctx, sess, individualEntry("100001", models.CategoryLateAbsent))
	require.NoError(t, err)
	assert.Equal(t, "ClassA", record.Class)
	assert.Equal(t, "X", record.StudentName)
	assert.Equal(t, "2026-10-18", record.Date)
	assert.Equal(t, "導師-林老師", record.Reporter)

	receipt, err := f.svc.Commit(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, 1, receipt.Rows)
	assert.Zero(t, sess.Inspections.Len())

	summary, err := f.svc.Summarize(ctx, homeroomA, "2026-10-18", "")
	require.NoError(t, err)
	assert.Equal(t, "ClassA", summary.Scope)
	require.Len(t, summary.Records, 1)
	assert.Equal(t, "-0.03", summary.Total.Fixed())
	require.Len(t, summary.ClassTotals, 1)
	assert.Equal(t, models.ScoreTotal{Key: "ClassA", Count: 1, Total: -3}, summary.ClassTotals[0])
}

func TestInspectionServiceScopeEnforcement(t *testing.T) {
	f := newInspectionFixture(t, studentX, studentZ)
	ctx := context.Background()
	sess := newTestSession(homeroomA)

	_, err := f.svc.Stage(ctx, sess, individualEntry("200001", models.CategoryWandering))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = f.svc.Summarize(ctx, homeroomA, "2026-10-18", "餐一忠")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestInspectionServiceCommitIsAllOrNothing(t *testing.T) {
	f := newInspectionFixture(t, studentX, studentY)
	ctx := context.Background()
	sess := newTestSession(supervisor)

	_, err := f.svc.Stage(ctx, sess, individualEntry("100001", models.CategoryLateAbsent))
	require.NoError(t, err)
	_, err = f.svc.Stage(ctx, sess, classEntry("餐一忠", models.CategoryNapNoisy))
	require.NoError(t, err)

	f.store.FailAppends(errors.New("store unreachable"))
	_, err = f.svc.Commit(ctx, sess)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCommitFailed.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 2, sess.Inspections.Len())

	values, err := f.store.Values(ctx, "inspections")
	require.NoError(t, err)
	assert.Len(t, values, 1, "only the header")

	f.store.FailAppends(nil)
	receipt, err := f.svc.Commit(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, 2, receipt.Rows)

	values, err = f.store.Values(ctx, "inspections")
	require.NoError(t, err)
	require.Len(t, values, 3)
	assert.Equal(t, "100001", values[1][5])
	assert.Equal(t, "餐一忠", values[2][3])
}

func TestInspectionServiceCommitRequiresStagedRecords(t *testing.T) {
	f := newInspectionFixture(t)
	_, err := f.svc.Commit(context.Background(), newTestSession(supervisor))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestInspectionServiceTotalsDoNotDrift(t *testing.T) {
	f := newInspectionFixture(t, studentX)
	ctx := context.Background()
	sess := newTestSession(supervisor)

	for i := 0; i < 1000; i++ {
		_, err := f.svc.Stage(ctx, sess, individualEntry("100001", models.CategoryGoodDeed))
		require.NoError(t, err)
	}
	_, err := f.svc.Commit(ctx, sess)
	require.NoError(t, err)

	summary, err := f.svc.Summarize(ctx, supervisor, "", "")
	require.NoError(t, err)
	assert.Len(t, summary.Records, 1000)
	assert.Equal(t, models.Score(3000), summary.Total)
	assert.Equal(t, "30.00", summary.Total.Fixed())
}

func TestInspectionServiceVisibilityByRole(t *testing.T) {
	f := newInspectionFixture(t, studentX)
	ctx := context.Background()
	reporterA := models.Identity{Role: models.RoleOther, Name: "甲", Scope: models.ScopeSchoolWide}
	reporterB := models.Identity{Role: models.RoleOther, Name: "乙", Scope: models.ScopeSchoolWide}

	for _, id := range []models.Identity{reporterA, reporterB} {
		sess := newTestSession(id)
		_, err := f.svc.Stage(ctx, sess, classEntry("餐一忠", models.CategoryOrderGood))
		require.NoError(t, err)
		_, err = f.svc.Commit(ctx, sess)
		require.NoError(t, err)
	}

	own, err := f.svc.Summarize(ctx, reporterA, "2026-10-18", "")
	require.NoError(t, err)
	assert.False(t, own.Privileged)
	require.Len(t, own.Records, 1)
	assert.Equal(t, "其他-甲", own.Records[0].Reporter)

	all, err := f.svc.Summarize(ctx, supervisor, "2026-10-18", "")
	require.NoError(t, err)
	assert.True(t, all.Privileged)
	assert.Len(t, all.Records, 2)
	assert.Len(t, all.ReporterTotals, 2)
	assert.Equal(t, "2.00", all.Total.Fixed())

	other, err := f.svc.Summarize(ctx, supervisor, "2026-10-17", "")
	require.NoError(t, err)
	assert.Empty(t, other.Records)
}

func TestInspectionServiceScoreOverrideRequiresPrivilege(t *testing.T) {
	f := newInspectionFixture(t, studentX)
	ctx := context.Background()
	override := -2.5

	entry := classEntry("ClassA", models.CategoryNapNoisy)
	entry.ScoreOverride = &override

	_, err := f.svc.Stage(ctx, newTestSession(homeroomA), entry)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	record, err := f.svc.Stage(ctx, newTestSession(supervisor), entry)
	require.NoError(t, err)
	assert.Equal(t, models.Score(-250), record.Score)
}

func TestInspectionServiceScoreOverrideBounded(t *testing.T) {
	f := newInspectionFixture(t, studentX)
	sess := newTestSession(supervisor)

	for _, override := range []float64{1e300, -100.5} {
		entry := classEntry("ClassA", models.CategoryNapNoisy)
		value := override
		entry.ScoreOverride = &value
		_, err := f.svc.Stage(context.Background(), sess, entry)
		require.Error(t, err, "override %v", override)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
	assert.Empty(t, f.svc.Staged(sess))

	limit := 100.0
	entry := classEntry("ClassA", models.CategoryNapNoisy)
	entry.ScoreOverride = &limit
	record, err := f.svc.Stage(context.Background(), sess, entry)
	require.NoError(t, err)
	assert.Equal(t, models.Score(10000), record.Score)
}

func TestInspectionServiceStageValidation(t *testing.T) {
	f := newInspectionFixture(t, studentX)
	ctx := context.Background()
	sess := newTestSession(supervisor)

	bad := classEntry("餐一忠", models.CategoryOrderGood)
	bad.TimeSlot = "0000-0100"
	_, err := f.svc.Stage(ctx, sess, bad)
	require.Error(t, err)

	_, err = f.svc.Stage(ctx, sess, classEntry("不存在班", models.CategoryOrderGood))
	require.Error(t, err)

	other := classEntry("餐一忠", models.CategoryOther)
	_, err = f.svc.Stage(ctx, sess, other)
	require.Error(t, err, "OTHER without note")

	_, err = f.svc.Stage(ctx, newTestSession(counselor), classEntry("餐一忠", models.CategoryOrderGood))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	assert.Zero(t, sess.Inspections.Len())
}

func TestInspectionServiceSelfDeclaredNameDoesNotShareRows(t *testing.T) {
	f := newInspectionFixture(t, studentX)
	ctx := context.Background()
	account := models.Identity{Account: "o1", Role: models.RoleOther, Name: "甲", Scope: models.ScopeSchoolWide}
	impostor := models.Identity{Role: models.RoleOther, Name: "甲", Scope: models.ScopeSchoolWide, SelfDeclared: true}

	accountSess := newTestSession(account)
	_, err := f.svc.Stage(ctx, accountSess, individualEntry("100001", models.CategoryLateAbsent))
	require.NoError(t, err)
	_, err = f.svc.Commit(ctx, accountSess)
	require.NoError(t, err)

	impostorSess := newTestSession(impostor)
	record, err := f.svc.Stage(ctx, impostorSess, individualEntry("100001", models.CategoryWandering))
	require.NoError(t, err)
	assert.Equal(t, "其他-甲"+models.SelfDeclaredMark, record.Reporter)
	_, err = f.svc.Commit(ctx, impostorSess)
	require.NoError(t, err)

	seen, err := f.svc.Summarize(ctx, impostor, "", "")
	require.NoError(t, err)
	require.Len(t, seen.Records, 1)
	assert.Equal(t, record.Reporter, seen.Records[0].Reporter)

	own, err := f.svc.Summarize(ctx, account, "", "")
	require.NoError(t, err)
	require.Len(t, own.Records, 1)
	assert.Equal(t, "其他-甲", own.Records[0].Reporter)

	lookalike := models.Identity{Account: "o2", Role: models.RoleOther, Name: "甲" + models.SelfDeclaredMark, Scope: models.ScopeSchoolWide}
	none, err := f.svc.Summarize(ctx, lookalike, "", "")
	require.NoError(t, err)
	assert.Empty(t, none.Records)
}
