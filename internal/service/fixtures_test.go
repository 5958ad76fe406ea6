package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-patrol-api/internal/models"
)

var fixedNow = time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

type stubRosterRepo struct {
	mu       sync.Mutex
	students []models.Student
	err      error
	calls    int
}

func (s *stubRosterRepo) List(ctx context.Context) ([]models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return append([]models.Student(nil), s.students...), nil
}

func testRosterConfig() RosterConfig {
	return RosterConfig{
		CacheTTL:        time.Minute,
		StudentIDLength: 6,
		Departments:     []string{"餐", "資訊"},
		Grades:          []string{"一"},
		Sections:        []string{"忠", "孝"},
	}
}

func newTestRoster(students ...models.Student) *RosterService {
	return NewRosterService(&stubRosterRepo{students: students}, nil, testRosterConfig(), zap.NewNop())
}

func newTestSession(identity models.Identity) *Session {
	return NewSessionStore(0).Create(identity)
}

var (
	studentX = models.Student{ID: "100001", Name: "X", Class: "ClassA", Seat: "01"}
	studentY = models.Student{ID: "100002", Name: "Y", Class: "ClassA", Seat: "02"}
	studentZ = models.Student{ID: "200001", Name: "Z", Class: "餐一忠", Seat: "15"}

	homeroomA  = models.Identity{Account: "t01", Role: models.RoleHomeroomTeacher, Name: "林老師", Scope: "ClassA"}
	supervisor = models.Identity{Account: "s01", Role: models.RoleSupervisor, Name: "陳生輔", Scope: models.ScopeSchoolWide}
	counselor  = models.Identity{Account: "c01", Role: models.RoleCounselor, Name: "黃輔導", Scope: models.ScopeSchoolWide}
)
