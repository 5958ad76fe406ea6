package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-patrol-api/internal/models"
	appErrors "github.com/noah-isme/sma-patrol-api/pkg/errors"
)

type rosterRepository interface {
	List(ctx context.Context) ([]models.Student, error)
}

// RosterConfig tunes roster lookups.
type RosterConfig struct {
	CacheTTL        time.Duration
	StudentIDLength int
	Departments     []string
	Grades          []string
	Sections        []string
}

// RosterService resolves student ids against a cached copy of the external roster.
type RosterService struct {
	cache    *SnapshotCache[[]models.Student]
	idLength int
	grid     map[string]struct{}
	logger   *zap.Logger

	mu           sync.Mutex
	indexVersion uint64
	byID         map[string]models.Student
	classes      map[string]struct{}
}

// NewRosterService constructs a RosterService. shared may be nil.
func NewRosterService(repo rosterRepository, shared *CacheService, cfg RosterConfig, logger *zap.Logger) *RosterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{
		cache:    NewSnapshotCache[[]models.Student]("roster", cfg.CacheTTL, repo.List, shared, logger),
		idLength: cfg.StudentIDLength,
		grid:     classGrid(cfg.Departments, cfg.Grades, cfg.Sections),
		logger:   logger,
	}
}

// classGrid expands department × grade × section into labels such as 餐一忠.
func classGrid(departments, grades, sections []string) map[string]struct{} {
	grid := make(map[string]struct{}, len(departments)*len(grades)*len(sections))
	for _, d := range departments {
		for _, g := range grades {
			for _, s := range sections {
				grid[d+g+s] = struct{}{}
			}
		}
	}
	return grid
}

// RefreshIfExpired reloads the roster once its lifetime has passed.
func (s *RosterService) RefreshIfExpired(ctx context.Context) {
	s.cache.RefreshIfExpired(ctx)
}

// Reload rereads the roster sheet immediately.
func (s *RosterService) Reload(ctx context.Context) error {
	return s.cache.Reload(ctx)
}

// Degraded reports whether the last roster refresh failed.
func (s *RosterService) Degraded() bool {
	return s.cache.Degraded()
}

// Resolve looks up a student by id. Surrounding whitespace is ignored.
func (s *RosterService) Resolve(ctx context.Context, rawID string) (models.Student, error) {
	id := strings.TrimSpace(rawID)
	if id == "" {
		return models.Student{}, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	if s.idLength > 0 && utf8.RuneCountInString(id) != s.idLength {
		return models.Student{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student id must be %d characters", s.idLength))
	}

	byID, _ := s.index(ctx)
	student, ok := byID[id]
	if !ok {
		if len(byID) == 0 && s.cache.Degraded() {
			return models.Student{}, appErrors.Clone(appErrors.ErrValidation, "roster is unavailable, try again later")
		}
		return models.Student{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s not found in roster", id))
	}
	if !student.Known() {
		return models.Student{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s has no roster identity", id))
	}
	return student, nil
}

// KnownClass reports whether class is part of the class grid or appears in the roster.
func (s *RosterService) KnownClass(ctx context.Context, class string) bool {
	class = strings.TrimSpace(class)
	if class == "" || class == models.UnknownMarker {
		return false
	}
	if _, ok := s.grid[class]; ok {
		return true
	}
	_, classes := s.index(ctx)
	_, ok := classes[class]
	return ok
}

// Classes lists every known class label in sorted order.
func (s *RosterService) Classes(ctx context.Context) []string {
	_, classes := s.index(ctx)
	set := make(map[string]struct{}, len(s.grid)+len(classes))
	for c := range s.grid {
		set[c] = struct{}{}
	}
	for c := range classes {
		set[c] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func (s *RosterService) index(ctx context.Context) (map[string]models.Student, map[string]struct{}) {
	students, version := s.cache.Get(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.byID != nil && version == s.indexVersion {
		return s.byID, s.classes
	}
	byID := make(map[string]models.Student, len(students))
	classes := make(map[string]struct{})
	for _, st := range students {
		byID[st.ID] = st
		if st.Class != "" && st.Class != models.UnknownMarker {
			classes[st.Class] = struct{}{}
		}
	}
	s.byID, s.classes, s.indexVersion = byID, classes, version
	return byID, classes
}
