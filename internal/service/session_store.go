package service

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/sma-patrol-api/internal/models"
)

// Receipt kinds kept on a session.
const (
	ReceiptLeave      = "leave"
	ReceiptDiscipline = "discipline"
)

var allModes = []models.Mode{models.ModePatrol, models.ModeLeave, models.ModeDiscipline, models.ModeReport, models.ModeMaintenance}

// Session is the per-caller context: the bound identity and its staged work.
type Session struct {
	ID        string
	Identity  models.Identity
	CreatedAt time.Time

	Inspections StagingArea[models.InspectionRecord]
	Leaves      StagingArea[models.LeaveRequest]
	Discipline  StagingArea[models.DisciplinaryRecommendation]

	mu       sync.Mutex
	lastSeen time.Time
	receipts map[string]*models.SubmitReceipt
}

// SetReceipt stores the latest submission receipt of kind.
func (s *Session) SetReceipt(kind string, receipt *models.SubmitReceipt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.receipts == nil {
		s.receipts = make(map[string]*models.SubmitReceipt)
	}
	s.receipts[kind] = receipt
}

// Receipt returns the latest submission receipt of kind.
func (s *Session) Receipt(kind string) (*models.SubmitReceipt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.receipts[kind]
	return r, ok
}

// Info describes the session for clients.
func (s *Session) Info(idleTTL time.Duration) models.SessionInfo {
	modes := make([]models.Mode, 0, len(allModes))
	for _, m := range allModes {
		if s.Identity.Can(m) {
			modes = append(modes, m)
		}
	}
	info := models.SessionInfo{
		SessionID: s.ID,
		Identity:  s.Identity,
		Modes:     modes,
		CreatedAt: s.CreatedAt,
	}
	if idleTTL > 0 {
		s.mu.Lock()
		expires := s.lastSeen.Add(idleTTL)
		s.mu.Unlock()
		info.ExpiresAt = &expires
	}
	return info
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// SessionStore keeps live sessions in process memory. Idle sessions are
// dropped lazily on lookup and on creation; there is no sweeper goroutine.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	idleTTL  time.Duration
	now      func() time.Time
}

// NewSessionStore constructs a store. idleTTL <= 0 disables idle expiry.
func NewSessionStore(idleTTL time.Duration) *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session), idleTTL: idleTTL, now: time.Now}
}

// IdleTTL returns the configured idle lifetime.
func (st *SessionStore) IdleTTL() time.Duration {
	return st.idleTTL
}

// Create opens a new session for identity.
func (st *SessionStore) Create(identity models.Identity) *Session {
	now := st.now()
	sess := &Session{ID: uuid.NewString(), Identity: identity, CreatedAt: now.UTC(), lastSeen: now}

	st.mu.Lock()
	defer st.mu.Unlock()
	st.sweepLocked(now)
	st.sessions[sess.ID] = sess
	return sess
}

// Get returns a live session and marks it as used.
func (st *SessionStore) Get(id string) (*Session, bool) {
	now := st.now()
	st.mu.Lock()
	defer st.mu.Unlock()
	sess, ok := st.sessions[id]
	if !ok {
		return nil, false
	}
	if st.expired(sess, now) {
		delete(st.sessions, id)
		return nil, false
	}
	sess.touch(now)
	return sess, true
}

// Delete destroys a session together with everything it staged.
func (st *SessionStore) Delete(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	_, ok := st.sessions[id]
	delete(st.sessions, id)
	return ok
}

// Len returns the number of sessions currently held.
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

func (st *SessionStore) expired(sess *Session, now time.Time) bool {
	return st.idleTTL > 0 && sess.idleSince(now) > st.idleTTL
}

func (st *SessionStore) sweepLocked(now time.Time) {
	for id, sess := range st.sessions {
		if st.expired(sess, now) {
			delete(st.sessions, id)
		}
	}
}
