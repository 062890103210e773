package booking

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/wolfman30/healthconnect/internal/appointments"
	"github.com/wolfman30/healthconnect/internal/backend"
	"github.com/wolfman30/healthconnect/internal/observability/metrics"
)

// PriorLookup finds the doctor's most recent stored appointment for form
// pre-fill.
type PriorLookup interface {
	LatestDoctorAppointment(ctx context.Context, doctorID int) (*backend.Appointment, error)
}

// Manager owns every live booking session.
type Manager struct {
	cfg     Config
	metrics *metrics.BookingMetrics
	newID   func() string

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(cfg Config, m *metrics.BookingMetrics) *Manager {
	return &Manager{
		cfg:      cfg.withDefaults(),
		metrics:  m,
		newID:    uuid.NewString,
		sessions: make(map[string]*Session),
	}
}

// Create starts a session for owner. Doctor appointments are pre-filled
// with the patient details of the doctor's latest stored appointment; a
// failed lookup is logged and leaves the form empty.
func (m *Manager) Create(ctx context.Context, owner string, subject Subject) *Session {
	s := NewSession(m.newID(), owner, subject, m.cfg)
	if subject.Kind == appointments.KindAppointment && m.cfg.Prior != nil {
		m.prefill(ctx, s)
	}
	m.add(s)
	return s
}

func (m *Manager) prefill(ctx context.Context, s *Session) {
	latest, err := m.cfg.Prior.LatestDoctorAppointment(ctx, s.subject.DoctorID)
	if err != nil {
		m.cfg.Logger.Warn("booking: failed to fetch prior appointment for pre-fill", "error", err, "doctor_id", s.subject.DoctorID)
		return
	}
	if latest == nil {
		return
	}
	s.prefill(latest.Patient())
}

func (m *Manager) add(s *Session) {
	m.mu.Lock()
	m.sessions[s.id] = s
	n := len(m.sessions)
	m.mu.Unlock()
	m.metrics.SetActiveSessions(n)
}

// Get returns the session when it exists and belongs to owner.
func (m *Manager) Get(id, owner string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok || s.owner != owner {
		return nil, ErrNotFound
	}
	return s, nil
}

// ListByOwner returns owner's sessions, oldest first.
func (m *Manager) ListByOwner(owner string) []*Session {
	m.mu.RLock()
	var out []*Session
	for _, s := range m.sessions {
		if s.owner == owner {
			out = append(out, s)
		}
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].createdAt.Equal(out[j].createdAt) {
			return out[i].id < out[j].id
		}
		return out[i].createdAt.Before(out[j].createdAt)
	})
	return out
}

// BookAgain replaces a confirmed session with a fresh one for the same
// subject. The old session is closed.
func (m *Manager) BookAgain(ctx context.Context, id, owner string) (*Session, error) {
	old, err := m.Get(id, owner)
	if err != nil {
		return nil, err
	}
	next, err := old.BookAgain(m.newID())
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	delete(m.sessions, old.id)
	m.sessions[next.id] = next
	n := len(m.sessions)
	m.mu.Unlock()
	m.metrics.SetActiveSessions(n)
	old.Close(ctx)
	return next, nil
}

// Delete closes and forgets a session.
func (m *Manager) Delete(ctx context.Context, id, owner string) error {
	s, err := m.Get(id, owner)
	if err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()
	m.metrics.SetActiveSessions(n)
	s.Close(ctx)
	return nil
}

// Shutdown closes every session.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		sessions = append(sessions, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	m.metrics.SetActiveSessions(0)
	for _, s := range sessions {
		s.Close(ctx)
	}
	m.cfg.Logger.Info("booking: sessions closed", "count", len(sessions))
}

func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
