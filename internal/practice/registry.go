package practice

import (
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/ayusman/signcoach/internal/metrics"
)

// ErrSessionNotFound is returned when a session id is unknown.
var ErrSessionNotFound = errors.New("session not found")

// Recognizer is the full recognition core as sessions see it.
type Recognizer interface {
	HandRecognizer
	EmotionRecognizer
}

// Registry holds the open sessions of a server process.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]Session
	rec      Recognizer
	metrics  *metrics.Metrics

	emotionTarget float64
}

// NewRegistry creates an empty registry. m may be nil.
func NewRegistry(rec Recognizer, m *metrics.Metrics, emotionTarget float64) *Registry {
	return &Registry{
		sessions:      make(map[string]Session),
		rec:           rec,
		metrics:       m,
		emotionTarget: emotionTarget,
	}
}

// CreateHand opens a hand session.
func (r *Registry) CreateHand(opts HandOptions) (*HandSession, error) {
	s, err := NewHandSession(uuid.NewString(), r.rec, opts)
	if err != nil {
		return nil, err
	}
	r.add(s)
	return s, nil
}

// CreateEmotion opens an emotion session.
func (r *Registry) CreateEmotion() *EmotionSession {
	s := NewEmotionSession(uuid.NewString(), r.rec, EmotionOptions{Target: r.emotionTarget})
	r.add(s)
	return s
}

// Get returns a session by id.
func (r *Registry) Get(id string) (Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Delete closes a session.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	r.metrics.SessionClosed()
	return nil
}

// List returns snapshots of all sessions, oldest first.
func (r *Registry) List() []Snapshot {
	r.mu.RLock()
	snaps := make([]Snapshot, 0, len(r.sessions))
	for _, s := range r.sessions {
		snaps = append(snaps, s.Snapshot())
	}
	r.mu.RUnlock()

	sort.Slice(snaps, func(i, j int) bool {
		if snaps[i].CreatedAt.Equal(snaps[j].CreatedAt) {
			return snaps[i].ID < snaps[j].ID
		}
		return snaps[i].CreatedAt.Before(snaps[j].CreatedAt)
	})
	return snaps
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) add(s Session) {
	r.mu.Lock()
	r.sessions[s.ID()] = s
	r.mu.Unlock()
	r.metrics.SessionOpened()
}
