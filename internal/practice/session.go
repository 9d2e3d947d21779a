package practice

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/ayusman/signcoach/internal/expression"
	"github.com/ayusman/signcoach/internal/handshape"
	"github.com/ayusman/signcoach/internal/landmark"
	"github.com/ayusman/signcoach/internal/stability"
)

// PointsPerSuccess is added to the score for each correct attempt.
const PointsPerSuccess = 10

// DefaultEmotionTarget is the confidence an emotion must exceed to count
// as a successful attempt.
const DefaultEmotionTarget = 0.4

// Learner feedback.
const (
	FeedbackNoHand      = "No hand detected. Please position your hand in front of the camera."
	FeedbackKeepTrying  = "Keep trying! Make sure your hand is clearly visible."
	FeedbackNoDetection = "Move closer to the camera and ensure good lighting"
)

// SessionType distinguishes hand and emotion sessions.
type SessionType string

const (
	TypeHand    SessionType = "hand"
	TypeEmotion SessionType = "emotion"
)

// OutcomeKind classifies the result of one submitted frame.
type OutcomeKind string

const (
	OutcomeNoHand      OutcomeKind = "no_hand"
	OutcomeKeepTrying  OutcomeKind = "keep_trying"
	OutcomeWrong       OutcomeKind = "wrong"
	OutcomeCorrect     OutcomeKind = "correct"
	OutcomeFeedback    OutcomeKind = "feedback"
	OutcomeNoDetection OutcomeKind = "no_detection"
)

// Outcome is what the learner is told after one frame.
type Outcome struct {
	Kind            OutcomeKind          `json:"kind"`
	Target          string               `json:"target"`
	Detected        string               `json:"detected,omitempty"`
	Confidence      float64              `json:"confidence"`
	Feedback        string               `json:"feedback"`
	MissingFeatures []expression.Feature `json:"missingFeatures,omitempty"`
	Score           int                  `json:"score"`
	Streak          int                  `json:"streak"`
	Next            string               `json:"next"`
}

// Snapshot is the externally visible state of a session.
type Snapshot struct {
	ID        string      `json:"id"`
	Type      SessionType `json:"type"`
	Category  Category    `json:"category,omitempty"`
	Mode      Mode        `json:"mode,omitempty"`
	Items     []string    `json:"items"`
	Target    string      `json:"target"`
	Score     int         `json:"score"`
	Streak    int         `json:"streak"`
	Completed []string    `json:"completed,omitempty"`
	Gate      string      `json:"gate,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// Session is the behaviour shared by hand and emotion sessions.
type Session interface {
	ID() string
	Type() SessionType
	Snapshot() Snapshot
	Reset()
}

// HandRecognizer is the part of the recognition core a hand session uses.
type HandRecognizer interface {
	ClassifyHandAs(kind handshape.Kind, hand *landmark.HandLandmarks) (handshape.Result, bool)
	NewGate() *stability.Gate
	GateEmit(gate *stability.Gate, res handshape.Result, ok bool, target string) (string, bool)
	ResetGate(gate *stability.Gate)
}

// EmotionRecognizer is the part of the recognition core an emotion session
// uses.
type EmotionRecognizer interface {
	ClassifyEmotion(poses []landmark.PoseLandmarks, faces []landmark.FaceLandmarks) (expression.Result, bool)
	Emotions() []string
}

// HandOptions configures a hand session.
type HandOptions struct {
	Category Category
	Mode     Mode
	Range    string
	// Rand picks quiz targets; nil uses a time-seeded source.
	Rand *rand.Rand
}

// HandSession practises fingerspelled letters or number signs. It owns one
// stability gate, so submitted frames must come from a single stream.
type HandSession struct {
	mu sync.Mutex

	id        string
	createdAt time.Time
	category  Category
	mode      Mode
	items     []string
	rng       *rand.Rand
	rec       HandRecognizer
	gate      *stability.Gate

	target   string
	score    int
	streak   int
	progress map[string]bool
}

// NewHandSession creates a session positioned on the first item.
func NewHandSession(id string, rec HandRecognizer, opts HandOptions) (*HandSession, error) {
	if opts.Category == "" {
		opts.Category = CategoryAlphabet
	}
	if opts.Mode == "" {
		opts.Mode = ModeLearn
	}
	items, err := Items(opts.Category, opts.Range)
	if err != nil {
		return nil, err
	}

	return &HandSession{
		id:        id,
		createdAt: time.Now(),
		category:  opts.Category,
		mode:      opts.Mode,
		items:     items,
		rng:       randOrDefault(opts.Rand),
		rec:       rec,
		gate:      rec.NewGate(),
		target:    items[0],
		progress:  make(map[string]bool),
	}, nil
}

// ID returns the session id.
func (s *HandSession) ID() string { return s.id }

// Type returns TypeHand.
func (s *HandSession) Type() SessionType { return TypeHand }

// Submit scores one frame. hand is nil when no hand was detected.
func (s *HandSession) Submit(hand *landmark.HandLandmarks) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if hand == nil {
		return s.outcome(OutcomeNoHand, "", 0, FeedbackNoHand)
	}

	res, ok := s.rec.ClassifyHandAs(s.category.Kind(), hand)
	label, emitted := s.rec.GateEmit(s.gate, res, ok, s.target)

	switch {
	case !emitted:
		return s.outcome(OutcomeKeepTrying, "", res.Confidence, FeedbackKeepTrying)

	case label == s.target:
		done := s.target
		s.score += PointsPerSuccess
		s.streak++
		s.progress[done] = true
		s.advance()
		out := s.outcome(OutcomeCorrect, label, res.Confidence,
			fmt.Sprintf("Correct! That's %s %s", s.category.Noun(), done))
		out.Target = done
		return out

	default:
		s.streak = 0
		return s.outcome(OutcomeWrong, label, res.Confidence,
			fmt.Sprintf("That looks like %s. Try adjusting your hand position for %s.", label, s.target))
	}
}

// SetMode switches between learn and quiz and resets the score.
func (s *HandSession) SetMode(m Mode) {
	s.mu.Lock()
	s.mode = m
	s.mu.Unlock()
	s.Reset()
}

// Reset zeroes score and streak, returns to the first item and clears the
// gate. Completed items are kept.
func (s *HandSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.score = 0
	s.streak = 0
	s.target = s.items[0]
	s.rec.ResetGate(s.gate)
}

// Snapshot returns the session state.
func (s *HandSession) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	var completed []string
	for _, it := range s.items {
		if s.progress[it] {
			completed = append(completed, it)
		}
	}

	return Snapshot{
		ID:        s.id,
		Type:      TypeHand,
		Category:  s.category,
		Mode:      s.mode,
		Items:     slices.Clone(s.items),
		Target:    s.target,
		Score:     s.score,
		Streak:    s.streak,
		Completed: completed,
		Gate:      string(s.gate.State()),
		CreatedAt: s.createdAt,
	}
}

// advance moves to the next target and resets the gate. Quiz mode clears
// progress once every item is done.
func (s *HandSession) advance() {
	defer s.rec.ResetGate(s.gate)

	if s.mode != ModeQuiz {
		i := slices.Index(s.items, s.target)
		s.target = s.items[(i+1)%len(s.items)]
		return
	}

	var open []string
	for _, it := range s.items {
		if !s.progress[it] {
			open = append(open, it)
		}
	}
	if len(open) == 0 {
		clear(s.progress)
		open = s.items
	}
	s.target = open[s.rng.IntN(len(open))]
}

func (s *HandSession) outcome(kind OutcomeKind, detected string, conf float64, feedback string) Outcome {
	return Outcome{
		Kind:       kind,
		Target:     s.target,
		Detected:   detected,
		Confidence: conf,
		Feedback:   feedback,
		Score:      s.score,
		Streak:     s.streak,
		Next:       s.target,
	}
}

// EmotionOptions configures an emotion session.
type EmotionOptions struct {
	// Target is the confidence above which a matching emotion counts.
	Target float64
	Rand   *rand.Rand
}

// EmotionSession practises emotional expressions.
type EmotionSession struct {
	mu sync.Mutex

	id        string
	createdAt time.Time
	rec       EmotionRecognizer
	emotions  []string
	threshold float64
	rng       *rand.Rand

	target string
	score  int
	streak int
}

// NewEmotionSession creates a session targeting the first emotion.
func NewEmotionSession(id string, rec EmotionRecognizer, opts EmotionOptions) *EmotionSession {
	if opts.Target <= 0 {
		opts.Target = DefaultEmotionTarget
	}
	emotions := rec.Emotions()
	return &EmotionSession{
		id:        id,
		createdAt: time.Now(),
		rec:       rec,
		emotions:  emotions,
		threshold: opts.Target,
		rng:       randOrDefault(opts.Rand),
		target:    emotions[0],
	}
}

// ID returns the session id.
func (s *EmotionSession) ID() string { return s.id }

// Type returns TypeEmotion.
func (s *EmotionSession) Type() SessionType { return TypeEmotion }

// Submit scores one frame of poses and faces.
func (s *EmotionSession) Submit(poses []landmark.PoseLandmarks, faces []landmark.FaceLandmarks) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, ok := s.rec.ClassifyEmotion(poses, faces)
	if !ok {
		return s.outcome(OutcomeNoDetection, expression.Result{Feedback: FeedbackNoDetection})
	}

	if res.Emotion == s.target && res.Confidence > s.threshold {
		done := s.target
		s.score += PointsPerSuccess
		s.streak++
		s.target = s.emotions[s.rng.IntN(len(s.emotions))]
		out := s.outcome(OutcomeCorrect, res)
		out.Target = done
		return out
	}

	s.streak = 0
	return s.outcome(OutcomeFeedback, res)
}

// Reset zeroes score and streak and targets the first emotion again.
func (s *EmotionSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.score = 0
	s.streak = 0
	s.target = s.emotions[0]
}

// Snapshot returns the session state.
func (s *EmotionSession) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:        s.id,
		Type:      TypeEmotion,
		Items:     slices.Clone(s.emotions),
		Target:    s.target,
		Score:     s.score,
		Streak:    s.streak,
		CreatedAt: s.createdAt,
	}
}

func (s *EmotionSession) outcome(kind OutcomeKind, res expression.Result) Outcome {
	return Outcome{
		Kind:            kind,
		Target:          s.target,
		Detected:        res.Emotion,
		Confidence:      res.Confidence,
		Feedback:        res.Feedback,
		MissingFeatures: res.MissingFeatures,
		Score:           s.score,
		Streak:          s.streak,
		Next:            s.target,
	}
}

func randOrDefault(r *rand.Rand) *rand.Rand {
	if r != nil {
		return r
	}
	now := uint64(time.Now().UnixNano())
	return rand.New(rand.NewPCG(now, now>>1|1))
}

// SubmitFrame routes a decoded frame to the session: the first hand for a
// hand session, every pose and face for an emotion session.
func SubmitFrame(s Session, f landmark.Frame) (Outcome, error) {
	switch s := s.(type) {
	case *HandSession:
		return s.Submit(f.FirstHand()), nil
	case *EmotionSession:
		return s.Submit(f.Poses, f.Faces), nil
	}
	return Outcome{}, fmt.Errorf("unsupported session %T", s)
}
