package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/signcoach/internal/capture"
	"github.com/ayusman/signcoach/internal/detector"
	"github.com/ayusman/signcoach/internal/expression"
	"github.com/ayusman/signcoach/internal/practice"
	"github.com/ayusman/signcoach/internal/recognition"
)

func newEngine(t *testing.T) *recognition.Engine {
	t.Helper()
	e, err := recognition.New(recognition.Options{})
	if err != nil {
		t.Fatalf("recognition.New() error = %v", err)
	}
	return e
}

func newCamera(t *testing.T) *capture.MockCamera {
	t.Helper()
	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { frame.Close() })
	return capture.NewMockCamera([]*gocv.Mat{&frame}, true)
}

func TestNew_Validation(t *testing.T) {
	eng := newEngine(t)
	sess, _ := practice.NewHandSession("s", eng, practice.HandOptions{})

	if _, err := New(Config{Detector: detector.NewMockDetector(), Session: sess}); err == nil {
		t.Error("missing camera should fail")
	}
	if _, err := New(Config{Camera: newCamera(t), Session: sess}); err == nil {
		t.Error("missing detector should fail")
	}
	if _, err := New(Config{Camera: newCamera(t), Detector: detector.NewMockDetector()}); err == nil {
		t.Error("missing session should fail")
	}

	a, err := New(Config{Camera: newCamera(t), Detector: detector.NewMockDetector(), Session: sess, ActiveFPS: 3})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if a.config.IdleFPS != 3 {
		t.Errorf("IdleFPS = %d, want it capped at ActiveFPS 3", a.config.IdleFPS)
	}
}

func TestApp_Step_HandSession(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	sess, err := practice.NewHandSession("s1", newEngine(t), practice.HandOptions{Range: "a-b"})
	if err != nil {
		t.Fatalf("NewHandSession() error = %v", err)
	}
	mock := detector.NewMockDetector()
	cam := newCamera(t)
	cam.Open()

	a, err := New(Config{Camera: cam, Detector: mock, Session: sess})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	out, active, err := a.Step(ctx, time.Now())
	if err != nil || !active {
		t.Fatalf("Step() = %v, %v", active, err)
	}
	if out.Kind != practice.OutcomeNoHand {
		t.Errorf("empty frame: kind = %s, want %s", out.Kind, practice.OutcomeNoHand)
	}

	mock.SetHands(detector.SignHand("A"))
	var kinds []practice.OutcomeKind
	for i := 0; i < 3; i++ {
		out, _, err = a.Step(ctx, time.Now())
		if err != nil {
			t.Fatalf("Step() error = %v", err)
		}
		kinds = append(kinds, out.Kind)
	}

	want := []practice.OutcomeKind{practice.OutcomeKeepTrying, practice.OutcomeKeepTrying, practice.OutcomeCorrect}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("frame %d: kind = %s, want %s", i, kinds[i], want[i])
		}
	}
	if out.Next != "B" {
		t.Errorf("next target = %q, want B", out.Next)
	}

	st := a.Stats()
	if st.Frames != 4 || st.Correct != 1 || st.LastScore != practice.PointsPerSuccess {
		t.Errorf("unexpected stats: %+v", st)
	}
}

func TestApp_Step_DetectorError(t *testing.T) {
	sess := practice.NewEmotionSession("e1", newEngine(t), practice.EmotionOptions{})
	mock := detector.NewMockDetector()
	mock.SetError(errors.New("service down"))
	cam := newCamera(t)
	cam.Open()

	a, _ := New(Config{Camera: cam, Detector: mock, Session: sess})

	if _, _, err := a.Step(context.Background(), time.Now()); err == nil {
		t.Error("expected detector error")
	}
	if a.Stats().Errors != 1 {
		t.Errorf("Errors = %d, want 1", a.Stats().Errors)
	}
}

func TestApp_Step_EmotionSession(t *testing.T) {
	sess := practice.NewEmotionSession("e1", newEngine(t), practice.EmotionOptions{})
	cam := newCamera(t)
	cam.Open()

	a, _ := New(Config{Camera: cam, Detector: detector.NewMockDetector(), Session: sess})

	out, _, err := a.Step(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if out.Kind != practice.OutcomeFeedback || out.Feedback != expression.FeedbackNotVisible {
		t.Errorf("unexpected outcome: %+v", out)
	}
}

func TestApp_Step_IdleSkipsDetection(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	sess, _ := practice.NewHandSession("s1", newEngine(t), practice.HandOptions{})
	mock := detector.NewMockDetector()
	cam := newCamera(t)
	cam.Open()
	act := capture.NewActivity(capture.ActivityConfig{})
	defer act.Close()

	a, _ := New(Config{Camera: cam, Detector: mock, Session: sess, Activity: act})

	out, active, err := a.Step(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if out != nil || active {
		t.Errorf("still camera should be idle, got %v active=%v", out, active)
	}
	if mock.Calls() != 0 {
		t.Error("detector should not run while idle")
	}
	if a.Stats().Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", a.Stats().Skipped)
	}
}

func TestApp_Run(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	sess, _ := practice.NewHandSession("s1", newEngine(t), practice.HandOptions{Range: "a-c"})
	mock := detector.NewMockDetector()
	mock.SetHands(detector.SignHand("A"))
	cam := newCamera(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var mu sync.Mutex
	var correct []practice.Outcome
	a, err := New(Config{
		Camera:    cam,
		Detector:  mock,
		Session:   sess,
		ActiveFPS: 100,
		OnOutcome: func(o practice.Outcome) {
			if o.Kind != practice.OutcomeCorrect {
				return
			}
			mu.Lock()
			correct = append(correct, o)
			mu.Unlock()
			cancel()
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := a.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(correct) != 1 || correct[0].Target != "A" {
		t.Fatalf("expected one correct A, got %+v", correct)
	}
	if cam.IsOpen() {
		t.Error("camera should be closed after Run")
	}
	if sess.Snapshot().Target != "B" {
		t.Errorf("session should have advanced to B, at %q", sess.Snapshot().Target)
	}
}
