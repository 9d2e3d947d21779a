package capture

import (
	"testing"
	"time"

	"gocv.io/x/gocv"
)

func blank() gocv.Mat { return gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3) }

func white() gocv.Mat {
	m := blank()
	m.SetTo(gocv.NewScalar(255, 255, 255, 0))
	return m
}

func TestNewActivity_Defaults(t *testing.T) {
	a := NewActivity(ActivityConfig{})
	defer a.Close()

	if a.cfg.MotionPercent != DefaultMotionPercent {
		t.Errorf("MotionPercent = %f, want %f", a.cfg.MotionPercent, DefaultMotionPercent)
	}
	if a.cfg.IdleAfter != DefaultIdleAfter {
		t.Errorf("IdleAfter = %v, want %v", a.cfg.IdleAfter, DefaultIdleAfter)
	}
}

func TestActivity_StillFrames(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	a := NewActivity(ActivityConfig{})
	defer a.Close()

	f1, f2 := blank(), blank()
	defer f1.Close()
	defer f2.Close()

	now := time.Now()
	if active, changed := a.Observe(&f1, now); active || changed != 0 {
		t.Errorf("baseline frame: active=%v changed=%f", active, changed)
	}
	if active, changed := a.Observe(&f2, now.Add(time.Second)); active {
		t.Errorf("identical frames should not be active, changed = %f", changed)
	}
}

func TestActivity_MotionThenIdle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	a := NewActivity(ActivityConfig{IdleAfter: time.Second})
	defer a.Close()

	black, bright := blank(), white()
	defer black.Close()
	defer bright.Close()

	start := time.Now()
	a.Observe(&black, start)

	active, changed := a.Observe(&bright, start.Add(100*time.Millisecond))
	if !active {
		t.Errorf("black to white should be active, changed = %f", changed)
	}
	if changed < 50 {
		t.Errorf("changed = %f, expected > 50", changed)
	}

	// A held pose keeps the learner active until IdleAfter elapses.
	if active, _ := a.Observe(&bright, start.Add(600*time.Millisecond)); !active {
		t.Error("still within IdleAfter, should be active")
	}
	if active, _ := a.Observe(&bright, start.Add(2*time.Second)); active {
		t.Error("past IdleAfter, should be idle")
	}
}

func TestActivity_Reset(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	a := NewActivity(ActivityConfig{})
	defer a.Close()

	black, bright := blank(), white()
	defer black.Close()
	defer bright.Close()

	now := time.Now()
	a.Observe(&black, now)
	a.Observe(&bright, now)
	a.Reset()

	if a.hasPrev {
		t.Error("baseline should be cleared after Reset")
	}
	if active, _ := a.Observe(&black, now); active {
		t.Error("first frame after Reset should not be active")
	}
}

func TestActivity_CloseThenObserve(t *testing.T) {
	a := NewActivity(ActivityConfig{})
	a.Close()
	a.Close()

	if active, changed := a.Observe(nil, time.Now()); active || changed != 0 {
		t.Error("nil frame after Close should be inactive")
	}
}
