package store

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/ayusman/signcoach/internal/handshape"
)

func sampleData(n int) []json.RawMessage {
	out := make([]json.RawMessage, n)
	for i := range out {
		out[i] = json.RawMessage(fmt.Sprintf(`{"landmarks":[],"timestamp":%d}`, i))
	}
	return out
}

func TestSampleRepository_Replace(t *testing.T) {
	s := newTestStore(t)
	if err := s.Signs().Create(&Sign{ID: "sign-1", Label: "ROCK", Kind: handshape.KindCustom, Joints: rockJoints()}); err != nil {
		t.Fatalf("failed to create sign: %v", err)
	}
	repo := s.Samples()

	if err := repo.Replace("sign-1", sampleData(3)); err != nil {
		t.Fatalf("failed to store samples: %v", err)
	}
	if err := repo.Replace("sign-1", sampleData(2)); err != nil {
		t.Fatalf("failed to replace samples: %v", err)
	}

	samples, err := repo.GetBySignID("sign-1")
	if err != nil {
		t.Fatalf("failed to get samples: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples after replace, got %d", len(samples))
	}
	for i, smp := range samples {
		if smp.SampleIndex != i {
			t.Errorf("sample %d has index %d", i, smp.SampleIndex)
		}
		if string(smp.Data) != string(sampleData(2)[i]) {
			t.Errorf("sample %d data = %s", i, smp.Data)
		}
	}

	sign, err := s.Signs().GetByID("sign-1")
	if err != nil {
		t.Fatalf("failed to get sign: %v", err)
	}
	if sign.Samples != 2 {
		t.Errorf("sample count on sign: got %d, want 2", sign.Samples)
	}

	raw, err := repo.Raw("sign-1")
	if err != nil {
		t.Fatalf("failed to get raw samples: %v", err)
	}
	if len(raw) != 2 {
		t.Errorf("expected 2 raw samples, got %d", len(raw))
	}
}

func TestSampleRepository_Replace_UnknownSign(t *testing.T) {
	s := newTestStore(t)

	if err := s.Samples().Replace("missing", sampleData(1)); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestSampleRepository_DeleteBySignID(t *testing.T) {
	s := newTestStore(t)
	if err := s.Signs().Create(&Sign{ID: "sign-1", Label: "ROCK", Kind: handshape.KindCustom, Joints: rockJoints()}); err != nil {
		t.Fatalf("failed to create sign: %v", err)
	}
	if err := s.Samples().Replace("sign-1", sampleData(4)); err != nil {
		t.Fatalf("failed to store samples: %v", err)
	}

	if err := s.Samples().DeleteBySignID("sign-1"); err != nil {
		t.Fatalf("failed to delete samples: %v", err)
	}

	samples, _ := s.Samples().GetBySignID("sign-1")
	if len(samples) != 0 {
		t.Errorf("expected no samples, got %d", len(samples))
	}
}
