package detector

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/ayusman/signcoach/internal/handshape"
	"github.com/ayusman/signcoach/internal/landmark"
)

func TestMockDetector(t *testing.T) {
	ctx := context.Background()

	t.Run("returns empty frame by default", func(t *testing.T) {
		mock := NewMockDetector()

		f, err := mock.Detect(ctx, nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if f.FirstHand() != nil {
			t.Errorf("expected no hands, got %v", f.Hands)
		}
	})

	t.Run("returns configured hands", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetHands(SignHand("A"), SignHand("B"))

		f, err := mock.Detect(ctx, nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(f.Hands) != 2 {
			t.Errorf("expected 2 hands, got %d", len(f.Hands))
		}
	})

	t.Run("drains the queue then repeats the last frame", func(t *testing.T) {
		mock := NewMockDetector()
		a, b := SignHand("A"), SignHand("B")
		mock.Queue(landmark.Frame{Hands: []landmark.HandLandmarks{a}}, landmark.Frame{Hands: []landmark.HandLandmarks{b}})

		var got []landmark.HandLandmarks
		for i := 0; i < 3; i++ {
			f, _ := mock.Detect(ctx, nil)
			got = append(got, *f.FirstHand())
		}

		if got[0].Points != a.Points || got[1].Points != b.Points || got[2].Points != b.Points {
			t.Error("expected A, B, B")
		}
		if mock.Calls() != 3 {
			t.Errorf("Calls() = %d, want 3", mock.Calls())
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()

		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		_, err := mock.Detect(ctx, nil)

		if err != expectedErr {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
	})

	t.Run("honours a cancelled context", func(t *testing.T) {
		mock := NewMockDetector()
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		if _, err := mock.Detect(cctx, nil); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
		var _ Detector = (*MediaPipeDetector)(nil)
	})
}

func TestSignHand(t *testing.T) {
	hand := SignHand("L")

	if hand.Handedness != "Right" || hand.Score < 0.9 {
		t.Errorf("unexpected metadata: %q %f", hand.Handedness, hand.Score)
	}

	c, err := handshape.NewClassifier(handshape.DefaultPatterns(), handshape.DefaultConfig())
	if err != nil {
		t.Fatalf("NewClassifier() error = %v", err)
	}
	if _, ok := c.Classify(&hand); !ok {
		t.Error("synthetic hand should classify")
	}

	defer func() {
		if recover() == nil {
			t.Error("unknown label should panic")
		}
	}()
	SignHand("not-a-sign")
}

func TestWriteFrame(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte{0xff, 0xd8, 0x01, 0x02, 0xff, 0xd9}

	if err := writeFrame(&buf, payload); err != nil {
		t.Fatalf("writeFrame() error = %v", err)
	}

	out := buf.Bytes()
	if n := binary.BigEndian.Uint32(out[:4]); n != uint32(len(payload)) {
		t.Errorf("length prefix = %d, want %d", n, len(payload))
	}
	if !bytes.Equal(out[4:], payload) {
		t.Errorf("payload = %x, want %x", out[4:], payload)
	}
}

func TestDecodeResponse(t *testing.T) {
	hand := SignHand("B")
	line, err := json.Marshal(map[string]any{
		"hands": []map[string]any{{"points": hand.Points[:], "handedness": "Right", "score": 0.9}},
		"poses": []map[string]any{{"keypoints": []map[string]any{
			{"name": "nose", "x": 320, "y": 100, "score": 0.9},
			{"name": "left_shoulder", "x": 250, "y": 300, "score": 0.8},
		}}},
	})
	if err != nil {
		t.Fatal(err)
	}

	f, err := decodeResponse(append(line, '\n'))
	if err != nil {
		t.Fatalf("decodeResponse() error = %v", err)
	}
	if f.FirstHand() == nil || f.FirstHand().Points != hand.Points {
		t.Error("hand points should round-trip")
	}
	if len(f.Poses) != 1 || !f.Poses[0].LeftShoulder.Detected || f.Poses[0].RightShoulder.Detected {
		t.Errorf("unexpected pose: %+v", f.Poses)
	}

	t.Run("empty answer", func(t *testing.T) {
		f, err := decodeResponse([]byte(`{"hands":[]}`))
		if err != nil || f.FirstHand() != nil {
			t.Errorf("expected empty frame, got %v, %v", f, err)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		if _, err := decodeResponse([]byte(`not json`)); err == nil {
			t.Error("expected error")
		}
		_, err := decodeResponse([]byte(`{"hands":[{"points":[{"x":1,"y":2,"z":3}]}]}`))
		if !errors.Is(err, landmark.ErrLandmarkCount) {
			t.Errorf("expected ErrLandmarkCount, got %v", err)
		}
	})
}

func TestNewMediaPipeDetector(t *testing.T) {
	t.Run("missing script", func(t *testing.T) {
		_, err := NewMediaPipeDetector(Config{ScriptPath: filepath.Join(t.TempDir(), "nope.py")})
		if err == nil {
			t.Error("expected error for missing script")
		}
	})

	t.Run("builds service arguments", func(t *testing.T) {
		script := filepath.Join(t.TempDir(), scriptName)
		if err := os.WriteFile(script, []byte("# stub\n"), 0o644); err != nil {
			t.Fatal(err)
		}

		cfg := DefaultConfig()
		cfg.ScriptPath = script
		cfg.Python = "/usr/bin/python3"
		cfg.WithFace = true

		d, err := NewMediaPipeDetector(cfg)
		if err != nil {
			t.Fatalf("NewMediaPipeDetector() error = %v", err)
		}
		defer d.Close()

		want := []string{script, "--max-hands", "1", "--min-confidence", "0.5", "--face"}
		if got := d.args(); !slices.Equal(got, want) {
			t.Errorf("args() = %v, want %v", got, want)
		}
		if d.python != "/usr/bin/python3" {
			t.Errorf("python = %q", d.python)
		}
	})
}
