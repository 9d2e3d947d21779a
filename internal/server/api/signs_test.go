package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/ayusman/signcoach/internal/handshape"
	"github.com/ayusman/signcoach/internal/practice"
	"github.com/ayusman/signcoach/internal/recognition"
	"github.com/ayusman/signcoach/internal/store"
)

func newSignRouter(t *testing.T) (http.Handler, *store.Store, *recognition.Engine) {
	t.Helper()
	s := newTestStore(t)
	e := newEngine(t)
	lib := recognition.NewLibrary(e, nil, s.Signs())
	return newRouter(NewSignHandler(s, lib, nil, nil)), s, e
}

func TestSignHandler_List(t *testing.T) {
	h, s, _ := newSignRouter(t)

	if err := s.Signs().Create(&store.Sign{ID: "sign-1", Label: "ROCK", Kind: handshape.KindCustom, Joints: rockPattern().Joints}); err != nil {
		t.Fatalf("failed to create sign: %v", err)
	}

	rec := do(t, h, http.MethodGet, "/api/signs", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	resp := decode[listSignsResponse](t, rec)
	if len(resp.Signs) != 1 {
		t.Fatalf("expected 1 sign, got %d", len(resp.Signs))
	}
	if resp.Signs[0].ID != "sign-1" || resp.Signs[0].Label != "ROCK" {
		t.Errorf("unexpected sign %+v", resp.Signs[0])
	}
	if !resp.Signs[0].Calibrated {
		t.Error("sign with joints should be calibrated")
	}
}

func TestSignHandler_Create(t *testing.T) {
	h, _, e := newSignRouter(t)

	rec := do(t, h, http.MethodPost, "/api/signs", signRequest{Label: " rock ", Joints: rockPattern().Joints})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	resp := decode[signResponse](t, rec)
	if resp.ID == "" {
		t.Error("expected generated id")
	}
	if resp.Label != "ROCK" {
		t.Errorf("expected normalized label ROCK, got %q", resp.Label)
	}
	if resp.Kind != handshape.KindCustom {
		t.Errorf("expected default kind custom, got %q", resp.Kind)
	}

	if got := len(e.Patterns()); got != len(handshape.DefaultPatterns())+1 {
		t.Errorf("library should be reloaded with the new sign: %d patterns", got)
	}

	rec = do(t, h, http.MethodPost, "/api/signs", signRequest{Label: "Rock"})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate label: expected %d, got %d", http.StatusConflict, rec.Code)
	}
}

func TestSignHandler_CreateValidation(t *testing.T) {
	h, _, _ := newSignRouter(t)

	tests := []struct {
		name string
		body any
	}{
		{"invalid json", "{not json"},
		{"missing label", signRequest{}},
		{"bad kind", signRequest{Label: "X", Kind: "gesture"}},
		{"short joints", signRequest{Label: "X", Joints: [][3]float64{{1, 1, 1}}}},
		{"out of range", signRequest{Label: "X", Joints: [][3]float64{{2, 0, 0}, {0, 0, 0}, {0, 0, 0}, {0, 0, 0}, {0, 0, 0}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/signs", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
			}
		})
	}
}

func TestSignHandler_GetUpdateDelete(t *testing.T) {
	h, _, _ := newSignRouter(t)

	created := decode[signResponse](t, do(t, h, http.MethodPost, "/api/signs", signRequest{Label: "wave"}))
	if created.Calibrated {
		t.Error("sign without joints should not be calibrated")
	}

	rec := do(t, h, http.MethodGet, "/api/signs/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET: expected %d, got %d", http.StatusOK, rec.Code)
	}

	rec = do(t, h, http.MethodPut, "/api/signs/"+created.ID, signRequest{Label: "hello", Kind: handshape.KindLetter})
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT: expected %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	updated := decode[signResponse](t, rec)
	if updated.Label != "HELLO" || updated.Kind != handshape.KindLetter {
		t.Errorf("unexpected update result %+v", updated)
	}

	rec = do(t, h, http.MethodPut, "/api/signs/"+created.ID, signRequest{Kind: "bogus"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("PUT bad kind: expected %d, got %d", http.StatusBadRequest, rec.Code)
	}

	rec = do(t, h, http.MethodDelete, "/api/signs/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE: expected %d, got %d", http.StatusNoContent, rec.Code)
	}

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		rec = do(t, h, method, "/api/signs/"+created.ID, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s after delete: expected %d, got %d", method, http.StatusNotFound, rec.Code)
		}
	}
	rec = do(t, h, http.MethodPut, "/api/signs/missing", signRequest{Label: "x"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("PUT missing: expected %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestSignHandler_SamplesAndCalibrate(t *testing.T) {
	h, _, e := newSignRouter(t)
	rock := rockPattern()

	created := decode[signResponse](t, do(t, h, http.MethodPost, "/api/signs", signRequest{Label: "rock"}))
	base := "/api/signs/" + created.ID

	rec := do(t, h, http.MethodPost, base+"/calibrate", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("calibrate without samples: expected %d, got %d", http.StatusBadRequest, rec.Code)
	}

	rec = do(t, h, http.MethodPost, base+"/samples", createSamplesRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty samples: expected %d, got %d", http.StatusBadRequest, rec.Code)
	}

	rec = do(t, h, http.MethodPost, base+"/samples", createSamplesRequest{Samples: samplesFor(rock, 4)})
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST samples: expected %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	listed := decode[listSamplesResponse](t, do(t, h, http.MethodGet, base+"/samples", nil))
	if len(listed.Samples) != 4 {
		t.Fatalf("expected 4 samples, got %d", len(listed.Samples))
	}
	for i, s := range listed.Samples {
		if s.SampleIndex != i || s.SignID != created.ID {
			t.Errorf("sample %d: unexpected %+v", i, s)
		}
	}

	rec = do(t, h, http.MethodPost, base+"/calibrate", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("calibrate: expected %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	calibrated := decode[signResponse](t, rec)
	if !calibrated.Calibrated || calibrated.Samples != 4 {
		t.Errorf("unexpected calibrated sign %+v", calibrated)
	}
	for g := range rock.Joints {
		if calibrated.Joints[g] != rock.Joints[g] {
			t.Errorf("group %d: got %v, want %v", g, calibrated.Joints[g], rock.Joints[g])
		}
	}

	hand := handFrame(rock)
	frame, err := hand.Decode()
	if err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	res, ok := e.ClassifyHandAs(handshape.KindCustom, frame.FirstHand())
	if !ok || res.Label != "ROCK" {
		t.Errorf("calibrated sign should be live: got %+v, %v", res, ok)
	}

	rec = do(t, h, http.MethodPost, "/api/signs/missing/samples", createSamplesRequest{Samples: samplesFor(rock, 1)})
	if rec.Code != http.StatusNotFound {
		t.Errorf("samples for missing sign: expected %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestSignHandler_CalibrateBadSamples(t *testing.T) {
	h, s, _ := newSignRouter(t)

	if err := s.Signs().Create(&store.Sign{ID: "sign-1", Label: "X", Kind: handshape.KindCustom}); err != nil {
		t.Fatalf("failed to create sign: %v", err)
	}
	if err := s.Samples().Replace("sign-1", []json.RawMessage{json.RawMessage(`{"landmarks":[],"timestamp":1}`)}); err != nil {
		t.Fatalf("failed to store samples: %v", err)
	}

	rec := do(t, h, http.MethodPost, "/api/signs/sign-1/calibrate", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected status %d, got %d", http.StatusUnprocessableEntity, rec.Code)
	}
}

func TestSignHandler_OverrideBuiltinStaysInCategory(t *testing.T) {
	h, _, e := newSignRouter(t)
	a := builtin(t, "A")

	rec := do(t, h, http.MethodPost, "/api/signs", signRequest{Label: "a", Joints: a.Joints})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}
	if got := len(handshape.Filter(e.Patterns(), handshape.KindLetter)); got != 26 {
		t.Fatalf("overriding A should keep 26 letters, got %d", got)
	}

	frame, err := handFrame(a).Decode()
	if err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	res, ok := e.ClassifyHandAs(handshape.KindLetter, frame.FirstHand())
	if !ok || res.Label != "A" {
		t.Fatalf("expected the overridden A among letters, got %+v, %v", res, ok)
	}

	sessions := newRouter(NewSessionHandler(practice.NewRegistry(e, nil, practice.DefaultEmotionTarget), nil))
	snap := decode[practice.Snapshot](t, do(t, sessions, http.MethodPost, "/api/sessions", createSessionRequest{Range: "a-c"}))
	var out practice.Outcome
	for i := 0; i < 3; i++ {
		out = decode[practice.Outcome](t, do(t, sessions, http.MethodPost, "/api/sessions/"+snap.ID+"/frames", handFrame(a)))
	}
	if out.Kind != practice.OutcomeCorrect || out.Next != "B" {
		t.Errorf("expected correct A then B, got %+v", out)
	}
}
