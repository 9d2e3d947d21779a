package handshape

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/signcoach/internal/landmark"
)

func sampleJSON(t *testing.T, hand landmark.HandLandmarks, ts int64) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(Sample{Landmarks: hand.Points[:], Timestamp: ts})
	require.NoError(t, err)
	return data
}

func TestTrainer_TrainPattern(t *testing.T) {
	trainer := NewTrainer(DefaultConfig())
	w := LetterPatterns()[22]
	require.Equal(t, "W", w.Label)

	samples := []json.RawMessage{
		sampleJSON(t, Synthesize(w, landmark.Point3D{X: 100, Y: 300}, 200), 1000),
		sampleJSON(t, Synthesize(w, landmark.Point3D{X: 400, Y: 320}, 260), 2000),
		sampleJSON(t, Synthesize(w, landmark.Point3D{X: 250, Y: 500}, 150), 3000),
	}

	p, err := trainer.TrainPattern(" wave ", KindCustom, samples)
	require.NoError(t, err)

	assert.Equal(t, "wave", p.Label)
	assert.Equal(t, KindCustom, p.Kind)
	assert.Equal(t, w.Joints, p.Joints)
}

func TestTrainer_TrainPattern_MajorityWins(t *testing.T) {
	trainer := NewTrainer(Config{})
	letters := LetterPatterns()
	a, b := letters[0], letters[1]

	samples := []json.RawMessage{
		sampleJSON(t, Synthesize(b, landmark.Point3D{X: 200, Y: 300}, 200), 1),
		sampleJSON(t, Synthesize(b, landmark.Point3D{X: 200, Y: 300}, 200), 2),
		sampleJSON(t, Synthesize(a, landmark.Point3D{X: 200, Y: 300}, 200), 3),
	}

	p, err := trainer.TrainPattern("B", KindLetter, samples)
	require.NoError(t, err)
	assert.Equal(t, b.Joints, p.Joints)
}

func TestTrainer_TrainPattern_Errors(t *testing.T) {
	trainer := NewTrainer(DefaultConfig())

	_, err := trainer.TrainPattern("A", KindLetter, nil)
	assert.Error(t, err)

	_, err = trainer.TrainPattern("A", KindLetter, []json.RawMessage{json.RawMessage(`{not json`)})
	assert.Error(t, err)

	_, err = trainer.TrainPattern("A", KindLetter, []json.RawMessage{json.RawMessage(`{"landmarks": [{"x": 1, "y": 2}]}`)})
	assert.ErrorIs(t, err, landmark.ErrLandmarkCount)

	hand := Synthesize(LetterPatterns()[0], landmark.Point3D{X: 200, Y: 300}, 200)
	_, err = trainer.TrainPattern("", KindLetter, []json.RawMessage{sampleJSON(t, hand, 1)})
	assert.ErrorIs(t, err, ErrPatternShape)
}
