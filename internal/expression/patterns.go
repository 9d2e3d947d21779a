package expression

// Expectation is one feature a pattern wants to see, with the coaching tip
// shown when it is missing.
type Expectation struct {
	Feature Feature
	Want    bool
	Tip     string
}

// Pattern describes one target emotion.
type Pattern struct {
	Emotion string
	Body    []Expectation
	Face    []Expectation
	Success string
	Partial string
}

// Tip returns the coaching tip for f, or "".
func (p Pattern) Tip(f Feature) string {
	for _, group := range [][]Expectation{p.Body, p.Face} {
		for _, e := range group {
			if e.Feature == f {
				return e.Tip
			}
		}
	}
	return ""
}

// DefaultPatterns returns happy, sad and angry in that order.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{
			Emotion: "happy",
			Body: []Expectation{
				{ShouldersUp, true, "Lift your shoulders slightly"},
				{HeadUp, true, "Raise your head a bit more"},
				{ArmsOpen, true, "Keep your arms more relaxed and open"},
			},
			Face: []Expectation{
				{MouthOpen, true, "Open your mouth in a natural smile"},
				{MouthUpturned, true, "Turn up the corners of your mouth"},
				{EyebrowsNeutral, true, "Relax your eyebrows"},
			},
			Success: "Perfect! Your smile and open posture show happiness!",
			Partial: "Almost there! Try to:",
		},
		{
			Emotion: "sad",
			Body: []Expectation{
				{ShouldersDown, true, "Drop your shoulders more"},
				{HeadDown, true, "Lower your head slightly"},
				{ArmsClose, true, "Keep your arms closer to your body"},
			},
			Face: []Expectation{
				{MouthDownturned, true, "Turn down the corners of your mouth more"},
				{EyebrowsInnerUp, true, "Raise the inner corners of your eyebrows"},
				{EyesNarrowed, true, "Slightly narrow your eyes"},
			},
			Success: "Excellent! Your expression clearly shows sadness",
			Partial: "Getting closer! Try to:",
		},
		{
			Emotion: "angry",
			Body: []Expectation{
				{ShouldersTense, true, "Tense your shoulders more"},
				{HeadForward, true, "Move your head slightly forward"},
				{ArmsTense, true, "Keep your arms tense"},
			},
			Face: []Expectation{
				{EyebrowsFurrowed, true, "Furrow your eyebrows more"},
				{EyesWide, true, "Open your eyes wider"},
				{MouthTight, true, "Press your lips together"},
			},
			Success: "Great job! Your angry expression is very clear",
			Partial: "Keep working on it! Try to:",
		},
	}
}

// Emotions returns the emotion names of the patterns in order.
func Emotions(patterns []Pattern) []string {
	names := make([]string, len(patterns))
	for i, p := range patterns {
		names[i] = p.Emotion
	}
	return names
}
