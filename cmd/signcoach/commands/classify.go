package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ayusman/signcoach/internal/landmark"
	"github.com/ayusman/signcoach/internal/printer"
)

var (
	classifyEmotion bool
	classifyTop     int
	classifyKind    string
	classifyDB      string
)

var classifyCmd = &cobra.Command{
	Use:   "classify <frame.json|->",
	Short: "Classify one landmark frame",
	Long: `Classify a single landmark frame read from a JSON file, or from stdin
when the argument is "-". The frame uses the same layout as the HTTP API:
{"hands": [...], "poses": [...], "faces": [...]}.`,
	Example: `  signcoach classify frame.json --top 3
  cat frame.json | signcoach classify - --emotion`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

func init() {
	f := classifyCmd.Flags()
	f.BoolVar(&classifyEmotion, "emotion", false, "classify the emotion instead of the hand shape")
	f.IntVar(&classifyTop, "top", 0, "also list this many best hand matches")
	f.StringVar(&classifyKind, "kind", "", "only match letter, digit or custom patterns")
	f.StringVar(&classifyDB, "db", "", "sign database path")
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	frame, err := readFrame(cmd, args[0])
	if err != nil {
		return printer.Error("Invalid frame", err.Error(),
			[]string{`A frame looks like {"hands": [{"points": [[x, y, z], ...]}]}`})
	}

	st, err := openStore(classifyDB)
	if err != nil {
		return printer.Error("Failed to open the sign database", err.Error(), nil)
	}
	defer st.Close()

	engine, _, err := newRecognizer(st, nil)
	if err != nil {
		return printer.Error("Failed to load the pattern library", err.Error(), nil)
	}
	out := cmd.OutOrStdout()

	if classifyEmotion {
		res, ok := engine.ClassifyEmotion(frame.Poses, frame.Faces)
		if !ok {
			return printer.Error("Classification failed", "the emotion classifier did not produce a result", nil)
		}
		if res.Emotion == "" {
			printer.Warning(out, "%s", res.Feedback)
			return nil
		}
		printer.Success(out, "%s (%.0f%%)", res.Emotion, res.Confidence*100)
		if res.Feedback != "" {
			fmt.Fprintf(out, "  %s\n", res.Feedback)
		}
		return nil
	}

	hand := frame.FirstHand()
	if hand == nil {
		printer.Warning(out, "No hand in frame")
		return nil
	}

	res, ok := engine.ClassifyHand(hand)
	if classifyKind != "" {
		kind, err := parseKind(classifyKind)
		if err != nil {
			return printer.Error("Invalid kind", err.Error(), []string{"Use --kind letter, digit or custom"})
		}
		res, ok = engine.ClassifyHandAs(kind, hand)
	}
	if !ok {
		printer.Warning(out, "No matching pattern")
	} else {
		printer.Success(out, "%s (%.0f%%)", res.Label, res.Confidence*100)
	}

	if classifyTop > 0 {
		matches := engine.RankHand(hand)
		for i, m := range matches[:min(classifyTop, len(matches))] {
			fmt.Fprintf(out, "  %d. %-8s %.3f\n", i+1, m.Label, m.Confidence)
		}
	}
	return nil
}

func readFrame(cmd *cobra.Command, path string) (landmark.Frame, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return landmark.Frame{}, err
		}
		defer f.Close()
		r = f
	}

	var raw landmark.RawFrame
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return landmark.Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	return raw.Decode()
}
