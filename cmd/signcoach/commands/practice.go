package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gocv.io/x/gocv"

	"github.com/ayusman/signcoach/internal/app"
	"github.com/ayusman/signcoach/internal/capture"
	"github.com/ayusman/signcoach/internal/detector"
	"github.com/ayusman/signcoach/internal/handshape"
	"github.com/ayusman/signcoach/internal/landmark"
	"github.com/ayusman/signcoach/internal/practice"
	"github.com/ayusman/signcoach/internal/printer"
	"github.com/ayusman/signcoach/internal/recognition"
)

var (
	practiceCategory string
	practiceMode     string
	practiceRange    string
	practiceEmotion  bool
	practiceMock     string
	practiceNoIdle   bool
	practiceDuration time.Duration
)

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Practise signs or emotions on the local camera",
	Long: `Run a practice session in the terminal. Frames from the local camera go
through the MediaPipe landmark service; every accepted sign or emotion is
scored and the next target is announced.

--mock LABEL replaces the camera and detector with a synthetic hand holding
the given built-in sign, which is handy for trying the flow without a
camera.`,
	Example: `  signcoach practice --range a-e
  signcoach practice --category numbers --mode quiz
  signcoach practice --emotion
  signcoach practice --mock A --duration 5s`,
	Args: cobra.NoArgs,
	RunE: runPractice,
}

func init() {
	f := practiceCmd.Flags()
	f.StringVar(&practiceCategory, "category", "alphabet", "alphabet or numbers")
	f.StringVar(&practiceMode, "mode", "learn", "learn (in order) or quiz (random)")
	f.StringVar(&practiceRange, "range", "", "item range such as a-f or 0-5")
	f.BoolVar(&practiceEmotion, "emotion", false, "practise emotions instead of hand signs")
	f.StringVar(&practiceMock, "mock", "", "use a synthetic hand showing this built-in sign")
	f.BoolVar(&practiceNoIdle, "no-idle", false, "classify every frame even when nothing moves")
	f.DurationVar(&practiceDuration, "duration", 0, "stop after this long (0 runs until interrupted)")
	rootCmd.AddCommand(practiceCmd)
}

func runPractice(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if practiceDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, practiceDuration)
		defer cancel()
	}
	out := cmd.OutOrStdout()

	st, err := openStore("")
	if err != nil {
		return printer.Error("Failed to open the sign database", err.Error(), nil)
	}
	defer st.Close()

	engine, _, err := newRecognizer(st, nil)
	if err != nil {
		return printer.Error("Failed to load the pattern library", err.Error(), nil)
	}

	session, err := newPracticeSession(engine)
	if err != nil {
		return printer.Error("Invalid practice options", err.Error(),
			[]string{"Use --category alphabet|numbers, --mode learn|quiz and a range such as a-f"})
	}

	cam, det, activity, release, err := practiceDevices()
	if err != nil {
		return err
	}
	defer release()

	loop, err := app.New(app.Config{
		Camera:    cam,
		Detector:  det,
		Session:   session,
		ActiveFPS: cfg.FPS,
		Activity:  activity,
		OnOutcome: outcomePrinter(out),
		Logger:    logger,
	})
	if err != nil {
		return printer.Error("Failed to start practice", err.Error(), nil)
	}

	snap := session.Snapshot()
	printer.Step(out, "Practising %s: %s", describe(snap), strings.Join(snap.Items, " "))
	printer.Step(out, "First target: %s (Ctrl+C to stop)", snap.Target)

	if err := loop.Run(ctx); err != nil {
		return printer.Error("Practice stopped", err.Error(), nil)
	}

	stats := loop.Stats()
	snap = session.Snapshot()
	printer.Success(out, "Session over: score %d, %d correct, %d frames (%d idle)",
		snap.Score, stats.Correct, stats.Frames, stats.Skipped)
	return nil
}

func newPracticeSession(engine *recognition.Engine) (practice.Session, error) {
	id := fmt.Sprintf("cli-%d", time.Now().Unix())
	if practiceEmotion {
		return practice.NewEmotionSession(id, engine, practice.EmotionOptions{Target: cfg.EmotionTarget}), nil
	}

	category, err := practice.ParseCategory(practiceCategory)
	if err != nil {
		return nil, err
	}
	mode, err := practice.ParseMode(practiceMode)
	if err != nil {
		return nil, err
	}
	return practice.NewHandSession(id, engine, practice.HandOptions{Category: category, Mode: mode, Range: practiceRange})
}

// practiceDevices returns the camera, detector and activity gate for the
// session, and a func releasing them. The mock pair never moves, so it gets
// no activity gate.
func practiceDevices() (capture.Camera, detector.Detector, *capture.Activity, func(), error) {
	if practiceMock != "" {
		hand, err := mockHand(practiceMock)
		if err != nil {
			return nil, nil, nil, nil, printer.Error("Unknown mock sign", err.Error(), nil)
		}
		blank := gocv.NewMatWithSize(capture.DefaultHeight, capture.DefaultWidth, gocv.MatTypeCV8UC3)
		det := detector.NewMockDetector()
		det.SetHands(hand)
		release := func() { blank.Close() }
		return capture.NewMockCamera([]*gocv.Mat{&blank}, true), det, nil, release, nil
	}

	opts := capture.DefaultOptions()
	opts.DeviceID = cfg.CameraID
	opts.FPS = cfg.FPS
	cam := capture.NewCamera(opts)

	det, err := newDetector(practiceEmotion)
	if err != nil {
		return nil, nil, nil, nil, printer.Error("Failed to start the landmark detector", err.Error(),
			[]string{"Install the MediaPipe service into ~/.signcoach", "Set SIGNCOACH_MEDIAPIPE_SCRIPT", "Try --mock A"})
	}

	var activity *capture.Activity
	if !practiceNoIdle {
		activity = capture.NewActivity(capture.ActivityConfig{})
	}
	release := func() {
		det.Close()
		if activity != nil {
			activity.Close()
		}
	}
	return cam, det, activity, release, nil
}

// mockHand synthesizes a hand for a built-in sign label.
func mockHand(label string) (landmark.HandLandmarks, error) {
	label = strings.ToUpper(strings.TrimSpace(label))
	for _, p := range handshape.DefaultPatterns() {
		if p.Label == label {
			return detector.SignHand(label), nil
		}
	}
	return landmark.HandLandmarks{}, fmt.Errorf("no built-in sign %q", label)
}

// outcomePrinter prints outcomes, skipping repeats of the same feedback so
// a held pose does not flood the terminal.
func outcomePrinter(w io.Writer) app.OutcomeFunc {
	var last string
	return func(out practice.Outcome) {
		key := string(out.Kind) + out.Feedback
		if key == last && out.Kind != practice.OutcomeCorrect {
			return
		}
		last = key
		printer.Outcome(w, out)
	}
}

func describe(s practice.Snapshot) string {
	if s.Type == practice.TypeEmotion {
		return "emotions"
	}
	return fmt.Sprintf("%s (%s mode)", s.Category, s.Mode)
}
