package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/ayusman/signcoach/internal/capture"
	"github.com/ayusman/signcoach/internal/handshape"
	"github.com/ayusman/signcoach/internal/metrics"
	"github.com/ayusman/signcoach/internal/practice"
	"github.com/ayusman/signcoach/internal/printer"
	"github.com/ayusman/signcoach/internal/server"
)

var (
	serveAddr   string
	serveDB     string
	serveStatic string
	serveCamera bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and web app",
	Long: `Serve the SignCoach HTTP API: custom sign management and calibration,
single-frame classification, practice sessions over HTTP and WebSocket,
and Prometheus metrics on /metrics.

With --camera the server also reads the local camera and exposes an MJPEG
stream on /api/stream and live landmarks on /api/landmarks.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default $SIGNCOACH_ADDR or :8080)")
	serveCmd.Flags().StringVar(&serveDB, "db", "", "sign database path (default ~/.signcoach/signcoach.db)")
	serveCmd.Flags().StringVar(&serveStatic, "static", "", "web app directory (default: search ./web and ~/.signcoach/web)")
	serveCmd.Flags().BoolVar(&serveCamera, "camera", false, "read the local camera for streaming and live landmarks")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	out := cmd.OutOrStdout()

	st, err := openStore(serveDB)
	if err != nil {
		return printer.Error("Failed to open the sign database", err.Error(), nil)
	}
	defer st.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	engine, lib, err := newRecognizer(st, m)
	if err != nil {
		return printer.Error("Failed to load the pattern library", err.Error(),
			[]string{"Check SIGNCOACH_PATTERNS_FILE", "Re-import or delete the broken custom sign"})
	}

	scfg := server.Config{
		StaticDir: serveStatic,
		Store:     st,
		Engine:    engine,
		Library:   lib,
		Trainer:   handshape.NewTrainer(cfg.Handshape()),
		Sessions:  practice.NewRegistry(engine, m, cfg.EmotionTarget),
		Metrics:   m,
		Gatherer:  reg,
		Logger:    logger,
	}
	if scfg.StaticDir == "" {
		scfg.StaticDir = cfg.StaticDir
	}
	if scfg.StaticDir == "" {
		scfg.StaticDir = findWebDir()
	}
	if scfg.StaticDir != "" {
		printer.Step(out, "Serving static files from %s", scfg.StaticDir)
	}

	if serveCamera {
		opts := capture.DefaultOptions()
		opts.DeviceID = cfg.CameraID
		opts.FPS = cfg.FPS
		cam := capture.NewCamera(opts)
		if err := cam.Open(); err != nil {
			return printer.Error("Failed to open the camera", err.Error(),
				[]string{"Set SIGNCOACH_CAMERA_ID to another device", "Run without --camera"})
		}
		defer cam.Close()

		det, err := newDetector(false)
		if err != nil {
			return printer.Error("Failed to start the landmark detector", err.Error(),
				[]string{"Install the MediaPipe service into ~/.signcoach", "Set SIGNCOACH_MEDIAPIPE_SCRIPT"})
		}
		defer det.Close()

		scfg.Camera = cam
		scfg.Detector = det
	}

	addr := serveAddr
	if addr == "" {
		addr = cfg.Addr
	}
	printer.Step(out, "Starting server on %s", addr)

	if err := server.New(scfg).ListenAndServe(ctx, addr); err != nil {
		return printer.Error("Server failed", err.Error(), nil)
	}
	printer.Success(out, "Server stopped")
	return nil
}
