package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ayusman/signcoach/internal/detector"
	"github.com/ayusman/signcoach/internal/handshape"
	"github.com/ayusman/signcoach/internal/metrics"
	"github.com/ayusman/signcoach/internal/recognition"
	"github.com/ayusman/signcoach/internal/store"
)

const appDir = ".signcoach"

// dataDir returns ~/.signcoach, creating it if needed.
func dataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home directory: %w", err)
	}
	dir := filepath.Join(home, appDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return dir, nil
}

// openStore opens the sign database at path, or at the configured or
// default location when path is empty.
func openStore(path string) (*store.Store, error) {
	if path == "" {
		path = cfg.DBPath
	}
	if path == "" {
		dir, err := dataDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "signcoach.db")
	}

	st, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	logger.Debug("store opened", "path", path)
	return st, nil
}

// basePatterns returns the configured pattern file, or nil for the built-in
// library.
func basePatterns() ([]handshape.Pattern, error) {
	if cfg.PatternsFile == "" {
		return nil, nil
	}
	patterns, err := handshape.LoadFile(cfg.PatternsFile)
	if err != nil {
		return nil, err
	}
	logger.Info("base patterns loaded", "file", cfg.PatternsFile, "count", len(patterns))
	return patterns, nil
}

// newRecognizer builds the recognition engine with its library loaded from
// the base patterns and the stored signs. st may be nil.
func newRecognizer(st *store.Store, m *metrics.Metrics) (*recognition.Engine, *recognition.Library, error) {
	base, err := basePatterns()
	if err != nil {
		return nil, nil, err
	}

	exprCfg := cfg.Expression()
	engine, err := recognition.New(recognition.Options{
		Patterns:   base,
		Handshape:  cfg.Handshape(),
		Stability:  cfg.Stability(),
		Expression: &exprCfg,
		Metrics:    m,
		Logger:     logger,
	})
	if err != nil {
		return nil, nil, err
	}

	var source recognition.PatternSource
	if st != nil {
		source = st.Signs()
	}
	lib := recognition.NewLibrary(engine, base, source)
	if err := lib.Reload(); err != nil {
		return nil, nil, err
	}
	return engine, lib, nil
}

// newDetector starts the MediaPipe landmark service.
func newDetector(withFace bool) (detector.Detector, error) {
	dcfg := detector.DefaultConfig()
	dcfg.ScriptPath = cfg.MediaPipeScript
	dcfg.WithFace = withFace
	dcfg.Logger = logger
	return detector.NewMediaPipeDetector(dcfg)
}

// findWebDir searches for the web app in the working tree and in the data
// directory. It returns "" when there is none.
func findWebDir() string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	dir := filepath.Join(home, appDir, "web")
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir
	}
	return ""
}
