package recognition

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/ayusman/signcoach/internal/handshape"
)

// PatternSource supplies custom hand shapes, such as the sign store.
type PatternSource interface {
	Patterns() ([]handshape.Pattern, error)
}

// Library keeps an engine's hand-shape library in step with its sources:
// the base patterns (built in, or loaded from a file) overridden by the
// custom patterns of the source.
type Library struct {
	mu     sync.Mutex
	engine *Engine
	base   []handshape.Pattern
	source PatternSource
}

// NewLibrary creates a library. An empty base uses the built-in patterns;
// a nil source adds no custom patterns.
func NewLibrary(engine *Engine, base []handshape.Pattern, source PatternSource) *Library {
	if len(base) == 0 {
		base = handshape.DefaultPatterns()
	}
	return &Library{engine: engine, base: base, source: source}
}

// Reload rebuilds the effective library and installs it in the engine. On
// error the engine keeps its previous library.
func (l *Library) Reload() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var custom []handshape.Pattern
	if l.source != nil {
		var err error
		if custom, err = l.source.Patterns(); err != nil {
			return fmt.Errorf("load custom patterns: %w", err)
		}
	}

	merged := handshape.Merge(l.base, custom)
	if err := l.engine.SetPatterns(merged); err != nil {
		return err
	}
	l.engine.logger.Info("pattern library loaded",
		slog.Int("base", len(l.base)),
		slog.Int("custom", len(custom)),
		slog.Int("total", len(merged)))
	return nil
}

// Base returns the base patterns.
func (l *Library) Base() []handshape.Pattern {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.base)
}
