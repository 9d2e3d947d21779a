// Package stability debounces per-frame hand classifications into discrete
// label events.
package stability

import "github.com/ayusman/signcoach/internal/handshape"

// Default gate tuning.
const (
	DefaultThreshold   = 0.65
	DefaultWindow      = 3
	DefaultHistorySize = 10
)

// Config holds the gate tuning.
type Config struct {
	// Threshold is the confidence a classification must exceed to count.
	Threshold float64
	// Window is both the number of identical trailing labels that make the
	// stream stable and the number of stable frames required before emitting.
	Window int
	// HistorySize caps the label FIFO.
	HistorySize int
}

// DefaultConfig returns the standard tuning.
func DefaultConfig() Config {
	return Config{
		Threshold:   DefaultThreshold,
		Window:      DefaultWindow,
		HistorySize: DefaultHistorySize,
	}
}

// State describes where a gate is in its cycle.
type State string

const (
	StateIdle         State = "idle"
	StateAccumulating State = "accumulating"
	StateEmitted      State = "emitted"
)

// Gate turns a noisy stream of classifications into single emissions. A
// label is emitted once it has been stable for Window consecutive frames and
// is not emitted again until a different label has been emitted or the gate
// is reset.
//
// A Gate is owned by one stream and is not safe for concurrent use.
type Gate struct {
	cfg Config

	history     []string
	lastConf    float64
	lastEmitted string
	stableCount int
	target      string
}

// NewGate creates a gate. Zero fields in cfg take their defaults.
func NewGate(cfg Config) *Gate {
	def := DefaultConfig()
	if cfg.Threshold <= 0 {
		cfg.Threshold = def.Threshold
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.HistorySize < cfg.Window {
		cfg.HistorySize = max(def.HistorySize, cfg.Window)
	}

	return &Gate{
		cfg:     cfg,
		history: make([]string, 0, cfg.HistorySize),
	}
}

// Observe feeds one frame's classification into the gate. ok is false when
// the frame had no classifiable hand. target is the label currently being
// practised; a change of target resets the gate before the frame is counted.
// It returns the emitted label and true on the frame that completes a stable
// run.
func (g *Gate) Observe(res handshape.Result, ok bool, target string) (string, bool) {
	if target != g.target {
		g.Reset()
		g.target = target
	}

	label := ""
	if ok && res.Confidence > g.cfg.Threshold {
		label = res.Label
	}
	g.push(label)
	g.lastConf = 0
	if ok {
		g.lastConf = res.Confidence
	}

	if !g.stable() {
		g.stableCount = 0
		return "", false
	}

	if label == g.lastEmitted {
		return "", false
	}

	g.stableCount++
	if g.stableCount < g.cfg.Window {
		return "", false
	}

	g.lastEmitted = label
	g.stableCount = 0
	return label, true
}

// Reset clears history, the last emitted label and the stable counter. The
// target is kept.
func (g *Gate) Reset() {
	g.history = g.history[:0]
	g.lastConf = 0
	g.lastEmitted = ""
	g.stableCount = 0
}

// State reports the current cycle state.
func (g *Gate) State() State {
	switch {
	case g.stableCount > 0:
		return StateAccumulating
	case g.lastEmitted != "":
		return StateEmitted
	default:
		return StateIdle
	}
}

// LastEmitted returns the most recently emitted label, or "".
func (g *Gate) LastEmitted() string {
	return g.lastEmitted
}

// History returns a copy of the label FIFO, oldest first.
func (g *Gate) History() []string {
	out := make([]string, len(g.history))
	copy(out, g.history)
	return out
}

func (g *Gate) push(label string) {
	if len(g.history) == g.cfg.HistorySize {
		copy(g.history, g.history[1:])
		g.history = g.history[:len(g.history)-1]
	}
	g.history = append(g.history, label)
}

// stable reports whether the trailing min(Window, len(history)) labels are
// identical and non-empty and the latest confidence clears the threshold.
// A partially filled history counts.
func (g *Gate) stable() bool {
	n := min(g.cfg.Window, len(g.history))
	if n == 0 {
		return false
	}

	recent := g.history[len(g.history)-n:]
	first := recent[0]
	if first == "" {
		return false
	}
	for _, l := range recent[1:] {
		if l != first {
			return false
		}
	}
	return g.lastConf > g.cfg.Threshold
}
