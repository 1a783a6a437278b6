package audio

import (
	"log/slog"
)

// Bridge connects the scene to whichever audio element the host currently
// plays. Binding is keyed by element identity and safe to repeat.
type Bridge struct {
	logger   *slog.Logger
	el       *Element
	analyser *Analyser
}

func NewBridge(logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{logger: logger}
}

// Bind attaches to el and returns its analyser. Binding the element already
// bound is a no-op. Binding a different element releases the previous one;
// binding nil detaches.
func (b *Bridge) Bind(el *Element) *Analyser {
	if el == b.el {
		return b.analyser
	}
	b.Detach()
	if el == nil {
		return nil
	}
	a, created := el.connect()
	if created {
		b.logger.Debug("audio analyser attached", "fftSize", FFTSize)
	}
	b.el = el
	b.analyser = a
	return a
}

// Detach disconnects the bound element, if any.
func (b *Bridge) Detach() {
	if b.el == nil {
		return
	}
	b.el.disconnect()
	b.logger.Debug("audio analyser detached")
	b.el = nil
	b.analyser = nil
}

// Analyser returns the bound analyser or nil.
func (b *Bridge) Analyser() *Analyser {
	return b.analyser
}

// AverageFrequency reports the current energy 0..255; ok is false when
// nothing is bound.
func (b *Bridge) AverageFrequency() (avg float32, ok bool) {
	if b.analyser == nil {
		return 0, false
	}
	return b.analyser.AverageFrequency(), true
}
