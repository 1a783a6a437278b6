// Package audio provides the playable audio element the host drives and the
// analysis bridge the scene reads its reactive signal from.
package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/wav"
)

// Element is a playable audio source. It is a beep.Streamer: the speaker pulls
// samples through it, and every sample pulled is also fed to the connected
// analyser, if any. An element has at most one analyser connected.
type Element struct {
	mu     sync.Mutex
	src    beep.Streamer
	format beep.Format
	closer func() error

	pos    int
	paused bool
	ended  bool
	onEnd  []func()

	tap *Analyser
}

func NewElement(src beep.Streamer, format beep.Format) *Element {
	return &Element{src: src, format: format}
}

// OpenFile decodes a .wav, .flac or .mp3 file.
func OpenFile(path string) (*Element, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audio %q: %w", path, err)
	}

	var s beep.StreamSeekCloser
	var format beep.Format
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		s, format, err = wav.Decode(f)
	case ".flac":
		s, format, err = flac.Decode(f)
	case ".mp3":
		s, format, err = mp3.Decode(f)
	default:
		f.Close()
		return nil, fmt.Errorf("open audio %q: unsupported format", path)
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decode audio %q: %w", path, err)
	}

	el := NewElement(s, format)
	el.closer = s.Close
	return el, nil
}

// Stream implements beep.Streamer. While paused it produces silence without
// advancing.
func (e *Element) Stream(samples [][2]float64) (n int, ok bool) {
	e.mu.Lock()
	if e.ended {
		e.mu.Unlock()
		return 0, false
	}
	if e.paused {
		for i := range samples {
			samples[i] = [2]float64{}
		}
		e.mu.Unlock()
		return len(samples), true
	}

	n, ok = e.src.Stream(samples)
	e.pos += n
	if e.tap != nil && n > 0 {
		e.tap.Write(samples[:n])
	}
	var ended []func()
	if !ok {
		e.ended = true
		ended = e.onEnd
		e.onEnd = nil
	}
	e.mu.Unlock()

	for _, fn := range ended {
		fn()
	}
	return n, ok
}

func (e *Element) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.src.Err()
}

func (e *Element) Format() beep.Format { return e.format }

// CurrentTime is the playback position.
func (e *Element) CurrentTime() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.format.SampleRate.D(e.pos)
}

func (e *Element) SetPaused(paused bool) {
	e.mu.Lock()
	e.paused = paused
	e.mu.Unlock()
}

func (e *Element) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

func (e *Element) Ended() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ended
}

// OnEnd registers fn to run once when the source runs out. It runs on the
// goroutine pulling samples.
func (e *Element) OnEnd(fn func()) {
	e.mu.Lock()
	if !e.ended {
		e.onEnd = append(e.onEnd, fn)
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()
	fn()
}

// connect returns the element's analyser, creating it on first use. The
// boolean reports whether this call created it.
func (e *Element) connect() (*Analyser, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tap != nil {
		return e.tap, false
	}
	e.tap = NewAnalyser()
	return e.tap, true
}

func (e *Element) disconnect() {
	e.mu.Lock()
	e.tap = nil
	e.mu.Unlock()
}

// Connected reports whether an analyser is tapping the element.
func (e *Element) Connected() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tap != nil
}

func (e *Element) Close() error {
	if e.closer == nil {
		return nil
	}
	return e.closer()
}
