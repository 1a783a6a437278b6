package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/faiface/beep/speaker"

	"album-cube/audio"
	"album-cube/config"
	"album-cube/customization"
	"album-cube/lyrics"
)

// viewHost is the part of the window the viewer drives.
type viewHost interface {
	Post(fn func())
	SetTitle(title string)
}

// cubeRenderer is satisfied by *engine.Engine.
type cubeRenderer interface {
	Render(c customization.Customization, el *audio.Element) error
}

// viewer is the host-side state: the customization the user picked plus the
// track playing, from which each snapshot for the engine is derived. In the
// underneath lyric mode the current word is shown in the window title.
type viewer struct {
	logger *slog.Logger
	view   viewHost
	cube   cubeRenderer
	// title is the window title with no track caption.
	title string

	base  customization.Customization
	track *lyrics.Track
	el    *audio.Element
	// lastWord avoids re-rendering while the same lyric stays current.
	lastWord int
}

func newViewer(view viewHost, cube cubeRenderer, title string, base customization.Customization, logger *slog.Logger) *viewer {
	return &viewer{logger: logger, view: view, cube: cube, title: title, base: base, lastWord: -1}
}

func (v *viewer) snapshot() customization.Customization {
	c := v.base
	if v.track == nil {
		return c
	}
	c = lyrics.SelectTrack(c, v.track)
	l, ok := v.track.Current(v.el.CurrentTime())
	return lyrics.ApplyToFaces(c, l, ok)
}

func (v *viewer) render() {
	if err := v.cube.Render(v.snapshot(), v.el); err != nil {
		v.logger.Warn("render", "err", err)
	}
}

// setBase swaps in a new customization from a preset reload or handoff.
func (v *viewer) setBase(c customization.Customization) {
	v.base = c
	v.lastWord = -1
	v.view.SetTitle(v.title)
	v.render()
	v.syncLyrics()
}

// syncLyrics follows the lyric under the playhead: in cube mode it re-renders
// the faces, in underneath mode it updates the caption.
func (v *viewer) syncLyrics() {
	if v.track == nil {
		return
	}
	l, ok := v.track.Current(v.el.CurrentTime())
	word := -1
	if ok {
		word = l.WordIndex
	}
	if word == v.lastWord {
		return
	}
	v.lastWord = word

	switch v.base.LyricDisplay {
	case customization.LyricsCube:
		v.render()
	case customization.LyricsUnderneath:
		v.view.SetTitle(v.title + " - " + lyrics.Caption(v.track, l, ok))
		if ok {
			v.logger.Debug("lyric", "word", l.Word, "at", l.Time)
		}
	}
}

func (v *viewer) play(cfg config.Config, title string) error {
	tr, ok := lyrics.Find(lyrics.Catalog(), title)
	if !ok {
		return fmt.Errorf("unknown track %q", title)
	}
	el, err := audio.OpenFile(filepath.Join(cfg.AssetDir, tr.AudioSrc))
	if err != nil {
		return err
	}
	format := el.Format()
	if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
		el.Close()
		return fmt.Errorf("speaker: %w", err)
	}
	v.attach(tr, el)
	speaker.Play(el)
	v.logger.Info("playing", "title", tr.Title, "length", tr.Length)
	return nil
}

// attach makes tr the playing track with el as its audio.
func (v *viewer) attach(tr *lyrics.Track, el *audio.Element) {
	el.OnEnd(func() {
		v.view.Post(func() {
			v.logger.Info("track ended", "title", tr.Title)
			v.base = lyrics.EndTrack(v.base)
			v.track = nil
			v.view.SetTitle(v.title)
			v.render()
		})
	})
	v.track, v.el, v.lastWord = tr, el, -1
}
