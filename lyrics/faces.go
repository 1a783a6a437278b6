package lyrics

import (
	"album-cube/customization"
)

// lyricFaces are the faces that take words; face 0 keeps the track title.
var lyricFaces = []int{1, 2, 3, 4, 5}

// FaceFor is the face index a word is shown on.
func FaceFor(wordIndex int) int {
	return lyricFaces[wordIndex%len(lyricFaces)]
}

// ApplyToFaces returns c with the lyric faces cleared and, if a lyric is
// playing, its word on FaceFor(WordIndex). Only the cube display mode touches
// the faces; other modes return c unchanged.
func ApplyToFaces(c customization.Customization, l Lyric, playing bool) customization.Customization {
	if c.LyricDisplay != customization.LyricsCube {
		return c
	}
	texts := c.Texts
	for _, f := range lyricFaces {
		texts[f] = ""
	}
	if playing {
		texts[FaceFor(l.WordIndex)] = l.Word
	}
	return c.WithTexts(texts)
}

// SelectTrack is the look while tr plays: audio-reactive, title on face 0.
func SelectTrack(c customization.Customization, tr *Track) customization.Customization {
	return c.WithAnimation(customization.AnimationAudioReactive).
		WithTexts([customization.FaceCount]string{tr.Title})
}

// EndTrack restores the landing look after playback ends.
func EndTrack(c customization.Customization) customization.Customization {
	return c.WithAnimation(customization.AnimationPulse).
		WithTexts(customization.DefaultTexts)
}

// Caption is the line shown under the cube in the underneath display mode:
// the track title, followed by the current word while one is playing.
func Caption(tr *Track, l Lyric, playing bool) string {
	if !playing || l.Word == "" {
		return tr.Title
	}
	return tr.Title + ": " + l.Word
}
