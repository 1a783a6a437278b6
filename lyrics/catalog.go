// Package lyrics holds the album track list with word-level lyric timings and
// maps the lyric playing at a given time onto the cube faces.
package lyrics

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// Lyric is one timed word.
type Lyric struct {
	Time      time.Duration
	Duration  time.Duration
	Word      string
	WordIndex int
}

// End is the first instant after the word.
func (l Lyric) End() time.Duration { return l.Time + l.Duration }

type Track struct {
	Title    string
	Length   time.Duration
	AudioSrc string
	Lyrics   []Lyric
}

// Current returns the lyric with Time <= t < Time+Duration.
func (tr *Track) Current(t time.Duration) (Lyric, bool) {
	for _, l := range tr.Lyrics {
		if t >= l.Time && t < l.End() {
			return l, true
		}
	}
	return Lyric{}, false
}

const (
	firstWordAt = time.Second
	wordGap     = 100 * time.Millisecond
	minWord     = 200 * time.Millisecond
	wordJitter  = 300 * time.Millisecond
)

// GenerateTimings spaces words out from one second in: each lasts 0.2 to 0.5
// seconds and is followed by a 0.1 second gap.
func GenerateTimings(words []string, rng *rand.Rand) []Lyric {
	out := make([]Lyric, 0, len(words))
	at := firstWordAt
	for i, w := range words {
		d := minWord + time.Duration(rng.Int63n(int64(wordJitter)))
		out = append(out, Lyric{Time: at, Duration: d, Word: w, WordIndex: i})
		at += d + wordGap
	}
	return out
}

type trackDef struct {
	title  string
	length string
	words  string
}

var album = []trackDef{
	{"Rising Above", "3:45", "Feeling the pressure, rising up, breaking through the dark, finding my own spark"},
	{"Breaking the Mould", "4:12", "Never fit in, always stand out, hear the rhythm, breaking the mould now"},
	{"Samba B", "3:58", ""},
	{"Fake Games", "4:05", "Tired of the drama, tired of the fake games, walking away, I'm calling out their names"},
	{"Btz in the House", "3:30", ""},
	{"Love Feels Fake", "4:20", "Your words are empty, your touch is cold, a story often told, this love feels fake and old"},
	{"Tonight", "3:55", ""},
	{"I Found", "4:10", "Lost in the static, I found a way, a brand new day"},
	{"Action", "3:48", ""},
	{"Shadows in the Rhythm", "4:02", ""},
	{"Flow Do Tigre", "3:00", ""},
	{"Lost in the Secret", "3:33", ""},
	{"Counting My Blessing", "4:01", ""},
	{"Gol", "3:15", ""},
	{"Precision", "3:59", ""},
	{"Alone", "4:21", ""},
	{"Echo of the Soul", "3:50", ""},
	{"Brilho Claro", "3:44", ""},
	{"Tables Turns", "4:08", ""},
	{"The Rain", "3:56", ""},
}

// CatalogSeed makes the generated timings stable across runs.
const CatalogSeed = 20240101

// Catalog returns a fresh copy of the album's tracks.
func Catalog() []*Track {
	rng := rand.New(rand.NewSource(CatalogSeed))
	tracks := make([]*Track, 0, len(album))
	for _, def := range album {
		length, err := ParseLength(def.length)
		if err != nil {
			panic(err)
		}
		tr := &Track{
			Title:    def.title,
			Length:   length,
			AudioSrc: "music/" + slug(def.title) + ".mp3",
		}
		if def.words != "" {
			tr.Lyrics = GenerateTimings(strings.Split(def.words, " "), rng)
		}
		tracks = append(tracks, tr)
	}
	return tracks
}

// Find looks a track up by title, ignoring case.
func Find(tracks []*Track, title string) (*Track, bool) {
	for _, tr := range tracks {
		if strings.EqualFold(tr.Title, title) {
			return tr, true
		}
	}
	return nil, false
}

// ParseLength parses "m:ss".
func ParseLength(s string) (time.Duration, error) {
	var m, sec int
	if _, err := fmt.Sscanf(s, "%d:%d", &m, &sec); err != nil {
		return 0, fmt.Errorf("track length %q: %w", s, err)
	}
	if sec < 0 || sec >= 60 || m < 0 {
		return 0, fmt.Errorf("track length %q out of range", s)
	}
	return time.Duration(m)*time.Minute + time.Duration(sec)*time.Second, nil
}

func slug(title string) string {
	return strings.ReplaceAll(strings.ToLower(title), " ", "_")
}
