// Package discgen turns a directory of mp3 files into custom music discs:
// catalog entries, jukebox slot values and resource-pack sound definitions.
package discgen

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/gopxl/beep/v2/mp3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	TicksPerSecond = 20
	// DefaultTicks is used when a file's length cannot be measured.
	DefaultTicks  = 3000
	UnknownArtist = "Unknown_Artist"
	DiscVolume    = 0.75
)

// Track is one mp3 file and the disc derived from it.
type Track struct {
	File   string
	Name   string
	Title  string
	Artist string
	Ticks  int
}

// ItemID returns the disc item identifier in namespace.
func (t Track) ItemID(namespace string) string {
	return fmt.Sprintf("%s:music_disc_%s", namespace, t.Name)
}

func (t Track) Sound() string {
	return "record." + t.Name
}

var (
	separators = regexp.MustCompile(`[_\s]+`)
	nonWord    = regexp.MustCompile(`[^a-zA-Z0-9]`)
	repeats    = regexp.MustCompile(`_+`)
)

// SnakeCase derives a disc name from a file name: extension dropped,
// anything outside [a-zA-Z0-9] folded into single underscores, lower case.
func SnakeCase(name string) string {
	return snake(strings.TrimSuffix(name, filepath.Ext(name)))
}

func snake(s string) string {
	s = separators.ReplaceAllString(s, "_")
	s = nonWord.ReplaceAllString(s, "_")
	s = repeats.ReplaceAllString(s, "_")
	return strings.ToLower(strings.Trim(s, "_"))
}

// ParseFileName splits "Artist - Title.mp3". Names without the separator get
// UnknownArtist and a title built from the snake-cased name.
func ParseFileName(file string) (artist, title string) {
	base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	if a, t, ok := strings.Cut(base, " - "); ok {
		a, t = strings.TrimSpace(a), strings.TrimSpace(t)
		if a != "" && t != "" {
			return a, t
		}
	}
	title = strings.ReplaceAll(snake(base), "_", " ")
	return UnknownArtist, cases.Title(language.Und).String(title)
}

// Ticks measures an mp3 file in game ticks.
func Ticks(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	streamer, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		return 0, fmt.Errorf("discgen: decode %s: %w", path, err)
	}
	defer streamer.Close()

	d := format.SampleRate.D(streamer.Len())
	return int(d.Seconds() * TicksPerSecond), nil
}

// NewTrack builds the track for file. measure may be nil, in which case the
// default length is used.
func NewTrack(file string, measure func(string) (int, error)) Track {
	artist, title := ParseFileName(file)
	t := Track{
		File:   file,
		Name:   SnakeCase(filepath.Base(file)),
		Title:  title,
		Artist: artist,
		Ticks:  DefaultTicks,
	}
	if measure == nil {
		return t
	}
	ticks, err := measure(file)
	switch {
	case err != nil:
		log.Printf("discgen: %s: %v, using %d ticks", filepath.Base(file), err, DefaultTicks)
	case ticks > 0:
		t.Ticks = ticks
	}
	return t
}

// Scan reads every .mp3 file in dir, sorted by file name.
func Scan(dir string, measure func(string) (int, error)) ([]Track, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("discgen: scan %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".mp3") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)

	tracks := make([]Track, 0, len(files))
	seen := map[string]string{}
	for _, f := range files {
		t := NewTrack(f, measure)
		if t.Name == "" {
			log.Printf("discgen: %s: no usable name, skipped", filepath.Base(f))
			continue
		}
		if prev, ok := seen[t.Name]; ok {
			return nil, fmt.Errorf("discgen: %s and %s both map to %q", filepath.Base(prev), filepath.Base(f), t.Name)
		}
		seen[t.Name] = f
		tracks = append(tracks, t)
	}
	return tracks, nil
}
