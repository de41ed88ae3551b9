package discgen

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/milk9111/discbox/jukebox"
	"github.com/milk9111/discbox/prefabs"
	"gopkg.in/yaml.v3"
)

func TestSnakeCase(t *testing.T) {
	cases := map[string]string{
		"Daft Punk - One More Time.mp3": "daft_punk_one_more_time",
		"__weird   name__.MP3":          "weird_name",
		"Antimo & Wells - Mall.mp3":     "antimo_wells_mall",
		"already_snake":                 "already_snake",
		"Zażółć.mp3":                    "za",
	}
	for in, want := range cases {
		if got := SnakeCase(in); got != want {
			t.Errorf("SnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseFileName(t *testing.T) {
	cases := []struct {
		file, artist, title string
	}{
		{"src/Lena Raine - Pigstep.mp3", "Lena Raine", "Pigstep"},
		{"A - B - C.mp3", "A", "B - C"},
		{"my_cool song.mp3", UnknownArtist, "My Cool Song"},
		{" - Untitled.mp3", UnknownArtist, "Untitled"},
	}
	for _, c := range cases {
		t.Run(c.file, func(t *testing.T) {
			a, title := ParseFileName(c.file)
			if a != c.artist || title != c.title {
				t.Fatalf("got (%q, %q), want (%q, %q)", a, title, c.artist, c.title)
			}
		})
	}
}

func TestNewTrackMeasure(t *testing.T) {
	tr := NewTrack("Firch - Rain.mp3", func(string) (int, error) { return 2400, nil })
	want := Track{File: "Firch - Rain.mp3", Name: "firch_rain", Title: "Rain", Artist: "Firch", Ticks: 2400}
	if tr != want {
		t.Fatalf("track = %+v", tr)
	}
	if got := tr.ItemID("my_music_disc"); got != "my_music_disc:music_disc_firch_rain" {
		t.Fatalf("item id = %q", got)
	}
	if tr.Sound() != "record.firch_rain" {
		t.Fatalf("sound = %q", tr.Sound())
	}

	broken := NewTrack("x.mp3", func(string) (int, error) { return 0, errors.New("bad frame") })
	if broken.Ticks != DefaultTicks {
		t.Fatalf("ticks after error = %d", broken.Ticks)
	}
}

func TestTicksRejectsNonMP3(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.mp3")
	if err := os.WriteFile(path, []byte("not an mp3"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Ticks(path); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := Ticks(filepath.Join(t.TempDir(), "missing.mp3")); err == nil {
		t.Fatal("expected open error")
	}
}

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func fixedTicks(string) (int, error) { return 1200, nil }

func TestScan(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "b - Second.mp3", "a - First.MP3", "notes.txt", "___.mp3")
	if err := os.Mkdir(filepath.Join(dir, "sub.mp3"), 0o755); err != nil {
		t.Fatal(err)
	}

	tracks, err := Scan(dir, fixedTicks)
	if err != nil {
		t.Fatal(err)
	}
	names := []string{}
	for _, tr := range tracks {
		names = append(names, tr.Name)
	}
	if !reflect.DeepEqual(names, []string{"a_first", "b_second"}) {
		t.Fatalf("names = %v", names)
	}

	writeFiles(t, dir, "A - first.mp3")
	if _, err := Scan(dir, fixedTicks); err == nil {
		t.Fatal("expected name collision error")
	}
	if _, err := Scan(filepath.Join(dir, "missing"), fixedTicks); err == nil {
		t.Fatal("expected error for missing dir")
	}
}

func TestMergeCatalog(t *testing.T) {
	spec := prefabs.DiscCatalogSpec{Discs: []prefabs.DiscSpec{
		{ID: "minecraft:music_disc_13", Sound: "record.13", Ticks: 3580, Volume: 1},
		{ID: "my_music_disc:music_disc_stale", Sound: "record.stale", Ticks: 10},
		{ID: "other:music_disc_x", Sound: "record.x", Ticks: 10},
	}}
	tracks := []Track{{Name: "new_song", Title: "New Song", Artist: "Me", Ticks: 500}}

	got := MergeCatalog(spec, tracks, "my_music_disc")
	ids := []string{}
	for _, d := range got.Discs {
		ids = append(ids, d.ID)
	}
	want := []string{"minecraft:music_disc_13", "other:music_disc_x", "my_music_disc:music_disc_new_song"}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("ids = %v", ids)
	}
	last := got.Discs[2]
	if last.Sound != "record.new_song" || last.Volume != DiscVolume || last.Ticks != 500 || last.Title != "New Song" {
		t.Fatalf("generated = %+v", last)
	}
	if len(spec.Discs) != 3 || spec.Discs[1].ID != "my_music_disc:music_disc_stale" {
		t.Fatal("input spec modified")
	}
}

func TestMergeSlotsSpreadsAcrossSlots(t *testing.T) {
	spec := prefabs.JukeboxSpec{
		Block: prefabs.BlockTypeSpec{States: map[string][]any{
			"my_music_disc:custom_disc_1": {"none", "my_music_disc:music_disc_old", "other:music_disc_keep"},
		}},
		Slots: prefabs.JukeboxSlotsSpec{Custom: []string{"my_music_disc:custom_disc_1"}},
	}
	ids := []string{"my_music_disc:music_disc_a", "my_music_disc:music_disc_b", "my_music_disc:music_disc_c", "my_music_disc:music_disc_a"}

	got, err := MergeSlots(spec, ids, "my_music_disc", 3)
	if err != nil {
		t.Fatal(err)
	}
	wantSlots := []string{"my_music_disc:custom_disc_1", "my_music_disc:custom_disc_2"}
	if !reflect.DeepEqual(got.Slots.Custom, wantSlots) {
		t.Fatalf("slots = %v", got.Slots.Custom)
	}
	wantStates := map[string][]any{
		"my_music_disc:custom_disc_1": {"none", "other:music_disc_keep", "my_music_disc:music_disc_a"},
		"my_music_disc:custom_disc_2": {"none", "my_music_disc:music_disc_b", "my_music_disc:music_disc_c"},
	}
	for slot, want := range wantStates {
		if !reflect.DeepEqual(got.Block.States[slot], want) {
			t.Errorf("%s = %v, want %v", slot, got.Block.States[slot], want)
		}
	}
	if len(spec.Slots.Custom) != 1 || len(spec.Block.States) != 1 {
		t.Fatal("input spec modified")
	}
}

func TestMergeSlotsErrors(t *testing.T) {
	if _, err := MergeSlots(prefabs.JukeboxSpec{}, nil, "ns", 16); !errors.Is(err, ErrNoCustomSlots) {
		t.Fatalf("err = %v", err)
	}
	spec := prefabs.JukeboxSpec{Slots: prefabs.JukeboxSlotsSpec{Custom: []string{"ns:custom_disc_1"}}}
	if _, err := MergeSlots(spec, []string{"ns:music_disc_a"}, "ns", 1); err == nil {
		t.Fatal("expected capacity error")
	}
}

func TestNextSlotName(t *testing.T) {
	cases := map[string]string{
		"my_music_disc:custom_disc_1": "my_music_disc:custom_disc_2",
		"slot9":                       "slot10",
		"extra":                       "extra_2",
	}
	for in, want := range cases {
		if got := nextSlotName(in); got != want {
			t.Errorf("nextSlotName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMergeSoundDefinitions(t *testing.T) {
	existing := []byte(`{
	"format_version": "1.20.0",
	"sound_definitions": {
		"record.stale": {"category": "record"},
		"record.13": {"category": "record"},
		"ambient.cave": {"category": "ambient"},
		"record.kept_song": {"category": "record", "max_distance": 12}
	}
}`)
	tracks := []Track{{Name: "kept_song"}, {Name: "fresh"}}

	out, err := MergeSoundDefinitions(existing, tracks, []string{"record.13"})
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		FormatVersion string                     `json:"format_version"`
		Defs          map[string]json.RawMessage `json:"sound_definitions"`
	}
	if err := json.Unmarshal(out, &doc); err != nil {
		t.Fatal(err)
	}
	if doc.FormatVersion != "1.20.0" {
		t.Fatalf("format version = %q", doc.FormatVersion)
	}
	for _, key := range []string{"record.13", "ambient.cave", "record.kept_song", "record.fresh"} {
		if _, ok := doc.Defs[key]; !ok {
			t.Errorf("missing %s", key)
		}
	}
	if _, ok := doc.Defs["record.stale"]; ok {
		t.Error("stale record kept")
	}

	var kept map[string]any
	_ = json.Unmarshal(doc.Defs["record.kept_song"], &kept)
	if kept["max_distance"] != 12.0 {
		t.Errorf("existing entry rewritten: %v", kept)
	}

	var fresh soundDefinition
	if err := json.Unmarshal(doc.Defs["record.fresh"], &fresh); err != nil {
		t.Fatal(err)
	}
	if fresh.Category != "record" || fresh.MaxDistance != 64 || len(fresh.Sounds) != 1 ||
		fresh.Sounds[0].Name != "sounds/music/game/records/fresh" || !fresh.Sounds[0].Stream || fresh.Sounds[0].Volume != 0.5 {
		t.Fatalf("fresh = %+v", fresh)
	}

	if _, err := MergeSoundDefinitions([]byte("{"), nil, nil); err == nil {
		t.Fatal("expected json error")
	}
}

func TestGenerate(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	writeFiles(t, src, "Gwyd - Lantern.mp3", "Firch - Ember.mp3")
	sounds := filepath.Join(out, "sound_definitions.json")

	rep, err := Generate(Options{
		SourceDir:        src,
		PrefabsDir:       out,
		SoundDefinitions: sounds,
		Measure:          fixedTicks,
	})
	if err != nil {
		t.Fatal(err)
	}
	wantAdded := []string{"my_music_disc:music_disc_firch_ember", "my_music_disc:music_disc_gwyd_lantern"}
	if !reflect.DeepEqual(rep.Added, wantAdded) || len(rep.Removed) != 0 || len(rep.Written) != 3 {
		t.Fatalf("report = %+v", rep)
	}

	data, err := os.ReadFile(filepath.Join(out, prefabs.DiscsFile))
	if err != nil {
		t.Fatal(err)
	}
	var catalog prefabs.DiscCatalogSpec
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		t.Fatal(err)
	}
	last := catalog.Discs[len(catalog.Discs)-1]
	if last.ID != "my_music_disc:music_disc_gwyd_lantern" || last.Artist != "Gwyd" || last.Ticks != 1200 {
		t.Fatalf("last disc = %+v", last)
	}

	data, err = os.ReadFile(filepath.Join(out, prefabs.JukeboxFile))
	if err != nil {
		t.Fatal(err)
	}
	var spec prefabs.JukeboxSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		t.Fatal(err)
	}
	cfg, err := jukebox.ConfigFromSpec(spec)
	if err != nil {
		t.Fatalf("generated jukebox.yaml does not load: %v", err)
	}
	codec := jukebox.NewCodec(cfg)
	for _, id := range wantAdded {
		if !codec.Accepts(id) {
			t.Errorf("codec rejects %s", id)
		}
	}

	// A second run with one file removed drops it everywhere.
	if err := os.Remove(filepath.Join(src, "Firch - Ember.mp3")); err != nil {
		t.Fatal(err)
	}
	rep, err = Generate(Options{SourceDir: src, PrefabsDir: out, SoundDefinitions: sounds, Measure: fixedTicks})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(rep.Removed, []string{"my_music_disc:music_disc_firch_ember"}) || len(rep.Added) != 0 {
		t.Fatalf("second report = %+v", rep)
	}
	raw, _ := os.ReadFile(sounds)
	var doc map[string]map[string]any
	_ = json.Unmarshal(raw, &doc)
	if _, ok := doc["sound_definitions"]["record.firch_ember"]; ok {
		t.Fatal("removed track kept its sound definition")
	}
}

func TestGenerateDryRunWritesNothing(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	writeFiles(t, src, "Gwyd - Lantern.mp3")
	rep, err := Generate(Options{SourceDir: src, PrefabsDir: out, Measure: fixedTicks, DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Tracks) != 1 || len(rep.Written) != 0 {
		t.Fatalf("report = %+v", rep)
	}
	entries, _ := os.ReadDir(out)
	if len(entries) != 0 {
		t.Fatalf("dry run wrote %d files", len(entries))
	}
}
