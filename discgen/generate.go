package discgen

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/milk9111/discbox/discs"
	"github.com/milk9111/discbox/prefabs"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

const DefaultNamespace = "my_music_disc"

type Options struct {
	// SourceDir holds the mp3 files.
	SourceDir string
	// PrefabsDir receives discs.yaml and jukebox.yaml. Files missing there
	// are read from the embedded prefabs.
	PrefabsDir string
	// SoundDefinitions is the resource pack's sound_definitions.json. Empty
	// skips it.
	SoundDefinitions string
	// ItemsDir receives one music_disc_<name>.item.json per track; stale
	// disc item files there are deleted. Empty skips item output.
	ItemsDir string
	// ItemTextures is the resource pack's item_texture.json. Empty skips it.
	ItemTextures string
	Namespace    string
	Capacity         int
	// Measure returns a file's length in ticks; nil uses Ticks.
	Measure func(path string) (int, error)
	DryRun  bool
}

func (o *Options) defaults() {
	if o.PrefabsDir == "" {
		o.PrefabsDir = prefabs.DiskRoot
	}
	if o.Namespace == "" {
		o.Namespace = DefaultNamespace
	}
	if o.Capacity == 0 {
		o.Capacity = MaxSlotValues
	}
	if o.Measure == nil {
		o.Measure = Ticks
	}
}

type Report struct {
	Tracks  []Track
	Added   []string
	Removed []string
	Slots   []string
	Written []string
	Deleted []string
}

// Generate scans SourceDir and rewrites the catalog, the jukebox slot
// enumerations and the sound definitions to match it.
func Generate(opts Options) (Report, error) {
	opts.defaults()
	var rep Report

	tracks, err := Scan(opts.SourceDir, opts.Measure)
	if err != nil {
		return rep, err
	}
	rep.Tracks = tracks

	catalog, err := readSpec[prefabs.DiscCatalogSpec](opts.PrefabsDir, prefabs.DiscsFile)
	if err != nil {
		return rep, err
	}
	jukebox, err := readSpec[prefabs.JukeboxSpec](opts.PrefabsDir, prefabs.JukeboxFile)
	if err != nil {
		return rep, err
	}

	prefix := opts.Namespace + ":"
	before := lo.FilterMap(catalog.Discs, func(d prefabs.DiscSpec, _ int) (string, bool) {
		return d.ID, strings.HasPrefix(d.ID, prefix)
	})
	merged := MergeCatalog(catalog, tracks, opts.Namespace)
	ids := lo.Map(tracks, func(t Track, _ int) string { return t.ItemID(opts.Namespace) })
	rep.Added, rep.Removed = lo.Difference(ids, before)

	// The catalog must still load after the merge.
	if _, err := discs.New(lo.Map(merged.Discs, func(d prefabs.DiscSpec, _ int) discs.Definition {
		return discs.FromSpec(d)
	})); err != nil {
		return rep, err
	}

	jukebox, err = MergeSlots(jukebox, ids, opts.Namespace, opts.Capacity)
	if err != nil {
		return rep, err
	}
	rep.Slots = jukebox.Slots.Custom

	var sounds []byte
	if opts.SoundDefinitions != "" {
		existing, err := os.ReadFile(opts.SoundDefinitions)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return rep, err
		}
		keep := lo.FilterMap(merged.Discs, func(d prefabs.DiscSpec, _ int) (string, bool) {
			return d.Sound, !strings.HasPrefix(d.ID, prefix)
		})
		if sounds, err = MergeSoundDefinitions(existing, tracks, keep); err != nil {
			return rep, err
		}
	}

	var textures []byte
	if opts.ItemTextures != "" {
		existing, err := os.ReadFile(opts.ItemTextures)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return rep, err
		}
		if textures, err = MergeItemTextures(existing, tracks, opts.Namespace); err != nil {
			return rep, err
		}
	}
	var stale []string
	if opts.ItemsDir != "" {
		if stale, err = StaleItemFiles(opts.ItemsDir, tracks); err != nil {
			return rep, err
		}
	}

	for _, t := range tracks {
		log.Printf("discgen: %s -> %s (%s - %s, %d ticks)", filepath.Base(t.File), t.ItemID(opts.Namespace), t.Artist, t.Title, t.Ticks)
	}
	if opts.DryRun {
		rep.Deleted = stale
		return rep, nil
	}

	if err := os.MkdirAll(opts.PrefabsDir, 0o755); err != nil {
		return rep, err
	}
	for _, out := range []struct {
		name string
		spec any
	}{
		{prefabs.DiscsFile, merged},
		{prefabs.JukeboxFile, jukebox},
	} {
		path := filepath.Join(opts.PrefabsDir, out.name)
		if err := writeYAML(path, out.spec); err != nil {
			return rep, err
		}
		rep.Written = append(rep.Written, path)
	}
	if sounds != nil {
		if err := os.WriteFile(opts.SoundDefinitions, sounds, 0o644); err != nil {
			return rep, err
		}
		rep.Written = append(rep.Written, opts.SoundDefinitions)
	}
	if textures != nil {
		if err := os.WriteFile(opts.ItemTextures, textures, 0o644); err != nil {
			return rep, err
		}
		rep.Written = append(rep.Written, opts.ItemTextures)
	}
	if opts.ItemsDir != "" {
		written, err := writeItems(opts.ItemsDir, tracks, opts.Namespace)
		rep.Written = append(rep.Written, written...)
		if err != nil {
			return rep, err
		}
		for _, path := range stale {
			if err := os.Remove(path); err != nil {
				return rep, err
			}
			log.Printf("discgen: removed stale %s", filepath.Base(path))
			rep.Deleted = append(rep.Deleted, path)
		}
	}
	return rep, nil
}

func readSpec[T any](dir, name string) (T, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		data, err = prefabs.PrefabsFS.ReadFile(name)
	}
	var spec T
	if err != nil {
		return spec, fmt.Errorf("discgen: read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return spec, fmt.Errorf("discgen: unmarshal %s: %w", name, err)
	}
	return spec, nil
}

func writeYAML(path string, v any) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("discgen: encode %s: %w", filepath.Base(path), err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
