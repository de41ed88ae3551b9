package discgen

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

const itemFormatVersion = "1.21.40"

type itemDescription struct {
	Identifier   string            `json:"identifier"`
	MenuCategory map[string]string `json:"menu_category"`
}

type itemDefinition struct {
	FormatVersion string `json:"format_version"`
	Item          struct {
		Description itemDescription `json:"description"`
		Components  map[string]any  `json:"components"`
	} `json:"minecraft:item"`
}

// ItemFileName is the behaviour-pack file holding t's item definition.
func ItemFileName(t Track) string {
	return "music_disc_" + t.Name + ".item.json"
}

// ItemJSON renders the behaviour-pack item definition of t. The display name
// is the source file name without its extension.
func ItemJSON(t Track, namespace string) ([]byte, error) {
	id := t.ItemID(namespace)
	display := strings.TrimSuffix(filepath.Base(t.File), filepath.Ext(t.File))

	var def itemDefinition
	def.FormatVersion = itemFormatVersion
	def.Item.Description = itemDescription{
		Identifier: id,
		MenuCategory: map[string]string{
			"category": "items",
			"group":    "itemGroup.name.record",
		},
	}
	def.Item.Components = map[string]any{
		"minecraft:icon":           id,
		"minecraft:display_name":   map[string]string{"value": "§bMusic Disc\n§7" + display},
		"minecraft:max_stack_size": 1,
	}

	out, err := json.MarshalIndent(def, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("discgen: item %s: %w", id, err)
	}
	return append(out, '\n'), nil
}

// StaleItemFiles lists music_disc_*.item.json files in dir that belong to no
// track.
func StaleItemFiles(dir string, tracks []Track) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "music_disc_*.item.json"))
	if err != nil {
		return nil, err
	}
	current := lo.Keyify(lo.Map(tracks, func(t Track, _ int) string { return ItemFileName(t) }))
	return lo.Filter(matches, func(path string, _ int) bool {
		_, ok := current[filepath.Base(path)]
		return !ok
	}), nil
}

// MergeItemTextures updates a resource-pack item_texture.json: entries of
// namespace's discs without a track are removed and missing ones added.
func MergeItemTextures(data []byte, tracks []Track, namespace string) ([]byte, error) {
	doc := map[string]any{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("discgen: item textures: %w", err)
		}
	}
	if _, ok := doc["texture_name"]; !ok {
		doc["texture_name"] = "atlas.items"
	}
	textures, _ := doc["texture_data"].(map[string]any)
	if textures == nil {
		textures = map[string]any{}
	}

	prefix := namespace + ":music_disc_"
	wanted := lo.Keyify(lo.Map(tracks, func(t Track, _ int) string { return t.ItemID(namespace) }))
	for key := range textures {
		if _, ok := wanted[key]; strings.HasPrefix(key, prefix) && !ok {
			delete(textures, key)
		}
	}
	for _, t := range tracks {
		key := t.ItemID(namespace)
		if _, ok := textures[key]; !ok {
			textures[key] = map[string]string{
				"textures": fmt.Sprintf("textures/%s/items/music_disc_%s", namespace, t.Name),
			}
		}
	}
	doc["texture_data"] = textures

	out, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

func writeItems(dir string, tracks []Track, namespace string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	written := make([]string, 0, len(tracks))
	for _, t := range tracks {
		data, err := ItemJSON(t, namespace)
		if err != nil {
			return written, err
		}
		path := filepath.Join(dir, ItemFileName(t))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}
