package world

import (
	"fmt"
	"os"
	"sort"

	"gridwalk/internal/config"

	"gopkg.in/yaml.v3"
)

// TileManager maps map-file letters to tile definitions
type TileManager struct {
	tileData    map[string]*config.TileData
	letterToKey map[string]string
	keyToLetter map[string]string
}

// NewTileManager creates an empty tile manager
func NewTileManager() *TileManager {
	return &TileManager{
		tileData:    make(map[string]*config.TileData),
		letterToKey: make(map[string]string),
		keyToLetter: make(map[string]string),
	}
}

// LoadTileConfig loads tile configuration from a YAML file
func (tm *TileManager) LoadTileConfig(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read tile config file: %w", err)
	}

	var tileConfig config.TileConfig
	if err := yaml.Unmarshal(data, &tileConfig); err != nil {
		return fmt.Errorf("failed to parse tile config: %w", err)
	}
	return tm.SetTiles(tileConfig.TileData)
}

// SetTiles replaces the tile table. Letters must be unique single runes.
func (tm *TileManager) SetTiles(tiles map[string]config.TileData) error {
	tileData := make(map[string]*config.TileData, len(tiles))
	letterToKey := make(map[string]string, len(tiles))
	keyToLetter := make(map[string]string, len(tiles))

	for key, td := range tiles {
		// Make a copy to avoid pointer issues
		tileCopy := td
		tileData[key] = &tileCopy

		if td.Letter == "" {
			continue
		}
		if len([]rune(td.Letter)) != 1 {
			return fmt.Errorf("tile %q: letter %q must be a single character", key, td.Letter)
		}
		if td.Letter == "@" || td.Letter == "+" {
			return fmt.Errorf("tile %q: letter %q is reserved by the map format", key, td.Letter)
		}
		if other, dup := letterToKey[td.Letter]; dup {
			return fmt.Errorf("letter '%s' is used by tiles %q and %q", td.Letter, other, key)
		}
		letterToKey[td.Letter] = key
		keyToLetter[key] = td.Letter
	}

	tm.tileData = tileData
	tm.letterToKey = letterToKey
	tm.keyToLetter = keyToLetter
	return nil
}

// GetTileDataByKey returns tile data for a key, or nil
func (tm *TileManager) GetTileDataByKey(key string) *config.TileData {
	return tm.tileData[key]
}

// GetTileKeyFromLetter resolves a map letter
func (tm *TileManager) GetTileKeyFromLetter(letter string) (string, bool) {
	key, ok := tm.letterToKey[letter]
	return key, ok
}

// GetLetterFromTileKey returns the map letter of a tile key
func (tm *TileManager) GetLetterFromTileKey(key string) string {
	return tm.keyToLetter[key]
}

// IsWalkable reports whether a tile key is passable. Unknown keys are not.
func (tm *TileManager) IsWalkable(key string) bool {
	if td, ok := tm.tileData[key]; ok {
		return td.Walkable
	}
	return false
}

// GetColor returns the display colour of a tile key
func (tm *TileManager) GetColor(key string) [3]int {
	if td, ok := tm.tileData[key]; ok {
		return td.Color
	}
	return [3]int{255, 0, 255}
}

// GetAllTileKeys returns every key in sorted order
func (tm *TileManager) GetAllTileKeys() []string {
	keys := make([]string, 0, len(tm.tileData))
	for key := range tm.tileData {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// HasTileKey checks if a tile key exists
func (tm *TileManager) HasTileKey(key string) bool {
	_, exists := tm.tileData[key]
	return exists
}
