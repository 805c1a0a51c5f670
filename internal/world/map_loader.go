package world

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gridwalk/internal/logging"

	"github.com/sirupsen/logrus"
)

// Map file syntax, one row of render tiles per line:
//
//	# comment
//	WWWWWW
//	W+.@.W  >[obstacle:crate 2x1]
//	W.@@.W  >[actor:villager], [actor:ox]
//	WWWWWW
//
// '+' marks the start tile, '@' is a floor tile that takes the next
// definition after "  >" on the same line. Other letters come from the tile
// table.

// FloorKey is the tile key used for '+' and '@' cells
const FloorKey = "floor"

// ObstacleSpawn is a static obstacle in render tiles
type ObstacleSpawn struct {
	X, Y int
	W, H int
	Key  string
}

// ActorSpawn places an actor archetype on a render tile
type ActorSpawn struct {
	X, Y int
	Key  string
}

// MapData contains the loaded map information in render tiles
type MapData struct {
	Width       int
	Height      int
	Tiles       [][]string // tile keys
	Passable    [][]bool
	Obstacles   []ObstacleSpawn
	ActorSpawns []ActorSpawn
	StartX      int
	StartY      int
}

// IsPassable reports whether a render tile is walkable. Tiles off the map
// are not.
func (md *MapData) IsPassable(x, y int) bool {
	if x < 0 || y < 0 || x >= md.Width || y >= md.Height {
		return false
	}
	return md.Passable[y][x]
}

// MapLoader handles loading world maps from files
type MapLoader struct {
	tiles *TileManager
	log   *logrus.Entry
}

// NewMapLoader creates a map loader resolving letters through tiles
func NewMapLoader(tiles *TileManager) *MapLoader {
	return &MapLoader{tiles: tiles, log: logging.For("maploader")}
}

// LoadMap loads a map from the specified file path
func (ml *MapLoader) LoadMap(mapPath string) (*MapData, error) {
	file, err := os.Open(mapPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open map file %s: %w", mapPath, err)
	}
	defer file.Close()

	md, err := ml.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("failed to load map %s: %w", mapPath, err)
	}
	ml.log.WithFields(logrus.Fields{
		"file":      mapPath,
		"width":     md.Width,
		"height":    md.Height,
		"obstacles": len(md.Obstacles),
		"actors":    len(md.ActorSpawns),
	}).Debug("map loaded")
	return md, nil
}

// Parse reads a map from r
func (ml *MapLoader) Parse(r io.Reader) (*MapData, error) {
	md := &MapData{StartX: -1, StartY: -1}
	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		// Skip empty lines and comment lines (lines starting with #)
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := ml.parseRow(md, line); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading map file: %w", err)
	}
	if md.Height == 0 {
		return nil, fmt.Errorf("map file contains no valid map data")
	}

	for _, ob := range md.Obstacles {
		if ob.X+ob.W > md.Width || ob.Y+ob.H > md.Height {
			return nil, fmt.Errorf("obstacle %q at (%d,%d) size %dx%d leaves the map", ob.Key, ob.X, ob.Y, ob.W, ob.H)
		}
	}
	return md, nil
}

func (ml *MapLoader) parseRow(md *MapData, line string) error {
	tilesPart := line
	definitions := ""
	if sep := strings.Index(line, "  >"); sep != -1 {
		tilesPart = line[:sep]
		definitions = line[sep+3:]
	}
	tilesPart = strings.TrimRight(tilesPart, " ")

	cells := []rune(tilesPart)
	if md.Height > 0 && len(cells) != md.Width {
		return fmt.Errorf("inconsistent width: expected %d, got %d", md.Width, len(cells))
	}
	y := md.Height
	md.Width = len(cells)

	keys := make([]string, len(cells))
	passable := make([]bool, len(cells))
	var placeholders []int

	for x, c := range cells {
		switch c {
		case '+':
			md.StartX, md.StartY = x, y
			keys[x] = FloorKey
			passable[x] = true
		case '@':
			placeholders = append(placeholders, x)
			keys[x] = FloorKey
			passable[x] = true
		default:
			key, ok := ml.tiles.GetTileKeyFromLetter(string(c))
			if !ok {
				return fmt.Errorf("unknown tile letter %q at column %d", c, x)
			}
			keys[x] = key
			passable[x] = ml.tiles.IsWalkable(key)
		}
	}

	defs := splitDefinitions(definitions)
	if len(defs) > len(placeholders) {
		return fmt.Errorf("%d definitions but only %d '@' placeholders", len(defs), len(placeholders))
	}
	for i, def := range defs {
		if err := ml.applyDefinition(md, def, placeholders[i], y); err != nil {
			return err
		}
	}

	md.Tiles = append(md.Tiles, keys)
	md.Passable = append(md.Passable, passable)
	md.Height++
	return nil
}

func splitDefinitions(s string) []string {
	var defs []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(part), ">"))
		if part != "" {
			defs = append(defs, part)
		}
	}
	return defs
}

// applyDefinition handles "[obstacle:key WxH]" and "[actor:key]"
func (ml *MapLoader) applyDefinition(md *MapData, def string, x, y int) error {
	if !strings.HasPrefix(def, "[") || !strings.HasSuffix(def, "]") {
		return fmt.Errorf("malformed definition %q", def)
	}
	body := def[1 : len(def)-1]
	kind, rest, ok := strings.Cut(body, ":")
	if !ok {
		return fmt.Errorf("malformed definition %q", def)
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return fmt.Errorf("definition %q has no key", def)
	}

	switch kind {
	case "obstacle":
		w, h := 1, 1
		if len(fields) > 1 {
			var err error
			if w, h, err = parseSize(fields[1]); err != nil {
				return fmt.Errorf("obstacle %q: %w", fields[0], err)
			}
		}
		md.Obstacles = append(md.Obstacles, ObstacleSpawn{X: x, Y: y, W: w, H: h, Key: fields[0]})
	case "actor":
		md.ActorSpawns = append(md.ActorSpawns, ActorSpawn{X: x, Y: y, Key: fields[0]})
	default:
		return fmt.Errorf("unknown definition kind %q", kind)
	}
	return nil
}

func parseSize(s string) (int, int, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("size %q is not WxH", s)
	}
	w, err := strconv.Atoi(ws)
	if err != nil {
		return 0, 0, fmt.Errorf("size %q: %w", s, err)
	}
	h, err := strconv.Atoi(hs)
	if err != nil {
		return 0, 0, fmt.Errorf("size %q: %w", s, err)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("size %q must be positive", s)
	}
	return w, h, nil
}
