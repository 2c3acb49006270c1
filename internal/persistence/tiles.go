package persistence

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/talgya/hamlet/internal/world"
)

// SaveTiles stores the generated-tile cache as one zstd-compressed gob
// blob. Tile rows would dwarf the rest of the database; the cache
// compresses to a few percent of its in-memory size.
func (db *DB) SaveTiles(tiles map[world.Coord]world.Tile) error {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	if err != nil {
		return fmt.Errorf("zstd writer: %w", err)
	}
	if err := gob.NewEncoder(enc).Encode(tiles); err != nil {
		enc.Close()
		return fmt.Errorf("encode tiles: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("flush tiles: %w", err)
	}

	_, err = db.conn.Exec(
		"INSERT OR REPLACE INTO tile_cache (id, blob) VALUES (1, ?)",
		buf.Bytes(),
	)
	return err
}

// LoadTiles reads the tile cache back. A missing blob yields an empty map:
// the terrain oracle regenerates tiles on demand, losing only extraction
// history, so this is recoverable rather than fatal.
func (db *DB) LoadTiles() (map[world.Coord]world.Tile, error) {
	var blob []byte
	if err := db.conn.Get(&blob, "SELECT blob FROM tile_cache WHERE id = 1"); err != nil {
		return map[world.Coord]world.Tile{}, nil
	}

	dec, err := zstd.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()

	tiles := make(map[world.Coord]world.Tile)
	if err := gob.NewDecoder(dec).Decode(&tiles); err != nil {
		return nil, fmt.Errorf("decode tiles: %w", err)
	}
	return tiles, nil
}
