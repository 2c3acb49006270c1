// Package persistence provides SQLite-based world state storage: villagers,
// buildings, depot stock, the event log, and a compressed blob of the
// generated tile cache.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/hamlet/internal/construct"
	"github.com/talgya/hamlet/internal/sim"
	"github.com/talgya/hamlet/internal/villager"
	"github.com/talgya/hamlet/internal/world"
)

// DB wraps a SQLite connection for world state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS villagers (
		id INTEGER PRIMARY KEY,
		pos_x INTEGER NOT NULL,
		pos_y INTEGER NOT NULL,
		personality INTEGER NOT NULL,
		mood INTEGER NOT NULL,
		role INTEGER NOT NULL,
		age INTEGER NOT NULL,
		home_x INTEGER,
		home_y INTEGER,
		born_tick INTEGER NOT NULL,
		inventory_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS buildings (
		id INTEGER PRIMARY KEY,
		kind INTEGER NOT NULL,
		pos_x INTEGER NOT NULL,
		pos_y INTEGER NOT NULL,
		effort INTEGER NOT NULL,
		complete INTEGER NOT NULL,
		delivered_json TEXT NOT NULL,
		residents_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tick INTEGER NOT NULL,
		category TEXT NOT NULL,
		description TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tile_cache (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		blob BLOB NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_tick ON events(tick);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveVillagers writes all villagers to the database (full replace).
func (db *DB) SaveVillagers(vs []*villager.Villager) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM villagers"); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO villagers
		(id, pos_x, pos_y, personality, mood, role, age, home_x, home_y,
		 born_tick, inventory_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, v := range vs {
		invJSON, _ := json.Marshal(v.Inventory)

		var homeX, homeY any
		if v.Home != nil {
			homeX, homeY = v.Home.X, v.Home.Y
		}

		_, err := stmt.Exec(
			v.ID, v.Position.X, v.Position.Y,
			v.Personality, v.Mood, v.Role, v.Age,
			homeX, homeY, v.BornTick, string(invJSON),
		)
		if err != nil {
			return fmt.Errorf("insert villager %d: %w", v.ID, err)
		}
	}

	return tx.Commit()
}

// LoadVillagers reads all persisted villagers. Transient state (jobs,
// paths, cooldowns) is not stored; restored villagers wake up idle.
func (db *DB) LoadVillagers() ([]*villager.Villager, error) {
	rows, err := db.conn.Queryx(`SELECT id, pos_x, pos_y, personality, mood,
		role, age, home_x, home_y, born_tick, inventory_json
		FROM villagers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*villager.Villager
	for rows.Next() {
		var (
			id, posX, posY, personality, mood, role, age int
			homeX, homeY                                 *int
			bornTick                                     uint64
			invJSON                                      string
		)
		if err := rows.Scan(&id, &posX, &posY, &personality, &mood, &role,
			&age, &homeX, &homeY, &bornTick, &invJSON); err != nil {
			return nil, err
		}

		v := &villager.Villager{
			ID:          villager.ID(id),
			Position:    world.Coord{X: posX, Y: posY},
			Personality: villager.Personality(personality),
			Mood:        villager.Mood(mood),
			Role:        villager.Role(role),
			Age:         uint16(age),
			BornTick:    bornTick,
		}
		if err := json.Unmarshal([]byte(invJSON), &v.Inventory); err != nil {
			return nil, fmt.Errorf("villager %d inventory: %w", id, err)
		}
		if homeX != nil && homeY != nil {
			v.Home = &world.Coord{X: *homeX, Y: *homeY}
		}
		v.RefreshDerived()
		out = append(out, v)
	}
	return out, rows.Err()
}

// SaveBuildings writes all buildings to the database (full replace).
func (db *DB) SaveBuildings(bs []*construct.Building) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM buildings"); err != nil {
		return err
	}

	for _, b := range bs {
		deliveredJSON, _ := json.Marshal(b.Delivered)
		residentsJSON, _ := json.Marshal(b.Residents)

		complete := 0
		if b.Complete {
			complete = 1
		}

		_, err := tx.Exec(`INSERT INTO buildings
			(id, kind, pos_x, pos_y, effort, complete, delivered_json, residents_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			b.ID, b.Kind, b.Position.X, b.Position.Y, b.Effort, complete,
			string(deliveredJSON), string(residentsJSON),
		)
		if err != nil {
			return fmt.Errorf("insert building %d: %w", b.ID, err)
		}
	}

	return tx.Commit()
}

// LoadBuildings reads all persisted buildings in placement order.
func (db *DB) LoadBuildings() ([]*construct.Building, error) {
	rows, err := db.conn.Queryx(`SELECT id, kind, pos_x, pos_y, effort,
		complete, delivered_json, residents_json FROM buildings ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*construct.Building
	for rows.Next() {
		var (
			id                          uint64
			kind, posX, posY, effort    int
			complete                    int
			deliveredJSON, residentJSON string
		)
		if err := rows.Scan(&id, &kind, &posX, &posY, &effort, &complete,
			&deliveredJSON, &residentJSON); err != nil {
			return nil, err
		}

		b := &construct.Building{
			ID:       id,
			Kind:     construct.Kind(kind),
			Position: world.Coord{X: posX, Y: posY},
			Effort:   effort,
			Complete: complete != 0,
		}
		if err := json.Unmarshal([]byte(deliveredJSON), &b.Delivered); err != nil {
			return nil, fmt.Errorf("building %d delivered: %w", id, err)
		}
		if err := json.Unmarshal([]byte(residentJSON), &b.Residents); err != nil {
			return nil, fmt.Errorf("building %d residents: %w", id, err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// SaveEvents appends events to the database.
func (db *DB) SaveEvents(events []sim.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.Exec(
			"INSERT INTO events (tick, category, description) VALUES (?, ?, ?)",
			e.Tick, e.Category, e.Description,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecentEvents returns the most recent N events, newest first.
func (db *DB) RecentEvents(limit int) ([]sim.Event, error) {
	var events []sim.Event
	err := db.conn.Select(&events,
		"SELECT tick, category, description FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	return events, err
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// SaveWorldState performs a full save of all world state.
func (db *DB) SaveWorldState(s *sim.Simulation) error {
	slog.Info("saving world state",
		"tick", s.CurrentTick(),
		"villagers", len(s.Villagers),
		"buildings", len(s.Construction.Buildings()),
	)

	if err := db.SaveVillagers(s.Villagers); err != nil {
		return fmt.Errorf("save villagers: %w", err)
	}
	if err := db.SaveBuildings(s.Construction.Buildings()); err != nil {
		return fmt.Errorf("save buildings: %w", err)
	}
	if err := db.SaveEvents(s.DrainEvents()); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	if err := db.SaveTiles(s.Map.Tiles()); err != nil {
		return fmt.Errorf("save tiles: %w", err)
	}

	var depot []int
	for _, qty := range s.Depot.Stock {
		depot = append(depot, qty)
	}
	depotJSON, _ := json.Marshal(depot)
	if err := db.SaveMeta("depot", string(depotJSON)); err != nil {
		return fmt.Errorf("save depot: %w", err)
	}
	if err := db.SaveMeta("seed", strconv.FormatInt(s.Cfg.Seed, 10)); err != nil {
		return fmt.Errorf("save seed: %w", err)
	}
	if err := db.SaveMeta("last_tick", strconv.FormatUint(s.CurrentTick(), 10)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	slog.Info("world state saved")
	return nil
}

// RestoreWorldState loads a previous save into the simulation, replacing
// its bootstrap state. Returns false when the database holds no save.
func (db *DB) RestoreWorldState(s *sim.Simulation) (bool, error) {
	raw, err := db.GetMeta("last_tick")
	if err != nil {
		return false, nil // fresh database
	}
	tick, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("last_tick %q: %w", raw, err)
	}

	if seedRaw, err := db.GetMeta("seed"); err == nil {
		saved, err := strconv.ParseInt(seedRaw, 10, 64)
		if err == nil && saved != s.Cfg.Seed {
			return false, fmt.Errorf("saved world has seed %d, config wants %d", saved, s.Cfg.Seed)
		}
	}

	tiles, err := db.LoadTiles()
	if err != nil {
		return false, fmt.Errorf("load tiles: %w", err)
	}
	buildings, err := db.LoadBuildings()
	if err != nil {
		return false, fmt.Errorf("load buildings: %w", err)
	}
	vs, err := db.LoadVillagers()
	if err != nil {
		return false, fmt.Errorf("load villagers: %w", err)
	}

	var depot [world.NumResources]int
	if depotRaw, err := db.GetMeta("depot"); err == nil {
		var stock []int
		if err := json.Unmarshal([]byte(depotRaw), &stock); err != nil {
			return false, fmt.Errorf("depot meta: %w", err)
		}
		for i, qty := range stock {
			if i < len(depot) {
				depot[i] = qty
			}
		}
	}

	s.Restore(tiles, buildings, vs, depot, tick)
	return true, nil
}
