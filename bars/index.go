package bars

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/asim/quadtree"
	_ "modernc.org/sqlite"
)

// schemaVersion is the current bars database schema version. Bumping it
// wipes the index on the next startup so rows from an incompatible schema
// cannot shadow fresh data.
const schemaVersion = "v1"

var (
	barsDB    *sql.DB
	barsDBMu  sync.Mutex
	barsDBOne sync.Once

	treeMu sync.RWMutex
	qtree  *quadtree.QuadTree
)

// buildTree replaces the in-memory geo index with one over the given bars.
func buildTree(bars []*Bar) {
	// Global quadtree: covers the whole world (lat ±90, lon ±180)
	center := quadtree.NewPoint(0, 0, nil)
	half := quadtree.NewPoint(90, 180, nil)
	tree := quadtree.New(quadtree.NewAABB(center, half), 0, nil)

	for _, b := range bars {
		tree.Insert(quadtree.NewPoint(b.Lat(), b.Lon(), b))
	}

	treeMu.Lock()
	qtree = tree
	treeMu.Unlock()
}

// Nearby returns the bars within radiusM metres of a point, nearest first,
// with Distance set in kilometres. Returns nil before the first index build.
func Nearby(lat, lon float64, radiusM int) []*Bar {
	treeMu.RLock()
	defer treeMu.RUnlock()

	if qtree == nil {
		return nil
	}

	center := quadtree.NewPoint(lat, lon, nil)
	half := center.HalfPoint(float64(radiusM))
	points := qtree.Search(quadtree.NewAABB(center, half))

	radiusKm := float64(radiusM) / 1000

	results := make([]*Bar, 0, len(points))
	for _, pt := range points {
		b, ok := pt.Data().(*Bar)
		if !ok {
			continue
		}
		dist := Distance(lat, lon, b.Lat(), b.Lon())
		if dist > radiusKm {
			continue // bounding box is approximate; filter to actual radius
		}
		bCopy := *b
		bCopy.Distance = dist
		results = append(results, &bCopy)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	return results
}

// initBarsDB opens (or creates) the dedicated bars SQLite database.
func initBarsDB() error {
	var initErr error
	barsDBOne.Do(func() {
		dir := os.ExpandEnv("$HOME/.brestbar")
		dbPath := filepath.Join(dir, "data", "bars.db")
		os.MkdirAll(filepath.Dir(dbPath), 0700)

		var err error
		barsDB, err = sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=10000")
		if err != nil {
			initErr = fmt.Errorf("bars db open: %w", err)
			return
		}
		barsDB.SetMaxOpenConns(4)
		barsDB.SetMaxIdleConns(4)

		var storedVer string
		_ = barsDB.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&storedVer)
		if storedVer != schemaVersion {
			if _, err = barsDB.Exec(`DROP TABLE IF EXISTS bars_fts`); err != nil {
				initErr = fmt.Errorf("bars db wipe fts: %w", err)
				return
			}
			if _, err = barsDB.Exec(`DROP TABLE IF EXISTS bars`); err != nil {
				initErr = fmt.Errorf("bars db wipe bars: %w", err)
				return
			}
			if _, err = barsDB.Exec(`DROP TABLE IF EXISTS schema_version`); err != nil {
				initErr = fmt.Errorf("bars db wipe version: %w", err)
				return
			}
		}

		_, err = barsDB.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (
				version TEXT NOT NULL
			);
			CREATE TABLE IF NOT EXISTS bars (
				id            INTEGER PRIMARY KEY,
				name          TEXT NOT NULL,
				category      TEXT,
				address       TEXT,
				phone         TEXT,
				website       TEXT,
				maps_url      TEXT,
				opening_hours TEXT,
				rating        REAL,
				review_count  INTEGER,
				lat           REAL NOT NULL,
				lon           REAL NOT NULL,
				indexed_at    DATETIME DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_bars_lat ON bars(lat);
			CREATE INDEX IF NOT EXISTS idx_bars_lon ON bars(lon);

			CREATE VIRTUAL TABLE IF NOT EXISTS bars_fts USING fts5(
				id       UNINDEXED,
				name,
				category,
				address,
				tokenize='unicode61 remove_diacritics 1'
			);
		`)
		if err != nil {
			initErr = fmt.Errorf("bars db schema: %w", err)
			return
		}

		if storedVer != schemaVersion {
			if _, err = barsDB.Exec(`INSERT INTO schema_version (version) VALUES (?)`, schemaVersion); err != nil {
				initErr = fmt.Errorf("bars db version insert: %w", err)
				return
			}
		}
	})
	return initErr
}

// getBarsDB returns the shared bars database, initialising it if needed.
func getBarsDB() (*sql.DB, error) {
	if err := initBarsDB(); err != nil {
		return nil, err
	}
	return barsDB, nil
}

// indexBars batch-upserts bars into the SQLite table and FTS index.
func indexBars(bars []*Bar) error {
	if len(bars) == 0 {
		return nil
	}
	db, err := getBarsDB()
	if err != nil {
		return err
	}

	barsDBMu.Lock()
	defer barsDBMu.Unlock()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("indexBars: begin tx: %w", err)
	}

	mainStmt, err := tx.Prepare(`
		INSERT INTO bars (id, name, category, address, phone, website, maps_url, opening_hours, rating, review_count, lat, lon)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name, category=excluded.category, address=excluded.address,
			phone=excluded.phone, website=excluded.website, maps_url=excluded.maps_url,
			opening_hours=excluded.opening_hours, rating=excluded.rating,
			review_count=excluded.review_count, lat=excluded.lat, lon=excluded.lon,
			indexed_at=CURRENT_TIMESTAMP
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("indexBars: prepare: %w", err)
	}
	defer mainStmt.Close()

	ftsDelStmt, err := tx.Prepare(`DELETE FROM bars_fts WHERE id = ?`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("indexBars: prepare fts del: %w", err)
	}
	defer ftsDelStmt.Close()

	ftsInsStmt, err := tx.Prepare(`INSERT INTO bars_fts (id, name, category, address) VALUES (?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("indexBars: prepare fts ins: %w", err)
	}
	defer ftsInsStmt.Close()

	for _, b := range bars {
		category := string(Classify(b.Name))
		if _, err := mainStmt.Exec(b.ID, b.Name, category, b.Address, b.Phone,
			b.Website, b.MapsURL, b.OpeningHours, b.Rating, b.ReviewCount,
			b.Lat(), b.Lon()); err != nil {
			tx.Rollback()
			return fmt.Errorf("indexBars: insert %d: %w", b.ID, err)
		}
		ftsDelStmt.Exec(b.ID)
		if _, err := ftsInsStmt.Exec(b.ID, b.Name, category, b.Address); err != nil {
			tx.Rollback()
			return fmt.Errorf("indexBars: fts insert %d: %w", b.ID, err)
		}
	}

	// The batch is the full collection, so rows absent from it are venues the
	// source no longer returns. Drop them in the same transaction.
	args := make([]interface{}, len(bars))
	placeholders := make([]string, len(bars))
	for i, b := range bars {
		args[i] = b.ID
		placeholders[i] = "?"
	}
	in := strings.Join(placeholders, ",")
	if _, err := tx.Exec(`DELETE FROM bars WHERE id NOT IN (`+in+`)`, args...); err != nil {
		tx.Rollback()
		return fmt.Errorf("indexBars: prune: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM bars_fts WHERE id NOT IN (`+in+`)`, args...); err != nil {
		tx.Rollback()
		return fmt.Errorf("indexBars: prune fts: %w", err)
	}

	if err := tx.Commit(); err != nil {
		tx.Rollback()
		return fmt.Errorf("indexBars: commit: %w", err)
	}
	return nil
}

// sanitizeFTSQuery converts a raw query into a safe FTS5 MATCH expression.
// Each word is treated as a quoted literal prefix match.
func sanitizeFTSQuery(q string) string {
	q = strings.Map(func(r rune) rune {
		switch r {
		case '"', '\'', '(', ')', '*', '+', '^', '-', '~', ':', '.':
			return ' '
		}
		return r
	}, q)
	words := strings.Fields(q)
	if len(words) == 0 {
		return ""
	}
	for i, w := range words {
		words[i] = `"` + strings.ToLower(w) + `"*`
	}
	return strings.Join(words, " ")
}

// searchBars searches the local SQLite FTS index by name, category and
// address. An empty or unusable query returns nil.
func searchBars(query string) ([]*Bar, error) {
	db, err := getBarsDB()
	if err != nil {
		return nil, err
	}

	ftsQ := sanitizeFTSQuery(query)
	if ftsQ == "" {
		return nil, nil
	}

	rows, err := db.Query(`
		SELECT b.id, b.name, b.address, b.phone, b.website, b.maps_url,
		       b.opening_hours, b.rating, b.review_count, b.lat, b.lon
		FROM bars b
		WHERE b.id IN (SELECT id FROM bars_fts WHERE bars_fts MATCH ?)
		LIMIT 500`, ftsQ)
	if err != nil {
		return nil, fmt.Errorf("bars FTS query: %w", err)
	}
	defer rows.Close()

	var result []*Bar
	for rows.Next() {
		b := &Bar{}
		var lat, lon float64
		if err := rows.Scan(&b.ID, &b.Name, &b.Address, &b.Phone, &b.Website,
			&b.MapsURL, &b.OpeningHours, &b.Rating, &b.ReviewCount, &lat, &lon); err != nil {
			continue
		}
		b.Location.Coordinates = [2]float64{lon, lat}
		result = append(result, b)
	}
	return result, nil
}

// indexedCount returns the number of rows in the bars index.
func indexedCount() int {
	db, err := getBarsDB()
	if err != nil {
		return 0
	}
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM bars`).Scan(&count); err != nil {
		return 0
	}
	return count
}
