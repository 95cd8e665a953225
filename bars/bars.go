package bars

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	sanitize "github.com/mrz1836/go-sanitize"
	"golang.org/x/sync/errgroup"

	"brestbar/app"
	"brestbar/data"
)

// sourceURL is the remote venue source. It returns a JSON envelope with a
// `data` array of bar records. Any failure reads as an empty collection.
const sourceURL = "https://api.brest.bar/items/bars"

const refreshInterval = 1 * time.Hour

// cacheFile is the data-store key for the last fetched collection, used to
// warm the next startup before the remote source responds.
const cacheFile = "bars.json"

// Bar represents one venue from the remote source. Bars are immutable once
// fetched; the only write path is the bulk replace in SetBars.
type Bar struct {
	ID           int      `json:"id"`
	Name         string   `json:"name"`
	Address      string   `json:"address"`
	Phone        string   `json:"international_phone_number"`
	OpeningHours string   `json:"opening_hours"`
	Rating       float64  `json:"rating"`
	ReviewCount  int      `json:"user_ratings_total"`
	Location     GeoPoint `json:"location"`
	Website      string   `json:"website"`
	MapsURL      string   `json:"maps_url"`

	// Distance in km from the reference point, set when sorting by proximity
	Distance float64 `json:"distance,omitempty"`
}

// GeoPoint is a GeoJSON-style coordinate pair, longitude first.
type GeoPoint struct {
	Coordinates [2]float64 `json:"coordinates"`
}

// Lat returns the latitude of the bar.
func (b *Bar) Lat() float64 { return b.Location.Coordinates[1] }

// Lon returns the longitude of the bar.
func (b *Bar) Lon() float64 { return b.Location.Coordinates[0] }

type envelope struct {
	Data []*Bar `json:"data"`
}

var (
	mutex     sync.RWMutex
	barData   []*Bar
	lastFetch time.Time
)

// httpClient is the shared HTTP client with timeout
var httpClient = &http.Client{Timeout: 15 * time.Second}

// Load initialises the bars package: warms state from the on-disk cache,
// kicks off the initial remote fetch, and starts the hourly refresh.
func Load() {
	app.BarStatsFunc = Stats

	var cached []*Bar
	if err := data.LoadJSON(cacheFile, &cached); err == nil && len(cached) > 0 {
		SetBars(cached)
		app.Log("bars", "Loaded %d bars from cache", len(cached))
	}

	go refresh()
	go startRefresh()
}

// refresh fetches the remote collection and atomically replaces the session
// state. Fetch failures are logged and leave the current state untouched.
func refresh() {
	fetched, err := fetchBars()
	if err != nil {
		app.Log("bars", "Fetch failed: %v", err)
		return
	}
	if len(fetched) == 0 {
		app.Log("bars", "Fetch returned no bars")
		return
	}

	SetBars(fetched)

	if err := data.SaveJSON(cacheFile, fetched); err != nil {
		app.Log("bars", "Cache save failed: %v", err)
	}
	app.Log("bars", "Loaded %d bars from source", len(fetched))
}

// startRefresh re-fetches the collection on a fixed interval so the session
// state tracks the remote source.
func startRefresh() {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()
	for range ticker.C {
		refresh()
	}
}

// fetchBars performs the one-shot GET against the remote venue source.
func fetchBars() ([]*Bar, error) {
	req, err := http.NewRequest("GET", sourceURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := httpClient.Do(req)
	if err != nil {
		app.RecordAPICall("brest.bar", "GET", sourceURL, 0, time.Since(start), err)
		return nil, fmt.Errorf("bar source request failed: %w", err)
	}
	defer resp.Body.Close()
	app.RecordAPICall("brest.bar", "GET", sourceURL, resp.StatusCode, time.Since(start), nil)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bar source returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("bar source parse: %w", err)
	}

	bars := make([]*Bar, 0, len(env.Data))
	for _, b := range env.Data {
		if b == nil || b.Name == "" {
			continue
		}
		cleanBar(b)
		bars = append(bars, b)
	}
	return bars, nil
}

// cleanBar normalizes venue-supplied fields in place. URLs are restricted to
// http(s) so attacker-controlled venue data can never smuggle a scheme into
// a link target.
func cleanBar(b *Bar) {
	b.Name = strings.TrimSpace(b.Name)
	b.Address = strings.TrimSpace(b.Address)
	b.Phone = strings.TrimSpace(b.Phone)
	b.Website = cleanURL(b.Website)
	b.MapsURL = cleanURL(b.MapsURL)
}

// cleanURL sanitizes a venue-supplied URL, returning "" unless the result is
// a well-formed http(s) URL.
func cleanURL(raw string) string {
	u := sanitize.URL(strings.TrimSpace(raw))
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	return ""
}

// SetBars atomically replaces the session collection, rebuilds the geo and
// text indexes, and notifies live clients.
func SetBars(bars []*Bar) {
	mutex.Lock()
	barData = bars
	lastFetch = time.Now()
	mutex.Unlock()

	var g errgroup.Group
	g.Go(func() error {
		buildTree(bars)
		return nil
	})
	g.Go(func() error {
		return indexBars(bars)
	})
	if err := g.Wait(); err != nil {
		app.Log("bars", "Index rebuild failed: %v", err)
	}

	broadcastRefresh()
}

// Bars returns the current session collection. The slice is shared and
// read-only; bars are never mutated after SetBars.
func Bars() []*Bar {
	mutex.RLock()
	defer mutex.RUnlock()
	return barData
}

// Get returns the bar with the given id, or nil.
func Get(id int) *Bar {
	mutex.RLock()
	defer mutex.RUnlock()
	for _, b := range barData {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// Stats reports collection and index counts for the status page.
func Stats() (int, int, time.Time) {
	mutex.RLock()
	count := len(barData)
	last := lastFetch
	mutex.RUnlock()
	return count, indexedCount(), last
}
