package app

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"os"
	"runtime"
	"strings"
	"time"
)

var startTime = time.Now()

// BarStatsFunc is injected by the bars package to avoid an import cycle
var BarStatsFunc func() (bars, indexed int, lastFetch time.Time)

// StatusCheck represents a single status check result
type StatusCheck struct {
	Name    string `json:"name"`
	Status  bool   `json:"status"`
	Details string `json:"details,omitempty"`
}

// StatusResponse represents the full status response
type StatusResponse struct {
	Healthy   bool          `json:"healthy"`
	Uptime    string        `json:"uptime"`
	GoVersion string        `json:"go_version"`
	Memory    MemoryStatus  `json:"memory"`
	Bars      BarStatus     `json:"bars"`
	Config    []StatusCheck `json:"config"`
}

// BarStatus represents the state of the bar collection and index
type BarStatus struct {
	Count     int    `json:"count"`
	Indexed   int    `json:"indexed"`
	LastFetch string `json:"last_fetch,omitempty"`
}

// MemoryStatus represents memory usage
type MemoryStatus struct {
	Alloc      uint64 `json:"alloc_mb"`
	Sys        uint64 `json:"sys_mb"`
	NumGC      uint32 `json:"num_gc"`
	Goroutines int    `json:"goroutines"`
}

// StatusHandler handles the /status endpoint
func StatusHandler(w http.ResponseWriter, r *http.Request) {
	// Quick health check endpoint
	if r.URL.Query().Get("quick") == "1" {
		w.Header().Set("Content-Type", "application/json")
		status := buildStatus()
		json.NewEncoder(w).Encode(map[string]interface{}{
			"healthy": status.Healthy,
			"bars":    status.Bars.Count,
		})
		return
	}

	status := buildStatus()

	if WantsJSON(r) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(status)
		return
	}

	page := renderStatusHTML(status)
	Respond(w, r, Response{
		Title:       "Status",
		Description: "Server status and health checks",
		HTML:        page,
	})
}

func buildStatus() StatusResponse {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	config := []StatusCheck{{
		Name:   "Map token",
		Status: os.Getenv("MAP_TOKEN") != "",
	}}

	bars := BarStatus{}
	if BarStatsFunc != nil {
		count, indexed, last := BarStatsFunc()
		bars.Count = count
		bars.Indexed = indexed
		if !last.IsZero() {
			bars.LastFetch = last.Format(time.RFC3339)
		}
		config = append(config, StatusCheck{
			Name:    "Bar source",
			Status:  count > 0,
			Details: fmt.Sprintf("%d bars loaded", count),
		})
	}

	healthy := true
	for _, c := range config {
		if !c.Status {
			healthy = false
		}
	}

	return StatusResponse{
		Healthy:   healthy,
		Uptime:    time.Since(startTime).Round(time.Second).String(),
		GoVersion: runtime.Version(),
		Memory: MemoryStatus{
			Alloc:      m.Alloc / 1024 / 1024,
			Sys:        m.Sys / 1024 / 1024,
			NumGC:      m.NumGC,
			Goroutines: runtime.NumGoroutine(),
		},
		Bars:   bars,
		Config: config,
	}
}

func renderStatusHTML(status StatusResponse) string {
	var sb strings.Builder

	state := "OK"
	if !status.Healthy {
		state = "DEGRADED"
	}
	sb.WriteString(fmt.Sprintf(`<h2>Status: %s</h2>`, state))
	sb.WriteString(fmt.Sprintf(`<p class="text-muted">Uptime %s &middot; %s</p>`, status.Uptime, status.GoVersion))

	sb.WriteString(`<h3>Bars</h3>`)
	sb.WriteString(fmt.Sprintf(`<p>%d loaded, %d indexed`, status.Bars.Count, status.Bars.Indexed))
	if status.Bars.LastFetch != "" {
		sb.WriteString(fmt.Sprintf(`, last fetch %s`, status.Bars.LastFetch))
	}
	sb.WriteString(`</p>`)

	sb.WriteString(`<h3>Config</h3><ul>`)
	for _, c := range status.Config {
		mark := "&#10003;"
		if !c.Status {
			mark = "&#10007;"
		}
		sb.WriteString(fmt.Sprintf(`<li>%s %s`, mark, c.Name))
		if c.Details != "" {
			sb.WriteString(` <span class="text-muted">` + c.Details + `</span>`)
		}
		sb.WriteString(`</li>`)
	}
	sb.WriteString(`</ul>`)

	sb.WriteString(fmt.Sprintf(`<h3>Memory</h3><p>%dMB alloc / %dMB sys / %d goroutines / %d GCs</p>`,
		status.Memory.Alloc, status.Memory.Sys, status.Memory.Goroutines, status.Memory.NumGC))

	sb.WriteString(`<h3>Source calls</h3><div class="syslog">`)
	calls := GetAPILog()
	if len(calls) > 10 {
		calls = calls[:10]
	}
	for _, c := range calls {
		line := fmt.Sprintf(`%s %s %s %d (%s)`,
			c.Time.Format("15:04:05"), c.Method, c.Service, c.Status, c.Duration.Round(time.Millisecond))
		if c.Error != "" {
			line += " " + c.Error
		}
		sb.WriteString(`<p class="text-muted">` + html.EscapeString(line) + `</p>`)
	}
	sb.WriteString(`</div>`)

	sb.WriteString(`<h3>Log</h3><div class="syslog">`)
	entries := GetSysLog()
	if len(entries) > 50 {
		entries = entries[:50]
	}
	for _, e := range entries {
		sb.WriteString(fmt.Sprintf(`<p class="text-muted">%s [%s] %s</p>`,
			e.Time.Format("15:04:05"), e.Package, html.EscapeString(e.Message)))
	}
	sb.WriteString(`</div>`)

	return sb.String()
}
