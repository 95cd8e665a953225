package app

import (
	"sync"
	"time"
)

// apiLogMaxEntries bounds the upstream call log; the only caller today is
// the hourly bar-source fetch, so this covers weeks of history.
const apiLogMaxEntries = 200

// APILogEntry records one call to an upstream service.
type APILogEntry struct {
	Time     time.Time
	Service  string
	Method   string
	URL      string
	Status   int
	Duration time.Duration
	Error    string
}

var (
	apiLogMu      sync.Mutex
	apiLogEntries []*APILogEntry
)

// RecordAPICall appends an upstream call record, dropping the oldest entries
// beyond apiLogMaxEntries.
func RecordAPICall(service, method, url string, status int, duration time.Duration, callErr error) {
	entry := &APILogEntry{
		Time:     time.Now(),
		Service:  service,
		Method:   method,
		URL:      url,
		Status:   status,
		Duration: duration,
	}
	if callErr != nil {
		entry.Error = callErr.Error()
	}

	apiLogMu.Lock()
	apiLogEntries = append(apiLogEntries, entry)
	if n := len(apiLogEntries) - apiLogMaxEntries; n > 0 {
		apiLogEntries = apiLogEntries[n:]
	}
	apiLogMu.Unlock()
}

// GetAPILog returns the upstream call log, most recent first.
func GetAPILog() []*APILogEntry {
	apiLogMu.Lock()
	defer apiLogMu.Unlock()

	result := make([]*APILogEntry, len(apiLogEntries))
	for i, e := range apiLogEntries {
		result[len(apiLogEntries)-1-i] = e
	}
	return result
}
