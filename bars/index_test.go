package bars

import (
	"os"
	"sync"
	"testing"
)

func TestSanitizeFTSQuery(t *testing.T) {
	tests := []struct {
		input string
		valid bool // whether result should be non-empty
	}{
		{"bar", true},
		{"", false},
		{"   ", false},
		{`"dangerous"`, true},
		{"bra*sserie du port", true},
		{`(":*^~)`, false},
	}
	for _, tt := range tests {
		got := sanitizeFTSQuery(tt.input)
		if tt.valid && got == "" {
			t.Errorf("sanitizeFTSQuery(%q) returned empty, expected non-empty", tt.input)
		}
		if !tt.valid && got != "" {
			t.Errorf("sanitizeFTSQuery(%q) = %q, expected empty", tt.input, got)
		}
	}
}

// resetBarsDB points the bars database at a fresh temp directory.
func resetBarsDB(t *testing.T) {
	t.Helper()
	os.Setenv("HOME", t.TempDir())
	barsDBOne = sync.Once{}
	barsDB = nil
}

func TestIndexAndSearchBars(t *testing.T) {
	resetBarsDB(t)

	bars := []*Bar{
		testBar(1, "Brasserie du Port", 4.5, 48.39, -4.49, ""),
		testBar(2, "La Cave de Jean", 3.0, 48.40, -4.48, ""),
		testBar(3, "Le Bistrot de la Marine", 5.0, 48.38, -4.50, ""),
	}
	bars[0].Address = "1 quai de la Douane"

	if err := indexBars(bars); err != nil {
		t.Fatalf("indexBars: %v", err)
	}

	results, err := searchBars("brasserie")
	if err != nil {
		t.Fatalf("searchBars: %v", err)
	}
	if len(results) != 1 || results[0].Name != "Brasserie du Port" {
		t.Fatalf("searchBars(brasserie) = %d results, want the brasserie", len(results))
	}
	if results[0].Lat() != 48.39 || results[0].Lon() != -4.49 {
		t.Errorf("coordinates not restored: %f, %f", results[0].Lat(), results[0].Lon())
	}

	// Prefix match on a partial word.
	results, err = searchBars("bist")
	if err != nil {
		t.Fatalf("searchBars: %v", err)
	}
	if len(results) != 1 || results[0].ID != 3 {
		t.Errorf("prefix search failed: %d results", len(results))
	}

	// Address is indexed too.
	results, err = searchBars("douane")
	if err != nil {
		t.Fatalf("searchBars: %v", err)
	}
	if len(results) != 1 || results[0].ID != 1 {
		t.Errorf("address search failed: %d results", len(results))
	}

	// Category derived from the name is searchable.
	results, err = searchBars("cave")
	if err != nil {
		t.Fatalf("searchBars: %v", err)
	}
	if len(results) != 1 || results[0].ID != 2 {
		t.Errorf("category search failed: %d results", len(results))
	}

	if got := indexedCount(); got != 3 {
		t.Errorf("indexedCount = %d, want 3", got)
	}
}

func TestIndexBarsUpdatesExisting(t *testing.T) {
	resetBarsDB(t)

	if err := indexBars([]*Bar{testBar(10, "Ancien Bar", 3, 1, 1, "")}); err != nil {
		t.Fatalf("indexBars: %v", err)
	}
	if err := indexBars([]*Bar{testBar(10, "Nouveau Bar", 3, 1, 1, "")}); err != nil {
		t.Fatalf("indexBars update: %v", err)
	}

	results, err := searchBars("nouveau")
	if err != nil {
		t.Fatalf("searchBars: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected updated bar to be findable by new name, got %d", len(results))
	}
	if got := indexedCount(); got != 1 {
		t.Errorf("indexedCount = %d after upsert, want 1", got)
	}
}

func TestIndexBarsRollsBackOnFailure(t *testing.T) {
	resetBarsDB(t)

	if err := indexBars([]*Bar{testBar(1, "Premier Bar", 4, 48.39, -4.49, "")}); err != nil {
		t.Fatalf("indexBars: %v", err)
	}

	db, err := getBarsDB()
	if err != nil {
		t.Fatalf("getBarsDB: %v", err)
	}
	// Force a failure on the second row of the next batch.
	if _, err := db.Exec(`CREATE UNIQUE INDEX bars_name_once ON bars(name)`); err != nil {
		t.Fatalf("create index: %v", err)
	}

	err = indexBars([]*Bar{
		testBar(2, "Même Nom", 4, 48.39, -4.49, ""),
		testBar(3, "Même Nom", 4, 48.40, -4.48, ""),
	})
	if err == nil {
		t.Fatal("expected an error from the duplicate name")
	}

	// The failed batch must leave no partial rows behind.
	if got := indexedCount(); got != 1 {
		t.Errorf("indexedCount = %d after failed batch, want 1", got)
	}
	results, err := searchBars("premier")
	if err != nil {
		t.Fatalf("searchBars: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("existing bar lost after failed batch: %d results", len(results))
	}

	// The transaction must have released its connection: further indexing
	// works once the failure cause is gone.
	if _, err := db.Exec(`DROP INDEX bars_name_once`); err != nil {
		t.Fatalf("drop index: %v", err)
	}
	if err := indexBars([]*Bar{
		testBar(2, "Deuxième Bar", 4, 48.39, -4.49, ""),
		testBar(3, "Troisième Bar", 4, 48.40, -4.48, ""),
	}); err != nil {
		t.Fatalf("indexBars after recovery: %v", err)
	}
	if got := indexedCount(); got != 2 {
		t.Errorf("indexedCount = %d after recovery, want 2", got)
	}
}

func TestIndexBarsRemovesStale(t *testing.T) {
	resetBarsDB(t)

	if err := indexBars([]*Bar{
		testBar(1, "Brasserie du Port", 4.5, 48.39, -4.49, ""),
		testBar(2, "La Cave de Jean", 3.0, 48.40, -4.48, ""),
	}); err != nil {
		t.Fatalf("indexBars: %v", err)
	}

	// The source dropped bar 1; reindexing the new collection must prune it.
	if err := indexBars([]*Bar{testBar(2, "La Cave de Jean", 3.0, 48.40, -4.48, "")}); err != nil {
		t.Fatalf("indexBars: %v", err)
	}

	if got := indexedCount(); got != 1 {
		t.Errorf("indexedCount = %d, want 1", got)
	}
	results, err := searchBars("brasserie")
	if err != nil {
		t.Fatalf("searchBars: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("stale bar still searchable: %d results", len(results))
	}
	results, err = searchBars("cave")
	if err != nil {
		t.Fatalf("searchBars: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("surviving bar lost: %d results", len(results))
	}
}

func TestSearchBarsDiacritics(t *testing.T) {
	resetBarsDB(t)

	if err := indexBars([]*Bar{testBar(20, "Café des Amis", 4, 48.39, -4.49, "")}); err != nil {
		t.Fatalf("indexBars: %v", err)
	}

	results, err := searchBars("cafe")
	if err != nil {
		t.Fatalf("searchBars: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("accent-free query missed accented name: %d results", len(results))
	}
}

func TestNearby(t *testing.T) {
	bars := []*Bar{
		testBar(1, "Proche", 4, 48.3905, -4.4862, ""),
		testBar(2, "Moyen", 4, 48.3950, -4.4800, ""),
		testBar(3, "Loin", 4, 48.4500, -4.3000, ""),
	}
	buildTree(bars)

	got := Nearby(48.3904, -4.4861, 1000)
	if len(got) != 2 {
		t.Fatalf("Nearby(1km) = %d bars, want 2", len(got))
	}
	if got[0].ID != 1 {
		t.Errorf("nearest bar should be first, got %d", got[0].ID)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Distance < got[i-1].Distance {
			t.Errorf("results not sorted by distance at index %d", i)
		}
	}
	for _, b := range got {
		if b.Distance > 1.0 {
			t.Errorf("bar %d at %.3f km exceeds the 1 km radius", b.ID, b.Distance)
		}
	}
}

func TestNearbyDoesNotMutate(t *testing.T) {
	bars := []*Bar{testBar(1, "Proche", 4, 48.3905, -4.4862, "")}
	buildTree(bars)

	got := Nearby(48.3904, -4.4861, 1000)
	if len(got) != 1 {
		t.Fatalf("Nearby = %d bars, want 1", len(got))
	}
	if got[0].Distance == 0 {
		t.Error("Distance not set on result")
	}
	if bars[0].Distance != 0 {
		t.Error("Nearby mutated the indexed bar")
	}
}
