package bars

import (
	"testing"
)

func testBar(id int, name string, rating float64, lat, lon float64, hours string) *Bar {
	return &Bar{
		ID:           id,
		Name:         name,
		Rating:       rating,
		OpeningHours: hours,
		Location:     GeoPoint{Coordinates: [2]float64{lon, lat}},
	}
}

func testCollection() []*Bar {
	return []*Bar{
		testBar(1, "Brasserie du Port", 4.5, 48.39, -4.49, `{"0": "09:00 - 19:00"}`),
		testBar(2, "La Cave de Jean", 3.0, 48.40, -4.48, `{"0": "Fermé"}`),
		testBar(3, "Le Bar de la Marine", 5.0, 48.38, -4.50, `{"0": "10:00 - 23:00"}`),
		testBar(4, "Chez Monique", 4.0, 48.41, -4.47, ``),
	}
}

func TestVisibleDefault(t *testing.T) {
	bars := testCollection()
	v := NewView(bars)

	got := v.Visible(monday(12, 0))
	if len(got) != len(bars) {
		t.Fatalf("expected %d bars, got %d", len(bars), len(got))
	}
	for i := range bars {
		if got[i].ID != bars[i].ID {
			t.Errorf("position %d: got bar %d, want %d (original order)", i, got[i].ID, bars[i].ID)
		}
	}
}

func TestVisibleIdempotent(t *testing.T) {
	v := NewView(testCollection())
	v.ToggleCategory(CategoryBar)
	v.SetSort(SortRating)

	now := monday(12, 0)
	first := v.Visible(now)
	second := v.Visible(now)
	if len(first) != len(second) {
		t.Fatalf("recompute changed length: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("recompute changed order at %d", i)
		}
	}
}

func TestVisibleCategoryFilter(t *testing.T) {
	v := NewView(testCollection())
	v.ToggleCategory(CategoryBrasserie)

	got := v.Visible(monday(12, 0))
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("expected only the brasserie, got %d bars", len(got))
	}

	// Toggling the same category off restores the full collection.
	v.ToggleCategory(CategoryBrasserie)
	if got := v.Visible(monday(12, 0)); len(got) != 4 {
		t.Errorf("expected 4 bars after untoggle, got %d", len(got))
	}
}

func TestVisibleUnclassifiedHiddenByFilters(t *testing.T) {
	v := NewView(testCollection())
	v.ToggleCategory(CategoryBrasserie)
	v.ToggleCategory(CategoryCave)
	v.ToggleCategory(CategoryBar)

	for _, b := range v.Visible(monday(12, 0)) {
		if b.ID == 4 {
			t.Error("unclassified bar visible with filters active")
		}
	}
}

func TestVisibleRatingSort(t *testing.T) {
	v := NewView(testCollection())
	v.SetSort(SortRating)

	got := v.Visible(monday(12, 0))
	for i := 1; i < len(got); i++ {
		if got[i].Rating > got[i-1].Rating {
			t.Errorf("ratings not descending at %d: %f > %f", i, got[i].Rating, got[i-1].Rating)
		}
	}
}

func TestVisibleDistanceSort(t *testing.T) {
	v := NewView(testCollection())
	v.SetSort(SortDistance)
	v.SetLocation(&UserLocation{Latitude: 48.38, Longitude: -4.50})

	got := v.Visible(monday(12, 0))
	if got[0].ID != 3 {
		t.Errorf("nearest bar should be first, got %d", got[0].ID)
	}
	loc := v.Location()
	for i := 1; i < len(got); i++ {
		di := Distance(loc.Latitude, loc.Longitude, got[i].Lat(), got[i].Lon())
		dj := Distance(loc.Latitude, loc.Longitude, got[i-1].Lat(), got[i-1].Lon())
		if di < dj {
			t.Errorf("distances not ascending at %d", i)
		}
	}
}

// Distance sort without a location keeps the filtered order instead of
// erroring.
func TestVisibleDistanceSortNoLocation(t *testing.T) {
	bars := testCollection()
	v := NewView(bars)
	v.SetSort(SortDistance)

	got := v.Visible(monday(12, 0))
	if len(got) != len(bars) {
		t.Fatalf("expected %d bars, got %d", len(bars), len(got))
	}
	for i := range bars {
		if got[i].ID != bars[i].ID {
			t.Errorf("position %d: got %d, want %d", i, got[i].ID, bars[i].ID)
		}
	}
}

func TestVisibleOpenNow(t *testing.T) {
	v := NewView(testCollection())
	v.SetSort(SortOpen)

	got := v.Visible(monday(12, 0))
	if len(got) != 2 {
		t.Fatalf("expected 2 open bars at noon Monday, got %d", len(got))
	}
	// Relative order is preserved, no reordering beyond the filter.
	if got[0].ID != 1 || got[1].ID != 3 {
		t.Errorf("open filter reordered: got %d, %d", got[0].ID, got[1].ID)
	}
}

func TestRevealMore(t *testing.T) {
	bars := make([]*Bar, 12)
	for i := range bars {
		bars[i] = testBar(i+1, "Bar", 3, 48.39, -4.49, "")
	}
	v := NewView(bars)
	now := monday(12, 0)

	if v.Cursor() != 5 {
		t.Fatalf("initial cursor = %d, want 5", v.Cursor())
	}
	if n := v.RevealMore(now); n != 5 || v.Cursor() != 10 {
		t.Errorf("first reveal: n=%d cursor=%d, want 5 and 10", n, v.Cursor())
	}
	if n := v.RevealMore(now); n != 2 || v.Cursor() != 12 {
		t.Errorf("second reveal: n=%d cursor=%d, want 2 and 12 (capped)", n, v.Cursor())
	}
	if n := v.RevealMore(now); n != 0 || v.Cursor() != 12 {
		t.Errorf("third reveal: n=%d cursor=%d, want 0 and 12", n, v.Cursor())
	}
}

func TestRevealCursorResetOnSetBars(t *testing.T) {
	v := NewView(testCollection())
	now := monday(12, 0)
	v.RevealMore(now)

	v.SetBars([]*Bar{testBar(1, "Bar", 3, 48.39, -4.49, "")})
	if v.Cursor() != 1 {
		t.Errorf("cursor = %d after replacing with 1 bar, want 1", v.Cursor())
	}

	v.SetBars(nil)
	if v.Cursor() != 0 {
		t.Errorf("cursor = %d after replacing with empty collection, want 0", v.Cursor())
	}
	if got := v.Page(now); len(got) != 0 {
		t.Errorf("page of empty collection has %d bars", len(got))
	}
}

func TestPageNeverExceedsVisible(t *testing.T) {
	v := NewView(testCollection())
	now := monday(12, 0)

	// Shrink the visible set below the cursor by filtering.
	v.ToggleCategory(CategoryCave)
	page := v.Page(now)
	visible := v.Visible(now)
	if len(page) > len(visible) {
		t.Errorf("page %d exceeds visible %d", len(page), len(visible))
	}
}
