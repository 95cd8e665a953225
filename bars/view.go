package bars

import (
	"sort"
	"time"
)

// SortMode selects the ordering of the visible bar list.
type SortMode string

const (
	SortDefault  SortMode = "default"
	SortRating   SortMode = "rating"
	SortDistance SortMode = "distance"
	SortOpen     SortMode = "open"
)

// ParseSortMode maps a request parameter to a SortMode, defaulting to
// SortDefault for anything unrecognized.
func ParseSortMode(s string) SortMode {
	switch SortMode(s) {
	case SortRating, SortDistance, SortOpen:
		return SortMode(s)
	}
	return SortDefault
}

// UserLocation is a device geolocation reading. A nil *UserLocation means no
// reading is available and distance features degrade.
type UserLocation struct {
	Latitude  float64
	Longitude float64
}

// revealStep is the number of bars revealed per "Voir plus".
const revealStep = 5

// View is the bar list view-model: a read-only snapshot of the collection
// plus the selection state driving the visible subset. It is owned by a
// single request or rendering layer and is not safe for concurrent use.
type View struct {
	bars     []*Bar
	selected map[Category]bool
	sortMode SortMode
	location *UserLocation
	cursor   int
}

// NewView creates a view over a snapshot of the collection. The reveal
// cursor starts at min(revealStep, len(bars)).
func NewView(bars []*Bar) *View {
	v := &View{
		selected: make(map[Category]bool),
		sortMode: SortDefault,
	}
	v.SetBars(bars)
	return v
}

// SetBars replaces the underlying snapshot and resets the reveal cursor.
func (v *View) SetBars(bars []*Bar) {
	v.bars = bars
	v.cursor = revealStep
	if len(bars) < v.cursor {
		v.cursor = len(bars)
	}
}

// ToggleCategory adds the category to the selection if absent, removes it if
// present. CategoryNone is not selectable.
func (v *View) ToggleCategory(c Category) {
	if c == CategoryNone {
		return
	}
	if v.selected[c] {
		delete(v.selected, c)
		return
	}
	v.selected[c] = true
}

// Selected reports whether a category filter is active.
func (v *View) Selected(c Category) bool {
	return v.selected[c]
}

// SelectedCategories returns the active category filters in menu order.
func (v *View) SelectedCategories() []Category {
	var out []Category
	for _, c := range Categories {
		if v.selected[c.Category] {
			out = append(out, c.Category)
		}
	}
	return out
}

// SetSort sets the active sort mode.
func (v *View) SetSort(m SortMode) {
	v.sortMode = m
}

// Sort returns the active sort mode.
func (v *View) Sort() SortMode {
	return v.sortMode
}

// SetLocation sets or clears the user location.
func (v *View) SetLocation(loc *UserLocation) {
	v.location = loc
}

// Location returns the user location, or nil.
func (v *View) Location() *UserLocation {
	return v.location
}

// Visible computes the filtered, ordered bar list. It is a pure projection
// of (snapshot, categories, sort mode, location, now); the snapshot is never
// reordered in place.
func (v *View) Visible(now time.Time) []*Bar {
	filtered := make([]*Bar, 0, len(v.bars))
	for _, b := range v.bars {
		if len(v.selected) > 0 && !v.selected[Classify(b.Name)] {
			continue
		}
		filtered = append(filtered, b)
	}

	switch v.sortMode {
	case SortRating:
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].Rating > filtered[j].Rating
		})
	case SortDistance:
		// No location means no distance ordering; keep the filtered order.
		if v.location == nil {
			break
		}
		sort.SliceStable(filtered, func(i, j int) bool {
			di := Distance(v.location.Latitude, v.location.Longitude, filtered[i].Lat(), filtered[i].Lon())
			dj := Distance(v.location.Latitude, v.location.Longitude, filtered[j].Lat(), filtered[j].Lon())
			return di < dj
		})
	case SortOpen:
		open := filtered[:0]
		for _, b := range filtered {
			if OpenAt(b.OpeningHours, now) {
				open = append(open, b)
			}
		}
		filtered = open
	}

	return filtered
}

// Page returns the currently revealed slice of the visible list.
func (v *View) Page(now time.Time) []*Bar {
	visible := v.Visible(now)
	n := v.cursor
	if n > len(visible) {
		n = len(visible)
	}
	if n < 0 {
		n = 0
	}
	return visible[:n]
}

// Cursor returns the reveal cursor.
func (v *View) Cursor() int {
	return v.cursor
}

// RevealMore advances the reveal cursor by up to revealStep entries of the
// visible list, never beyond its length. It returns the number of newly
// revealed entries.
func (v *View) RevealMore(now time.Time) int {
	total := len(v.Visible(now))
	if v.cursor > total {
		v.cursor = total
		return 0
	}
	step := total - v.cursor
	if step > revealStep {
		step = revealStep
	}
	v.cursor += step
	return step
}
