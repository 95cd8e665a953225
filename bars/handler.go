package bars

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"brestbar/app"
)

// Brest city centre, the initial map viewport.
const (
	brestLat = 48.3904
	brestLon = -4.4861
)

// mapToken returns the map provider access token from the environment.
// main refuses to start without it.
func mapToken() string {
	return os.Getenv("MAP_TOKEN")
}

var sortLabels = []struct {
	Mode  SortMode
	Label string
}{
	{SortDefault, "Par défaut"},
	{SortRating, "Note"},
	{SortDistance, "Distance"},
	{SortOpen, "Ouvert actuellement"},
}

// viewFromRequest builds the list view-model from request parameters.
func viewFromRequest(r *http.Request, now time.Time) (*View, string) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))

	snapshot := Bars()
	if q != "" {
		if results, err := searchBars(q); err != nil {
			app.Log("bars", "Search %q failed: %v", q, err)
		} else {
			snapshot = results
		}
	}

	v := NewView(snapshot)

	for _, t := range strings.Split(r.URL.Query().Get("types"), ",") {
		switch c := Category(t); c {
		case CategoryBrasserie, CategoryCave, CategoryBar:
			v.ToggleCategory(c)
		}
	}

	v.SetSort(ParseSortMode(r.URL.Query().Get("sort")))

	latStr := r.URL.Query().Get("lat")
	lonStr := r.URL.Query().Get("lon")
	if latStr != "" && lonStr != "" {
		lat, latErr := strconv.ParseFloat(latStr, 64)
		lon, lonErr := strconv.ParseFloat(lonStr, 64)
		if latErr == nil && lonErr == nil {
			v.SetLocation(&UserLocation{Latitude: lat, Longitude: lon})
		}
	}

	if count, err := strconv.Atoi(r.URL.Query().Get("count")); err == nil {
		for v.Cursor() < count {
			if v.RevealMore(now) == 0 {
				break
			}
		}
	}

	return v, q
}

// Handler handles /bars requests: the map + list page, or the JSON list.
var Handler = app.Route(app.RouteOpts{
	JSON: barsJSON,
	HTML: barsPage,
})

func barsJSON(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		app.MethodNotAllowed(w, r)
		return
	}

	now := time.Now()
	v, _ := viewFromRequest(r, now)

	app.RespondJSON(w, map[string]interface{}{
		"bars":  v.Page(now),
		"total": len(v.Visible(now)),
		"count": v.Cursor(),
	})
}

func barsPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		app.MethodNotAllowed(w, r)
		return
	}

	now := time.Now()
	v, q := viewFromRequest(r, now)

	app.Respond(w, r, app.Response{
		Title:       "Bars",
		Description: "Les bars de Brest sur une carte",
		HTML:        renderBarsPage(v, q, now),
	})
}

// SearchHandler handles /bars/search JSON requests against the text index.
func SearchHandler(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		app.BadRequest(w, r, "q is required")
		return
	}
	results, err := searchBars(q)
	if err != nil {
		app.Log("bars", "Search %q failed: %v", q, err)
		app.ServerError(w, r, "search failed")
		return
	}
	app.RespondJSON(w, map[string]interface{}{
		"results": results,
		"count":   len(results),
	})
}

// NearbyHandler handles /bars/nearby JSON requests against the geo index.
func NearbyHandler(w http.ResponseWriter, r *http.Request) {
	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if latErr != nil || lonErr != nil {
		app.BadRequest(w, r, "lat and lon are required")
		return
	}

	radius := 1000 // metres
	if radiusStr := r.URL.Query().Get("radius"); radiusStr != "" {
		if v, err := strconv.Atoi(radiusStr); err == nil {
			radius = v
		}
		if radius < 100 {
			radius = 100
		}
		if radius > 10000 {
			radius = 10000
		}
	}

	results := Nearby(lat, lon, radius)
	app.RespondJSON(w, map[string]interface{}{
		"results": results,
		"count":   len(results),
		"lat":     lat,
		"lon":     lon,
		"radius":  radius,
	})
}

// barsURL builds a /bars link preserving the current selection state, with
// overrides applied as alternating key/value pairs. An empty value drops the
// key.
func barsURL(v *View, q string, overrides ...string) string {
	params := url.Values{}
	if q != "" {
		params.Set("q", q)
	}
	if cats := v.SelectedCategories(); len(cats) > 0 {
		strs := make([]string, len(cats))
		for i, c := range cats {
			strs[i] = string(c)
		}
		params.Set("types", strings.Join(strs, ","))
	}
	if v.Sort() != SortDefault {
		params.Set("sort", string(v.Sort()))
	}
	if loc := v.Location(); loc != nil {
		params.Set("lat", strconv.FormatFloat(loc.Latitude, 'f', 6, 64))
		params.Set("lon", strconv.FormatFloat(loc.Longitude, 'f', 6, 64))
	}

	for i := 0; i+1 < len(overrides); i += 2 {
		if overrides[i+1] == "" {
			params.Del(overrides[i])
		} else {
			params.Set(overrides[i], overrides[i+1])
		}
	}

	if len(params) == 0 {
		return "/bars"
	}
	return "/bars?" + params.Encode()
}

// toggleTypesValue returns the types parameter value with c toggled.
func toggleTypesValue(v *View, c Category) string {
	var out []string
	found := false
	for _, cat := range v.SelectedCategories() {
		if cat == c {
			found = true
			continue
		}
		out = append(out, string(cat))
	}
	if !found {
		out = append(out, string(c))
	}
	return strings.Join(out, ",")
}

// renderBarsPage renders the left menu and the map pane.
func renderBarsPage(v *View, q string, now time.Time) string {
	var sb strings.Builder

	sb.WriteString(`<div class="bars-page">`)
	sb.WriteString(`<div class="bars-menu">`)
	sb.WriteString(`<h1>Trouver le bar qu&#39;il vous faut <span class="gradient">selon votre humeur</span></h1>`)

	// Category filters
	sb.WriteString(`<h2>Où boire à Brest ?</h2>`)
	sb.WriteString(`<div class="type-filters">`)
	for _, c := range Categories {
		class := ""
		if v.Selected(c.Category) {
			class = ` class="selected"`
		}
		href := barsURL(v, q, "types", toggleTypesValue(v, c.Category), "count", "")
		sb.WriteString(fmt.Sprintf(`<a href="%s"><button type="button"%s>%s<span class="type-label">%s</span></button></a>`,
			href, class, c.Icon, c.Category))
	}
	sb.WriteString(`</div>`)

	// Sort menu
	sb.WriteString(`<h2>Explorer</h2><div class="sort-menu">`)
	for _, s := range sortLabels {
		label := s.Label
		if s.Mode == v.Sort() {
			label = "&#10003; " + label
		}
		sb.WriteString(fmt.Sprintf(`<a class="btn" href="%s">%s</a> `,
			barsURL(v, q, "sort", string(s.Mode), "count", ""), label))
	}
	sb.WriteString(`</div>`)

	sb.WriteString(app.SearchBar("/bars", "Rechercher un bar...", q))

	// Bar list
	visible := v.Visible(now)
	page := v.Page(now)
	if len(page) == 0 {
		sb.WriteString(app.Empty("Aucun bar trouvé"))
	} else {
		var cards strings.Builder
		for _, b := range page {
			cards.WriteString(renderBarCard(v, b, now))
		}
		sb.WriteString(app.List(cards.String()))
	}

	if v.Cursor() < len(visible) {
		sb.WriteString(`<p>` + app.ActionLink(barsURL(v, q, "count", strconv.Itoa(v.Cursor()+revealStep)), "Voir plus") + `</p>`)
	}
	sb.WriteString(fmt.Sprintf(`<p class="text-muted">%d bar(s)</p>`, len(visible)))
	sb.WriteString(`</div>`)

	// Map pane: the map always shows the full collection; only the list is
	// filtered and paged.
	sb.WriteString(`<div class="bars-map-pane"><div id="bars-map" style="height:600px;width:100%;border-radius:8px;"></div></div>`)
	sb.WriteString(`</div>`)

	sb.WriteString(renderMapScript(Bars()))

	return sb.String()
}

// renderBarCard renders a single list entry.
func renderBarCard(v *View, b *Bar, now time.Time) string {
	var sb strings.Builder

	sb.WriteString(app.Title(b.Name, ""))
	if c := Classify(b.Name); c != CategoryNone {
		sb.WriteString(` <span class="card-meta">` + string(c) + `</span>`)
	}

	state := "closed"
	status := `<span class="text-error">Fermé</span>`
	if OpenAt(b.OpeningHours, now) {
		state = "open"
		status = `<span class="star">Ouvert</span>`
	}
	sb.WriteString(` ` + status)

	sb.WriteString(app.Desc(b.Address))

	meta := fmt.Sprintf(`%.1f ★ (%d avis)`, b.Rating, b.ReviewCount)
	if loc := v.Location(); loc != nil {
		meta += fmt.Sprintf(` &middot; %.1f km`, Distance(loc.Latitude, loc.Longitude, b.Lat(), b.Lon()))
	}
	sb.WriteString(app.Meta(meta))

	sb.WriteString(fmt.Sprintf(`<p><a href="#bars-map" onclick="showOnMap(%d)">Voir sur la carte</a></p>`, b.ID))

	return app.CardDivClass(state, sb.String())
}

// marker is one map feature handed to the client-side map widget.
type marker struct {
	ID    int     `json:"id"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Popup string  `json:"popup"`
}

// renderMapScript generates the Leaflet + markercluster map for the given
// bars. Popup HTML is built server-side with all venue text escaped;
// json.Marshal additionally escapes angle brackets so the payload cannot
// break out of the script element.
func renderMapScript(bars []*Bar) string {
	markers := make([]marker, 0, len(bars))
	for _, b := range bars {
		markers = append(markers, marker{
			ID:    b.ID,
			Lat:   b.Lat(),
			Lon:   b.Lon(),
			Popup: PopupHTML(b),
		})
	}
	markersJSON, _ := json.Marshal(markers)

	tiles := fmt.Sprintf(
		"https://api.mapbox.com/styles/v1/mapbox/dark-v11/tiles/{z}/{x}/{y}?access_token=%s",
		url.QueryEscape(mapToken()),
	)

	return fmt.Sprintf(`<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css" integrity="sha256-p4NxAoJBhIIN+hmNHrzRCf9tD/miZyoHS5obTRR9BMY=" crossorigin="">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js" integrity="sha256-20nQCchB9co0qIjJZRGuk2/Z9VM+kNiyxNV/XN/WPeE=" crossorigin=""></script>
<link rel="stylesheet" href="https://unpkg.com/leaflet.markercluster@1.5.3/dist/MarkerCluster.css" crossorigin="">
<link rel="stylesheet" href="https://unpkg.com/leaflet.markercluster@1.5.3/dist/MarkerCluster.Default.css" crossorigin="">
<script src="https://unpkg.com/leaflet.markercluster@1.5.3/dist/leaflet.markercluster.js" crossorigin=""></script>
<script>
var barMarkers = %s;
var markersByID = {};
var barMap;

(function() {
  barMap = L.map('bars-map').setView([%f, %f], 13);
  L.tileLayer('%s', {
    maxZoom: 19,
    tileSize: 512,
    zoomOffset: -1,
    attribution: '&copy; Mapbox &copy; <a href="http://www.openstreetmap.org/copyright">OpenStreetMap</a>'
  }).addTo(barMap);

  var cluster = L.markerClusterGroup({maxClusterRadius: 50, disableClusteringAtZoom: 17});
  barMarkers.forEach(function(b) {
    var m = L.marker([b.lat, b.lon]).bindPopup(b.popup);
    m.on('click', function() { showDetail([b.lat, b.lon], b); });
    markersByID[b.id] = m;
    cluster.addLayer(m);
  });
  barMap.addLayer(cluster);

  liveRefresh();

  // One-shot geolocation: tag list links with the reading so distance
  // features activate on the next request.
  requestLocation(function(lat, lon) {
    L.marker([lat, lon]).addTo(barMap).bindPopup('Vous êtes ici');
    document.querySelectorAll('.bars-menu a[href^="/bars"]').forEach(function(a) {
      var u = new URL(a.href);
      u.searchParams.set('lat', lat.toFixed(6));
      u.searchParams.set('lon', lon.toFixed(6));
      a.href = u.pathname + u.search;
    });
  });
})();

// showDetail flies to a bar and opens its popup.
function showDetail(coords, bar) {
  barMap.flyTo(coords, 15, {duration: 1.2});
  var m = markersByID[bar.id];
  if (m) {
    m.openPopup();
  }
}

function showOnMap(id) {
  var b = barMarkers.find(function(m) { return m.id === id; });
  if (b) {
    showDetail([b.lat, b.lon], b);
  }
}
</script>`, markersJSON, brestLat, brestLon, tiles)
}
