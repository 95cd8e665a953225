package bars

import (
	"fmt"
	"strings"
)

const starSVG = `<svg class="star" width="16" height="16" fill="currentColor" viewBox="0 0 20 20"><path d="M10 15l-5.878 3.09 1.123-6.545L.489 6.91l6.572-.955L10 0l2.939 5.955 6.572.955-4.756 4.635 1.123 6.545z" fill="#f3da35"></path></svg>`

// PopupHTML builds the detail block shown in a map popup or the list detail
// for one bar. Every venue-supplied string is escaped before insertion and
// URLs have already been restricted to http(s) on ingest, so venue data is
// always inert text here.
func PopupHTML(b *Bar) string {
	var sb strings.Builder

	sb.WriteString(`<div class="bar-popup">`)
	sb.WriteString(`<h3>` + escapeHTML(b.Name) + `</h3>`)
	sb.WriteString(`<p>Adresse : ` + escapeHTML(b.Address) + `</p>`)

	sb.WriteString(`<p>Horaires d&#39;ouverture :</p>`)
	week := ParseWeek(b.OpeningHours)
	for i, day := range week {
		sb.WriteString(`<p>- ` + DayNames[i] + ` : ` + escapeHTML(day) + `</p>`)
	}

	sb.WriteString(fmt.Sprintf(`<p>Note : %.1f %s (%d avis)</p>`, b.Rating, starSVG, b.ReviewCount))
	sb.WriteString(`<p>Téléphone : ` + escapeHTML(b.Phone) + `</p>`)

	if b.Website != "" {
		sb.WriteString(`<a class="popup-link" href="` + escapeHTML(b.Website) + `" target="_blank" rel="noopener">🌐 Site Web</a>`)
	}
	sb.WriteString(`<a class="popup-link" href="` + escapeHTML(directionsURL(b)) + `" target="_blank" rel="noopener">📍 Y aller</a>`)
	sb.WriteString(fmt.Sprintf(`<img src="/bars/qr?id=%d" width="96" height="96" alt="QR itinéraire">`, b.ID))

	sb.WriteString(`</div>`)
	return sb.String()
}

// directionsURL returns the external map link for a bar. Bars without a
// venue-supplied maps URL fall back to an OpenStreetMap link at their
// coordinates.
func directionsURL(b *Bar) string {
	if b.MapsURL != "" {
		return b.MapsURL
	}
	return fmt.Sprintf("https://www.openstreetmap.org/?mlat=%.6f&mlon=%.6f#map=17/%.6f/%.6f",
		b.Lat(), b.Lon(), b.Lat(), b.Lon())
}

// escapeHTML escapes HTML special characters
func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&#34;")
	s = strings.ReplaceAll(s, "'", "&#39;")
	return s
}
