package app

import (
	"html"
	"strings"
)

// UI layout helpers for consistent rendering.
// Use these wrappers + bar.css classes.

// SearchBar renders a search input with search button
func SearchBar(action, placeholder, query string) string {
	var b strings.Builder
	b.WriteString(`<form class="search-bar" action="`)
	b.WriteString(action)
	b.WriteString(`" method="GET"><input type="text" name="q" placeholder="`)
	b.WriteString(placeholder)
	b.WriteString(`" value="`)
	b.WriteString(html.EscapeString(query))
	b.WriteString(`"><button type="submit">Rechercher</button></form>`)
	return b.String()
}

// ActionLink renders a primary action link
func ActionLink(href, label string) string {
	return `<a href="` + href + `" class="btn">` + html.EscapeString(label) + `</a>`
}

// List wraps content in a card-list container
func List(content string) string {
	return `<div class="card-list">` + content + `</div>`
}

// Empty renders an empty state message
func Empty(message string) string {
	return `<p class="empty">` + html.EscapeString(message) + `</p>`
}

// CardDivClass wraps content in a card with additional classes
func CardDivClass(class, content string) string {
	return `<div class="card ` + class + `">` + content + `</div>`
}

// Title renders a card title with link
func Title(text, href string) string {
	if href != "" {
		return `<a href="` + href + `" class="card-title">` + html.EscapeString(text) + `</a>`
	}
	return `<span class="card-title">` + html.EscapeString(text) + `</span>`
}

// Meta renders metadata text
func Meta(content string) string {
	return `<div class="card-meta">` + content + `</div>`
}

// Desc renders description text
func Desc(text string) string {
	return `<p class="card-desc">` + html.EscapeString(text) + `</p>`
}
