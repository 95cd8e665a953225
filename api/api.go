package api

import (
	"fmt"
	"strings"
)

type Endpoint struct {
	Name        string
	Path        string
	Method      string
	Params      []*Param
	Response    []*Value
	Description string
}

type Param struct {
	Name        string
	Value       string
	Description string
}

type Value struct {
	Type   string
	Params []*Param
}

var Endpoints = []*Endpoint{{
	Name:        "Bars",
	Path:        "/bars",
	Method:      "GET",
	Description: "List the bars, filtered and sorted",
	Params: []*Param{
		{
			Name:        "types",
			Value:       "string",
			Description: "Comma-separated category filters; Brasserie, Cave or Bar",
		},
		{
			Name:        "sort",
			Value:       "string",
			Description: "Sort mode; default, rating, distance or open",
		},
		{
			Name:        "lat",
			Value:       "float",
			Description: "User latitude, enables distance sorting",
		},
		{
			Name:        "lon",
			Value:       "float",
			Description: "User longitude, enables distance sorting",
		},
		{
			Name:        "count",
			Value:       "int",
			Description: "Number of list entries to reveal, grows in steps of 5",
		},
		{
			Name:        "q",
			Value:       "string",
			Description: "Full-text query over name, category and address",
		},
	},
	Response: []*Value{
		{
			Type: "JSON",
			Params: []*Param{
				{
					Name:        "bars",
					Value:       "array",
					Description: "The revealed bars in display order",
				},
				{
					Name:        "total",
					Value:       "int",
					Description: "Size of the filtered collection",
				},
				{
					Name:        "count",
					Value:       "int",
					Description: "The reveal cursor",
				},
			},
		},
	},
}, {
	Name:        "Bar Search",
	Path:        "/bars/search",
	Method:      "GET",
	Description: "Search the bar text index",
	Params: []*Param{
		{
			Name:        "q",
			Value:       "string",
			Description: "Full-text query, diacritic-insensitive prefix match",
		},
	},
	Response: []*Value{
		{
			Type: "JSON",
			Params: []*Param{
				{
					Name:        "results",
					Value:       "array",
					Description: "Matching bars",
				},
				{
					Name:        "count",
					Value:       "int",
					Description: "Number of matches",
				},
			},
		},
	},
}, {
	Name:        "Bars Nearby",
	Path:        "/bars/nearby",
	Method:      "GET",
	Description: "Find bars near a point",
	Params: []*Param{
		{
			Name:        "lat",
			Value:       "float",
			Description: "Latitude of the reference point",
		},
		{
			Name:        "lon",
			Value:       "float",
			Description: "Longitude of the reference point",
		},
		{
			Name:        "radius",
			Value:       "int",
			Description: "Search radius in metres; 100 to 10000, default 1000",
		},
	},
	Response: []*Value{
		{
			Type: "JSON",
			Params: []*Param{
				{
					Name:        "results",
					Value:       "array",
					Description: "Bars within the radius, nearest first, with distance in km",
				},
			},
		},
	},
}, {
	Name:        "Bar QR",
	Path:        "/bars/qr",
	Method:      "GET",
	Description: "QR code PNG of a bar's directions link",
	Params: []*Param{
		{
			Name:        "id",
			Value:       "int",
			Description: "Bar id",
		},
	},
	Response: []*Value{
		{
			Type: "PNG",
		},
	},
}, {
	Name:        "Live Updates",
	Path:        "/bars/live",
	Method:      "GET",
	Description: "Websocket emitting {\"event\": \"refresh\"} when the collection is replaced",
}, {
	Name:        "Status",
	Path:        "/status",
	Method:      "GET",
	Description: "Server status and health checks",
}}

// Markdown renders the endpoint list as a markdown document.
func Markdown() string {
	var sb strings.Builder

	sb.WriteString("# API\n\n")
	sb.WriteString("The Brest Bar API. All endpoints return JSON when requested with `Accept: application/json`.\n\n")

	for _, e := range Endpoints {
		sb.WriteString(fmt.Sprintf("## %s\n\n", e.Name))
		sb.WriteString(fmt.Sprintf("`%s %s`\n\n", e.Method, e.Path))
		sb.WriteString(e.Description + "\n\n")

		if len(e.Params) > 0 {
			sb.WriteString("Parameters:\n\n")
			for _, p := range e.Params {
				sb.WriteString(fmt.Sprintf("- `%s` (%s) - %s\n", p.Name, p.Value, p.Description))
			}
			sb.WriteString("\n")
		}

		for _, v := range e.Response {
			sb.WriteString(fmt.Sprintf("Response (%s):\n\n", v.Type))
			for _, p := range v.Params {
				sb.WriteString(fmt.Sprintf("- `%s` (%s) - %s\n", p.Name, p.Value, p.Description))
			}
			sb.WriteString("\n")
		}
	}

	return sb.String()
}
