package app

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Response is a page rendered in the app template
type Response struct {
	Title       string
	Description string
	HTML        string
}

// WantsJSON reports whether the client asked for a JSON response
func WantsJSON(r *http.Request) bool {
	if r.URL.Query().Get("format") == "json" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// SendsJSON reports whether the client submitted a JSON body
func SendsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

// Respond renders a page in the app template
func Respond(w http.ResponseWriter, r *http.Request, rsp Response) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(RenderHTML(rsp.Title, rsp.Description, rsp.HTML)))
}

// RespondJSON writes v as a JSON response
func RespondJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// RespondError writes a JSON error response with the given status code
func RespondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// BadRequest responds with a 400 in the client's preferred format
func BadRequest(w http.ResponseWriter, r *http.Request, message string) {
	if WantsJSON(r) {
		RespondError(w, http.StatusBadRequest, message)
		return
	}
	http.Error(w, message, http.StatusBadRequest)
}

// ServerError responds with a 500 in the client's preferred format
func ServerError(w http.ResponseWriter, r *http.Request, message string) {
	if WantsJSON(r) {
		RespondError(w, http.StatusInternalServerError, message)
		return
	}
	http.Error(w, message, http.StatusInternalServerError)
}

// MethodNotAllowed responds with a 405
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	if WantsJSON(r) {
		RespondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
}

// RouteOpts defines handlers for different content types
type RouteOpts struct {
	// JSON handler - called when Accept: application/json or Content-Type: application/json
	JSON http.HandlerFunc
	// HTML handler - called for browser requests (default)
	HTML http.HandlerFunc
}

// Route creates a handler that dispatches based on content type
func Route(opts RouteOpts) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if WantsJSON(r) || SendsJSON(r) {
			if opts.JSON != nil {
				opts.JSON(w, r)
				return
			}
			http.Error(w, `{"error": "JSON not supported"}`, http.StatusNotAcceptable)
			return
		}

		if opts.HTML != nil {
			opts.HTML(w, r)
			return
		}

		if opts.JSON != nil {
			opts.JSON(w, r)
			return
		}

		http.Error(w, "No handler available", http.StatusNotImplemented)
	}
}
