package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"brestbar/api"
	"brestbar/app"
	"brestbar/bars"
)

var EnvFlag = flag.String("env", "dev", "Set the environment")
var ServeFlag = flag.Bool("serve", false, "Run the server")
var AddressFlag = flag.String("address", ":8080", "Address for server")

func main() {
	flag.Parse()

	if !*ServeFlag {
		fmt.Println("--serve not set")
		return
	}

	// The map cannot function without the provider credential.
	if os.Getenv("MAP_TOKEN") == "" {
		log.Fatal("MAP_TOKEN environment variable is not set")
	}

	// render the api markdown
	apiHTML := app.RenderTemplate("API", "API documentation", api.Markdown())

	// load the bars
	bars.Load()

	// serve the bar map and list
	http.HandleFunc("/bars", bars.Handler)

	// search the text index
	http.HandleFunc("/bars/search", bars.SearchHandler)

	// geo lookup
	http.HandleFunc("/bars/nearby", bars.NearbyHandler)

	// directions QR codes
	http.HandleFunc("/bars/qr", bars.QRHandler)

	// live refresh channel
	http.HandleFunc("/bars/live", bars.LiveHandler)

	// server status
	http.HandleFunc("/status", app.StatusHandler)

	// serve the api doc
	http.Handle("/api", app.ServeHTML(apiHTML))

	// serve the app
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.Redirect(w, r, "/bars", 302)
			return
		}
		app.Serve().ServeHTTP(w, r)
	})

	fmt.Println("Starting server on", *AddressFlag)

	if err := http.ListenAndServe(*AddressFlag, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if *EnvFlag == "dev" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
		}

		if v := len(r.URL.Path); v > 1 && strings.HasSuffix(r.URL.Path, "/") {
			r.URL.Path = r.URL.Path[:v-1]
		}

		http.DefaultServeMux.ServeHTTP(w, r)
	})); err != nil {
		fmt.Printf("Server error: %v\n", err)
		return
	}
}
