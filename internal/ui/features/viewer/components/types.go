// Package components renders the viewer's HTML.
package components

//go:generate go run github.com/a-h/templ/cmd/templ@v0.3.977 generate -path .

import "github.com/leapstack-labs/pqview/internal/session"

// AppID is the element patched on every update.
const AppID = "app"

// DatastarScript is the client runtime the page loads.
const DatastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"

// AppData is everything the app shell renders.
type AppData struct {
	Snapshot session.Snapshot
	Readout  string
}

// Signals are the client-side values bound to the toolbar inputs.
type Signals struct {
	FilterColumn string `json:"filterColumn"`
	FilterValue  string `json:"filterValue"`
}

// SignalsFor returns the toolbar signals matching a snapshot.
func SignalsFor(snap session.Snapshot) Signals {
	return Signals{FilterColumn: snap.Filter.Column, FilterValue: snap.Filter.Value}
}
