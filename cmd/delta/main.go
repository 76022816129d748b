// Command delta is the desktop entry point: it starts a Wails window bound
// to App, whose methods form the telemetry session operation surface.
// The actual frontend is out of scope for this module; Wails is configured
// to serve whatever static assets ship alongside the binary.
package main

import (
	"embed"
	"log"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	delta "github.com/psybedev/delta/app"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	a := delta.New()

	err := wails.Run(&options.App{
		Title:  "Delta",
		Width:  1280,
		Height: 800,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		OnStartup:  a.Startup,
		OnShutdown: a.Shutdown,
		Bind: []interface{}{
			a,
		},
	})
	if err != nil {
		log.Fatalf("delta: %v", err)
	}
}
