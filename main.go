// main.go
package main

import (
	"context"
	"embed"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/pagedoor/pagedoor/internal/cms"
	"github.com/pagedoor/pagedoor/internal/config"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/linux"
)

//go:embed all:frontend/dist
var assets embed.FS

//go:embed build/appicon.png
var appIcon []byte

var (
	showHelp = flag.Bool("h", false, "Show help")
	version  = flag.Bool("version", false, "Show version")
	workDir  = flag.String("dir", ".", "Workspace directory (config + history)")
	addr     = flag.String("addr", "", "Override the bridge listen address (host:port)")
)

// appVersion is set at build time via -ldflags "-X main.appVersion=x.y.z"
var appVersion = "dev"

func main() {
	flag.Parse()

	// Show version
	if *version {
		fmt.Printf("Pagedoor v%s\n", appVersion)
		return
	}

	// Show help
	if *showHelp {
		showUsage()
		return
	}

	args := flag.Args()

	// No arguments - run desktop UI
	if len(args) == 0 {
		runDesktopApp()
		return
	}

	switch args[0] {
	case "resolve":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Error: resolve command requires a structure id")
			fmt.Fprintln(os.Stderr, "Usage: pagedoor resolve <structure-id>")
			os.Exit(1)
		}
		runResolve(args[1])

	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command '%s'\n", args[0])
		fmt.Fprintln(os.Stderr)
		showUsage()
		os.Exit(1)
	}
}

func runDesktopApp() {
	absDir, err := filepath.Abs(*workDir)
	if err != nil {
		log.Fatalf("Invalid workspace directory: %v", err)
	}
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		log.Fatalf("Cannot create workspace directory: %v", err)
	}

	app := NewApp(absDir, *addr)

	err = wails.Run(&options.App{
		Title:  "Pagedoor  ·  direct edit",
		Width:  1200,
		Height: 800,

		AssetServer: &assetserver.Options{
			Assets: assets,
		},

		Linux: &linux.Options{
			Icon: appIcon,
		},

		OnStartup:     app.startup,
		OnDomReady:    app.domReady,
		OnBeforeClose: app.beforeClose,
		OnShutdown:    app.shutdown,
		Bind:          []any{app},
	})
	if err != nil {
		log.Fatal(err)
	}
}

// runResolve asks the configured server for a resource's current site path
// and prints it, headless. Exit 2 means the server answered but the resource
// is gone.
func runResolve(rawID string) {
	absDir, err := filepath.Abs(*workDir)
	if err != nil {
		log.Fatalf("Invalid workspace directory: %v", err)
	}

	cfgPath := filepath.Join(absDir, configFileName)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Server.BaseURL == "" {
		log.Fatalf("No server configured; set server.base_url in %s", cfgPath)
	}

	id, err := cms.ValidateStructureID(rawID)
	if err != nil {
		log.Fatalf("Invalid structure id: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client := cms.NewClient(cfg.Server.BaseURL, cfg.Server.EditorPath)
	sitePath, err := client.ResolveSitePath(ctx, id)
	if err != nil {
		log.Fatalf("Resolve failed: %v", err)
	}
	if sitePath == "" {
		fmt.Fprintln(os.Stderr, "Resource unavailable (no site path)")
		os.Exit(2)
	}
	fmt.Println(sitePath)
}

func showUsage() {
	fmt.Println("Pagedoor - Direct-edit client for workbench servers")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  pagedoor                       Run desktop application (default)")
	fmt.Println("  pagedoor resolve <structure-id>  Resolve a structure id to its site path")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  resolve <structure-id>")
	fmt.Println("        Ask the configured server for the resource's current site path")
	fmt.Println("        and print it. Exits with status 2 when the resource is gone.")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -dir <path>   Workspace directory holding pagedoor.json and pagedoor.db")
	fmt.Println("                (default: current directory)")
	fmt.Println("  -addr <addr>  Override the bridge listen address (host:port)")
	fmt.Println("  -h            Show this help message")
	fmt.Println("  -version      Show version information")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  # Run the desktop app with its own workspace")
	fmt.Println("  pagedoor -dir ~/pagedoor")
	fmt.Println()
	fmt.Println("  # Check where a resource currently lives")
	fmt.Println("  pagedoor -dir ~/pagedoor resolve a3a4cbb9-2ef2-4df2-95c1-f1a58fcaa8e3")
	fmt.Println()
	fmt.Println("Documentation:")
	fmt.Println("  • In-app guide: the Help button, or /help/ on the bridge address")
	fmt.Println("  • Editor page integration: /help/editor-integration")
}
