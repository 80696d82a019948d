// ABOUTME: Entry point for the mindease wellness server and CLI
// ABOUTME: Serves the API and app shell, with chat and status subcommands

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/2389/mindease/internal/auth"
	"github.com/2389/mindease/internal/client"
	"github.com/2389/mindease/internal/cloud"
	"github.com/2389/mindease/internal/config"
	"github.com/2389/mindease/internal/gateway"
	"github.com/2389/mindease/internal/lifecycle"
	"github.com/2389/mindease/internal/server"
	"github.com/2389/mindease/internal/store"
	"github.com/2389/mindease/internal/wellness"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
           _           _
 _ __ ___ (_)_ __   __| | ___  __ _ ___  ___
| '_ ' _ \| | '_ \ / _' |/ _ \/ _' / __|/ _ \
| | | | | | | | | | (_| |  __/ (_| \__ \  __/
|_| |_| |_|_|_| |_|\__,_|\___|\__,_|___/\___|
`

// getConfigPath returns the path to the config file.
// Priority: MINDEASE_CONFIG env var > XDG_CONFIG_HOME/mindease/config.yaml > ~/.config/mindease/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("MINDEASE_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "mindease", "config.yaml")
}

// getServerURL returns the base URL the CLI subcommands talk to.
func getServerURL() string {
	if url := os.Getenv("MINDEASE_HOST"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: mindease <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve              Start the wellness server")
		fmt.Println("  init               Create a config file with defaults")
		fmt.Println("  chat <message>     Send a chat message to a running server")
		fmt.Println("  status             Show server health and provider status")
		fmt.Println("  version            Print the version")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "chat":
		err = runChat(ctx)
	case "status":
		err = runStatus(ctx)
	case "version":
		fmt.Println(version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	// Load configuration, falling back to defaults when no file exists
	var cfg *config.Config
	if _, err := os.Stat(configPath); err == nil {
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	} else {
		cfg = config.Default()
		configPath = "(defaults)"
	}

	logger := setupLogger(cfg.Logging)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:   %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:     %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Database: %s\n", cfg.Database.Path)
	if cfg.Origin.Upstream != "" {
		green.Print("    ▶ ")
		fmt.Printf("Origin:   %s\n", cfg.Origin.Upstream)
	}
	fmt.Println()

	logger.Info("starting mindease",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
	)

	// Storage tiers
	primary, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening primary store: %w", err)
	}
	fallback, err := store.NewBucketStore(cfg.Database.FallbackDir)
	if err != nil {
		return fmt.Errorf("opening fallback store: %w", err)
	}
	tiered := store.NewTieredStore(primary, fallback, logger)
	defer tiered.Close()

	// AI gateway
	gw := gateway.New(tiered, logger)
	defer gw.Close()
	gw.LoadCredentials(ctx)
	seedProviderKeys(ctx, gw, tiered, cfg.Providers, logger)

	wellnessSvc := wellness.NewService(tiered, logger)

	// Cloud sync
	var syncer lifecycle.Syncer
	if cfg.Cloud.Enabled {
		syncer = cloud.New(cfg.Cloud.URL, wellnessSvc, logger)
	}

	// Cache lifecycle controller, only when an app origin is configured
	var controller *lifecycle.Controller
	if cfg.Origin.Upstream != "" {
		manifest := lifecycle.DefaultManifest()
		if cfg.Cache.ManifestPath != "" {
			manifest, err = lifecycle.LoadManifest(cfg.Cache.ManifestPath)
			if err != nil {
				return fmt.Errorf("loading cache manifest: %w", err)
			}
		}

		cacheStore, err := lifecycle.NewCacheStore(cfg.Database.CachePath)
		if err != nil {
			return fmt.Errorf("opening cache store: %w", err)
		}
		defer cacheStore.Close()

		fetcher := lifecycle.NewOriginFetcher(cfg.Origin.Upstream)
		controller = lifecycle.NewController(manifest, cacheStore, fetcher, syncer, logger)

		// Precaching needs the origin; a cold start without it still serves
		if err := controller.Install(ctx); err != nil {
			logger.Warn("install precache failed, serving with existing caches", "error", err)
		}
		if err := controller.Activate(ctx); err != nil {
			return fmt.Errorf("activating cache controller: %w", err)
		}
	}

	var accounts *auth.Manager
	if cfg.Auth.JWTSecret != "" {
		accounts = auth.NewManager(tiered, []byte(cfg.Auth.JWTSecret))
	} else {
		logger.Warn("auth endpoints disabled - no jwt_secret configured")
	}

	srv := server.New(server.Config{
		Addr:       cfg.Server.HTTPAddr,
		Store:      tiered,
		Gateway:    gw,
		Controller: controller,
		Wellness:   wellnessSvc,
		Accounts:   accounts,
		Logger:     logger,
	})

	// Daily background sync
	if controller != nil && syncer != nil {
		go runDailySync(ctx, controller)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// seedProviderKeys installs config-seeded API keys for providers that have
// no stored key. Stored keys always win.
func seedProviderKeys(ctx context.Context, gw *gateway.Gateway, settings store.Store, seeds config.ProvidersConfig, logger *slog.Logger) {
	for name, seed := range map[string]string{
		gateway.ProviderCohere:      seeds.CohereKey,
		gateway.ProviderOpenRouter:  seeds.OpenRouterKey,
		gateway.ProviderHuggingFace: seeds.HuggingFaceKey,
	} {
		if seed == "" {
			continue
		}
		if _, err := settings.Setting(ctx, "ai_"+name+"_key"); err == nil {
			continue
		}
		if err := gw.UpdateCredential(ctx, name, seed); err != nil {
			logger.Warn("seeding provider key failed", "provider", name, "error", err)
		}
	}
}

// runDailySync fires the periodic sync tag once a day until shutdown.
func runDailySync(ctx context.Context, controller *lifecycle.Controller) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			controller.Sync(lifecycle.SyncTagDaily)
		case <-ctx.Done():
			return
		}
	}
}

// defaultConfigTemplate is written by the init subcommand.
const defaultConfigTemplate = `server:
  http_addr: ":8080"

database:
  path: "data/mindease.db"
  fallback_dir: "data/fallback"
  cache_path: "data/cache.db"

# Upstream app origin served through the cache controller.
# Leave empty to run the API without the app shell.
origin:
  upstream: ""

# cache:
#   manifest_path: "cache.toml"

providers:
  cohere_key: "${COHERE_API_KEY}"
  openrouter_key: "${OPENROUTER_API_KEY}"
  huggingface_key: "${HF_API_KEY}"

auth:
  jwt_secret: "${MINDEASE_JWT_SECRET}"

cloud:
  enabled: false
  url: ""

logging:
  level: "info"
  format: "text"
`

func runInit() error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config already exists at %s", configPath)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(defaultConfigTemplate), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	green := color.New(color.FgGreen)
	green.Print("✓ ")
	fmt.Printf("Created %s\n", configPath)
	return nil
}

func runChat(ctx context.Context) error {
	message := strings.TrimSpace(strings.Join(os.Args[2:], " "))
	if message == "" {
		return fmt.Errorf("usage: mindease chat <message>")
	}

	reply, err := client.New(getServerURL()).Chat(ctx, message)
	if err != nil {
		return err
	}
	fmt.Println(reply)
	return nil
}

func runStatus(ctx context.Context) error {
	c := client.New(getServerURL())

	if err := c.Health(ctx); err != nil {
		return err
	}
	green := color.New(color.FgGreen)
	green.Print("✓ ")
	fmt.Printf("Server healthy at %s\n\n", getServerURL())

	providers, err := c.Providers(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PROVIDER\tMODEL\tCONFIGURED\tRATE LIMITED\tLAST ERROR")
	for _, p := range providers {
		fmt.Fprintf(w, "%s\t%s\t%v\t%v\t%s\n", p.Name, p.Model, p.Configured, p.RateLimited, p.LastError)
	}
	return w.Flush()
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = &colorHandler{
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	// Format timestamp
	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	// Colorize level
	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	// Print message
	buf.WriteString(r.Message)

	// Print handler-level attrs first (from WithAttrs)
	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}

	// Print record attrs
	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}
