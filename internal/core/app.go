package core

import (
	"fmt"
	"log"

	"github.com/vrsandeep/nowplaying-go/internal/config"
	"github.com/vrsandeep/nowplaying-go/internal/dispatcher"
	"github.com/vrsandeep/nowplaying-go/internal/plugins"
	"github.com/vrsandeep/nowplaying-go/internal/sites"
	"github.com/vrsandeep/nowplaying-go/internal/sites/jellyfin"
	"github.com/vrsandeep/nowplaying-go/internal/sites/youtubeembed"
)

// App holds the core components shared by the command line tools.
type App struct {
	config     *config.Config
	registry   *sites.Registry
	plugins    *plugins.Manager
	dispatcher *dispatcher.Dispatcher
}

// New loads config.yml and sets up an App publishing to sink.
func New(sink dispatcher.Sink) (*App, error) {
	// Load configuration from config.yml
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return NewWithConfig(cfg, sink)
}

// NewWithConfig sets up an App from cfg: the built-in sites, the plugins
// found under cfg.Plugins.Path, and a dispatcher over both.
func NewWithConfig(cfg *config.Config, sink dispatcher.Sink) (*App, error) {
	registry := sites.NewRegistry()
	RegisterBuiltins(registry, cfg)

	manager := plugins.NewManager(registry, cfg.Plugins.Path, cfg.CallTimeout())
	if err := manager.LoadPlugins(); err != nil {
		log.Printf("Warning: failed to load plugins: %v", err)
	}

	d := dispatcher.New(registry, sink, dispatcher.Options{Reporting: cfg.Reporting.Enabled})

	if cfg.Plugins.Watch {
		// A reloaded plugin only takes effect for a new session.
		manager.OnReload(func() { d.Reattach() })
		if err := manager.Watch(); err != nil {
			manager.Stop()
			return nil, fmt.Errorf("failed to watch plugins directory: %w", err)
		}
	}

	log.Println("Core application setup complete.")
	return &App{
		config:     cfg,
		registry:   registry,
		plugins:    manager,
		dispatcher: d,
	}, nil
}

// RegisterBuiltins registers the compiled-in sites.
func RegisterBuiltins(registry *sites.Registry, cfg *config.Config) {
	registry.Register(youtubeembed.New(youtubeembed.Options{
		ThumbnailBase: cfg.Cover.ThumbnailBase,
		ProbeTimeout:  cfg.ProbeTimeout(),
	}))
	registry.Register(jellyfin.New(cfg.Jellyfin.Hosts...))
}

func (a *App) Config() *config.Config {
	return a.config
}

func (a *App) Registry() *sites.Registry {
	return a.registry
}

func (a *App) Plugins() *plugins.Manager {
	return a.plugins
}

func (a *App) Dispatcher() *dispatcher.Dispatcher {
	return a.dispatcher
}

// Close stops polling, ends the active session and unloads plugins.
func (a *App) Close() {
	a.dispatcher.Stop()
	a.dispatcher.Detach()
	a.plugins.Stop()
}
