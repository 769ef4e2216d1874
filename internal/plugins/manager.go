package plugins

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/vrsandeep/nowplaying-go/internal/sites"
)

// PluginInfo represents information about a plugin directory.
type PluginInfo struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Author      string   `json:"author"`
	APIVersion  string   `json:"api_version"`
	Matches     []string `json:"matches"`
	Path        string   `json:"path"`
	Loaded      bool     `json:"loaded"`
	Error       string   `json:"error,omitempty"`
}

// LoadedPlugin represents a plugin registered with the site registry.
type LoadedPlugin struct {
	Manifest *PluginManifest
	Provider *PluginProvider
	Path     string
	LoadedAt time.Time
}

// Manager loads plugin directories and keeps the registry in sync with
// them.
type Manager struct {
	registry      *sites.Registry
	pluginDir     string
	callTimeout   time.Duration
	plugins       map[string]*LoadedPlugin
	failedPlugins map[string]string // Map of plugin path to error message
	mu            sync.RWMutex

	watcher       *fsnotify.Watcher
	debounceTimer *time.Timer
	debounceDelay time.Duration
	onReload      func()
	stopChan      chan struct{}
	stopOnce      sync.Once
}

// NewManager creates a manager that registers plugins from pluginDir into
// registry. callTimeout bounds every call into a script.
func NewManager(registry *sites.Registry, pluginDir string, callTimeout time.Duration) *Manager {
	return &Manager{
		registry:      registry,
		pluginDir:     pluginDir,
		callTimeout:   callTimeout,
		plugins:       make(map[string]*LoadedPlugin),
		failedPlugins: make(map[string]string),
		debounceDelay: 500 * time.Millisecond,
		stopChan:      make(chan struct{}),
	}
}

// OnReload sets a function run after the watcher reloaded plugins.
func (pm *Manager) OnReload(fn func()) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.onReload = fn
}

// SetDebounceDelay sets how long the watcher waits after the last change.
func (pm *Manager) SetDebounceDelay(d time.Duration) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.debounceDelay = d
}

// LoadPlugins loads every plugin directory not loaded yet. A broken plugin
// is recorded and skipped. A missing plugins directory means no plugins;
// only an unreadable one is an error.
func (pm *Manager) LoadPlugins() error {
	entries, err := os.ReadDir(pm.pluginDir)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("[plugins] No plugins directory at %s", pm.pluginDir)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read plugins directory: %w", err)
	}

	pm.mu.Lock()
	defer pm.mu.Unlock()

	loaded := 0
	for _, entry := range entries {
		// Skip files and hidden directories
		if !entry.IsDir() || entry.Name()[0] == '.' {
			continue
		}

		pluginPath := filepath.Join(pm.pluginDir, entry.Name())
		if pm.loadedFromLocked(pluginPath) {
			continue
		}
		if _, err := os.Stat(filepath.Join(pluginPath, "plugin.json")); os.IsNotExist(err) {
			log.Printf("[plugins] Skipping %s: no plugin.json found", entry.Name())
			continue
		}

		if err := pm.loadLocked(pluginPath); err != nil {
			log.Printf("[plugins] Failed to load plugin %s: %v", entry.Name(), err)
			pm.failedPlugins[pluginPath] = err.Error()
			continue
		}
		loaded++
	}

	log.Printf("[plugins] Loaded %d plugin(s) from %s", loaded, pm.pluginDir)
	return nil
}

func (pm *Manager) loadedFromLocked(pluginPath string) bool {
	for _, loaded := range pm.plugins {
		if loaded.Path == pluginPath {
			return true
		}
	}
	return false
}

// LoadPlugin loads a single plugin directory.
func (pm *Manager) LoadPlugin(pluginDir string) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	if err := pm.loadLocked(pluginDir); err != nil {
		pm.failedPlugins[pluginDir] = err.Error()
		return err
	}
	return nil
}

// loadLocked loads a plugin. Caller must hold the lock.
func (pm *Manager) loadLocked(pluginDir string) error {
	manifest, err := LoadManifest(pluginDir)
	if err != nil {
		return fmt.Errorf("failed to load manifest: %w", err)
	}

	// Validate API version compatibility
	if err := ValidateAPIVersion(manifest.APIVersion); err != nil {
		return fmt.Errorf("API version incompatibility: %w", err)
	}

	if _, exists := pm.plugins[manifest.ID]; exists {
		return fmt.Errorf("plugin %s is already loaded", manifest.ID)
	}
	// Registering over a built-in site would panic.
	if _, exists := pm.registry.Get(manifest.ID); exists {
		return fmt.Errorf("plugin %s conflicts with a registered site", manifest.ID)
	}

	// Compile once; every page session evaluates the same program.
	program, err := CompileScript(manifest, pluginDir)
	if err != nil {
		return err
	}

	provider := NewPluginProvider(manifest, program, pm.callTimeout)
	pm.registry.Register(provider)
	pm.plugins[manifest.ID] = &LoadedPlugin{
		Manifest: manifest,
		Provider: provider,
		Path:     pluginDir,
		LoadedAt: time.Now(),
	}
	delete(pm.failedPlugins, pluginDir)

	log.Printf("[plugins] Loaded plugin: %s (%s) v%s", manifest.Name, manifest.ID, manifest.Version)
	return nil
}

// UnloadPlugin removes a plugin from the registry.
func (pm *Manager) UnloadPlugin(pluginID string) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return pm.unloadLocked(pluginID)
}

func (pm *Manager) unloadLocked(pluginID string) error {
	if _, exists := pm.plugins[pluginID]; !exists {
		return fmt.Errorf("plugin %s is not loaded", pluginID)
	}
	pm.registry.Unregister(pluginID)
	delete(pm.plugins, pluginID)
	log.Printf("[plugins] Unloaded plugin: %s", pluginID)
	return nil
}

// ReloadPlugin reloads a plugin from its directory. A plugin is never
// replaced by an older version; the loaded one is kept instead.
func (pm *Manager) ReloadPlugin(pluginID string) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	loaded, exists := pm.plugins[pluginID]
	if !exists {
		return fmt.Errorf("plugin %s not found", pluginID)
	}
	if err := checkDowngrade(loaded); err != nil {
		return err
	}
	oldVersion := loaded.Manifest.Version

	if err := pm.unloadLocked(pluginID); err != nil {
		return err
	}
	if err := pm.loadLocked(loaded.Path); err != nil {
		pm.failedPlugins[loaded.Path] = err.Error()
		return err
	}
	pm.logUpgradeLocked(pluginID, oldVersion)
	return nil
}

// ReloadAllPlugins unloads every plugin and loads the directory again,
// which also picks up added and removed plugins. Plugins whose directory
// now holds an older version stay loaded as they are.
func (pm *Manager) ReloadAllPlugins() error {
	pm.mu.Lock()
	oldVersions := make(map[string]string, len(pm.plugins))
	for id, loaded := range pm.plugins {
		if err := checkDowngrade(loaded); err != nil {
			log.Printf("[plugins] Keeping %s v%s: %v", id, loaded.Manifest.Version, err)
			continue
		}
		oldVersions[id] = loaded.Manifest.Version
		pm.unloadLocked(id)
	}
	pm.failedPlugins = make(map[string]string)
	pm.mu.Unlock()

	err := pm.LoadPlugins()

	pm.mu.Lock()
	for id, oldVersion := range oldVersions {
		pm.logUpgradeLocked(id, oldVersion)
	}
	pm.mu.Unlock()
	return err
}

// checkDowngrade reports an error when the manifest on disk is older than
// the loaded one. An unreadable manifest is left for the load to report.
func checkDowngrade(loaded *LoadedPlugin) error {
	manifest, err := LoadManifest(loaded.Path)
	if err != nil {
		return nil
	}
	cmp, err := CompareVersions(manifest.Version, loaded.Manifest.Version)
	if err != nil || cmp >= 0 {
		return nil
	}
	return fmt.Errorf("refusing to downgrade plugin %s from %s to %s", loaded.Manifest.ID, loaded.Manifest.Version, manifest.Version)
}

func (pm *Manager) logUpgradeLocked(pluginID, oldVersion string) {
	reloaded, ok := pm.plugins[pluginID]
	if !ok {
		return
	}
	if newer, err := IsNewerVersion(oldVersion, reloaded.Manifest.Version); err == nil && newer {
		log.Printf("[plugins] Upgraded plugin %s from %s to %s", pluginID, oldVersion, reloaded.Manifest.Version)
	}
}

// GetPluginInfo returns information about a loaded plugin.
func (pm *Manager) GetPluginInfo(pluginID string) (*PluginInfo, bool) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	loaded, exists := pm.plugins[pluginID]
	if !exists {
		return nil, false
	}
	info := infoFromManifest(loaded.Manifest, loaded.Path)
	info.Loaded = true
	return &info, true
}

// ListPlugins returns loaded and failed plugins, sorted by id.
func (pm *Manager) ListPlugins() []PluginInfo {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	plugins := make([]PluginInfo, 0, len(pm.plugins)+len(pm.failedPlugins))
	for _, loaded := range pm.plugins {
		info := infoFromManifest(loaded.Manifest, loaded.Path)
		info.Loaded = true
		plugins = append(plugins, info)
	}

	// Failed plugins: try to load manifest to get basic info
	for pluginPath, errorMsg := range pm.failedPlugins {
		manifest, err := LoadManifest(pluginPath)
		var info PluginInfo
		if err != nil {
			// If we can't even load the manifest, use directory name as ID
			pluginID := filepath.Base(pluginPath)
			info = PluginInfo{ID: pluginID, Name: pluginID, Path: pluginPath}
		} else {
			info = infoFromManifest(manifest, pluginPath)
		}
		info.Error = errorMsg
		plugins = append(plugins, info)
	}

	sort.Slice(plugins, func(i, j int) bool { return plugins[i].ID < plugins[j].ID })
	return plugins
}

func infoFromManifest(m *PluginManifest, path string) PluginInfo {
	return PluginInfo{
		ID:          m.ID,
		Name:        m.Name,
		Version:     m.Version,
		Description: m.Description,
		Author:      m.Author,
		APIVersion:  m.APIVersion,
		Matches:     m.Matches,
		Path:        path,
	}
}

// Watch reloads all plugins whenever a file under the plugin directory
// changes. Bursts of events, such as an editor saving, are debounced into
// one reload.
func (pm *Manager) Watch() error {
	// Watching starts from an empty directory when there is none yet.
	if err := os.MkdirAll(pm.pluginDir, 0755); err != nil {
		return fmt.Errorf("failed to create plugins directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	err = filepath.WalkDir(pm.pluginDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		// Files are watched via their parent directory
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		watcher.Close()
		return err
	}

	pm.mu.Lock()
	pm.watcher = watcher
	pm.mu.Unlock()

	log.Printf("[plugins] Watching %s for changes", pm.pluginDir)
	go pm.processEvents(watcher)
	return nil
}

func (pm *Manager) processEvents(watcher *fsnotify.Watcher) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			pm.handleEvent(watcher, event)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[plugins] Watcher error: %v", err)

		case <-pm.stopChan:
			return
		}
	}
}

func (pm *Manager) handleEvent(watcher *fsnotify.Watcher, event fsnotify.Event) {
	// Ignore Chmod events
	if event.Op == fsnotify.Chmod {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			watcher.Add(event.Name)
		}
	}

	pm.mu.Lock()
	defer pm.mu.Unlock()
	if pm.debounceTimer != nil {
		pm.debounceTimer.Stop()
	}
	pm.debounceTimer = time.AfterFunc(pm.debounceDelay, pm.reloadFromWatcher)
}

func (pm *Manager) reloadFromWatcher() {
	select {
	case <-pm.stopChan:
		return
	default:
	}

	log.Printf("[plugins] Change detected, reloading plugins")
	if err := pm.ReloadAllPlugins(); err != nil {
		log.Printf("[plugins] Reload failed: %v", err)
		return
	}

	pm.mu.RLock()
	hook := pm.onReload
	pm.mu.RUnlock()
	if hook != nil {
		hook()
	}
}

// Stop stops the watcher and unregisters all plugins.
func (pm *Manager) Stop() {
	pm.stopOnce.Do(func() {
		close(pm.stopChan)
	})

	pm.mu.Lock()
	defer pm.mu.Unlock()

	if pm.debounceTimer != nil {
		pm.debounceTimer.Stop()
	}
	if pm.watcher != nil {
		pm.watcher.Close()
		pm.watcher = nil
	}
	for id := range pm.plugins {
		pm.unloadLocked(id)
	}
	log.Println("[plugins] Plugin manager stopped")
}
