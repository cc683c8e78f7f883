// hot-reload.go: dynamic wait-timeout reload with Argus integration
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package nodecache

import (
	"fmt"
	"time"

	"github.com/agilira/argus"
)

// HotConfig watches a configuration file and applies changes to a running
// Store's WaitTimeout. ShardCount is fixed once a Store is built (it shapes
// the shard slice itself); WaitTimeout is the only field HotConfig
// reloads.
type HotConfig[K comparable, V any] struct {
	store   *Store[K, V]
	watcher *argus.Watcher

	// OnReload is called after the timeout is successfully reloaded. Must
	// be fast and non-blocking.
	OnReload func(oldTimeout, newTimeout time.Duration)
}

// HotConfigOptions configures hot reload behavior.
type HotConfigOptions struct {
	// ConfigPath is the path to the configuration file to watch. Supports
	// JSON, YAML, TOML, HCL, INI, Properties formats (via Argus).
	ConfigPath string

	// PollInterval is how often to check for configuration changes.
	// Default: 1 second. Minimum: 100ms.
	PollInterval time.Duration

	// OnReload is called after the timeout is successfully reloaded.
	OnReload func(oldTimeout, newTimeout time.Duration)
}

// NewHotConfig creates a hot-reloadable wait-timeout watcher for store. It
// starts watching the configuration file immediately.
//
// Example configuration file (YAML):
//
//	nodecache:
//	  wait_timeout: "5s"
//
// Supported configuration key: nodecache.wait_timeout (duration string).
func NewHotConfig[K comparable, V any](store *Store[K, V], opts HotConfigOptions) (*HotConfig[K, V], error) {
	if opts.ConfigPath == "" {
		return nil, fmt.Errorf("config_path is required")
	}

	if opts.PollInterval == 0 {
		opts.PollInterval = time.Second
	} else if opts.PollInterval < 100*time.Millisecond {
		opts.PollInterval = 100 * time.Millisecond
	}

	hc := &HotConfig[K, V]{
		store:    store,
		OnReload: opts.OnReload,
	}

	argusConfig := argus.Config{PollInterval: opts.PollInterval}
	watcher, err := argus.UniversalConfigWatcherWithConfig(opts.ConfigPath, hc.handleConfigChange, argusConfig)
	if err != nil {
		return nil, err
	}
	hc.watcher = watcher
	return hc, nil
}

// Start begins watching the configuration file for changes.
func (hc *HotConfig[K, V]) Start() error {
	if hc.watcher.IsRunning() {
		return nil
	}
	return hc.watcher.Start()
}

// Stop stops watching the configuration file.
func (hc *HotConfig[K, V]) Stop() error {
	return hc.watcher.Stop()
}

// WaitTimeout returns the currently active wait timeout.
func (hc *HotConfig[K, V]) WaitTimeout() time.Duration {
	return hc.store.WaitTimeoutNow()
}

// handleConfigChange is called by Argus when the watched file changes.
func (hc *HotConfig[K, V]) handleConfigChange(data map[string]interface{}) {
	newTimeout, ok := hc.parseWaitTimeout(data)
	if !ok {
		return
	}

	oldTimeout := hc.store.WaitTimeoutNow()
	if oldTimeout == newTimeout {
		return
	}
	hc.store.SetWaitTimeout(newTimeout)

	if hc.OnReload != nil {
		hc.OnReload(oldTimeout, newTimeout)
	}
}

func (hc *HotConfig[K, V]) parseWaitTimeout(data map[string]interface{}) (time.Duration, bool) {
	section, ok := data["nodecache"].(map[string]interface{})
	if !ok {
		if _, has := data["wait_timeout"]; has {
			section = data
		} else {
			return 0, false
		}
	}
	str, ok := section["wait_timeout"].(string)
	if !ok {
		return 0, false
	}
	d, err := time.ParseDuration(str)
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}
