//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

package registry

import (
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"trpc.group/trpc-go/trpc-agentnet-go/internal/codec"
	"trpc.group/trpc-go/trpc-agentnet-go/log"
)

// Observer accumulates filesystem change counts for the registry between
// updater cycles.
type Observer interface {
	// Start begins observing.
	Start() error
	// Stop ends observing and releases resources.
	Stop()
	// ResetCounters returns the modified, added and deleted counts
	// accumulated since the previous call, zeroing them.
	ResetCounters() (modified, added, deleted int)
}

// Updater re-restores the manifest on a fixed period whenever its
// observer saw changes, replacing the store's full network set in one
// step. Turns already in flight are unaffected because they resolve
// networks through providers.
type Updater struct {
	loader   *Loader
	store    *Store
	observer Observer
	period   time.Duration

	started bool
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

// UpdaterOption customizes an Updater.
type UpdaterOption func(*Updater)

// WithObserver substitutes the change observer. The default polls
// modification times of the manifest and the files it references.
func WithObserver(obs Observer) UpdaterOption {
	return func(u *Updater) { u.observer = obs }
}

// NewUpdater wires a periodic updater over loader and store. A period of
// zero or less disables updating entirely; Start then does nothing.
func NewUpdater(loader *Loader, store *Store, period time.Duration, opts ...UpdaterOption) *Updater {
	u := &Updater{
		loader: loader,
		store:  store,
		period: period,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Start launches the observer and the update loop.
func (u *Updater) Start() error {
	if u.period <= 0 {
		return nil
	}
	if u.observer == nil {
		u.observer = NewPollingObserver(u.loader, PollingInterval(u.period))
	}
	if err := u.observer.Start(); err != nil {
		return err
	}
	log.Infof("Starting manifest updater for %s with %s period", u.loader.Path(), u.period)
	u.started = true
	go u.run()
	return nil
}

// Stop halts the update loop and the observer. Safe to call more than
// once, and before Start.
func (u *Updater) Stop() {
	u.once.Do(func() {
		close(u.stop)
		if u.observer != nil {
			u.observer.Stop()
		}
	})
	if u.started {
		<-u.done
	}
}

func (u *Updater) run() {
	defer close(u.done)
	ticker := time.NewTicker(u.period)
	defer ticker.Stop()
	for {
		select {
		case <-u.stop:
			return
		case <-ticker.C:
			u.cycle()
		}
	}
}

func (u *Updater) cycle() {
	modified, added, deleted := u.observer.ResetCounters()
	if modified == 0 && added == 0 && deleted == 0 {
		return
	}
	log.Infof("Observed events: modified %d, added %d, deleted %d", modified, added, deleted)
	log.Infof("Updating manifest file: %s", u.loader.Path())
	networks, err := u.loader.Restore()
	if err != nil {
		log.Errorf("Manifest update failed: %v", err)
		return
	}
	u.store.ReplaceAll(networks)
}

// PollingInterval derives an observer poll interval from the update
// period: one second for short periods, a quarter of the period rounded
// to whole seconds otherwise.
func PollingInterval(period time.Duration) time.Duration {
	if period <= 5*time.Second {
		return time.Second
	}
	return time.Duration(math.Round(period.Seconds()/4)) * time.Second
}

// PollingObserver snapshots modification times for the manifest and every
// network file it references, comparing snapshots on an interval. This is
// the safe default across filesystems.
type PollingObserver struct {
	loader   *Loader
	interval time.Duration

	mu       sync.Mutex
	seen     map[string]time.Time
	modified int
	added    int
	deleted  int

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// NewPollingObserver builds a polling observer over the loader's files.
func NewPollingObserver(loader *Loader, interval time.Duration) *PollingObserver {
	return &PollingObserver{
		loader:   loader,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start takes the baseline snapshot and begins polling.
func (o *PollingObserver) Start() error {
	o.mu.Lock()
	o.seen = o.snapshot()
	o.mu.Unlock()
	go o.run()
	return nil
}

// Stop ends polling.
func (o *PollingObserver) Stop() {
	o.once.Do(func() {
		close(o.stop)
		<-o.done
	})
}

// ResetCounters implements Observer.
func (o *PollingObserver) ResetCounters() (modified, added, deleted int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	modified, added, deleted = o.modified, o.added, o.deleted
	o.modified, o.added, o.deleted = 0, 0, 0
	return modified, added, deleted
}

func (o *PollingObserver) run() {
	defer close(o.done)
	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()
	for {
		select {
		case <-o.stop:
			return
		case <-ticker.C:
			o.poll()
		}
	}
}

func (o *PollingObserver) poll() {
	next := o.snapshot()
	o.mu.Lock()
	defer o.mu.Unlock()
	for path, mtime := range next {
		prev, ok := o.seen[path]
		switch {
		case !ok:
			o.added++
		case !mtime.Equal(prev):
			o.modified++
		}
	}
	for path := range o.seen {
		if _, ok := next[path]; !ok {
			o.deleted++
		}
	}
	o.seen = next
}

func (o *PollingObserver) snapshot() map[string]time.Time {
	paths := o.loader.watchedFiles()
	out := make(map[string]time.Time, len(paths))
	for _, path := range paths {
		if info, err := os.Stat(path); err == nil {
			out[path] = info.ModTime()
		}
	}
	return out
}

// eventDebounce coalesces rapid write bursts on a single file, as seen
// when editors save via truncate-then-write.
const eventDebounce = 100 * time.Millisecond

// EventObserver counts fsnotify events for the manifest's directory.
// Events are filtered to the manifest itself plus any file whose format
// the decoder registry understands.
type EventObserver struct {
	manifest string

	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	last     map[string]time.Time
	modified int
	added    int
	deleted  int

	done chan struct{}
	once sync.Once
}

// NewEventObserver builds an fsnotify observer for manifestPath.
func NewEventObserver(manifestPath string) *EventObserver {
	return &EventObserver{
		manifest: manifestPath,
		last:     make(map[string]time.Time),
		done:     make(chan struct{}),
	}
}

// Start watches the manifest's parent directory. Watching the directory
// rather than the file survives editors that replace files on save.
func (o *EventObserver) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(o.manifest)); err != nil {
		watcher.Close()
		return err
	}
	o.watcher = watcher
	go o.run()
	return nil
}

// Stop closes the watcher. Safe to call before Start.
func (o *EventObserver) Stop() {
	o.once.Do(func() {
		if o.watcher == nil {
			return
		}
		_ = o.watcher.Close()
		<-o.done
	})
}

// ResetCounters implements Observer.
func (o *EventObserver) ResetCounters() (modified, added, deleted int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	modified, added, deleted = o.modified, o.added, o.deleted
	o.modified, o.added, o.deleted = 0, 0, 0
	return modified, added, deleted
}

func (o *EventObserver) run() {
	defer close(o.done)
	for {
		select {
		case event, ok := <-o.watcher.Events:
			if !ok {
				return
			}
			o.record(event)
		case err, ok := <-o.watcher.Errors:
			if !ok {
				return
			}
			log.Warnf("Registry watch error: %v", err)
		}
	}
}

func (o *EventObserver) record(event fsnotify.Event) {
	if !o.relevant(event.Name) {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	now := time.Now()
	if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
		if last, ok := o.last[event.Name]; ok && now.Sub(last) < eventDebounce {
			return
		}
		o.last[event.Name] = now
	}
	switch {
	case event.Op&fsnotify.Create != 0:
		o.added++
	case event.Op&fsnotify.Write != 0:
		o.modified++
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		o.deleted++
	}
}

func (o *EventObserver) relevant(path string) bool {
	if filepath.Base(path) == filepath.Base(o.manifest) {
		return true
	}
	return codec.Supported(filepath.Ext(path))
}
