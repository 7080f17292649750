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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-agentnet-go/network/validate"
)

func TestPollingInterval(t *testing.T) {
	assert.Equal(t, time.Second, PollingInterval(3*time.Second))
	assert.Equal(t, time.Second, PollingInterval(5*time.Second))
	assert.Equal(t, 2*time.Second, PollingInterval(6*time.Second))
	assert.Equal(t, 5*time.Second, PollingInterval(20*time.Second))
}

func TestPollingObserverCounts(t *testing.T) {
	dir := t.TempDir()
	netPath := writeFile(t, dir, "a.json", simpleNetwork)
	manifest := writeFile(t, dir, "manifest.json", `{
	  "a.json": true,
	  "b.json": true
	}`)
	loader := NewLoader(manifest, validate.Options{})

	// An hour-long interval keeps the ticker quiet; polls are driven by
	// hand to stay deterministic.
	observer := NewPollingObserver(loader, time.Hour)
	require.NoError(t, observer.Start())
	defer observer.Stop()

	modified, added, deleted := observer.ResetCounters()
	assert.Zero(t, modified+added+deleted)

	// Push a.json's mtime forward and materialize the missing b.json.
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(netPath, future, future))
	writeFile(t, dir, "b.json", simpleNetwork)
	observer.poll()

	modified, added, deleted = observer.ResetCounters()
	assert.Equal(t, 1, modified)
	assert.Equal(t, 1, added)
	assert.Equal(t, 0, deleted)

	// Counters zero once read.
	modified, added, deleted = observer.ResetCounters()
	assert.Zero(t, modified+added+deleted)

	require.NoError(t, os.Remove(netPath))
	observer.poll()
	_, _, deleted = observer.ResetCounters()
	assert.Equal(t, 1, deleted)
}

type fakeObserver struct {
	started  bool
	stopped  bool
	modified int
	added    int
	deleted  int
}

func (f *fakeObserver) Start() error { f.started = true; return nil }
func (f *fakeObserver) Stop()        { f.stopped = true }

func (f *fakeObserver) ResetCounters() (int, int, int) {
	m, a, d := f.modified, f.added, f.deleted
	f.modified, f.added, f.deleted = 0, 0, 0
	return m, a, d
}

func TestUpdaterCycleReplacesStore(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "hello_world.json", simpleNetwork)
	manifest := writeFile(t, dir, "manifest.json", `{"hello_world.json": true}`)
	loader := NewLoader(manifest, validate.Options{})

	store := NewStore()
	store.Install("stale", testNetwork(t, "stale"))

	observer := &fakeObserver{modified: 1}
	updater := NewUpdater(loader, store, time.Minute, WithObserver(observer))

	updater.cycle()
	assert.Equal(t, []string{"hello_world"}, store.List())
}

func TestUpdaterSkipsQuietCycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "hello_world.json", simpleNetwork)
	manifest := writeFile(t, dir, "manifest.json", `{"hello_world.json": true}`)
	loader := NewLoader(manifest, validate.Options{})

	store := NewStore()
	store.Install("stale", testNetwork(t, "stale"))

	updater := NewUpdater(loader, store, time.Minute, WithObserver(&fakeObserver{}))

	updater.cycle()
	assert.Equal(t, []string{"stale"}, store.List())
}

func TestUpdaterKeepsStoreOnRestoreFailure(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "gone.json")
	loader := NewLoader(manifest, validate.Options{})

	store := NewStore()
	store.Install("kept", testNetwork(t, "kept"))

	updater := NewUpdater(loader, store, time.Minute, WithObserver(&fakeObserver{deleted: 1}))

	updater.cycle()
	assert.Equal(t, []string{"kept"}, store.List())
}

func TestUpdaterDisabledByZeroPeriod(t *testing.T) {
	dir := t.TempDir()
	manifest := writeFile(t, dir, "manifest.json", `{}`)
	loader := NewLoader(manifest, validate.Options{})

	observer := &fakeObserver{}
	updater := NewUpdater(loader, NewStore(), 0, WithObserver(observer))

	require.NoError(t, updater.Start())
	assert.False(t, observer.started)
	updater.Stop()
}

func TestUpdaterStartStop(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "hello_world.json", simpleNetwork)
	manifest := writeFile(t, dir, "manifest.json", `{"hello_world.json": true}`)
	loader := NewLoader(manifest, validate.Options{})

	observer := &fakeObserver{}
	updater := NewUpdater(loader, NewStore(), time.Hour, WithObserver(observer))

	require.NoError(t, updater.Start())
	assert.True(t, observer.started)
	updater.Stop()
	assert.True(t, observer.stopped)
	// Stop is idempotent.
	updater.Stop()
}

func TestEventObserverCounts(t *testing.T) {
	observer := NewEventObserver("/registries/manifest.json")

	observer.record(fsnotify.Event{Name: "/registries/net.json", Op: fsnotify.Write})
	observer.record(fsnotify.Event{Name: "/registries/extra.yaml", Op: fsnotify.Create})
	observer.record(fsnotify.Event{Name: "/registries/old.json", Op: fsnotify.Remove})
	// Unrelated formats in the same directory are ignored.
	observer.record(fsnotify.Event{Name: "/registries/notes.txt", Op: fsnotify.Write})

	modified, added, deleted := observer.ResetCounters()
	assert.Equal(t, 1, modified)
	assert.Equal(t, 1, added)
	assert.Equal(t, 1, deleted)
}

func TestEventObserverDebouncesWriteBursts(t *testing.T) {
	observer := NewEventObserver("/registries/manifest.json")

	observer.record(fsnotify.Event{Name: "/registries/net.json", Op: fsnotify.Write})
	observer.record(fsnotify.Event{Name: "/registries/net.json", Op: fsnotify.Write})

	modified, _, _ := observer.ResetCounters()
	assert.Equal(t, 1, modified)
}

func TestEventObserverTracksManifestByName(t *testing.T) {
	observer := NewEventObserver("/registries/manifest.custom")

	// The manifest matches by basename even when its extension has no
	// registered decoder.
	observer.record(fsnotify.Event{Name: "/registries/manifest.custom", Op: fsnotify.Write})
	observer.record(fsnotify.Event{Name: "/registries/other.custom", Op: fsnotify.Write})

	modified, _, _ := observer.ResetCounters()
	assert.Equal(t, 1, modified)
}
