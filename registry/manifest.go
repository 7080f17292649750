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
	"sort"
	"strings"

	"trpc.group/trpc-go/trpc-agentnet-go/errs"
	"trpc.group/trpc-go/trpc-agentnet-go/internal/codec"
	"trpc.group/trpc-go/trpc-agentnet-go/internal/confmap"
	"trpc.group/trpc-go/trpc-agentnet-go/log"
	"trpc.group/trpc-go/trpc-agentnet-go/network"
	"trpc.group/trpc-go/trpc-agentnet-go/network/validate"
)

// ManifestEnv names the environment variable that overrides the manifest
// location when no explicit path is given to the loader.
const ManifestEnv = "AGENT_MANIFEST_FILE"

// RegisterDecoder installs a config decoder for a file extension so
// manifests and network files may use that format, e.g. a HOCON decoder
// for ".hocon" files. JSON and YAML decoders are built in.
func RegisterDecoder(ext string, fn func(data []byte) (map[string]any, error)) {
	codec.Register(ext, fn)
}

// Loader restores the agent networks a manifest file names.
//
// A manifest is a flat map. An entry whose value is a string names the
// network by its key and points at the network file by its value. Any
// other truthy value marks the key itself as the network file, named by
// the file's stem. Falsy entries are skipped. Keys sometimes arrive with
// literal quotes; those are stripped. Relative paths resolve against the
// manifest's own directory.
type Loader struct {
	path string
	opts validate.Options
}

// NewLoader builds a loader for the manifest at path. An empty path falls
// back to the AGENT_MANIFEST_FILE environment variable.
func NewLoader(path string, opts validate.Options) *Loader {
	if path == "" {
		path = os.Getenv(ManifestEnv)
	}
	return &Loader{path: path, opts: opts}
}

// Path returns the manifest file location the loader reads.
func (l *Loader) Path() string { return l.path }

// Restore reads the manifest and builds every network it names. One bad
// entry is logged and omitted; a missing or unparseable manifest fails
// the whole restore.
//
// Sibling networks in the manifest are implicitly allowed as external
// "/name" references when each entry is validated, mirroring the runtime
// rule that a subnetwork URL is valid exactly when the subnetwork is
// registered.
func (l *Loader) Restore() (map[string]*network.Network, error) {
	manifest, err := l.readManifest()
	if err != nil {
		return nil, err
	}

	entries := manifestEntries(manifest, filepath.Dir(l.path))
	opts := l.opts
	opts.ExternalAgents = append(externalRefs(entries), l.opts.ExternalAgents...)

	networks := make(map[string]*network.Network, len(entries))
	for _, entry := range entries {
		net, err := RestoreNetwork(entry.name, entry.path, opts)
		if err != nil {
			log.Errorf("Failed to restore registry item %s - %s", entry.path, err)
			continue
		}
		networks[net.Name()] = net
	}
	return networks, nil
}

func (l *Loader) readManifest() (map[string]any, error) {
	if l.path == "" {
		return nil, errs.Config("no manifest file configured: pass a path or set %s", ManifestEnv)
	}
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Config(
				"could not find manifest file at path: %s. "+
					"Double-check the value of the %s env var and your current working directory",
				l.path, ManifestEnv)
		}
		return nil, errs.Wrap(errs.KindConfig, err, "read manifest %s", l.path)
	}
	manifest, err := codec.Decode(filepath.Ext(l.path), data)
	if err != nil {
		return nil, errs.Wrap(errs.KindConfig, err, "parse manifest %s", l.path)
	}
	return manifest, nil
}

// watchedFiles lists the manifest plus every network file a truthy entry
// names, for observers that poll modification times. Best effort: when
// the manifest itself cannot be read only its own path is returned.
func (l *Loader) watchedFiles() []string {
	files := []string{l.path}
	manifest, err := l.readManifest()
	if err != nil {
		return files
	}
	for _, entry := range manifestEntries(manifest, filepath.Dir(l.path)) {
		files = append(files, entry.path)
	}
	return files
}

type manifestEntry struct {
	name string
	path string
}

// manifestEntries normalizes the manifest map into (name, path) pairs in
// deterministic key order, resolving relative paths against dir.
func manifestEntries(manifest map[string]any, dir string) []manifestEntry {
	keys := make([]string, 0, len(manifest))
	for key := range manifest {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	entries := make([]manifestEntry, 0, len(keys))
	for _, key := range keys {
		value := manifest[key]
		if !confmap.Truthy(value) {
			continue
		}
		use := confmap.StripQuotes(key)
		if path, ok := value.(string); ok {
			entries = append(entries, manifestEntry{name: use, path: resolvePath(dir, path)})
			continue
		}
		entries = append(entries, manifestEntry{name: pathStem(use), path: resolvePath(dir, use)})
	}
	return entries
}

// externalRefs renders every manifest entry as the "/name" reference form
// other networks on the same server use to call it.
func externalRefs(entries []manifestEntry) []string {
	refs := make([]string, 0, len(entries))
	for _, entry := range entries {
		refs = append(refs, "/"+entry.name)
	}
	return refs
}

func resolvePath(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func pathStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// LoadNetworkFile decodes one network file into an unvalidated network
// named after the file's stem. Validation tooling uses this directly so
// it can report the full violation list.
func LoadNetworkFile(path string) (*network.Network, error) {
	cfg, err := codec.DecodeFile(path)
	if err != nil {
		return nil, err
	}
	return network.New(pathStem(path), cfg)
}

// RestoreNetwork decodes one network file and runs the standard
// validator suite over it. An empty name falls back to the file's stem.
// Violations aggregate into a single validation error.
func RestoreNetwork(name, path string, opts validate.Options) (*network.Network, error) {
	if name == "" {
		name = pathStem(path)
	}
	cfg, err := codec.DecodeFile(path)
	if err != nil {
		return nil, err
	}
	net, err := network.New(name, cfg)
	if err != nil {
		return nil, err
	}
	if violations := validate.Suite(opts).Validate(net); len(violations) > 0 {
		return nil, errs.Validation("network %q: %s", name, strings.Join(violations, "; "))
	}
	return net, nil
}
