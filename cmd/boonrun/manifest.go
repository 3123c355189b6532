// Command boonrun is the CLI harness that wires the runtime's external
// collaborators (ConstructStorage, VFS, event bus) together and runs a
// counter-style HOLD program end to end, per spec.md §8's Counter
// scenario.
//
// Grounded on examples/cli-tasks/main.go and examples/http-api/main.go's
// wiring style (construct scope, construct graph/commands, run), using
// github.com/BurntSushi/toml for the run manifest (nevindra-oasis's
// config-file approach) where the teacher's own examples use no config
// library at all and stdlib flag for flags, matching the teacher.
package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Manifest describes one boonrun program: its storage backend, its VFS
// root, and the initial HOLD seed.
type Manifest struct {
	Name        string `toml:"name"`
	StoragePath string `toml:"storage_path"`
	VFSRoot     string `toml:"vfs_root"`
	InitialHold int    `toml:"initial_hold"`
}

// LoadManifest decodes a TOML manifest file at path.
func LoadManifest(path string) (Manifest, error) {
	var m Manifest
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return Manifest{}, fmt.Errorf("boonrun: decode manifest %q: %w", path, err)
	}
	return m, nil
}

// DefaultManifest is used when no manifest file is given on the command
// line.
func DefaultManifest() Manifest {
	return Manifest{Name: "counter", StoragePath: ":memory:", VFSRoot: "./boon-vfs", InitialHold: 0}
}

func exitErr(err error) {
	fmt.Fprintf(os.Stderr, "boonrun: %v\n", err)
	os.Exit(1)
}
