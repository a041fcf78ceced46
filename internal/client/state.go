package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// State is what the CLI remembers between runs.
type State struct {
	TwinID     string `json:"twinId,omitempty"`
	TwinName   string `json:"twinName,omitempty"`
	OwnerToken string `json:"ownerToken,omitempty"`
}

// DefaultStatePath is $XDG_CONFIG_HOME/echome/state.json (or the platform
// equivalent), falling back to the working directory.
func DefaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "echome-state.json"
	}
	return filepath.Join(dir, "echome", "state.json")
}

// LoadState reads path. A missing file yields an empty state.
func LoadState(path string) (State, error) {
	var s State
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, err
	}
	if err := json.Unmarshal(b, &s); err != nil {
		return State{}, fmt.Errorf("client: state %s: %w", path, err)
	}
	return s, nil
}

// SaveState writes s to path atomically, creating parent directories.
func SaveState(path string, s State) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
