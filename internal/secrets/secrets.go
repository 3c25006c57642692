// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads registry credentials from a directory of plain-text
// files. Each file is one secret: the filename is the key and the trimmed
// contents are the value.
//
// Recognized keys: elements-username, elements-password, author-id-salt.
package secrets

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/elements-sync/pkg/types"
)

// DefaultDir is where the CLI looks for secret files.
const DefaultDir = ".secrets/"

// Secret file names.
const (
	KeyUsername   = "elements-username"
	KeyPassword   = "elements-password"
	KeyAuthorSalt = "author-id-salt"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged and skipped.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			slog.Warn("could not read secret", "name", name, "error", err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Apply fills credentials that cfg leaves blank from loaded secrets.
// Values already set by flags, environment, or config file win.
func Apply(cfg *types.SyncConfig, s map[string]string) {
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = s[key]
		}
	}
	fill(&cfg.Registry.Username, KeyUsername)
	fill(&cfg.Registry.Password, KeyPassword)
	fill(&cfg.Import.AuthorSalt, KeyAuthorSalt)
}
