// Package staticcatalog loads task templates and chains from JSON files.
// Either file may hold a list of records or an object keyed by id.
package staticcatalog

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"villagelife/internal/domain/task"
)

const (
	TemplatesFile = "task_templates.json"
	ChainsFile    = "task_chains.json"
)

//go:embed defaults/*.json
var defaults embed.FS

var ErrInvalidCatalogPath = errors.New("invalid catalog filepath")

// Provider reads Root/task_templates.json and Root/task_chains.json. An
// empty Root serves the built-in catalog. A missing file yields no records.
type Provider struct {
	Root string
}

func (p Provider) Load(_ context.Context) ([]task.Template, []task.Chain, error) {
	templatesRaw, err := p.read(TemplatesFile)
	if err != nil {
		return nil, nil, err
	}
	chainsRaw, err := p.read(ChainsFile)
	if err != nil {
		return nil, nil, err
	}
	var templates []task.Template
	if err := decodeRecords(templatesRaw, &templates); err != nil {
		return nil, nil, fmt.Errorf("decode %s: %w", TemplatesFile, err)
	}
	var chains []task.Chain
	if err := decodeRecords(chainsRaw, &chains); err != nil {
		return nil, nil, fmt.Errorf("decode %s: %w", ChainsFile, err)
	}
	return templates, chains, nil
}

func (p Provider) read(name string) ([]byte, error) {
	if strings.TrimSpace(p.Root) == "" {
		return fs.ReadFile(defaults, "defaults/"+name)
	}
	path, err := secureJoin(p.Root, name)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return b, err
}

// decodeRecords accepts `[...]` or `{"id": {...}}`. Object entries are
// returned in key order and take their id from the key when missing.
func decodeRecords[T task.Template | task.Chain](b []byte, out *[]T) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil
	}
	if b[0] == '[' {
		return json.Unmarshal(b, out)
	}
	var byID map[string]json.RawMessage
	if err := json.Unmarshal(b, &byID); err != nil {
		return err
	}
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		var rec T
		if err := json.Unmarshal(byID[id], &rec); err != nil {
			return fmt.Errorf("%s: %w", id, err)
		}
		switch r := any(&rec).(type) {
		case *task.Template:
			if r.ID == "" {
				r.ID = id
			}
		case *task.Chain:
			if r.ID == "" {
				r.ID = id
			}
		}
		*out = append(*out, rec)
	}
	return nil
}

func secureJoin(root, rel string) (string, error) {
	rel = strings.TrimSpace(rel)
	if rel == "" {
		return "", ErrInvalidCatalogPath
	}
	if filepath.IsAbs(rel) {
		return "", ErrInvalidCatalogPath
	}
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	target := filepath.Clean(filepath.Join(rootAbs, rel))
	prefix := rootAbs + string(filepath.Separator)
	if target != rootAbs && !strings.HasPrefix(target, prefix) {
		return "", ErrInvalidCatalogPath
	}
	return target, nil
}
