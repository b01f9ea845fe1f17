package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ErrNoInputs is returned when no pattern matched an existing file.
var ErrNoInputs = errors.New("no input files matched")

// SafeWriteFile writes data to a temp file and atomically renames it into place.
func SafeWriteFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("atomic rename: %w", err)
	}
	return nil
}

// PrettyJSON marshals a value as indented JSON.
func PrettyJSON(v any) ([]byte, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	return b, nil
}

// ExpandInputs resolves glob patterns (or literal paths) to a sorted,
// de-duplicated list of regular files.
func ExpandInputs(patterns []string) ([]string, error) {
	seen := map[string]struct{}{}
	var files []string
	for _, arg := range patterns {
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if info, err := os.Stat(m); err != nil || info.IsDir() {
				continue
			}
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, ErrNoInputs
	}
	sort.Strings(files)
	return files, nil
}

// UniquePath returns dir/base+ext, or dir/base__N+ext for the first N >= 2
// that does not exist yet. taken lists names already claimed in this run.
func UniquePath(dir, base, ext string, taken map[string]bool) string {
	cand := filepath.Join(dir, base+ext)
	for idx := 2; ; idx++ {
		_, err := os.Stat(cand)
		if os.IsNotExist(err) && !taken[cand] {
			if taken != nil {
				taken[cand] = true
			}
			return cand
		}
		cand = filepath.Join(dir, fmt.Sprintf("%s__%d%s", base, idx, ext))
	}
}
