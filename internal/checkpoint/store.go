package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"
)

// Store persists Checkpoint records as one JSON file per run, named
// <pipeline_id>_<variant>_<timestamp>.json, directly inside the directory
// passed to NewStore.
// Writes are atomic (temp file + rename) and guarded by a gofrs/flock file
// lock so two processes writing the same pipeline/variant's checkpoint
// never interleave.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir, creating it if necessary.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating checkpoint directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Path returns the on-disk path a checkpoint for pipelineID/variant created
// at createdAt would use.
func (s *Store) Path(pipelineID, variant string, createdAt time.Time) string {
	name := fmt.Sprintf("%s_%s_%s.json", pipelineID, variant, createdAt.Format("20060102_150405"))
	return filepath.Join(s.dir, name)
}

// Save writes cp atomically, holding an exclusive flock for the duration of
// the write so a concurrent writer for the same file waits rather than
// corrupting it.
func (s *Store) Save(ctx context.Context, cp *Checkpoint) error {
	path := s.Path(cp.PipelineID, cp.Variant, cp.CreatedAt)
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("locking checkpoint file: %w", err)
	}
	defer lock.Unlock()

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling checkpoint: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing checkpoint temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming checkpoint file: %w", err)
	}
	return nil
}

// LatestRunning returns the most recently updated Running checkpoint for
// pipelineID/variant, or ok=false if none exists.
func (s *Store) LatestRunning(pipelineID, variant string) (*Checkpoint, bool, error) {
	all, err := s.listFor(pipelineID, variant)
	if err != nil {
		return nil, false, err
	}
	var latest *Checkpoint
	for _, cp := range all {
		if cp.Status != StatusRunning {
			continue
		}
		if latest == nil || cp.UpdatedAt.After(latest.UpdatedAt) {
			latest = cp
		}
	}
	return latest, latest != nil, nil
}

// LatestAny returns the most recently updated checkpoint for
// pipelineID/variant regardless of status, or ok=false if none exists. The
// CLI uses this to seed a dashboard's sample list with the prior run's
// outcomes, not just an in-progress one.
func (s *Store) LatestAny(pipelineID, variant string) (*Checkpoint, bool, error) {
	all, err := s.listFor(pipelineID, variant)
	if err != nil {
		return nil, false, err
	}
	var latest *Checkpoint
	for _, cp := range all {
		if latest == nil || cp.UpdatedAt.After(latest.UpdatedAt) {
			latest = cp
		}
	}
	return latest, latest != nil, nil
}

// listFor loads every checkpoint file for pipelineID/variant.
func (s *Store) listFor(pipelineID, variant string) ([]*Checkpoint, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing checkpoint directory: %w", err)
	}

	prefix := pipelineID + "_" + variant + "_"
	var out []*Checkpoint
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		if len(entry.Name()) < len(prefix) || entry.Name()[:len(prefix)] != prefix {
			continue
		}
		cp, err := s.load(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		out = append(out, cp)
	}
	return out, nil
}

func (s *Store) load(path string) (*Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("parsing checkpoint %s: %w", path, err)
	}
	return &cp, nil
}

// Cleanup deletes all but the keepLatestN most recently updated checkpoint
// files for pipelineID/variant.
func (s *Store) Cleanup(pipelineID, variant string, keepLatestN int) error {
	if keepLatestN <= 0 {
		return nil
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("listing checkpoint directory: %w", err)
	}

	prefix := pipelineID + "_" + variant + "_"
	type fileInfo struct {
		path    string
		modTime time.Time
	}
	var files []fileInfo
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		if len(entry.Name()) < len(prefix) || entry.Name()[:len(prefix)] != prefix {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, fileInfo{path: filepath.Join(s.dir, entry.Name()), modTime: info.ModTime()})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].modTime.After(files[j].modTime) })
	for _, f := range files[min(keepLatestN, len(files)):] {
		os.Remove(f.path)
	}
	return nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
