package batch

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
)

// Checkpoint records how far a run got. Offset is the index of the next
// company to process.
type Checkpoint struct {
	Key       string    `json:"key"`
	Offset    int       `json:"offset"`
	Processed int       `json:"processed"`
	Failed    int       `json:"failed"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LoadCheckpoint reads path. A missing file returns (nil, nil).
func LoadCheckpoint(path string) (*Checkpoint, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "batch: read checkpoint")
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, eris.Wrapf(err, "batch: parse checkpoint %s", path)
	}
	return &cp, nil
}

// Save writes the checkpoint atomically: a temp file in the same directory
// is renamed over path.
func (c *Checkpoint) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrap(err, "batch: create checkpoint dir")
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return eris.Wrap(err, "batch: marshal checkpoint")
	}

	tmp, err := os.CreateTemp(dir, ".checkpoint-*")
	if err != nil {
		return eris.Wrap(err, "batch: create temp checkpoint")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()        //nolint:errcheck
		os.Remove(tmpName) //nolint:errcheck
		return eris.Wrap(err, "batch: write temp checkpoint")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName) //nolint:errcheck
		return eris.Wrap(err, "batch: close temp checkpoint")
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName) //nolint:errcheck
		return eris.Wrap(err, "batch: rename checkpoint")
	}
	return nil
}
