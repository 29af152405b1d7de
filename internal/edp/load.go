package edp

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// fileFormat is the on-disk shape of an EDP definition file.
type fileFormat struct {
	EDPs []Definition `json:"edps" yaml:"edps"`
}

// Load reads EDP definitions from a JSON or YAML file, chosen by extension.
// An empty path or a missing file falls back to Default.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		zap.L().Warn("edp: definition file not found, using built-in set",
			zap.String("path", path),
		)
		return Default(), nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "edp: read definitions")
	}

	var f fileFormat
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &f)
	default:
		err = json.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "edp: parse %s", path)
	}

	return NewRegistry(f.EDPs)
}
