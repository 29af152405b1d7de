package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// FileSink writes payloads as indented JSON files instead of POSTing them.
// It backs campaign dry runs.
type FileSink struct {
	dir string

	mu sync.Mutex
	n  int
}

// NewFileSink creates dir if needed.
func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "webhook: create payload dir %s", dir)
	}
	return &FileSink{dir: dir}, nil
}

// Dir returns the output directory.
func (f *FileSink) Dir() string { return f.dir }

// Send writes v to <domain>.json for a Payload, payload_<n>.json otherwise.
func (f *FileSink) Send(_ context.Context, v any) error {
	f.mu.Lock()
	f.n++
	name := fmt.Sprintf("payload_%04d.json", f.n)
	f.mu.Unlock()

	switch p := v.(type) {
	case Payload:
		if p.Domain != "" {
			name = safeName(p.Domain) + ".json"
		}
	case *Payload:
		if p != nil && p.Domain != "" {
			name = safeName(p.Domain) + ".json"
		}
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrap(err, "webhook: marshal payload")
	}
	path := filepath.Join(f.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // payloads are not secret
		return eris.Wrapf(err, "webhook: write %s", path)
	}
	zap.L().Debug("webhook: payload written", zap.String("path", path))
	return nil
}

func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
