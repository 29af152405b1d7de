package webhook

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSinkWritesPayloadByDomain(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "payloads")
	sink, err := NewFileSink(dir)
	require.NoError(t, err)

	require.NoError(t, sink.Send(context.Background(), Payload{Domain: "acme.com", CompanyName: "Acme"}))
	require.NoError(t, sink.Send(context.Background(), map[string]string{"k": "v"}))

	data, err := os.ReadFile(filepath.Join(dir, "acme.com.json"))
	require.NoError(t, err)
	var got Payload
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "Acme", got.CompanyName)

	_, err = os.Stat(filepath.Join(dir, "payload_0002.json"))
	assert.NoError(t, err)
}

func TestSafeName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "a_b.com", safeName("a/b.com"))
}
