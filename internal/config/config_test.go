package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
nodeInfo:
  nodeName: my archive
server:
  addr: 127.0.0.1
  port: 9090
  resourceDir: /var/lib/archivedon
  exposeUrlBase: https://archive.example/
  enableTrace: true
  traceEndpoint: otlp.example:4318
`), 0o644))

	config, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "my archive", config.NodeInfo.NodeName)
	assert.Equal(t, "127.0.0.1", config.Server.Addr)
	assert.Equal(t, uint16(9090), config.Server.Port)
	assert.Equal(t, "/var/lib/archivedon", config.Server.ResourceDir)
	assert.Equal(t, "https://archive.example/", config.Server.ExposeURLBase)
	assert.True(t, config.Server.EnableTrace)
}

func TestLoadDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  resourceDir: /var/lib/archivedon
`), 0o644))

	config, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", config.Server.Addr)
	assert.Equal(t, uint16(8080), config.Server.Port)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
