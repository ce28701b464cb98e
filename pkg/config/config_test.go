package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		expected func() *Config
		wantErr  bool
	}{
		{
			name:     "empty document",
			doc:      "",
			expected: Default,
		},
		{
			name: "local overrides",
			doc: `
log_level = "debug"

[local]
auto_reset = true
disrupt_delay_ms = 5

[journal]
dir = "/tmp/journal"
`,
			expected: func() *Config {
				c := Default()
				c.LogLevel = "debug"
				c.Local.AutoReset = true
				c.Local.DisruptDelayMs = 5
				c.Journal.Dir = "/tmp/journal"
				return c
			},
		},
		{
			name: "ensemble",
			doc: `
backend = "ensemble"

[ensemble]
hosts = ["zk1:2181", "zk2:2181"]
`,
			expected: func() *Config {
				c := Default()
				c.Backend = BackendEnsemble
				c.Ensemble.Hosts = []string{"zk1:2181", "zk2:2181"}
				return c
			},
		},
		{
			name:    "unknown backend",
			doc:     `backend = "etcd"`,
			wantErr: true,
		},
		{
			name: "ensemble without hosts",
			doc: `
backend = "ensemble"

[ensemble]
hosts = []
`,
			wantErr: true,
		},
		{
			name:    "unknown key",
			doc:     `colour = "blue"`,
			wantErr: true,
		},
		{
			name:    "malformed",
			doc:     `backend = `,
			wantErr: true,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c, err := Load(strings.NewReader(test.doc))
			if test.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expected(), c)
		})
	}
}

func TestWriteDefault_RoundTrips(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDefault(&buf))

	path := filepath.Join(t.TempDir(), "coordinator.toml")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
	assert.Equal(t, 100*time.Millisecond, c.DisruptDelay())
	assert.Equal(t, 10*time.Second, c.SessionTimeout())
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
