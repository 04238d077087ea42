package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExpand(t *testing.T) {
	t.Setenv("CANVAS_NAME", "atlas")
	t.Setenv("CANVAS_EMPTY", "")

	assert.Equal(t, "atlas", Expand("${CANVAS_NAME}"))
	assert.Equal(t, "atlas", Expand("$CANVAS_NAME"))
	assert.Equal(t, "board", Expand("${CANVAS_MISSING:-board}"))
	assert.Equal(t, "board", Expand("${CANVAS_EMPTY:-board}"))
	assert.Equal(t, "atlas", Expand("${CANVAS_NAME:-board}"))
	assert.Equal(t, "", Expand("${CANVAS_MISSING}"))
}

func TestLoad(t *testing.T) {
	t.Setenv("CANVAS_PORT", "9090")
	path := writeFile(t, "name: ${CANVAS_NAME:-main}\nport: ${CANVAS_PORT}\n")

	var s sample
	require.NoError(t, Load(path, &s))
	assert.Equal(t, "main", s.Name)
	assert.Equal(t, 9090, s.Port)
}

func TestLoad_ValidationError(t *testing.T) {
	path := writeFile(t, "name: x\nport: 0\n")

	var s sample
	err := Load(path, &s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

func TestLoad_MissingFile(t *testing.T) {
	var s sample
	assert.Error(t, Load(filepath.Join(t.TempDir(), "nope.yaml"), &s))
}

func TestLoadOptional(t *testing.T) {
	s := sample{Name: "default", Port: 8080}
	read, err := LoadOptional(filepath.Join(t.TempDir(), "nope.yaml"), &s)
	require.NoError(t, err)
	assert.False(t, read)
	assert.Equal(t, "default", s.Name)

	path := writeFile(t, "port: 7000\n")
	read, err = LoadOptional(path, &s)
	require.NoError(t, err)
	assert.True(t, read)
	assert.Equal(t, 7000, s.Port)
	assert.Equal(t, "default", s.Name)

	bad := sample{}
	_, err = LoadOptional(filepath.Join(t.TempDir(), "nope.yaml"), &bad)
	assert.Error(t, err, "defaults are validated too")
}
