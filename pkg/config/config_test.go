package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `yaml:"name"`
	Port  int    `yaml:"port"`
	Extra string `yaml:"extra"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func TestDecode_ExpandsEnvAndKeepsDefaults(t *testing.T) {
	t.Setenv("CONFIG_TEST_NAME", "wiki")
	s := sample{Port: 8080, Extra: "kept"}

	require.NoError(t, Decode(strings.NewReader("name: ${CONFIG_TEST_NAME}\n"), &s))
	assert.Equal(t, sample{Name: "wiki", Port: 8080, Extra: "kept"}, s)
}

func TestDecode_EmptyDocumentValidatesDefaults(t *testing.T) {
	s := sample{Port: 1}
	assert.NoError(t, Decode(strings.NewReader(""), &s))

	s = sample{}
	err := Decode(strings.NewReader(""), &s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

func TestDecode_RejectsUnknownKeys(t *testing.T) {
	s := sample{Port: 1}
	err := Decode(strings.NewReader("nmae: typo\n"), &s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: pages\nport: 9000\n"), 0o644))

	var s sample
	require.NoError(t, Load(path, &s))
	assert.Equal(t, "pages", s.Name)
	assert.Equal(t, 9000, s.Port)

	err := Load(filepath.Join(t.TempDir(), "missing.yaml"), &s)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
