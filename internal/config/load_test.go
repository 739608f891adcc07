package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig writes content to stepbar.toml in dir and returns its path.
func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const fullConfig = `
[run]
name = "line-3"
sample_interval = "50ms"

[log]
level = "debug"
format = "json"

[[steps]]
name = "Scan barcode"
duration = "250ms"

[[steps]]
name = "MES check-in"
min_duration = "1s"
max_duration = "2s"
fail = "MES rejected the part"

[[steps]]
name = "Save data"
command = ["sh", "-c", "echo saved"]
`

// --- LoadFromFile tests ---

func TestLoadFromFile_Full(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, t.TempDir(), fullConfig)

	cfg, md, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "line-3", cfg.Run.Name)
	assert.Equal(t, "50ms", cfg.Run.SampleInterval)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	require.Len(t, cfg.Steps, 3)
	assert.Equal(t, StepConfig{Name: "Scan barcode", Duration: "250ms"}, cfg.Steps[0])
	assert.Equal(t, "MES rejected the part", cfg.Steps[1].Fail)
	assert.Equal(t, []string{"sh", "-c", "echo saved"}, cfg.Steps[2].Command)
	assert.True(t, cfg.Steps[2].IsCommand())

	assert.Empty(t, md.Undecoded())
}

func TestLoadFromFile_UnknownKeys(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, t.TempDir(), `
[run]
name = "x"
colour = "blue"

[extras]
foo = 1
`)

	_, md, err := LoadFromFile(path)
	require.NoError(t, err)

	var keys []string
	for _, k := range md.Undecoded() {
		keys = append(keys, k.String())
	}
	assert.Contains(t, keys, "run.colour")
	assert.Contains(t, keys, "extras.foo")
}

func TestLoadFromFile_InvalidTOML(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, t.TempDir(), "[run\nname = ")

	cfg, _, err := LoadFromFile(path)
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "loading config")
}

func TestLoadFromFile_Missing(t *testing.T) {
	t.Parallel()
	_, _, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

// --- FindConfigFile tests ---

func TestFindConfigFile_InStartDir(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	want := writeConfig(t, dir, "")

	got, err := FindConfigFile(dir)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFindConfigFile_WalksUp(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	want := writeConfig(t, root, "")
	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	got, err := FindConfigFile(nested)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFindConfigFile_NotFound(t *testing.T) {
	t.Parallel()
	// t.TempDir lives under the OS temp dir, which has no stepbar.toml.
	got, err := FindConfigFile(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, got)
}

// --- Encode tests ---

func TestEncode_DefaultsRoundTrip(t *testing.T) {
	t.Parallel()
	data, err := Encode(NewDefaults())
	require.NoError(t, err)

	path := writeConfig(t, t.TempDir(), string(data))
	cfg, md, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Empty(t, md.Undecoded())
	assert.Equal(t, NewDefaults(), cfg)
}

func TestEncode_OmitsUnsetStepFields(t *testing.T) {
	t.Parallel()
	data, err := Encode(&Config{Steps: []StepConfig{{Name: "a", Duration: "1s"}}})
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, `duration = "1s"`)
	assert.NotContains(t, s, "min_duration")
	assert.NotContains(t, s, "command")
	assert.NotContains(t, s, "fail")
}
