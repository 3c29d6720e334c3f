package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "forge.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	requireT := require.New(t)

	cfg, err := LoadConfig("")
	requireT.NoError(err)
	requireT.Equal(DefaultConfig, cfg)
}

func TestLoadConfig(t *testing.T) {
	requireT := require.New(t)

	cfg, err := LoadConfig(writeConfig(t, `
resource_dir = "/srv/game/data"
budget_bytes = 1048576
workers = 2
`))
	requireT.NoError(err)
	requireT.Equal(Config{
		ResourceDir: "/srv/game/data",
		BudgetBytes: 1 << 20,
		Workers:     2,
		PointLights: DefaultConfig.PointLights,
		SpotLights:  DefaultConfig.SpotLights,
	}, cfg)
}

func TestLoadConfigErrors(t *testing.T) {
	requireT := require.New(t)

	_, err := LoadConfig(writeConfig(t, `unknown_option = true`))
	requireT.Error(err)

	_, err = LoadConfig(writeConfig(t, `workers = 0`))
	requireT.Error(err)

	_, err = LoadConfig(writeConfig(t, `workers = `))
	requireT.Error(err)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	requireT.Error(err)
}
