package defaults

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/sahib/config"
	"github.com/sahib/nandfs/util/testutil"
	"github.com/stretchr/testify/require"
)

func TestDefaultsOpen(t *testing.T) {
	cfg, err := config.Open(nil, Defaults, config.StrictnessPanic)
	require.Nil(t, err)

	require.Equal(t, int64(10), cfg.Int("cache.max_slots"))
	require.Equal(t, int64(2048), cfg.Int("cache.chunk_size"))
	require.Equal(t, "badger", cfg.String("store.backend"))
	require.Equal(t, "snappy", cfg.String("store.compression"))
	require.False(t, cfg.Bool("store.encryption.enabled"))

	require.True(t, cfg.IsValidKey("repo.password_command"))
	require.False(t, cfg.IsValidKey("cache.slot_count"))
}

func TestDefaultsBadEnum(t *testing.T) {
	cfg, err := config.Open(nil, Defaults, config.StrictnessPanic)
	require.Nil(t, err)

	require.NotNil(t, cfg.SetString("store.backend", "floppy"))
	require.NotNil(t, cfg.SetString("store.compression", "xz"))

	// A failed set should not have touched the values:
	require.Equal(t, "badger", cfg.String("store.backend"))
	require.Equal(t, "snappy", cfg.String("store.compression"))

	require.Nil(t, cfg.SetString("store.backend", "memory"))
	require.Equal(t, "memory", cfg.String("store.backend"))
}

func TestDefaultsSlotRange(t *testing.T) {
	cfg, err := config.Open(nil, Defaults, config.StrictnessPanic)
	require.Nil(t, err)

	require.NotNil(t, cfg.SetInt("cache.max_slots", -1))
	require.NotNil(t, cfg.SetInt("cache.max_slots", 21))
	require.NotNil(t, cfg.SetInt("cache.chunk_size", 32))

	// Both ends of the slot range are valid:
	require.Nil(t, cfg.SetInt("cache.max_slots", 0))
	require.Nil(t, cfg.SetInt("cache.max_slots", 20))
	require.Equal(t, int64(20), cfg.Int("cache.max_slots"))
}

func TestOpenMigratedConfig(t *testing.T) {
	dir := testutil.TempDir(t)
	defer testutil.Remover(t, dir)

	cfg, err := config.Open(nil, Defaults, config.StrictnessPanic)
	require.Nil(t, err)
	require.Nil(t, cfg.SetString("store.backend", "memory"))
	require.Nil(t, cfg.SetInt("cache.max_slots", 5))

	configPath := filepath.Join(dir, "config.yml")
	fd, err := os.OpenFile(configPath, os.O_CREATE|os.O_WRONLY, 0600)
	require.Nil(t, err)
	require.Nil(t, cfg.Save(config.NewYamlEncoder(fd)))
	require.Nil(t, fd.Close())

	loadedCfg, err := OpenMigratedConfig(configPath)
	require.Nil(t, err)

	// Changed keys survive the round trip, untouched ones fall
	// back to their defaults:
	require.Equal(t, "memory", loadedCfg.String("store.backend"))
	require.Equal(t, int64(5), loadedCfg.Int("cache.max_slots"))
	require.Equal(t, int64(2048), loadedCfg.Int("cache.chunk_size"))
}

func TestOpenMigratedConfigUnversioned(t *testing.T) {
	dir := testutil.TempDir(t)
	defer testutil.Remover(t, dir)

	// Configs without a version header count as version 0:
	configPath := filepath.Join(dir, "config.yml")
	yml := "cache:\n  max_slots: 3\n"
	require.Nil(t, ioutil.WriteFile(configPath, []byte(yml), 0600))

	cfg, err := OpenMigratedConfig(configPath)
	require.Nil(t, err)
	require.Equal(t, int64(3), cfg.Int("cache.max_slots"))
	require.Equal(t, "badger", cfg.String("store.backend"))
}

func TestOpenMigratedConfigBadValues(t *testing.T) {
	dir := testutil.TempDir(t)
	defer testutil.Remover(t, dir)

	configPath := filepath.Join(dir, "config.yml")
	yml := "store:\n  backend: floppy\n"
	require.Nil(t, ioutil.WriteFile(configPath, []byte(yml), 0600))

	_, err := OpenMigratedConfig(configPath)
	require.NotNil(t, err)
}

func TestOpenMigratedConfigMissing(t *testing.T) {
	dir := testutil.TempDir(t)
	defer testutil.Remover(t, dir)

	_, err := OpenMigratedConfig(filepath.Join(dir, "does-not-exist.yml"))
	require.NotNil(t, err)
}
