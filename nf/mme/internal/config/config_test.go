package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mme.yaml")
	content := []byte(`
sbi:
  scheme: http
  bind_address: 0.0.0.0
  port: 9091
nf:
  name: mme-2
  instance_id: 11111111-1111-1111-1111-111111111111
guami:
  plmn:
    mcc: "001"
    mnc: "01"
  mme_group_id: "0002"
  mme_code: "02"
  tac: "0002"
timers:
  t3450_seconds: 6
  attach_counter_max: 5
subscriber:
  backend: memory
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9091, cfg.SBI.Port)
	assert.Equal(t, "mme-2", cfg.NF.Name)
	assert.Equal(t, "001", cfg.GUAMI.PLMN.MCC)
	assert.Equal(t, "01", cfg.GUAMI.PLMN.MNC)
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SBI.Port = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsBadMNCLength(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GUAMI.PLMN.MNC = "1"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownSubscriberBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Subscriber.Backend = "redis"
	assert.Error(t, cfg.Validate())
}
