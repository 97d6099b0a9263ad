package config_test

import (
	"os"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/functionland/fula-gateway/internal/config"
	"github.com/functionland/fula-gateway/internal/gwlog"
)

func newTestCommand(t *testing.T, v *viper.Viper) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	require.NoError(t, config.BindFlags(cmd, v))
	return cmd
}

func TestLoadAppliesFlagDefaults(t *testing.T) {
	v := viper.New()
	cmd := newTestCommand(t, v)
	require.NoError(t, cmd.ParseFlags(nil))

	cfg, err := config.Load(v, gwlog.Discard())
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "http://127.0.0.1:5001", cfg.IPFSURL)
	assert.Equal(t, int64(86400), cfg.MultipartExpirySecs)
	assert.False(t, cfg.Debug)
}

func TestLoadRespectsExplicitFlagOverrides(t *testing.T) {
	v := viper.New()
	cmd := newTestCommand(t, v)
	require.NoError(t, cmd.ParseFlags([]string{"--port=9999", "--debug"}))

	cfg, err := config.Load(v, gwlog.Discard())
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Port)
	assert.True(t, cfg.Debug)
}

func TestLoadEnvOverridesDefault(t *testing.T) {
	v := viper.New()
	cmd := newTestCommand(t, v)
	require.NoError(t, cmd.ParseFlags(nil))
	t.Setenv("FULA_PORT", "7000")

	cfg, err := config.Load(v, gwlog.Discard())
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Port)
}

func TestLoadBoxPropsFileNeverOverridesExplicitBearerSecret(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/box-props.json"
	require.NoError(t, writeFile(path, `{"auto_pin_pairing_secret":"from-file"}`))

	v := viper.New()
	cmd := newTestCommand(t, v)
	require.NoError(t, cmd.ParseFlags([]string{"--box-props-file=" + path, "--bearer-secret=from-flag"}))

	cfg, err := config.Load(v, gwlog.Discard())
	require.NoError(t, err)
	assert.Equal(t, "from-flag", cfg.BearerSecret)
}

func TestLoadBoxPropsFileFillsEmptyBearerSecret(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/box-props.json"
	require.NoError(t, writeFile(path, `{"auto_pin_pairing_secret":"from-file"}`))

	v := viper.New()
	cmd := newTestCommand(t, v)
	require.NoError(t, cmd.ParseFlags([]string{"--box-props-file=" + path}))

	cfg, err := config.Load(v, gwlog.Discard())
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.BearerSecret)
}

func writeFile(path, contents string) error {
	return os.WriteFile(path, []byte(contents), 0o600)
}
