// Package config loads the gateway's startup configuration — immutable
// once Load returns — from CLI flags, environment variables, and the
// optional box-properties file, using the same cobra+viper pairing
// dittofs's own command tree uses.
package config

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/functionland/fula-gateway/internal/gwlog"
)

const defaultMaxBodySize = 5 * 1024 * 1024 * 1024 // 5 GiB, default

// Config is the gateway's full startup configuration, immutable once
// Load returns.
type Config struct {
	Host string
	Port int

	IPFSURL         string
	RegistryCIDPath string
	BoxPropsFile    string

	OwnerID      string
	BearerSecret string

	MaxBodySize         int64
	MultipartExpirySecs int64

	Debug bool
}

// BindFlags registers every CLI flag the gateway accepts, each bound
// to its matching environment variable via viper, in cobra's standard
// PersistentFlags idiom.
func BindFlags(cmd *cobra.Command, v *viper.Viper) error {
	flags := cmd.PersistentFlags()
	flags.String("host", "0.0.0.0", "address to bind the HTTP listener")
	flags.Int("port", 8080, "port to bind the HTTP listener")
	flags.String("ipfs-url", "http://127.0.0.1:5001", "base URL of the Kubo RPC API")
	flags.String("registry-cid-path", "", "path to the registry-pointer file")
	flags.String("box-props-file", "", "path to the pairing-properties JSON file")
	flags.String("owner-id", "", "16-byte hex owner id override")
	flags.String("bearer-secret", "", "bearer secret override")
	flags.Int64("max-body-size", defaultMaxBodySize, "maximum accepted request body size in bytes")
	flags.Int64("multipart-expiry-secs", 86400, "seconds before an untouched multipart upload expires")
	flags.Bool("debug", false, "enable debug-level logging")

	binds := map[string]string{
		"host":                  "FULA_HOST",
		"port":                  "FULA_PORT",
		"ipfs-url":              "IPFS_API_URL",
		"registry-cid-path":     "REGISTRY_CID_PATH",
		"box-props-file":        "BOX_PROPS_FILE",
		"owner-id":              "OWNER_ID",
		"bearer-secret":         "BEARER_SECRET",
		"max-body-size":         "MAX_BODY_SIZE",
		"multipart-expiry-secs": "MULTIPART_EXPIRY_SECS",
		"debug":                 "DEBUG",
	}
	for flag, env := range binds {
		if err := v.BindPFlag(flag, flags.Lookup(flag)); err != nil {
			return fmt.Errorf("config: bind flag %s: %w", flag, err)
		}
		if err := v.BindEnv(flag, env); err != nil {
			return fmt.Errorf("config: bind env %s: %w", flag, err)
		}
	}
	return nil
}

// Load builds a Config from v, then applies the box-properties file (if
// any) underneath it — explicit CLI/env values always win over
// anything loaded from the box-properties file. Any box-properties
// load failure is logged as a warning through log, not propagated:
// startup must continue with explicit flags/env alone.
func Load(v *viper.Viper, log gwlog.Logger) (Config, error) {
	cfg := Config{
		Host:                v.GetString("host"),
		Port:                v.GetInt("port"),
		IPFSURL:             v.GetString("ipfs-url"),
		RegistryCIDPath:     v.GetString("registry-cid-path"),
		BoxPropsFile:        v.GetString("box-props-file"),
		OwnerID:             v.GetString("owner-id"),
		BearerSecret:        v.GetString("bearer-secret"),
		MaxBodySize:         v.GetInt64("max-body-size"),
		MultipartExpirySecs: v.GetInt64("multipart-expiry-secs"),
		Debug:               v.GetBool("debug"),
	}

	if cfg.BoxPropsFile != "" {
		secret, ownerID := LoadBoxProperties(log, cfg.BoxPropsFile)
		if cfg.BearerSecret == "" && secret != "" {
			cfg.BearerSecret = secret
		}
		if cfg.OwnerID == "" && ownerID != "" {
			cfg.OwnerID = ownerID
		}
	}

	return cfg, nil
}
