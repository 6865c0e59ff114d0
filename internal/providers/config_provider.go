package providers

import (
	"fmt"
	"path/filepath"
	"ringsync/internal/structures"
	"strings"

	"github.com/spf13/viper"
)

const AppName = "ringsync"

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	v := viper.New()
	filename := filepath.Base(flags.ConfigPath)
	v.AddConfigPath(filepath.Dir(flags.ConfigPath))
	v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	v.SetConfigType("yaml")

	v.SetDefault("api.baseUrl", "https://api.ouraring.com/v2/usercollection")
	v.SetDefault("api.tokenFile", "config/private_token.json")
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("api.heartRateOffset", "-08:00")
	v.SetDefault("snapshot.dir", "data")
	v.SetDefault("snapshot.bootstrapDate", "2025-02-03")
	v.SetDefault("database.path", "data/ringsync.db")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.mode", 0644)
	v.SetDefault("logger.dir", "logs")
	v.SetDefault("cache.size", 8)

	v.BindEnv("logger.level", "RINGSYNC_LOG_LEVEL")
	v.BindEnv("api.tokenFile", "RINGSYNC_TOKEN_FILE")
	v.BindEnv("snapshot.dir", "RINGSYNC_SNAPSHOT_DIR")
	v.BindEnv("database.path", "RINGSYNC_DB_PATH")

	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = v.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = AppName
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
