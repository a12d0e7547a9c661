package config

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mintvault/series-ledger/common"
	"github.com/mitchellh/mapstructure"
	seriesconfig "github.com/mintvault/series-ledger/modules/series/config"
	"github.com/mintvault/series-ledger/pkg/logger"
	"github.com/mintvault/series-ledger/pkg/logger/slogx"
	"github.com/mintvault/series-ledger/pkg/middleware/requestcontext"
	"github.com/mintvault/series-ledger/pkg/middleware/requestlogger"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	configOnce sync.Once
	config     = &Config{
		Logger: logger.Config{
			Output: "text",
		},
		Network:       common.NetworkMainnet,
		EnableModules: []string{"series"},
		HTTPServer: HTTPServerConfig{
			Port: 8080,
		},
		Modules: Modules{
			Series: seriesconfig.Config{
				Database:    "postgres",
				APIHandlers: []string{"http"},
			},
		},
	}
)

type Config struct {
	Logger        logger.Config    `mapstructure:"logger"`
	Network       common.Network   `mapstructure:"network"`
	APIOnly       bool             `mapstructure:"api_only"`
	EnableModules []string         `mapstructure:"enable_modules"`
	HTTPServer    HTTPServerConfig `mapstructure:"http_server"`
	Modules       Modules          `mapstructure:"modules"`
}

type HTTPServerConfig struct {
	Port      int                               `mapstructure:"port"`
	Logger    requestlogger.Config              `mapstructure:"logger"`
	RequestIP requestcontext.WithClientIPConfig `mapstructure:"request_ip"`
}

type Modules struct {
	Series seriesconfig.Config `mapstructure:"series"`
}

// BindPFlag binds a command-line flag to a configuration key.
func BindPFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		logger.Panic("failed to bind flag to configuration", slogx.String("key", key), slogx.Error(err))
	}
}

// Parse reads the configuration file and environment variables into the
// process-wide configuration. Subsequent calls are no-ops.
func Parse(configFile string) Config {
	ctx := logger.WithContext(context.Background(), slog.String("package", "config"))
	configOnce.Do(func() {
		if configFile != "" {
			viper.SetConfigFile(configFile)
		} else {
			viper.AddConfigPath("./")
			viper.SetConfigName("config")
		}

		viper.AutomaticEnv()
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		if err := viper.ReadInConfig(); err != nil {
			var errNotfound viper.ConfigFileNotFoundError
			if errors.As(err, &errNotfound) {
				logger.WarnContext(ctx, "config file not found, use default value", slogx.Error(err))
			} else {
				logger.PanicContext(ctx, "invalid config file", slogx.Error(err))
			}
		}

		// activation times are RFC 3339 strings in the config file
		decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		))
		if err := viper.Unmarshal(&config, decodeHook); err != nil {
			logger.PanicContext(ctx, "failed to unmarshal config", slogx.Error(err))
		}
		logger.InfoContext(ctx, "loaded config successfully")
	})

	return *config
}

// Load returns the parsed configuration.
func Load() Config {
	return Parse("")
}
