package bootstrap

import (
	"github.com/spf13/viper"
)

type Config struct {
	ServerPort       string `mapstructure:"SERVER_PORT"`
	RedisUrl         string `mapstructure:"REDIS_URL"`
	MongoUri         string `mapstructure:"MONGO_URI"`
	MongoDatabase    string `mapstructure:"MONGO_DATABASE"`
	IsLocalCors      bool   `mapstructure:"LOCAL_CORS"`
	DefaultBoardSize int    `mapstructure:"DEFAULT_BOARD_SIZE"`
	MaxBoardSize     int    `mapstructure:"MAX_BOARD_SIZE"`
	PageLimitArchive int    `mapstructure:"PAGE_LIMIT_ARCHIVE"`
}

func Setup(cfgPath string) (*Config, error) {
	viper.SetConfigFile(cfgPath)

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("MONGO_DATABASE", "goban")
	viper.SetDefault("DEFAULT_BOARD_SIZE", 9)
	viper.SetDefault("MAX_BOARD_SIZE", 19)
	viper.SetDefault("PAGE_LIMIT_ARCHIVE", 20)

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	var cfg Config

	err = viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}
