package config

import (
	"github.com/spf13/viper"
	"sync"
)

var once sync.Once

func InitConfig() {
	once.Do(func() {
		viper.AutomaticEnv()

		viper.BindEnv("line_channel_access_token", "LINE_CHANNEL_ACCESS_TOKEN")
		viper.BindEnv("line_channel_secret", "LINE_CHANNEL_SECRET")
		viper.BindEnv("line_user_id", "LINE_USER_ID")
		viper.BindEnv("finmind_token", "FINMIND_TOKEN")
		viper.BindEnv("database_path", "DATABASE_PATH")
		viper.BindEnv("port", "PORT")
		viper.BindEnv("poll_interval_seconds", "POLL_INTERVAL_SECONDS")
		viper.BindEnv("market_hours_only", "MARKET_HOURS_ONLY")
		viper.BindEnv("debug", "DEBUG")
		viper.BindEnv("lang", "LANG")

		viper.SetDefault("database_path", "data/bot.db")
		viper.SetDefault("port", 5000)
		viper.SetDefault("poll_interval_seconds", 60)
		viper.SetDefault("market_hours_only", false)
		viper.SetDefault("debug", false)
		viper.SetDefault("lang", "zh_TW")
	})
}

func GetString(key string) string {
	InitConfig()
	return viper.GetString(key)
}

func GetInt(key string) int {
	InitConfig()
	return viper.GetInt(key)
}

func GetBool(key string) bool {
	InitConfig()
	return viper.GetBool(key)
}
