package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Realtime RealtimeConfig `mapstructure:"realtime"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
}

type ServerConfig struct {
	BaseURL string `mapstructure:"base_url"`
	// Timeout applies to every HTTP request issued through the gateway.
	Timeout time.Duration `mapstructure:"timeout"`
}

type RealtimeConfig struct {
	URL       string `mapstructure:"url"`
	Namespace string `mapstructure:"namespace"`
	// ReconnectInterval is the fixed delay between reconnect attempts.
	ReconnectInterval time.Duration `mapstructure:"reconnect_interval"`
	PingInterval      time.Duration `mapstructure:"ping_interval"`
}

type StorageConfig struct {
	Path string `mapstructure:"path"`
}

type NotifyConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type MonitorConfig struct {
	Address string `mapstructure:"address"`
}

func LoadConfig(path string) (config *Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("server.base_url", "https://localhost:8443")
	viper.SetDefault("server.timeout", 15*time.Second)
	viper.SetDefault("realtime.url", "wss://localhost:8443/ws")
	viper.SetDefault("realtime.namespace", "catan")
	viper.SetDefault("realtime.reconnect_interval", 1000*time.Millisecond)
	viper.SetDefault("realtime.ping_interval", 25*time.Second)
	viper.SetDefault("storage.path", "catanclient.db")
	viper.SetDefault("notify.ttl", 3*time.Second)
	viper.SetDefault("monitor.address", "")

	viper.AutomaticEnv()

	if err = viper.ReadInConfig(); err != nil {
		// A missing file is fine, the defaults above describe a local server.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
		err = nil
	}

	err = viper.Unmarshal(&config)
	return
}
