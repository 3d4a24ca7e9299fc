package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/moyu-x/file-organizer/internal"
)

type Config struct {
	Source struct {
		Dir string
	}
	Database struct {
		Path string
	}
	Performance struct {
		Workers int
	}
	Logging struct {
		Level string
		File  string
	}
	Classify struct {
		SniffContent bool `mapstructure:"sniff_content"`
	}
	// Categories 分类表覆盖：分类名 -> 扩展名列表，为空时使用内置默认表
	Categories map[string][]string
}

var cfg Config

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("$HOME/.file-organizer")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/file-organizer")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFrom 从指定文件加载配置（主要用于测试）
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source.dir", defaultSourceDir())
	v.SetDefault("database.path", "")
	v.SetDefault("performance.workers", internal.DefaultWorkers)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", filepath.Join(defaultSourceDir(), internal.LogFileName))
	v.SetDefault("classify.sniff_content", false)
}

func defaultSourceDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "Downloads")
}

func Get() *Config {
	return &cfg
}
