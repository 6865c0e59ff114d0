package structures

import "time"

type ApiConfig struct {
	BaseUrl         string        `yaml:"baseUrl" validate:"required|fullUrl"`
	TokenFile       string        `yaml:"tokenFile" validate:"required"`
	Timeout         time.Duration `yaml:"timeout"`
	HeartRateOffset string        `yaml:"heartRateOffset" validate:"required"`
}

type SnapshotConfig struct {
	Dir           string `yaml:"dir" validate:"required"`
	BootstrapDate string `yaml:"bootstrapDate" validate:"required|date"`
	Compress      bool   `yaml:"compress"`
}

type DatabaseConfig struct {
	Path string `yaml:"path" validate:"required"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required"`
}

type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	Size    int  `yaml:"size"`
}

type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Textfile string `yaml:"textfile"`
}

type Config struct {
	AppName  string
	Debug    bool
	Path     string
	Api      ApiConfig      `yaml:"api"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Database DatabaseConfig `yaml:"database"`
	Logger   LoggerConfig   `yaml:"logger"`
	Cache    CacheConfig    `yaml:"cache"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}
