package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/fastwaymarks/overlay/internal/geometry"
)

// FileName is the config file inside the config directory.
const FileName = "fastwaymarks.cfg.json"

// Settings is the persisted layout configuration.
type Settings struct {
	CenterOnPlayer         bool    `json:"CenterOnPlayer" mapstructure:"CenterOnPlayer"`
	Order                  int     `json:"Order" mapstructure:"Order"`
	Shape                  int     `json:"Shape" mapstructure:"Shape"`
	WaymarksCenterX        float64 `json:"WaymarksCenterX" mapstructure:"WaymarksCenterX"`
	WaymarksCenterY        float64 `json:"WaymarksCenterY" mapstructure:"WaymarksCenterY"`
	WaymarksCenterZ        float64 `json:"WaymarksCenterZ" mapstructure:"WaymarksCenterZ"`
	WaymarksRadius         float64 `json:"WaymarksRadius" mapstructure:"WaymarksRadius"`
	WaymarksRadiusB        float64 `json:"WaymarksRadiusB" mapstructure:"WaymarksRadiusB"`
	WaymarksRotationOffset float64 `json:"WaymarksRotationOffset" mapstructure:"WaymarksRotationOffset"`
	AutoCenterOnLoad       bool    `json:"AutoCenterOnLoad" mapstructure:"AutoCenterOnLoad"`
	DisplayWaymarkY        bool    `json:"DisplayWaymarkY" mapstructure:"DisplayWaymarkY"`
}

// Geometry returns the layout engine configuration.
func (s Settings) Geometry() geometry.Config {
	return geometry.Config{
		Shape:          geometry.Shape(s.Shape),
		Order:          geometry.Order(s.Order),
		CenterX:        s.WaymarksCenterX,
		CenterZ:        s.WaymarksCenterZ,
		Radius:         s.WaymarksRadius,
		RadiusB:        s.WaymarksRadiusB,
		RotationOffset: s.WaymarksRotationOffset,
	}
}

// CatalogConfig selects the zone catalog backend.
type CatalogConfig struct {
	Type string `json:"type" mapstructure:"type"` // memory, sqlite or postgres
	Path string `json:"path" mapstructure:"path"`
	DSN  string `json:"dsn" mapstructure:"dsn"`
}

// TilesConfig controls map tile loading.
type TilesConfig struct {
	Dir            string        `json:"dir" mapstructure:"dir"`
	LoadTimeout    time.Duration `json:"loadTimeout" mapstructure:"loadTimeout"`
	DisposeTimeout time.Duration `json:"disposeTimeout" mapstructure:"disposeTimeout"`
}

// InfluxConfig holds the optional telemetry sink settings.
type InfluxConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Protocol string `json:"protocol" mapstructure:"protocol"`
	Token    string `json:"token" mapstructure:"token"`
	Org      string `json:"org" mapstructure:"org"`
	Bucket   string `json:"bucket" mapstructure:"bucket"`
}

// SetDefaults registers every default value.
func SetDefaults() {
	viper.SetDefault("CenterOnPlayer", false)
	viper.SetDefault("Order", int(geometry.Proper))
	viper.SetDefault("Shape", int(geometry.Circle))
	viper.SetDefault("WaymarksCenterX", 0.0)
	viper.SetDefault("WaymarksCenterY", 0.0)
	viper.SetDefault("WaymarksCenterZ", 0.0)
	viper.SetDefault("WaymarksRadius", 10.0)
	viper.SetDefault("WaymarksRadiusB", 10.0)
	viper.SetDefault("WaymarksRotationOffset", 0.0)
	viper.SetDefault("AutoCenterOnLoad", false)
	viper.SetDefault("DisplayWaymarkY", false)

	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("catalog.type", "memory")
	viper.SetDefault("catalog.path", "zones.db")
	viper.SetDefault("catalog.dsn", "")

	viper.SetDefault("tiles.dir", "./maps")
	viper.SetDefault("tiles.loadTimeout", "30s")
	viper.SetDefault("tiles.disposeTimeout", "5s")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "fastwaymarks")
	viper.SetDefault("influx.bucket", "overlay")
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// IsNotFound reports whether a Load error only means there is no file yet.
func IsNotFound(err error) bool {
	var nf viper.ConfigFileNotFoundError
	return errors.As(err, &nf)
}

// GetSettings decodes the layout settings.
func GetSettings() (Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decoding settings: %w", err)
	}
	return s, nil
}

// SetSettings stores the layout settings in the live configuration.
func SetSettings(s Settings) {
	viper.Set("CenterOnPlayer", s.CenterOnPlayer)
	viper.Set("Order", s.Order)
	viper.Set("Shape", s.Shape)
	viper.Set("WaymarksCenterX", s.WaymarksCenterX)
	viper.Set("WaymarksCenterY", s.WaymarksCenterY)
	viper.Set("WaymarksCenterZ", s.WaymarksCenterZ)
	viper.Set("WaymarksRadius", s.WaymarksRadius)
	viper.Set("WaymarksRadiusB", s.WaymarksRadiusB)
	viper.Set("WaymarksRotationOffset", s.WaymarksRotationOffset)
	viper.Set("AutoCenterOnLoad", s.AutoCenterOnLoad)
	viper.Set("DisplayWaymarkY", s.DisplayWaymarkY)
}

// SaveSettings stores s and writes the whole configuration to configDir.
func SaveSettings(configDir string, s Settings) error {
	SetSettings(s)
	path := filepath.Join(configDir, FileName)
	if err := viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// GetCatalog returns the catalog backend settings.
func GetCatalog() CatalogConfig {
	return CatalogConfig{
		Type: viper.GetString("catalog.type"),
		Path: viper.GetString("catalog.path"),
		DSN:  viper.GetString("catalog.dsn"),
	}
}

// GetTiles returns the tile loading settings.
func GetTiles() TilesConfig {
	return TilesConfig{
		Dir:            viper.GetString("tiles.dir"),
		LoadTimeout:    viper.GetDuration("tiles.loadTimeout"),
		DisposeTimeout: viper.GetDuration("tiles.disposeTimeout"),
	}
}

// GetInflux returns the telemetry sink settings.
func GetInflux() InfluxConfig {
	return InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Protocol: viper.GetString("influx.protocol"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
		Bucket:   viper.GetString("influx.bucket"),
	}
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}
