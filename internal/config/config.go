package config

import (
	"fmt"
	"time"

	"github.com/OCAP2/artillery/pkg/core"
	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "artillery.cfg.json"

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds SQLite storage backend settings
type SQLiteConfig struct {
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
	DumpPath     string        `json:"dumpPath" mapstructure:"dumpPath"`
}

// WebSocketConfig holds streaming backend settings
type WebSocketConfig struct {
	URL    string `json:"url" mapstructure:"url"`
	Secret string `json:"secret" mapstructure:"secret"`
}

// DatabaseConfig holds Postgres connection settings
type DatabaseConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
}

// InfluxConfig holds InfluxDB v2 settings
type InfluxConfig struct {
	Protocol string `json:"protocol" mapstructure:"protocol"`
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Token    string `json:"token" mapstructure:"token"`
	Org      string `json:"org" mapstructure:"org"`
	Bucket   string `json:"bucket" mapstructure:"bucket"`
	// BackupPath receives gzipped line protocol while the server is unreachable
	BackupPath string `json:"backupPath" mapstructure:"backupPath"`
}

// StorageConfig selects and configures the storage backend
type StorageConfig struct {
	Type      string          `json:"type" mapstructure:"type"`
	Memory    MemoryConfig    `json:"memory" mapstructure:"memory"`
	SQLite    SQLiteConfig    `json:"sqlite" mapstructure:"sqlite"`
	WebSocket WebSocketConfig `json:"websocket" mapstructure:"websocket"`
	Database  DatabaseConfig  `json:"db" mapstructure:"db"`
	Influx    InfluxConfig    `json:"influx" mapstructure:"influx"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// SimulationConfig holds tick and removal-policy settings for a run
type SimulationConfig struct {
	MatchName                 string
	TickSeconds               float64
	Ticks                     int
	Wind                      int8
	Rules                     core.Rules
	RemoveDeadTanks           bool
	RemoveImpactedProjectiles bool
	Bounds                    core.Bounds
	RecordProjectiles         bool
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

// SetDefaults registers every default value. Load calls it; callers that run
// without a config file call it directly.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")
	viper.SetDefault("defaultTag", "Skirmish")

	viper.SetDefault("sim.matchName", "Skirmish")
	viper.SetDefault("sim.tickSeconds", 0.1)
	viper.SetDefault("sim.ticks", 200)
	viper.SetDefault("sim.wind", 0)
	viper.SetDefault("sim.gravity", core.Gravity)
	viper.SetDefault("sim.hitRadius", core.HitRadius)
	viper.SetDefault("sim.hitDamage", core.HitDamage)
	viper.SetDefault("sim.removeDeadTanks", false)
	viper.SetDefault("sim.removeImpactedProjectiles", false)
	viper.SetDefault("sim.recordProjectiles", true)
	viper.SetDefault("sim.bounds.minX", 0.0)
	viper.SetDefault("sim.bounds.minY", 0.0)
	viper.SetDefault("sim.bounds.maxX", 0.0)
	viper.SetDefault("sim.bounds.maxY", 0.0)

	viper.SetDefault("api.serverUrl", "http://localhost:5000/api")
	viper.SetDefault("api.apiKey", "")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "artillery")

	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "artillery-metrics")
	viper.SetDefault("influx.bucket", "match_data")
	viper.SetDefault("influx.backupPath", "./logs/influx_backup.lp.gz")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./recordings")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")
	viper.SetDefault("storage.sqlite.dumpPath", "")
	viper.SetDefault("storage.websocket.url", "")
	viper.SetDefault("storage.websocket.secret", "")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "artillery")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetRules returns the physical constants for the simulation.
func GetRules() core.Rules {
	return core.Rules{
		Gravity:   viper.GetFloat64("sim.gravity"),
		HitRadius: viper.GetFloat64("sim.hitRadius"),
		HitDamage: int8(viper.GetInt("sim.hitDamage")),
	}
}

// GetSimulationConfig returns the tick and policy settings.
func GetSimulationConfig() SimulationConfig {
	return SimulationConfig{
		MatchName:                 viper.GetString("sim.matchName"),
		TickSeconds:               viper.GetFloat64("sim.tickSeconds"),
		Ticks:                     viper.GetInt("sim.ticks"),
		Wind:                      int8(viper.GetInt("sim.wind")),
		Rules:                     GetRules(),
		RemoveDeadTanks:           viper.GetBool("sim.removeDeadTanks"),
		RemoveImpactedProjectiles: viper.GetBool("sim.removeImpactedProjectiles"),
		RecordProjectiles:         viper.GetBool("sim.recordProjectiles"),
		Bounds: core.Bounds{
			Min: core.Pos2(viper.GetFloat64("sim.bounds.minX"), viper.GetFloat64("sim.bounds.minY")),
			Max: core.Pos2(viper.GetFloat64("sim.bounds.maxX"), viper.GetFloat64("sim.bounds.maxY")),
		},
	}
}

// GetStorageConfig returns the storage backend settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
			DumpPath:     viper.GetString("storage.sqlite.dumpPath"),
		},
		WebSocket: WebSocketConfig{
			URL:    viper.GetString("storage.websocket.url"),
			Secret: viper.GetString("storage.websocket.secret"),
		},
		Database: GetDatabaseConfig(),
		Influx:   GetInfluxConfig(),
	}
}

// GetDatabaseConfig returns the db.* connection settings.
func GetDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:     viper.GetString("db.host"),
		Port:     viper.GetString("db.port"),
		Username: viper.GetString("db.username"),
		Password: viper.GetString("db.password"),
		Database: viper.GetString("db.database"),
	}
}

// GetInfluxConfig returns the influx.* settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Protocol: viper.GetString("influx.protocol"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
		Bucket:   viper.GetString("influx.bucket"),

		BackupPath: viper.GetString("influx.backupPath"),
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}
