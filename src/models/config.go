package models

// MConfig Structure
type MConfig struct {
	Name       string            `yaml:"name"`
	Host       string            `yaml:"host"`
	Port       int               `yaml:"port"`
	LogLevel   string            `yaml:"log_level"`
	GrpcHost   string            `yaml:"grpc_host"`
	GrpcPort   int               `yaml:"grpc_port"`
	Storage    MStorageConfig    `yaml:"storage"`
	Network    MNetworkConfig    `yaml:"network"`
	DataSource MDataSourceConfig `yaml:"data_source"`
	Batch      MBatchConfig      `yaml:"batch"`
	Tasks      MTasksConfig      `yaml:"tasks"`
	Schedules  []MScheduleConfig `yaml:"schedules"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"` // sqlite, postgres or memory
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
	Schema             string `yaml:"schema"`          // Postgres only, defaults to the executable name
	TimestampField     string `yaml:"timestamp_field"` // Field stamped on every written record
}

type MNetworkConfig struct {
	Enabled            bool     `yaml:"enabled"`
	Proxies            []string `yaml:"proxies,omitempty"`
	RequestTimeout     int      `yaml:"timeout"`
	MaxRetries         int      `yaml:"retries"`
	ConcurrentRequests int      `yaml:"concurrent_requests"`
	UserAgent          string   `yaml:"user_agent"`
	MinDelayMs         int      `yaml:"min_delay_ms"`
}

type MDataSourceConfig struct {
	Sources []MSourceConfig `yaml:"sources"`
}

type MSourceConfig struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"` // aktools
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"` // Optional
}

type MBatchConfig struct {
	Concurrency int `yaml:"concurrency"`
	DelayMs     int `yaml:"delay_ms"`
}

type MTasksConfig struct {
	RetentionSeconds int `yaml:"retention_seconds"`
}

type MScheduleConfig struct {
	Collection      string            `yaml:"collection"`
	Interval        string            `yaml:"interval"` // time.ParseDuration format
	Params          map[string]string `yaml:"params,omitempty"`
	MarketHoursOnly bool              `yaml:"market_hours_only"`
}
