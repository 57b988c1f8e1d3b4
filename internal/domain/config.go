package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Tools        ToolsConfig        `mapstructure:"tools"`
	Convert      ConvertConfig      `mapstructure:"convert"`
	Queue        QueueConfig        `mapstructure:"queue"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// ToolsConfig contains engine provisioning configuration
type ToolsConfig struct {
	Dir                   string        `mapstructure:"dir"`
	ManifestURL           string        `mapstructure:"manifest_url"`
	DownloadBaseURL       string        `mapstructure:"download_base_url"`
	StatusTimeout         time.Duration `mapstructure:"status_timeout"`
	SettleDelay           time.Duration `mapstructure:"settle_delay"`
	StallTimeout          time.Duration `mapstructure:"stall_timeout"`
	ProgressDisplayWindow time.Duration `mapstructure:"progress_display_window"`
}

// ConvertConfig contains conversion-related configuration
type ConvertConfig struct {
	OutputDir   string        `mapstructure:"output_dir"`
	WorkDir     string        `mapstructure:"work_dir"`
	LogsDir     string        `mapstructure:"logs_dir"`
	MaxRetries  int           `mapstructure:"max_retries"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
	AutoStart   bool          `mapstructure:"auto_start"`
	ExecTimeout time.Duration `mapstructure:"exec_timeout"`
}

// QueueConfig contains queue-related configuration
type QueueConfig struct {
	DatabasePath    string        `mapstructure:"database_path"`
	CheckInterval   time.Duration `mapstructure:"check_interval"`
	AutoExitOnEmpty bool          `mapstructure:"auto_exit_on_empty"`
	EmptyWaitTime   time.Duration `mapstructure:"empty_wait_time"`
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Method  string `mapstructure:"method"` // osascript, notify-send, etc.
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8090,
		},
		Tools: ToolsConfig{
			Dir:                   "$HOME/.convertly/tools",
			ManifestURL:           "https://releases.convertly.dev/manifest.json",
			DownloadBaseURL:       "https://releases.convertly.dev/tools",
			StatusTimeout:         5 * time.Second,
			SettleDelay:           2 * time.Second,
			StallTimeout:          3 * time.Minute,
			ProgressDisplayWindow: 5 * time.Second,
		},
		Convert: ConvertConfig{
			OutputDir:   "$HOME/.convertly/converted",
			WorkDir:     "$HOME/.convertly/work",
			LogsDir:     "$HOME/.convertly/logs",
			MaxRetries:  2,
			RetryDelay:  15 * time.Second,
			AutoStart:   true,
			ExecTimeout: 30 * time.Minute,
		},
		Queue: QueueConfig{
			DatabasePath:    "$HOME/.convertly/queue.db",
			CheckInterval:   5 * time.Second,
			AutoExitOnEmpty: false,
			EmptyWaitTime:   5 * time.Minute,
		},
		Notification: NotificationConfig{
			Enabled: true,
			Method:  "notify-send",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
		},
	}
}
