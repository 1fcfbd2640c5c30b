package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	pkgErrors "rehook/internal/pkg/errors"
)

type Config struct {
	Discord DiscordConfig `mapstructure:"discord"`
	Scan    ScanConfig    `mapstructure:"scan"`
	Pacing  PacingConfig  `mapstructure:"pacing"`
	Output  OutputConfig  `mapstructure:"output"`
	Store   StoreConfig   `mapstructure:"store"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type DiscordConfig struct {
	BotToken   string `mapstructure:"bot_token"`
	GuildID    string `mapstructure:"guild_id"`
	CategoryID string `mapstructure:"category_id"`
}

type ScanConfig struct {
	Root        string   `mapstructure:"root"`
	Extensions  []string `mapstructure:"extensions"`
	ExcludeDirs []string `mapstructure:"exclude_dirs"`
}

type PacingConfig struct {
	ChannelDelay time.Duration `mapstructure:"channel_delay"`
	WebhookDelay time.Duration `mapstructure:"webhook_delay"`
	MaxRetries   int           `mapstructure:"max_retries"`
}

type OutputConfig struct {
	ReportDir string `mapstructure:"report_dir"`
	BackupDir string `mapstructure:"backup_dir"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

func setDefaults() {
	viper.SetDefault("discord.bot_token", "")
	viper.SetDefault("discord.guild_id", "")
	viper.SetDefault("discord.category_id", "")

	viper.SetDefault("scan.root", "")
	viper.SetDefault("scan.extensions", []string{
		".lua", ".js", ".ts", ".jsx", ".tsx", ".json", ".cfg", ".config",
		".txt", ".md", ".env", ".xml", ".yml", ".yaml", ".ini", ".toml",
	})
	viper.SetDefault("scan.exclude_dirs", []string{
		"node_modules", ".git", "__pycache__", "cache", "logs", ".idea",
		".vscode", "dist", "build", "target", "obj", "bin",
	})

	viper.SetDefault("pacing.channel_delay", 1500*time.Millisecond)
	viper.SetDefault("pacing.webhook_delay", time.Second)
	viper.SetDefault("pacing.max_retries", 5)

	viper.SetDefault("output.report_dir", "webhook_output")
	viper.SetDefault("output.backup_dir", "webhook_backups")

	viper.SetDefault("store.path", "rehook.db")

	viper.SetDefault("server.enabled", false)
	viper.SetDefault("server.host", "127.0.0.1")
	viper.SetDefault("server.port", 8372)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
	viper.SetDefault("logging.output", "stdout")
	viper.SetDefault("logging.file_path", "")
}

// Load reads configuration from the given file plus the environment. Every key
// can be overridden by an env var named after its path, so discord.bot_token
// becomes DISCORD_BOT_TOKEN. A missing config file is not an error; env-only
// deployments are supported.
func Load(path string) (*Config, error) {
	setDefaults()

	viper.SetConfigFile(path)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the full configuration needed for a provisioning run.
// Problems are accumulated so one restart fixes them all.
func (c *Config) Validate() error {
	problems := c.scanProblems()

	if c.Discord.BotToken == "" {
		problems = append(problems, "discord.bot_token is required (DISCORD_BOT_TOKEN)")
	}
	if c.Discord.GuildID == "" {
		problems = append(problems, "discord.guild_id is required (DISCORD_GUILD_ID)")
	}
	if c.Discord.CategoryID == "" {
		problems = append(problems, "discord.category_id is required (DISCORD_CATEGORY_ID)")
	}

	if c.Pacing.ChannelDelay <= 0 {
		problems = append(problems, "pacing.channel_delay must be positive")
	}
	if c.Pacing.WebhookDelay <= 0 {
		problems = append(problems, "pacing.webhook_delay must be positive")
	}
	if c.Pacing.MaxRetries < 1 {
		problems = append(problems, "pacing.max_retries must be at least 1")
	}

	if c.Output.ReportDir == "" {
		problems = append(problems, "output.report_dir must not be empty")
	}
	if c.Output.BackupDir == "" {
		problems = append(problems, "output.backup_dir must not be empty")
	}
	if c.Store.Path == "" {
		problems = append(problems, "store.path must not be empty")
	}

	if len(problems) > 0 {
		return &pkgErrors.ConfigError{Problems: problems}
	}
	return nil
}

// ValidateScan checks only what a read-only scan needs, so the dry-run tool
// works without Discord credentials.
func (c *Config) ValidateScan() error {
	if problems := c.scanProblems(); len(problems) > 0 {
		return &pkgErrors.ConfigError{Problems: problems}
	}
	return nil
}

func (c *Config) scanProblems() []string {
	var problems []string

	if c.Scan.Root == "" {
		problems = append(problems, "scan.root is required (SCAN_ROOT)")
	} else if info, err := os.Stat(c.Scan.Root); err != nil {
		problems = append(problems, fmt.Sprintf("scan.root does not exist: %s", c.Scan.Root))
	} else if !info.IsDir() {
		problems = append(problems, fmt.Sprintf("scan.root is not a directory: %s", c.Scan.Root))
	}

	if len(c.Scan.Extensions) == 0 {
		problems = append(problems, "scan.extensions must not be empty")
	}

	return problems
}
