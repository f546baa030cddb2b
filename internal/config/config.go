package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	JobsDir   string          `yaml:"jobs_dir" mapstructure:"jobs_dir"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Email     EmailConfig     `yaml:"email" mapstructure:"email"`
	Inbox     InboxConfig     `yaml:"inbox" mapstructure:"inbox"`
	Intake    IntakeConfig    `yaml:"intake" mapstructure:"intake"`
	QuickTest QuickTestConfig `yaml:"quick_test" mapstructure:"quick_test"`
	Gestalt   GestaltConfig   `yaml:"gestalt" mapstructure:"gestalt"`
	Clarify   ClarifyConfig   `yaml:"clarify" mapstructure:"clarify"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// AnthropicConfig holds Anthropic API settings for the semantic collaborators
// (signal extraction, deal-breaker checks, AI-authorship detection).
type AnthropicConfig struct {
	Key               string `yaml:"key" mapstructure:"key"`
	Model             string `yaml:"model" mapstructure:"model"`
	MaxTokens         int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	TimeoutSecs       int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerMinute int    `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
	Simulate          bool   `yaml:"simulate" mapstructure:"simulate"`
}

// EmailConfig configures outbound email delivery.
type EmailConfig struct {
	SMTPHost    string `yaml:"smtp_host" mapstructure:"smtp_host"`
	SMTPPort    int    `yaml:"smtp_port" mapstructure:"smtp_port"`
	Username    string `yaml:"username" mapstructure:"username"`
	Password    string `yaml:"password" mapstructure:"password"`
	From        string `yaml:"from" mapstructure:"from"`
	EmployerTo  string `yaml:"employer_to" mapstructure:"employer_to"`
	CompanyName string `yaml:"company_name" mapstructure:"company_name"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Simulate    bool   `yaml:"simulate" mapstructure:"simulate"`
}

// InboxConfig configures candidate-reply polling.
type InboxConfig struct {
	Dir         string `yaml:"dir" mapstructure:"dir"`
	MaxMessages int    `yaml:"max_messages" mapstructure:"max_messages"`
}

// IntakeConfig configures resume-bundle ingestion.
type IntakeConfig struct {
	InboxDir string `yaml:"inbox_dir" mapstructure:"inbox_dir"`
}

// QuickTestConfig configures the pre-screen gate heuristics.
type QuickTestConfig struct {
	MinYearsExperience  float64 `yaml:"min_years_experience" mapstructure:"min_years_experience"`
	RoleMentionCeiling  int     `yaml:"role_mention_ceiling" mapstructure:"role_mention_ceiling"`
	SoftFlagReviewCount int     `yaml:"soft_flag_review_count" mapstructure:"soft_flag_review_count"`
	RedFlagReviewCount  int     `yaml:"red_flag_review_count" mapstructure:"red_flag_review_count"`
}

// GestaltConfig configures the decision engine.
type GestaltConfig struct {
	// MaxClarifiableConcerns is the policy constant separating MAYBE from
	// BACKUP_LIST: more than this many open clarification questions means the
	// candidate is too expensive to resolve by email.
	MaxClarifiableConcerns int      `yaml:"max_clarifiable_concerns" mapstructure:"max_clarifiable_concerns"`
	TargetCompanies        []string `yaml:"target_companies" mapstructure:"target_companies"`
	MajorImpactMillions    float64  `yaml:"major_impact_millions" mapstructure:"major_impact_millions"`
}

// ClarifyConfig configures the clarification loop.
type ClarifyConfig struct {
	ResponseDeadlineDays int    `yaml:"response_deadline_days" mapstructure:"response_deadline_days"`
	TemplatesPath        string `yaml:"templates_path" mapstructure:"templates_path"`
	ReevalTimeoutSecs    int    `yaml:"reeval_timeout_secs" mapstructure:"reeval_timeout_secs"`
}

// PipelineConfig configures the orchestrator.
type PipelineConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// ServerConfig configures the approvals HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ZOATS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("jobs_dir", "jobs")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 2000)
	v.SetDefault("anthropic.timeout_secs", 60)
	v.SetDefault("anthropic.requests_per_minute", 30)
	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("email.company_name", "The hiring team")
	v.SetDefault("email.timeout_secs", 15)
	v.SetDefault("inbox.dir", "inbox")
	v.SetDefault("inbox.max_messages", 50)
	v.SetDefault("intake.inbox_dir", "inbox_drop")
	v.SetDefault("quick_test.min_years_experience", 3)
	v.SetDefault("quick_test.role_mention_ceiling", 8)
	v.SetDefault("quick_test.soft_flag_review_count", 3)
	v.SetDefault("quick_test.red_flag_review_count", 3)
	v.SetDefault("gestalt.max_clarifiable_concerns", 3)
	v.SetDefault("gestalt.major_impact_millions", 50)
	v.SetDefault("clarify.response_deadline_days", 5)
	v.SetDefault("clarify.reeval_timeout_secs", 60)
	v.SetDefault("pipeline.concurrency", 1)
	v.SetDefault("server.port", 8080)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
