package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/groundedcv/groundedcv/internal/agent"
	"github.com/groundedcv/groundedcv/internal/ai/gemini"
	"github.com/groundedcv/groundedcv/internal/logger"
	"github.com/groundedcv/groundedcv/internal/retry"
	"github.com/groundedcv/groundedcv/internal/secrets"
)

const (
	app = "groundedcv"

	masterResumeDirName = "master-resume"
	tailoredDirName     = "tailored"
)

type Config struct {
	DataDir string        `mapstructure:"data-dir"`
	Server  *ServerConfig `mapstructure:"server"`
	AI      *AIConfig     `mapstructure:"ai"`
}

type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

type AIConfig struct {
	Provider        string        `mapstructure:"provider"`
	MinimumFitScore float64       `mapstructure:"minimum-fit-score"`
	MaxLogLength    int           `mapstructure:"max-log-length"`
	Models          *ModelsConfig `mapstructure:"models"`
	Gemini          *GeminiConfig `mapstructure:"gemini"`
	Retry           *retry.Config `mapstructure:"retry"`
}

type ModelsConfig struct {
	Fast      string `mapstructure:"fast"`
	Balanced  string `mapstructure:"balanced"`
	Reasoning string `mapstructure:"reasoning"`
}

type GeminiConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "groundedcv tailors a master resume to job postings without making things up",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is groundedcv.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("data-dir", "data", "directory holding the master resume and tailored output")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("data-dir", rootCmd.PersistentFlags().Lookup("data-dir"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// A missing config file is fine, flags and defaults cover everything.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config == nil {
		config = &Config{}
	}
	if config.DataDir == "" {
		config.DataDir = "data"
	}
	return config, nil
}

func newLogger() *zap.Logger {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return l
}

func masterResumeDir(config *Config) string {
	return filepath.Join(config.DataDir, masterResumeDirName)
}

func tailoredDir(config *Config) string {
	return filepath.Join(config.DataDir, tailoredDirName)
}

// retryConfig returns the configured retry settings, falling back to the
// defaults.
func retryConfig(config *Config) retry.Config {
	if config.AI != nil && config.AI.Retry != nil {
		return *config.AI.Retry
	}
	return retry.DefaultConfig()
}

// model resolves the model identifier for a complexity tier.
func model(config *Config, tier string) string {
	if config.AI == nil || config.AI.Models == nil {
		return ""
	}
	switch tier {
	case "fast":
		return config.AI.Models.Fast
	case "reasoning":
		return config.AI.Models.Reasoning
	default:
		return config.AI.Models.Balanced
	}
}

// buildAgent wires a tailoring agent against the configured provider.
func buildAgent(ctx context.Context, config *Config, log *zap.Logger) (*agent.Agent, error) {
	ai := config.AI
	if ai != nil {
		provider := strings.TrimSpace(strings.ToLower(ai.Provider))
		if provider != "" && provider != "gemini" {
			return nil, fmt.Errorf("unsupported ai provider: %s", ai.Provider)
		}
	}

	keyFile := ""
	if ai != nil && ai.Gemini != nil {
		keyFile = ai.Gemini.APIKeyFile
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: keyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY)", err)
	}

	client, err := gemini.New(ctx, apiKey, log)
	if err != nil {
		return nil, err
	}

	return agent.New("tailor", client,
		agent.WithModel(model(config, "balanced")),
		agent.WithRetry(retryConfig(config)),
		agent.WithLogger(log),
	)
}
