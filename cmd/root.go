package cmd

import (
	"errors"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/cv-screener/internal/ai/gemini"
	"github.com/spigell/cv-screener/internal/documents"
	"github.com/spigell/cv-screener/internal/queue"
	"github.com/spigell/cv-screener/internal/screening"
	"github.com/spigell/cv-screener/internal/skills"
)

const (
	app       = "cv-screener"
	envPrefix = "CV_SCREENER"
)

type Config struct {
	// Skills holds extra catalog entries either as a list or keyed by name.
	Skills    any              `mapstructure:"skills"`
	Screening *ScreeningConfig `mapstructure:"screening"`
	Source    *SourceConfig    `mapstructure:"source"`
	AI        *AIConfig        `mapstructure:"ai"`
	Worker    *WorkerConfig    `mapstructure:"worker"`
}

type ScreeningConfig struct {
	MinimumSkillScore int    `mapstructure:"minimum-skill-score"`
	ExcludeFile       string `mapstructure:"exclude-file"`
}

type SourceConfig struct {
	S3 *documents.S3Config `mapstructure:"s3"`
}

type AIConfig struct {
	screening.AIConfig `mapstructure:",squash"`
	Prompt             *gemini.PromptOverrides `mapstructure:"prompt"`
}

type WorkerConfig struct {
	queue.Config `mapstructure:",squash"`
	DatabaseURL  string `mapstructure:"database-url"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "cv-screener extracts skills, contacts and scores from résumés and screens candidates",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envBindings := map[string]string{
		"ai.gemini.api-key-file": "GEMINI_API_KEY_FILE",
		"worker.database-url":    "DATABASE_URL",
		"worker.amqp-url":        "AMQP_URL",
	}
	for key, env := range envBindings {
		if err := viper.BindEnv(key, envPrefix+"_"+env, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is cv-screener.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// version does not need any configuration.
	if versionCmd.CalledAs() != "" {
		return
	}

	// A missing .env file is fine.
	_ = godotenv.Load()

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The default config file is optional, an explicit one is not.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		config = &Config{}
	}
	if config.Screening == nil {
		config.Screening = &ScreeningConfig{}
	}
	if config.Worker == nil {
		config.Worker = &WorkerConfig{}
	}

	return config, nil
}

// catalogFromConfig returns the baseline catalog extended with the skills section.
func catalogFromConfig(config *Config) (*skills.Catalog, error) {
	extra, err := skills.DecodeEntries(config.Skills)
	if err != nil {
		return nil, err
	}
	return skills.Baseline().Merge(extra...)
}
