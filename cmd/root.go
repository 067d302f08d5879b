package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/talent-sourcer/internal/criteria"
	"github.com/spigell/talent-sourcer/internal/pipeline"
)

const (
	app = "talent-sourcer"
)

type Config struct {
	Project  *ProjectConfig     `mapstructure:"project"`
	Search   *criteria.Criteria `mapstructure:"search"`
	Pipeline *pipeline.Config   `mapstructure:"pipeline"`
	Provider *ProviderConfig    `mapstructure:"provider"`
	Store    *StoreConfig       `mapstructure:"store"`
	AI       *AIConfig          `mapstructure:"ai"`
}

type ProjectConfig struct {
	ID                 string   `mapstructure:"id"`
	Title              string   `mapstructure:"title"`
	Company            string   `mapstructure:"company"`
	Description        string   `mapstructure:"description"`
	Location           string   `mapstructure:"location"`
	RequiredSkills     []string `mapstructure:"required-skills"`
	RequiredExperience float64  `mapstructure:"required-experience"`
	TargetCount        int      `mapstructure:"target-count"`
	MinSuitable        int      `mapstructure:"min-suitable"`
}

type ProviderConfig struct {
	APIURL    string `mapstructure:"api-url"`
	TokenFile string `mapstructure:"token-file"`
	UserAgent string `mapstructure:"user-agent"`
}

type StoreConfig struct {
	DSN     string `mapstructure:"dsn"`
	DSNFile string `mapstructure:"dsn-file"`
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "talent-sourcer is a cli for sourcing candidates from a professional network and building ranked shortlists",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("provider.token-file", "TALENTPOOL_TOKEN_FILE"); err != nil {
		log.Fatalf("binding TALENTPOOL_TOKEN_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("store.dsn", "DATABASE_URL"); err != nil {
		log.Fatalf("binding DATABASE_URL environment variable: %v", err)
	}
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is talent-sourcer.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Config needed only for run command now. If there is no config, we can skip initialization
	if runCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
