package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "techterview"
)

// Config is the application configuration, read from techterview.yaml.
type Config struct {
	Questions  *QuestionsConfig `mapstructure:"questions"`
	Transcript string           `mapstructure:"transcript-file"`
	Interview  *InterviewConfig `mapstructure:"interview"`
	AI         *AIConfig        `mapstructure:"ai"`
	Server     *ServerConfig    `mapstructure:"server"`
}

// QuestionsConfig points at the question bank dataset.
type QuestionsConfig struct {
	File string `mapstructure:"file"`
}

// InterviewConfig tunes the turn controller.
type InterviewConfig struct {
	FollowUpThreshold int `mapstructure:"follow-up-threshold"`
}

// AIConfig selects and configures the grading oracle provider.
type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

// GeminiConfig configures the Gemini provider.
type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

// ServerConfig configures the HTTP session API.
type ServerConfig struct {
	ListenAddr string `mapstructure:"listen-addr"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "techterview conducts automated technical interviews: it asks bank questions, grades free-text answers with an LLM, and probes weak answers with follow-ups",
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

	if err := viper.BindEnv("questions.file", "QUESTION_CSV_PATH"); err != nil {
		log.Fatalf("binding QUESTION_CSV_PATH environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is techterview.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Config is needed only for the run and serve commands. Without them we
	// can skip initialization.
	if runCmd.CalledAs() == "" && serveCmd.CalledAs() == "" {
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
