// Package cli implements the factlight command line.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ppiankov/factlight/internal/llm"
	"github.com/ppiankov/factlight/internal/model"
)

// Version is set at build time
var Version = "v0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "factlight",
	Short: "factlight - highlight factual claims and annotate them with verdicts",
	Long: `factlight asks a language model which statements of a document are
factual claims, locates each claim in the original text, asks the model
for a truth, bias and harm verdict on it, and renders the document as
HTML with every claim highlighted and its verdict attached.

Verdicts are model output. They are a reading aid, not a ruling.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of factlight.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "factlight %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.factlight/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".factlight"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// FACTLIGHT_LLM_PROVIDER overrides llm.provider, and so on
	viper.SetEnvPrefix("FACTLIGHT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig layers the config file and environment over the defaults
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	registerDefaults(v, cfg)

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.LLM.Model == "" {
		cfg.LLM.Model = llm.DefaultModel(cfg.LLM.Provider)
	}
	return cfg, nil
}

// registerDefaults makes every key known to viper so that environment
// variables bind even when no config file sets them
func registerDefaults(v *viper.Viper, cfg *model.Config) {
	defaults := map[string]any{
		"llm.provider":                      cfg.LLM.Provider,
		"llm.model":                         "", // filled per provider by loadConfig
		"llm.api_key":                       cfg.LLM.APIKey,
		"llm.base_url":                      cfg.LLM.BaseURL,
		"llm.timeout":                       cfg.LLM.Timeout,
		"llm.max_tokens":                    cfg.LLM.MaxTokens,
		"extract.mode":                      string(cfg.Extract.Mode),
		"extract.open_marker":               cfg.Extract.OpenMarker,
		"extract.close_marker":              cfg.Extract.CloseMarker,
		"annotate.format":                   cfg.Annotate.Format,
		"http.timeout":                      cfg.HTTP.Timeout,
		"http.user_agent":                   cfg.HTTP.UserAgent,
		"http.max_body_bytes":               cfg.HTTP.MaxBodyBytes,
		"http.http_proxy":                   cfg.HTTP.HTTPProxy,
		"http.https_proxy":                  cfg.HTTP.HTTPSProxy,
		"http.no_proxy":                     cfg.HTTP.NoProxy,
		"http.respect_robots":               cfg.HTTP.RespectRobots,
		"http.transcript_url":               cfg.HTTP.TranscriptURL,
		"http.transcript_lang":              cfg.HTTP.TranscriptLang,
		"cache.enabled":                     cfg.Cache.Enabled,
		"cache.dir":                         cfg.Cache.Dir,
		"cache.memory_ttl":                  cfg.Cache.MemoryTTL,
		"cache.disk_ttl":                    cfg.Cache.DiskTTL,
		"concurrency.verdict_workers":       cfg.Concurrency.VerdictWorkers,
		"rate_limiting.requests_per_second": cfg.RateLimiting.RequestsPerSecond,
		"rate_limiting.burst_size":          cfg.RateLimiting.BurstSize,
		"output.verbose":                    cfg.Output.Verbose,
		"output.title":                      cfg.Output.Title,
		"output.include_css":                cfg.Output.IncludeCSS,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// newLogger returns a development logger in verbose mode and a quiet
// production logger otherwise. Both write to stderr.
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		cfg := zap.NewDevelopmentConfig()
		cfg.OutputPaths = []string{"stderr"}
		return cfg.Build()
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	cfg.OutputPaths = []string{"stderr"}
	cfg.Sampling = nil
	return cfg.Build()
}
