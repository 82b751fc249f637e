// Package main provides the entry point for the wordboard CLI application.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/wordboard/internal/speech"
	"github.com/dgnsrekt/wordboard/internal/speech/engines"
	"github.com/dgnsrekt/wordboard/ui"
	"github.com/joho/godotenv"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

const (
	minCacheSize = 1
	maxCacheSize = 10000
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile  string
	engineName  string
	voice       string
	rate        string
	pitch       string
	mouse       bool
	httpTimeout time.Duration
	userAgent   string

	rootCmd = &cobra.Command{
		Use:   "wordboard [URL]",
		Short: "Load a word list and hear every word spoken",
		Long: paragraph(
			fmt.Sprintf("\nLoad a newline separated word list from a URL or file and %s.", keyword("speak each word with a keypress")),
		),
		Example:          paragraph("wordboard https://example.com/common_words.txt\nwordboard ./common_words.txt --engine piper --rate 0.75"),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveDefault
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

func validateOptions(cmd *cobra.Command) error {
	if cmd.Flags().Changed("config") {
		viper.SetConfigFile(expandPath(configFile))
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file: %w", err)
		}
	}

	// grab config values from Viper
	engineName = viper.GetString("engine")
	voice = viper.GetString("voice")
	rate = viper.GetString("rate")
	pitch = viper.GetString("pitch")
	mouse = viper.GetBool("mouse")
	httpTimeout = viper.GetDuration("http.timeout")
	userAgent = viper.GetString("http.user_agent")

	if engineName != "" && engineName != engines.Auto && !engines.Default.Has(engineName) {
		return fmt.Errorf("%w %q: use one of %v", speech.ErrUnknownEngine, engineName, engines.Default.List())
	}

	if r := speech.ParseFactor(rate); r < speech.MinRate || r > speech.MaxRate {
		return fmt.Errorf("rate must be between %v and %v, got %q", speech.MinRate, speech.MaxRate, rate)
	}
	if p := speech.ParseFactor(pitch); p < speech.MinPitch || p > speech.MaxPitch {
		return fmt.Errorf("pitch must be between %v and %v, got %q", speech.MinPitch, speech.MaxPitch, pitch)
	}

	if size := viper.GetInt("cache.max_size"); size < minCacheSize || size > maxCacheSize {
		return fmt.Errorf("cache max_size must be between %d and %d MB, got %d", minCacheSize, maxCacheSize, size)
	}

	if httpTimeout < 0 {
		return fmt.Errorf("http timeout cannot be negative, got %s", httpTimeout)
	}

	if model := viper.GetString("piper.model"); model != "" {
		if _, err := os.Stat(expandPath(model)); errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("piper model file does not exist: %s", model)
		}
	}
	return nil
}

func execute(_ *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) { //nolint:gosec
		return errors.New("wordboard needs a terminal; use 'wordboard list URL' to print the words instead")
	}

	var url string
	if len(args) > 0 {
		url = args[0]
	}
	return runTUI(url)
}

func runTUI(url string) error {
	// Read environment to get debugging stuff
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}

	cfg.URL = url
	cfg.Voice = voice
	cfg.Rate = rate
	cfg.Pitch = pitch
	cfg.EnableMouse = mouse
	cfg.HTTPTimeout = httpTimeout
	cfg.UserAgent = userAgent

	eng, cleanup, unavailable, err := openEngine()
	if err != nil {
		return err
	}
	defer cleanup()

	// Run Bubble Tea program
	if _, err := ui.NewProgram(cfg, eng, unavailable).Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	return nil
}

func main() {
	loadDotEnv()
	tryLoadConfigFromDefaultPlaces()

	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default $XDG_CONFIG_HOME/wordboard/wordboard.yml)")
	rootCmd.PersistentFlags().StringVarP(&engineName, "engine", "e", engines.Auto, "speech engine (auto, espeak, say, sapi, piper, gtts, edge, mock)")
	rootCmd.PersistentFlags().StringVar(&voice, "voice", "", "voice to use, by index, ID or name")
	rootCmd.PersistentFlags().StringVarP(&rate, "rate", "r", "1", "speaking rate (1 is normal)")
	rootCmd.PersistentFlags().StringVarP(&pitch, "pitch", "p", "1", "speaking pitch (1 is normal)")
	rootCmd.PersistentFlags().DurationVar(&httpTimeout, "timeout", 0, "give up loading a word list after this long (0 waits forever)")
	rootCmd.Flags().BoolVarP(&mouse, "mouse", "m", true, "enable mouse support")

	// Config bindings
	_ = viper.BindPFlag("engine", rootCmd.PersistentFlags().Lookup("engine"))
	_ = viper.BindPFlag("voice", rootCmd.PersistentFlags().Lookup("voice"))
	_ = viper.BindPFlag("rate", rootCmd.PersistentFlags().Lookup("rate"))
	_ = viper.BindPFlag("pitch", rootCmd.PersistentFlags().Lookup("pitch"))
	_ = viper.BindPFlag("http.timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	_ = viper.BindPFlag("mouse", rootCmd.Flags().Lookup("mouse"))

	viper.SetDefault("engine", engines.Auto)
	viper.SetDefault("rate", "1")
	viper.SetDefault("pitch", "1")
	viper.SetDefault("mouse", true)
	viper.SetDefault("http.timeout", 0)
	viper.SetDefault("cache.max_size", 64)
	viper.SetDefault("gtts.requests_per_minute", 50)
	viper.SetDefault("gtts.slow_below", 0.8)

	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd, manCmd, listCmd, sayCmd, voicesCmd)
}

// loadDotEnv reads a .env file in the working directory, if there is one.
// Variables already set in the environment win.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn("Could not read .env file", "err", err)
	}
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "wordboard")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "wordboard")}, dirs...)
	}

	if c := os.Getenv("WORDBOARD_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("wordboard")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("wordboard")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "wordboard.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
