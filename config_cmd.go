package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const defaultConfig = `# speech engine: auto, espeak, say, sapi, piper, gtts, edge or mock
engine: "auto"
# voice selected on start, by ID or name (empty selects the first voice)
voice: ""
# speaking rate and pitch (1 is normal)
rate: 1
pitch: 1
# mouse support
mouse: true

http:
  # give up on a word list after this long (0 waits forever)
  timeout: 0s
  user_agent: ""

cache:
  # synthesized audio kept in memory for replay, in MB
  max_size: 64

piper:
  binary: "piper"
  # voice used when none is selected
  # model: "~/.local/share/piper-voices/en_US-lessac-medium.onnx"
  # voice_dirs:
  #   - "~/.local/share/piper-voices"

espeak:
  # defaults to espeak-ng, then espeak
  binary: ""

say:
  binary: "say"

gtts:
  binary: "gtts-cli"
  requests_per_minute: 50
  # rates below this use gTTS slow mode
  slow_below: 0.8

# Edge TTS is configured through EDGE_TTS_* environment variables.
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the wordboard config file",
	Long:    paragraph(fmt.Sprintf("\n%s the wordboard config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("wordboard config\nwordboard config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("Wordboard", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	Long:  paragraph(fmt.Sprintf("\n%s the settings in effect after reading the config file, environment and flags.", keyword("Print"))),
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(viper.AllSettings()); err != nil {
			return fmt.Errorf("unable to encode settings: %w", err)
		}
		return enc.Close()
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
