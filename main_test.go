package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgnsrekt/wordboard/internal/speech"
	"github.com/spf13/viper"
)

func TestVoiceSelection(t *testing.T) {
	voices := []speech.Voice{
		{ID: "en-us", Name: "English (America)"},
		{ID: "de", Name: "German"},
	}

	tests := []struct {
		want string
		sel  string
	}{
		{"", ""},
		{"1", "1"},
		{"7", "7"},
		{"de", "1"},
		{"german", "1"},
		{"en-us", "0"},
		{"klingon", ""},
	}
	for _, tt := range tests {
		if got := voiceSelection(voices, tt.want); got != tt.sel {
			t.Errorf("voiceSelection(%q) = %q, want %q", tt.want, got, tt.sel)
		}
	}
}

func TestValidateOptions(t *testing.T) {
	tests := []struct {
		key     string
		value   any
		wantErr string
	}{
		{"engine", "mock", ""},
		{"engine", "nope", "unknown speech engine"},
		{"rate", "20", "rate must be between"},
		{"rate", "abc", ""},
		{"pitch", "3", "pitch must be between"},
		{"cache.max_size", 0, "cache max_size"},
		{"http.timeout", "-1s", "cannot be negative"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s=%v", tt.key, tt.value), func(t *testing.T) {
			old := viper.Get(tt.key)
			viper.Set(tt.key, tt.value)
			t.Cleanup(func() { viper.Set(tt.key, old) })

			err := validateOptions(rootCmd)
			switch {
			case tt.wantErr == "" && err != nil:
				t.Errorf("unexpected error: %v", err)
			case tt.wantErr != "" && (err == nil || !strings.Contains(err.Error(), tt.wantErr)):
				t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestListCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/words.txt" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, "cat\ndog\n\n  fox  \r\n")
	}))
	t.Cleanup(srv.Close)

	run := func(args ...string) (string, string, error) {
		var stdout, stderr bytes.Buffer
		rootCmd.SetOut(&stdout)
		rootCmd.SetErr(&stderr)
		rootCmd.SetArgs(args)
		t.Cleanup(func() {
			rootCmd.SetOut(nil)
			rootCmd.SetErr(nil)
			rootCmd.SetArgs(nil)
		})
		err := rootCmd.Execute()
		return stdout.String(), stderr.String(), err
	}

	out, errOut, err := run("list", srv.URL+"/words.txt")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if out != "cat\ndog\nfox\n" {
		t.Errorf("stdout = %q", out)
	}
	if !strings.Contains(errOut, "Loaded 3 words.") {
		t.Errorf("stderr = %q", errOut)
	}

	_, _, err = run("list", srv.URL+"/missing.txt")
	if err == nil || err.Error() != "Error loading file: Network response not ok: 404" {
		t.Errorf("err = %v", err)
	}
}

func TestInitDoesNotTouchConfig(t *testing.T) {
	if configFile != "" || viper.ConfigFileUsed() != "" {
		t.Errorf("config discovered at init: %q %q", configFile, viper.ConfigFileUsed())
	}
}

func TestDefaultConfigWritten(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("WORDBOARD_CONFIG_HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Cleanup(func() { configFile = "" })

	tryLoadConfigFromDefaultPlaces()

	want := filepath.Join(dir, "wordboard.yml")
	if configFile != want {
		t.Errorf("configFile = %q, want %q", configFile, want)
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if string(data) != defaultConfig {
		t.Error("default config has unexpected contents")
	}
}
