package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/wordboard/internal/audio"
	"github.com/dgnsrekt/wordboard/internal/cache"
	"github.com/dgnsrekt/wordboard/internal/speech"
	"github.com/dgnsrekt/wordboard/internal/speech/engines"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// openEngine opens the configured speech engine. A non-nil error from the
// returned unavailable value means there is no speech, which is not fatal;
// err is only set for broken configuration. The cleanup func is never nil.
func openEngine() (eng speech.Engine, cleanup func(), unavailable error, err error) {
	cfg, closeSink, err := engineConfig()
	if err != nil {
		return nil, func() {}, nil, err
	}

	eng, unavailable = engines.Open(engines.Default, engineName, cfg)
	if unavailable != nil {
		log.Warn("speech unavailable", "engine", engineName, "error", unavailable)
	}

	cleanup = func() {
		if cfg.Cache != nil {
			st := cfg.Cache.Stats()
			log.Debug("clip cache", "clips", st.ItemCount, "bytes", st.Size, "hits", st.Hits, "misses", st.Misses, "evictions", st.Evictions)
		}
		if eng != nil {
			if err := eng.Close(); err != nil {
				log.Warn("unable to close speech engine", "error", err)
			}
		}
		closeSink()
	}
	return eng, cleanup, unavailable, nil
}

// engineConfig builds the engine configuration from the loaded settings.
func engineConfig() (engines.Config, func(), error) {
	cfg := engines.DefaultConfig()

	if v := viper.GetString("espeak.binary"); v != "" {
		cfg.Espeak.Binary = expandPath(v)
	}
	if v := viper.GetString("say.binary"); v != "" {
		cfg.Say.Binary = expandPath(v)
	}
	if v := viper.GetString("piper.binary"); v != "" {
		cfg.Piper.Binary = expandPath(v)
	}
	cfg.Piper.Model = expandPath(viper.GetString("piper.model"))
	if dirs := viper.GetStringSlice("piper.voice_dirs"); len(dirs) > 0 {
		cfg.Piper.VoiceDirs = cfg.Piper.VoiceDirs[:0]
		for _, d := range dirs {
			cfg.Piper.VoiceDirs = append(cfg.Piper.VoiceDirs, expandPath(d))
		}
	}
	if v := viper.GetString("gtts.binary"); v != "" {
		cfg.GTTS.Binary = expandPath(v)
	}
	if v := viper.GetInt("gtts.requests_per_minute"); v > 0 {
		cfg.GTTS.RequestsPerMinute = v
	}
	if v := viper.GetFloat64("gtts.slow_below"); v > 0 {
		cfg.GTTS.SlowBelow = v
	}

	edge, err := env.ParseAsWithOptions[engines.EdgeConfig](env.Options{Prefix: "EDGE_TTS_"})
	if err != nil {
		return cfg, nil, fmt.Errorf("error parsing edge tts config: %w", err)
	}
	cfg.Edge = edge

	cfg.Cache = cache.New[audio.Clip](int64(viper.GetInt("cache.max_size"))<<20, audio.Clip.Size)

	closeSink := func() {}
	player, err := audio.NewPlayer(audio.DefaultPlayerConfig())
	if err != nil {
		// Engines that speak through the host still work without it.
		log.Warn("audio output unavailable", "error", err)
	} else {
		cfg.Sink = player
		closeSink = func() {
			if err := player.Close(); err != nil {
				log.Warn("unable to close audio output", "error", err)
			}
		}
	}
	return cfg, closeSink, nil
}

// voiceSelection turns a --voice value into a selector value for voices.
// An index is used as is; anything else is looked up by ID and then by
// name. An empty result selects the engine default.
func voiceSelection(voices []speech.Voice, want string) string {
	if want == "" {
		return ""
	}
	if _, err := strconv.Atoi(want); err == nil {
		return want
	}
	for i, v := range voices {
		if v.ID == want {
			return strconv.Itoa(i)
		}
	}
	for i, v := range voices {
		if strings.EqualFold(v.Name, want) {
			return strconv.Itoa(i)
		}
	}
	log.Warn("voice not found, using the engine default", "voice", want)
	return ""
}

func expandPath(p string) string {
	if p == "" {
		return p
	}
	expanded, err := homedir.Expand(p)
	if err != nil {
		return p
	}
	return expanded
}
