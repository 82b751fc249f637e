package engines

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/wordboard/internal/audio"
	"github.com/dgnsrekt/wordboard/internal/speech"
	"github.com/dgnsrekt/wordboard/internal/subprocess"
	"github.com/fsnotify/fsnotify"
)

const (
	piperDefaultSampleRate = 22050

	// piperDebounce collapses bursts of file events, such as a voice being
	// copied in, into one notification.
	piperDebounce = 250 * time.Millisecond
)

var errNoPiperVoice = errors.New("no piper voice found")

// piperEngine synthesizes raw PCM with Piper. Voices are the *.onnx models
// found in the voice directories, each with its .onnx.json config beside it.
type piperEngine struct {
	binary string
	model  string
	dirs   []string
	runner *subprocess.Runner
}

// piperVoiceConfig is the part of a voice's .onnx.json we read.
type piperVoiceConfig struct {
	Audio struct {
		SampleRate int `json:"sample_rate"`
	} `json:"audio"`
	Language struct {
		Code string `json:"code"`
	} `json:"language"`
}

func newPiper(cfg Config) (speech.Engine, error) {
	name := cfg.Piper.Binary
	if name == "" {
		name = "piper"
	}
	path, err := subprocess.LookPath(name)
	if err != nil {
		return nil, speech.WrapError(Piper, "open", err)
	}

	e := &piperEngine{
		binary: path,
		model:  cfg.Piper.Model,
		dirs:   cfg.Piper.VoiceDirs,
		runner: cfg.runner(),
	}
	if e.model == "" {
		voices, _ := e.Voices(context.Background())
		if len(voices) == 0 {
			return nil, speech.WrapError(Piper, "open", errNoPiperVoice)
		}
	} else if _, err := os.Stat(e.model); err != nil {
		return nil, speech.WrapError(Piper, "open", fmt.Errorf("model file not found: %w", err))
	}

	return newPlayback(e, cfg)
}

func (e *piperEngine) Name() string { return Piper }

// Voices lists the models in the voice directories. The configured model,
// or else the first one found, is the default.
func (e *piperEngine) Voices(context.Context) ([]speech.Voice, error) {
	seen := map[string]bool{}
	voices := []speech.Voice{}

	add := func(model string) {
		abs, err := filepath.Abs(model)
		if err != nil || seen[abs] {
			return
		}
		if _, err := os.Stat(abs + ".json"); err != nil {
			log.Debug("skipping piper model without config", "model", abs)
			return
		}
		seen[abs] = true
		voices = append(voices, piperVoice(abs))
	}

	if e.model != "" {
		add(e.model)
	}
	for _, dir := range e.dirs {
		matches, err := filepath.Glob(filepath.Join(dir, "*.onnx"))
		if err != nil {
			continue
		}
		sort.Strings(matches)
		for _, m := range matches {
			add(m)
		}
	}

	if len(voices) > 0 {
		voices[0].Default = true
	}
	return voices, nil
}

// piperVoice describes a model from its file name, e.g.
// en_US-lessac-medium.onnx becomes "lessac (medium)" in en-US.
func piperVoice(model string) speech.Voice {
	base := strings.TrimSuffix(filepath.Base(model), ".onnx")
	v := speech.Voice{ID: model, Name: base}

	parts := strings.SplitN(base, "-", 3)
	if len(parts) >= 2 {
		v.Language = strings.ReplaceAll(parts[0], "_", "-")
		v.Name = parts[1]
		if len(parts) == 3 {
			v.Name += " (" + parts[2] + ")"
		}
	}
	if cfg, err := readPiperConfig(model); err == nil && cfg.Language.Code != "" {
		v.Language = strings.ReplaceAll(cfg.Language.Code, "_", "-")
	}
	return v
}

func readPiperConfig(model string) (piperVoiceConfig, error) {
	var cfg piperVoiceConfig
	b, err := os.ReadFile(model + ".json")
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid voice config %s: %w", model+".json", err)
	}
	return cfg, nil
}

func (e *piperEngine) Synthesize(ctx context.Context, u speech.Utterance) (audio.Clip, error) {
	if u.Text == "" {
		return audio.Clip{}, speech.ErrEmptyText
	}

	model, err := e.pickModel(ctx, u.Voice)
	if err != nil {
		return audio.Clip{}, err
	}

	sampleRate := piperDefaultSampleRate
	if cfg, err := readPiperConfig(model); err == nil && cfg.Audio.SampleRate > 0 {
		sampleRate = cfg.Audio.SampleRate
	}

	// Text goes in on stdin; raw 16-bit mono PCM comes out on stdout.
	pcm, err := e.runner.Output(ctx, u.Text, e.binary, piperArgs(model, u)...)
	if err != nil {
		return audio.Clip{}, err
	}
	if len(pcm) == 0 {
		return audio.Clip{}, errors.New("piper produced no audio output")
	}
	// Drop a trailing odd byte rather than reject the clip.
	pcm = pcm[:len(pcm)&^1]

	return pitchShift(audio.Clip{PCM: pcm, SampleRate: sampleRate, Channels: 1}, u.Pitch)
}

func (e *piperEngine) pickModel(ctx context.Context, v *speech.Voice) (string, error) {
	if v != nil && v.ID != "" {
		return v.ID, nil
	}
	if e.model != "" {
		return e.model, nil
	}
	voices, _ := e.Voices(ctx)
	if len(voices) == 0 {
		return "", errNoPiperVoice
	}
	return voices[0].ID, nil
}

// piperArgs builds the command line. Piper's length scale is inversely
// proportional to speed; the later pitch shift speeds the clip up by the
// pitch factor, so it is folded in here.
func piperArgs(model string, u speech.Utterance) []string {
	pitch := u.Pitch
	if pitch <= 0 {
		pitch = 1
	}
	scale := pitch / u.Rate
	return []string{
		"--model", model,
		"--output-raw",
		"--length-scale", fmt.Sprintf("%.2f", scale),
	}
}

// WatchVoices notifies whenever a voice directory changes.
func (e *piperEngine) WatchVoices(ctx context.Context, notify func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("unable to watch voices: %w", err)
	}
	defer watcher.Close() //nolint:errcheck

	watched := 0
	for _, dir := range e.dirs {
		if err := watcher.Add(dir); err != nil {
			log.Debug("not watching voice directory", "dir", dir, "error", err)
			continue
		}
		watched++
	}
	if watched == 0 {
		<-ctx.Done()
		return nil
	}
	log.Debug("watching piper voices", "dirs", watched)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, ".onnx") && !strings.HasSuffix(event.Name, ".onnx.json") {
				continue
			}
			log.Debug("voice directory changed", "file", event.Name, "op", event.Op)
			if timer == nil {
				timer = time.NewTimer(piperDebounce)
			} else {
				timer.Reset(piperDebounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			notify()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("voice watcher error", "error", err)
		}
	}
}

func (e *piperEngine) Close() error { return nil }
