package engines

import (
	"bufio"
	"bytes"
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/dgnsrekt/wordboard/internal/speech"
	"github.com/dgnsrekt/wordboard/internal/subprocess"
)

// espeak-ng speaks at 175 words per minute with pitch 50 by default.
const (
	espeakBaseRate  = 175
	espeakBasePitch = 50
)

// espeakEngine drives espeak-ng, which plays audio itself.
type espeakEngine struct {
	binary string
	runner *subprocess.Runner
}

func newEspeak(cfg Config) (speech.Engine, error) {
	candidates := []string{"espeak-ng", "espeak"}
	if cfg.Espeak.Binary != "" {
		candidates = []string{cfg.Espeak.Binary}
	}

	var err error
	for _, c := range candidates {
		var path string
		if path, err = subprocess.LookPath(c); err == nil {
			return &espeakEngine{binary: path, runner: cfg.runner()}, nil
		}
	}
	return nil, speech.WrapError(Espeak, "open", err)
}

func (e *espeakEngine) Name() string { return Espeak }

func (e *espeakEngine) Voices(ctx context.Context) ([]speech.Voice, error) {
	out, err := e.runner.Output(ctx, "", e.binary, "--voices")
	if err != nil {
		return nil, speech.WrapError(Espeak, "voices", err)
	}
	return parseEspeakVoices(out), nil
}

func (e *espeakEngine) Speak(ctx context.Context, u speech.Utterance) error {
	if u.Text == "" {
		return speech.ErrEmptyText
	}
	return speech.WrapError(Espeak, "speak", e.runner.Run(ctx, u.Text, e.binary, espeakArgs(u)...))
}

func (e *espeakEngine) Close() error { return nil }

func espeakArgs(u speech.Utterance) []string {
	rate := int(math.Round(espeakBaseRate * u.Rate))
	rate = max(80, min(rate, 450))
	pitch := int(math.Round(espeakBasePitch * u.Pitch))
	pitch = max(0, min(pitch, 99))

	args := []string{"--stdin", "-s", strconv.Itoa(rate), "-p", strconv.Itoa(pitch)}
	if u.Voice != nil && u.Voice.ID != "" {
		args = append(args, "-v", u.Voice.ID)
	}
	return args
}

// parseEspeakVoices reads the table printed by `espeak-ng --voices`:
//
//	Pty Language       Age/Gender VoiceName          File                 Other Languages
//	 5  en-us           --/M      English_(America)  gmw/en-US            (en 10)
func parseEspeakVoices(out []byte) []speech.Voice {
	voices := []speech.Voice{}
	sc := bufio.NewScanner(bytes.NewReader(out))
	header := true
	for sc.Scan() {
		if header {
			header = false
			continue
		}
		fields := strings.Fields(sc.Text())
		if len(fields) < 4 {
			continue
		}
		lang := fields[1]
		voices = append(voices, speech.Voice{
			ID:       lang,
			Name:     strings.ReplaceAll(fields[3], "_", " "),
			Language: lang,
			Default:  lang == "en",
		})
	}
	return voices
}
