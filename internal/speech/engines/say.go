package engines

import (
	"bufio"
	"bytes"
	"context"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/dgnsrekt/wordboard/internal/speech"
	"github.com/dgnsrekt/wordboard/internal/subprocess"
)

// say speaks at roughly 175 words per minute by default.
const sayBaseRate = 175

// sayVoiceLine matches lines of `say -v '?'`:
//
//	Alex                en_US    # Most people recognize me by my voice.
var sayVoiceLine = regexp.MustCompile(`^(.+?)\s+([a-z]{2,3}[_-][A-Za-z0-9]+)\s+#`)

// sayEngine drives the macOS say command. say has no pitch option, so
// pitch is ignored.
type sayEngine struct {
	binary string
	runner *subprocess.Runner
}

func newSay(cfg Config) (speech.Engine, error) {
	name := cfg.Say.Binary
	if name == "" {
		name = "say"
	}
	path, err := subprocess.LookPath(name)
	if err != nil {
		return nil, speech.WrapError(Say, "open", err)
	}
	return &sayEngine{binary: path, runner: cfg.runner()}, nil
}

func (e *sayEngine) Name() string { return Say }

func (e *sayEngine) Voices(ctx context.Context) ([]speech.Voice, error) {
	out, err := e.runner.Output(ctx, "", e.binary, "-v", "?")
	if err != nil {
		return nil, speech.WrapError(Say, "voices", err)
	}
	return parseSayVoices(out), nil
}

func (e *sayEngine) Speak(ctx context.Context, u speech.Utterance) error {
	if u.Text == "" {
		return speech.ErrEmptyText
	}
	return speech.WrapError(Say, "speak", e.runner.Run(ctx, u.Text, e.binary, sayArgs(u)...))
}

func (e *sayEngine) Close() error { return nil }

func sayArgs(u speech.Utterance) []string {
	args := []string{"-r", strconv.Itoa(int(math.Round(sayBaseRate * u.Rate)))}
	if u.Voice != nil && u.Voice.ID != "" {
		args = append(args, "-v", u.Voice.ID)
	}
	// No message argument: say reads stdin.
	return args
}

func parseSayVoices(out []byte) []speech.Voice {
	voices := []speech.Voice{}
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		m := sayVoiceLine.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		voices = append(voices, speech.Voice{
			ID:       name,
			Name:     name,
			Language: strings.ReplaceAll(m[2], "_", "-"),
		})
	}
	return voices
}
