package engines

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/dgnsrekt/wordboard/internal/audio"
	"github.com/dgnsrekt/wordboard/internal/speech"
	"github.com/dgnsrekt/wordboard/internal/subprocess"
	"golang.org/x/time/rate"
)

// gttsLanguages are the languages offered as voices, keyed by gTTS code.
var gttsLanguages = map[string]string{
	"ar": "Arabic",
	"de": "German",
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"hi": "Hindi",
	"it": "Italian",
	"ja": "Japanese",
	"ko": "Korean",
	"nl": "Dutch",
	"pl": "Polish",
	"pt": "Portuguese",
	"ru": "Russian",
	"sv": "Swedish",
	"tr": "Turkish",
	"zh": "Chinese",
}

// gttsEngine synthesizes MP3 with gtts-cli (Google Translate TTS) and
// decodes it for playback. gTTS only knows normal and slow speech.
type gttsEngine struct {
	binary    string
	slowBelow float64
	limiter   *rate.Limiter
	runner    *subprocess.Runner
}

func newGTTS(cfg Config) (speech.Engine, error) {
	name := cfg.GTTS.Binary
	if name == "" {
		name = "gtts-cli"
	}
	path, err := subprocess.LookPath(name)
	if err != nil {
		return nil, speech.WrapError(GTTS, "open", err)
	}
	return newPlayback(newGTTSSynth(path, cfg), cfg)
}

func newGTTSSynth(binary string, cfg Config) *gttsEngine {
	rpm := cfg.GTTS.RequestsPerMinute
	if rpm <= 0 {
		rpm = 50
	}
	slowBelow := cfg.GTTS.SlowBelow
	if slowBelow <= 0 {
		slowBelow = 0.8
	}
	return &gttsEngine{
		binary:    binary,
		slowBelow: slowBelow,
		limiter:   rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
		runner:    cfg.runner(),
	}
}

func (e *gttsEngine) Name() string { return GTTS }

func (e *gttsEngine) Voices(context.Context) ([]speech.Voice, error) {
	codes := make([]string, 0, len(gttsLanguages))
	for code := range gttsLanguages {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	voices := make([]speech.Voice, 0, len(codes))
	for _, code := range codes {
		voices = append(voices, speech.Voice{
			ID:       code,
			Name:     gttsLanguages[code],
			Language: code,
			Default:  code == "en",
		})
	}
	return voices, nil
}

func (e *gttsEngine) Synthesize(ctx context.Context, u speech.Utterance) (audio.Clip, error) {
	if u.Text == "" {
		return audio.Clip{}, speech.ErrEmptyText
	}

	// Rate limit to avoid being blocked
	if err := e.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return audio.Clip{}, ctxErr
		}
		return audio.Clip{}, fmt.Errorf("rate limit wait: %w", err)
	}

	mp3, err := e.runner.Output(ctx, u.Text, e.binary, e.args(u)...)
	if err != nil {
		return audio.Clip{}, err
	}
	if len(mp3) == 0 {
		return audio.Clip{}, errors.New("gtts-cli produced no MP3 output")
	}

	clip, err := audio.DecodeMP3(io.NopCloser(bytes.NewReader(mp3)))
	if err != nil {
		return audio.Clip{}, err
	}
	return pitchShift(clip, u.Pitch)
}

func (e *gttsEngine) args(u speech.Utterance) []string {
	lang := "en"
	if u.Voice != nil && u.Voice.ID != "" {
		lang = strings.ToLower(u.Voice.ID)
	}
	args := []string{"-l", lang}
	// Raising the pitch afterwards also speeds the clip up, so ask for slow
	// speech when the rate that would be heard is below the threshold.
	pitch := u.Pitch
	if pitch <= 0 {
		pitch = 1
	}
	if u.Rate/pitch < e.slowBelow {
		args = append(args, "--slow")
	}
	// "-" reads the text from stdin.
	return append(args, "-")
}

func (e *gttsEngine) Close() error { return nil }
