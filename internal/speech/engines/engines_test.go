package engines

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dgnsrekt/wordboard/internal/audio"
	"github.com/dgnsrekt/wordboard/internal/cache"
	"github.com/dgnsrekt/wordboard/internal/speech"
)

func TestParseEspeakVoices(t *testing.T) {
	out := []byte(`Pty Language       Age/Gender VoiceName          File                 Other Languages
 5  af              --/M      Afrikaans          gmw/af
 5  en              --/M      English_(Great_Britain) gmw/en            (en 2)
 5  en-us           --/M      English_(America)  gmw/en-US            (en 10)
`)
	got := parseEspeakVoices(out)
	want := []speech.Voice{
		{ID: "af", Name: "Afrikaans", Language: "af"},
		{ID: "en", Name: "English (Great Britain)", Language: "en", Default: true},
		{ID: "en-us", Name: "English (America)", Language: "en-us"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v\nwant %+v", got, want)
	}

	if got := parseEspeakVoices(nil); got == nil || len(got) != 0 {
		t.Errorf("empty output should give an empty list, got %#v", got)
	}
}

func TestEspeakArgs(t *testing.T) {
	got := espeakArgs(speech.Utterance{Text: "cat", Rate: 1, Pitch: 1})
	want := []string{"--stdin", "-s", "175", "-p", "50"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}

	got = espeakArgs(speech.Utterance{Text: "cat", Rate: 10, Pitch: 2, Voice: &speech.Voice{ID: "fr"}})
	want = []string{"--stdin", "-s", "450", "-p", "99", "-v", "fr"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseSayVoices(t *testing.T) {
	out := []byte(`Alex                en_US    # Most people recognize me by my voice.
Bad News            en_US    # The light you see at the end of the tunnel is the headlamp of a fast approaching train.
Amélie              fr_CA    # Bonjour, je m’appelle Amélie.
garbage line
`)
	got := parseSayVoices(out)
	if len(got) != 3 {
		t.Fatalf("expected 3 voices, got %+v", got)
	}
	if got[1].ID != "Bad News" || got[1].Language != "en-US" {
		t.Errorf("unexpected voice %+v", got[1])
	}
	if got[2].Name != "Amélie" || got[2].Language != "fr-CA" {
		t.Errorf("unexpected voice %+v", got[2])
	}
}

func TestSayArgs(t *testing.T) {
	got := sayArgs(speech.Utterance{Rate: 2, Voice: &speech.Voice{ID: "Alex"}})
	want := []string{"-r", "350", "-v", "Alex"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestGTTSVoicesAndArgs(t *testing.T) {
	e := newGTTSSynth("gtts-cli", DefaultConfig())
	voices, err := e.Voices(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(voices) != len(gttsLanguages) {
		t.Errorf("expected %d voices, got %d", len(gttsLanguages), len(voices))
	}
	defaults := 0
	for _, v := range voices {
		if v.Default {
			defaults++
			if v.ID != "en" {
				t.Errorf("default voice should be en, got %s", v.ID)
			}
		}
	}
	if defaults != 1 {
		t.Errorf("expected exactly one default voice, got %d", defaults)
	}

	if got := e.args(speech.Utterance{Rate: 1}); !reflect.DeepEqual(got, []string{"-l", "en", "-"}) {
		t.Errorf("unexpected args %q", got)
	}
	got := e.args(speech.Utterance{Rate: 0.5, Voice: &speech.Voice{ID: "FR"}})
	if !reflect.DeepEqual(got, []string{"-l", "fr", "--slow", "-"}) {
		t.Errorf("unexpected args %q", got)
	}

	// A raised pitch plays faster, which slow speech offsets.
	got = e.args(speech.Utterance{Rate: 1, Pitch: 1.5})
	if !reflect.DeepEqual(got, []string{"-l", "en", "--slow", "-"}) {
		t.Errorf("unexpected args %q", got)
	}
	got = e.args(speech.Utterance{Rate: 1.5, Pitch: 1.5})
	if !reflect.DeepEqual(got, []string{"-l", "en", "-"}) {
		t.Errorf("unexpected args %q", got)
	}
}

func writeVoice(t *testing.T, dir, name, config string) string {
	t.Helper()
	model := filepath.Join(dir, name+".onnx")
	if err := os.WriteFile(model, []byte("model"), 0o600); err != nil {
		t.Fatal(err)
	}
	if config != "" {
		if err := os.WriteFile(model+".json", []byte(config), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return model
}

func TestPiperVoices(t *testing.T) {
	dir := t.TempDir()
	writeVoice(t, dir, "en_US-lessac-medium", `{"audio":{"sample_rate":22050},"language":{"code":"en_US"}}`)
	writeVoice(t, dir, "de_DE-thorsten-high", `{"audio":{"sample_rate":22050}}`)
	writeVoice(t, dir, "orphan", "")

	e := &piperEngine{dirs: []string{dir, filepath.Join(dir, "missing")}}
	voices, err := e.Voices(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(voices) != 2 {
		t.Fatalf("expected 2 voices, got %+v", voices)
	}
	// Sorted by file name.
	if voices[0].Name != "thorsten (high)" || voices[0].Language != "de-DE" || !voices[0].Default {
		t.Errorf("unexpected first voice %+v", voices[0])
	}
	if voices[1].Name != "lessac (medium)" || voices[1].Language != "en-US" || voices[1].Default {
		t.Errorf("unexpected second voice %+v", voices[1])
	}
}

func TestPiperConfiguredModelIsDefault(t *testing.T) {
	dir := t.TempDir()
	writeVoice(t, dir, "de_DE-thorsten-high", `{}`)
	model := writeVoice(t, dir, "en_US-lessac-medium", `{}`)

	e := &piperEngine{model: model, dirs: []string{dir}}
	voices, _ := e.Voices(context.Background())
	if len(voices) != 2 {
		t.Fatalf("configured model should not be listed twice: %+v", voices)
	}
	if voices[0].ID != model || !voices[0].Default {
		t.Errorf("configured model should be the default, got %+v", voices[0])
	}
}

func TestPiperArgs(t *testing.T) {
	got := piperArgs("/v/en.onnx", speech.Utterance{Rate: 2, Pitch: 1})
	want := []string{"--model", "/v/en.onnx", "--output-raw", "--length-scale", "0.50"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
	got = piperArgs("/v/en.onnx", speech.Utterance{Rate: 1, Pitch: 1.5})
	if got[len(got)-1] != "1.50" {
		t.Errorf("pitch should lengthen synthesis to compensate, got %q", got)
	}
}

func TestPiperWatchVoices(t *testing.T) {
	dir := t.TempDir()
	e := &piperEngine{dirs: []string{dir}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notified := make(chan struct{}, 4)
	done := make(chan error, 1)
	go func() {
		done <- e.WatchVoices(ctx, func() { notified <- struct{}{} })
	}()

	// Give the watcher a moment to register the directory.
	time.Sleep(100 * time.Millisecond)
	writeVoice(t, dir, "en_US-amy-low", `{}`)

	select {
	case <-notified:
	case <-time.After(3 * time.Second):
		t.Fatal("no notification after adding a voice")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("WatchVoices returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("WatchVoices did not stop")
	}
}

// fakeSynth returns a short tone and counts calls.
type fakeSynth struct {
	calls atomic.Int32
	err   error
}

func (f *fakeSynth) Name() string { return "fake" }

func (f *fakeSynth) Voices(context.Context) ([]speech.Voice, error) { return nil, nil }

func (f *fakeSynth) Synthesize(_ context.Context, u speech.Utterance) (audio.Clip, error) {
	f.calls.Add(1)
	if f.err != nil {
		return audio.Clip{}, f.err
	}
	pcm := make([]byte, 200*audio.BytesPerSample)
	for i := 0; i < 200; i++ {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(i*100))
	}
	return audio.Clip{PCM: pcm, SampleRate: 22050, Channels: 1}, nil
}

func (f *fakeSynth) Close() error { return nil }

func TestPlaybackCachesClips(t *testing.T) {
	synth := &fakeSynth{}
	sink := audio.NewMockPlayer()
	lru := cache.New(1<<20, audio.Clip.Size)

	eng, err := newPlayback(synth, Config{Sink: sink, Cache: lru})
	if err != nil {
		t.Fatal(err)
	}

	u := speech.Utterance{Text: "cat", Rate: 1, Pitch: 1}
	for range 3 {
		if err := eng.Speak(context.Background(), u); err != nil {
			t.Fatalf("Speak failed: %v", err)
		}
	}
	if n := synth.calls.Load(); n != 1 {
		t.Errorf("expected one synthesis, got %d", n)
	}
	if n := sink.PlayCount(); n != 3 {
		t.Errorf("expected three plays, got %d", n)
	}

	// A different rate is a different clip.
	u.Rate = 1.5
	_ = eng.Speak(context.Background(), u)
	if n := synth.calls.Load(); n != 2 {
		t.Errorf("expected a second synthesis, got %d", n)
	}
}

func TestPlaybackDropsRefusedClips(t *testing.T) {
	synth := &fakeSynth{}
	sink := audio.NewMockPlayer()
	lru := cache.New(1<<20, audio.Clip.Size)
	eng, _ := newPlayback(synth, Config{Sink: sink, Cache: lru})

	u := speech.Utterance{Text: "cat", Rate: 1, Pitch: 1}
	if err := eng.Speak(context.Background(), u); err != nil {
		t.Fatalf("Speak failed: %v", err)
	}
	if lru.Len() != 1 {
		t.Fatalf("expected one cached clip, got %d", lru.Len())
	}

	_ = sink.Close()
	if err := eng.Speak(context.Background(), u); !errors.Is(err, audio.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if lru.Len() != 0 {
		t.Errorf("clip kept after the device refused it")
	}
}

// watchingSynth reports a single voice change and returns.
type watchingSynth struct {
	fakeSynth
}

func (w *watchingSynth) WatchVoices(_ context.Context, notify func()) error {
	notify()
	return nil
}

func TestPlaybackClearsCacheOnVoiceChange(t *testing.T) {
	lru := cache.New(1<<20, audio.Clip.Size)
	eng, _ := newPlayback(&watchingSynth{}, Config{Sink: audio.NewMockPlayer(), Cache: lru})

	if err := eng.Speak(context.Background(), speech.Utterance{Text: "cat", Rate: 1, Pitch: 1}); err != nil {
		t.Fatalf("Speak failed: %v", err)
	}

	notified := false
	if err := eng.WatchVoices(context.Background(), func() { notified = true }); err != nil {
		t.Fatalf("WatchVoices returned %v", err)
	}
	if !notified {
		t.Error("change was not forwarded")
	}
	if lru.Len() != 0 {
		t.Errorf("cache holds %d clips after a voice change", lru.Len())
	}
}

func TestPlaybackErrors(t *testing.T) {
	if _, err := newPlayback(&fakeSynth{}, Config{}); !errors.Is(err, errNoSink) {
		t.Errorf("expected errNoSink, got %v", err)
	}

	synth := &fakeSynth{err: errors.New("model exploded")}
	eng, _ := newPlayback(synth, Config{Sink: audio.NewMockPlayer()})

	err := eng.Speak(context.Background(), speech.Utterance{Text: "cat", Rate: 1, Pitch: 1})
	var ee *speech.EngineError
	if !errors.As(err, &ee) || ee.Op != "synthesize" {
		t.Errorf("expected synthesize EngineError, got %v", err)
	}
	if err := eng.Speak(context.Background(), speech.Utterance{}); !errors.Is(err, speech.ErrEmptyText) {
		t.Errorf("expected ErrEmptyText, got %v", err)
	}
	if err := eng.WatchVoices(context.Background(), func() {}); !errors.Is(err, errors.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

func TestPlaybackCancel(t *testing.T) {
	sink := audio.NewMockPlayer()
	sink.DelayFactor = 1000
	eng, _ := newPlayback(&fakeSynth{}, Config{Sink: sink})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := eng.Speak(ctx, speech.Utterance{Text: "cat", Rate: 1, Pitch: 1})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestPitchShift(t *testing.T) {
	clip, _ := (&fakeSynth{}).Synthesize(context.Background(), speech.Utterance{})
	same, err := pitchShift(clip, 1)
	if err != nil || len(same.PCM) != len(clip.PCM) {
		t.Errorf("pitch 1 should not change the clip")
	}
	higher, err := pitchShift(clip, 2)
	if err != nil {
		t.Fatal(err)
	}
	if higher.Frames() >= clip.Frames() {
		t.Errorf("raising pitch should shorten the clip: %d >= %d", higher.Frames(), clip.Frames())
	}
}

func TestOpen(t *testing.T) {
	r := NewRegistry[speech.Engine]()
	r.Register(Espeak, func(Config) (speech.Engine, error) {
		return nil, errors.New("espeak missing")
	})
	r.Register(Piper, newMock)

	eng, err := Open(r, "", Config{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if eng.Name() != Mock {
		t.Errorf("expected the first working engine, got %s", eng.Name())
	}

	if _, err := Open(r, "nope", Config{}); !errors.Is(err, speech.ErrUnknownEngine) {
		t.Errorf("expected ErrUnknownEngine, got %v", err)
	}

	empty := NewRegistry[speech.Engine]()
	if _, err := Open(empty, Auto, Config{}); !errors.Is(err, speech.ErrNoEngine) {
		t.Errorf("expected ErrNoEngine, got %v", err)
	}

	r.Register(GTTS, func(Config) (speech.Engine, error) { return nil, errors.New("offline") })
	r.Register(Piper, func(Config) (speech.Engine, error) { return nil, errors.New("no voices") })
	_, err = Open(r, Auto, Config{})
	if !errors.Is(err, speech.ErrNoEngine) {
		t.Errorf("expected ErrNoEngine, got %v", err)
	}
}

func TestDetectionOrder(t *testing.T) {
	if got := DetectionOrder("windows")[0]; got != SAPI {
		t.Errorf("windows should try SAPI first, got %s", got)
	}
	if got := DetectionOrder("darwin")[0]; got != Say {
		t.Errorf("darwin should try say first, got %s", got)
	}
	if got := DetectionOrder("linux"); !reflect.DeepEqual(got, []string{Espeak, Piper, GTTS, Edge}) {
		t.Errorf("unexpected linux order %q", got)
	}
}

func TestDefaultRegistry(t *testing.T) {
	for _, name := range []string{Espeak, Say, SAPI, Piper, GTTS, Edge, Mock} {
		if !Default.Has(name) {
			t.Errorf("%s not registered", name)
		}
	}
	if names := Default.List(); len(names) != 7 {
		t.Errorf("unexpected engines %q", names)
	}
}

func TestMockEngine(t *testing.T) {
	eng, _ := newMock(Config{})
	voices, _ := eng.Voices(context.Background())
	if len(voices) == 0 || !voices[0].Default {
		t.Errorf("unexpected mock voices %+v", voices)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := eng.Speak(ctx, speech.Utterance{Text: "a long sentence to speak", Rate: 1})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancellation, got %v", err)
	}
	if err := eng.Speak(context.Background(), speech.Utterance{Text: "a", Rate: 10}); err != nil {
		t.Errorf("Speak failed: %v", err)
	}
}
