package engines

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/wordboard/internal/audio"
	"github.com/dgnsrekt/wordboard/internal/speech"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	edgeOutputFormat = "audio-24khz-48kbitrate-mono-mp3"
	edgeDefaultVoice = "en-US-AvaMultilingualNeural"
	edgeDialAttempts = 3
)

var errEdgeNotConfigured = errors.New("EDGE_TTS_BASE_URL, EDGE_TTS_ORIGIN, EDGE_TTS_USER_AGENT, EDGE_TTS_TRUSTED_CLIENT_TOKEN and EDGE_TTS_SEC_MS_GEC_VERSION must be set")

// edgeVoices are the neural voices offered; Edge has many more, and any of
// them works as a voice ID.
var edgeVoices = []speech.Voice{
	{ID: "en-US-AvaMultilingualNeural", Name: "Ava (Multilingual)", Language: "en-US", Default: true},
	{ID: "en-US-AndrewMultilingualNeural", Name: "Andrew (Multilingual)", Language: "en-US"},
	{ID: "en-GB-SoniaNeural", Name: "Sonia (UK)", Language: "en-GB"},
	{ID: "fr-FR-VivienneNeural", Name: "Vivienne (France)", Language: "fr-FR"},
	{ID: "de-DE-SeraphinaNeural", Name: "Seraphina (Germany)", Language: "de-DE"},
	{ID: "es-ES-ElviraNeural", Name: "Elvira (Spain)", Language: "es-ES"},
}

// edgeEngine synthesizes MP3 over the Microsoft Edge read-aloud websocket.
type edgeEngine struct {
	cfg    EdgeConfig
	dialer *websocket.Dialer
}

func newEdge(cfg Config) (speech.Engine, error) {
	e, err := newEdgeSynth(cfg.Edge)
	if err != nil {
		return nil, err
	}
	return newPlayback(e, cfg)
}

func newEdgeSynth(cfg EdgeConfig) (*edgeEngine, error) {
	if cfg.BaseURL == "" || cfg.Origin == "" || cfg.UserAgent == "" ||
		cfg.TrustedClientToken == "" || cfg.SecMSGecVersion == "" {
		return nil, speech.WrapError(Edge, "open", errEdgeNotConfigured)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &edgeEngine{
		cfg: cfg,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.Timeout,
		},
	}, nil
}

func (e *edgeEngine) Name() string { return Edge }

func (e *edgeEngine) Voices(context.Context) ([]speech.Voice, error) {
	out := make([]speech.Voice, len(edgeVoices))
	copy(out, edgeVoices)
	return out, nil
}

func (e *edgeEngine) Synthesize(ctx context.Context, u speech.Utterance) (audio.Clip, error) {
	if u.Text == "" {
		return audio.Clip{}, speech.ErrEmptyText
	}
	mp3, err := e.fetch(ctx, u)
	if err != nil {
		return audio.Clip{}, err
	}
	return audio.DecodeMP3(io.NopCloser(bytes.NewReader(mp3)))
}

// fetch runs one synthesis request and returns the MP3 it streamed back.
func (e *edgeEngine) fetch(ctx context.Context, u speech.Utterance) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	conn, err := e.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close() //nolint:errcheck

	// ReadMessage ignores contexts; closing the connection unblocks it.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := e.sendConfig(conn); err != nil {
		return nil, err
	}

	voice := edgeDefaultVoice
	if u.Voice != nil && u.Voice.ID != "" {
		voice = u.Voice.ID
	}
	requestID := strings.ReplaceAll(uuid.New().String(), "-", "")
	ssml := buildSSML(voice, u.Text, u.Rate, u.Pitch)
	msg := fmt.Sprintf("X-RequestId:%s\r\nContent-Type:application/ssml+xml\r\nPath:ssml\r\n\r\n%s", requestID, ssml)
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		return nil, fmt.Errorf("failed to send ssml: %w", err)
	}

	var buf bytes.Buffer
	if err := consumeResponses(conn, &buf); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	if buf.Len() == 0 {
		return nil, errors.New("edge returned no audio")
	}
	return buf.Bytes(), nil
}

func (e *edgeEngine) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	header.Set("Origin", e.cfg.Origin)
	header.Set("Pragma", "no-cache")
	header.Set("Cache-Control", "no-cache")
	header.Set("User-Agent", e.cfg.UserAgent)
	header.Set("Accept-Language", "en-US,en;q=0.9")
	header.Set("Cookie", "muid="+strings.ReplaceAll(uuid.New().String(), "-", ""))

	q := url.Values{}
	q.Set("TrustedClientToken", e.cfg.TrustedClientToken)
	q.Set("Sec-MS-GEC", secMSGec(e.cfg.TrustedClientToken, time.Now()))
	q.Set("Sec-MS-GEC-Version", e.cfg.SecMSGecVersion)
	target := e.cfg.BaseURL + "?" + q.Encode()

	var dialErr error
	for i := range edgeDialAttempts {
		conn, resp, err := e.dialer.DialContext(ctx, target, header)
		if err == nil {
			return conn, nil
		}
		dialErr = err
		if resp != nil {
			log.Warn("edge handshake failed", "status", resp.Status, "attempt", i+1)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
	return nil, fmt.Errorf("websocket dial failed after %d attempts: %w", edgeDialAttempts, dialErr)
}

// secMSGec derives the Sec-MS-GEC token: Windows file time ticks rounded
// down to five minutes, followed by the client token, SHA-256, upper hex.
func secMSGec(token string, now time.Time) string {
	ticks := now.Unix() + 11644473600
	ticks -= ticks % 300
	s := fmt.Sprintf("%d0000000%s", ticks, token)
	sum := sha256.Sum256([]byte(s))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

func (e *edgeEngine) sendConfig(conn *websocket.Conn) error {
	msg := "Content-Type:application/json; charset=utf-8\r\nPath:speech.config\r\n\r\n" +
		`{"context":{"synthesis":{"audio":{"metadataoptions":{"sentenceBoundaryEnabled":"false","wordBoundaryEnabled":"false"},"outputFormat":"` +
		edgeOutputFormat + `"}}}}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send speech.config: %w", err)
	}
	return nil
}

// consumeResponses copies audio frames to w until the turn ends.
func consumeResponses(conn *websocket.Conn, w io.Writer) error {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read message failed: %w", err)
		}

		switch msgType {
		case websocket.TextMessage:
			if strings.Contains(string(data), "Path:turn.end") {
				return nil
			}
		case websocket.BinaryMessage:
			// Two bytes of header length, the header, then audio.
			if len(data) < 2 {
				continue
			}
			headerLength := int(uint16(data[0])<<8 | uint16(data[1]))
			if len(data) < 2+headerLength {
				continue
			}
			if _, err := w.Write(data[2+headerLength:]); err != nil {
				return fmt.Errorf("write audio data failed: %w", err)
			}
		}
	}
}

func buildSSML(voice, text string, rate, pitch float64) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\"", "&quot;",
		"'", "&apos;",
	)
	return fmt.Sprintf("<speak version='1.0' xmlns='http://www.w3.org/2001/10/synthesis' xml:lang='en-US'>"+
		"<voice name='%s'><prosody rate='%s' pitch='%s'>%s</prosody></voice></speak>",
		replacer.Replace(voice), percent(rate), percent(pitch), replacer.Replace(text))
}

// percent renders a factor as a relative SSML percentage, 1.25 as "+25%".
func percent(f float64) string {
	if f <= 0 {
		f = 1
	}
	return fmt.Sprintf("%+d%%", int(math.Round((f-1)*100)))
}

func (e *edgeEngine) Close() error { return nil }
