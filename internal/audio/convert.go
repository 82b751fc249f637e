package audio

import (
	"fmt"
	"io"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
)

// resampleQuality is passed to beep's resampler. 4 is the quality beep's own
// speaker examples use and is plenty for speech.
const resampleQuality = 4

// clipStreamer feeds a Clip to beep.
type clipStreamer struct {
	clip Clip
	pos  int
}

func (s *clipStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	frames := s.clip.Frames()
	if s.pos >= frames {
		return 0, false
	}
	for n < len(samples) && s.pos < frames {
		l := s.clip.sample(s.pos, 0)
		r := l
		if s.clip.Channels == 2 {
			r = s.clip.sample(s.pos, 1)
		}
		samples[n] = [2]float64{l, r}
		n++
		s.pos++
	}
	return n, true
}

func (s *clipStreamer) Err() error { return nil }

// Streamer exposes c as a beep.Streamer.
func (c Clip) Streamer() beep.Streamer {
	return &clipStreamer{clip: c}
}

// Collect drains s into a clip with the given sample rate and channel
// count. Stereo sources are averaged down when channels is 1.
func Collect(s beep.Streamer, rate beep.SampleRate, channels int) (Clip, error) {
	var (
		out []byte
		b   [2 * BytesPerSample]byte
	)
	buf := make([][2]float64, 512)
	for {
		n, ok := s.Stream(buf)
		for _, smp := range buf[:n] {
			if channels == 1 {
				putSample(b[:], (smp[0]+smp[1])/2)
				out = append(out, b[:BytesPerSample]...)
				continue
			}
			putSample(b[:], smp[0])
			putSample(b[BytesPerSample:], smp[1])
			out = append(out, b[:]...)
		}
		if !ok {
			break
		}
	}
	if err := s.Err(); err != nil {
		return Clip{}, fmt.Errorf("unable to decode audio: %w", err)
	}
	return Clip{PCM: out, SampleRate: int(rate), Channels: channels}, nil
}

// Convert resamples c to the given rate and channel count. ratio changes
// playback speed and pitch together; 1 leaves them alone.
func Convert(c Clip, rate, channels int, ratio float64) (Clip, error) {
	if err := c.Validate(); err != nil {
		return Clip{}, err
	}
	if ratio <= 0 {
		ratio = 1
	}
	if c.SampleRate == rate && c.Channels == channels && ratio == 1 {
		return c, nil
	}

	var s beep.Streamer = c.Streamer()
	if c.SampleRate != rate {
		s = beep.Resample(resampleQuality, beep.SampleRate(c.SampleRate), beep.SampleRate(rate), s)
	}
	if ratio != 1 {
		s = beep.ResampleRatio(resampleQuality, ratio, s)
	}
	return Collect(s, beep.SampleRate(rate), channels)
}

// DecodeMP3 decodes an MP3 stream into a mono clip at its native rate.
func DecodeMP3(r io.ReadCloser) (Clip, error) {
	streamer, format, err := mp3.Decode(r)
	if err != nil {
		return Clip{}, fmt.Errorf("unable to decode mp3: %w", err)
	}
	defer streamer.Close() //nolint:errcheck

	return Collect(streamer, format.SampleRate, 1)
}
