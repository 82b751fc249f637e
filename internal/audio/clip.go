package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// BytesPerSample is the size of one signed 16-bit little-endian sample.
const BytesPerSample = 2

// ErrEmptyClip is returned when there is nothing to play.
var ErrEmptyClip = errors.New("audio data is empty")

// Clip is a block of signed 16-bit little-endian PCM.
type Clip struct {
	PCM        []byte
	SampleRate int
	Channels   int
}

// Validate checks that the clip can be played.
func (c Clip) Validate() error {
	if len(c.PCM) == 0 {
		return ErrEmptyClip
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", c.SampleRate)
	}
	if c.Channels != 1 && c.Channels != 2 {
		return fmt.Errorf("channels must be 1 (mono) or 2 (stereo), got %d", c.Channels)
	}
	if len(c.PCM)%(BytesPerSample*c.Channels) != 0 {
		return fmt.Errorf("PCM data length %d is not aligned to %d-byte frames",
			len(c.PCM), BytesPerSample*c.Channels)
	}
	return nil
}

// Frames returns the number of sample frames in the clip.
func (c Clip) Frames() int {
	if c.Channels == 0 {
		return 0
	}
	return len(c.PCM) / (BytesPerSample * c.Channels)
}

// Duration returns how long the clip plays at its own sample rate.
func (c Clip) Duration() time.Duration {
	if c.SampleRate == 0 {
		return 0
	}
	return time.Duration(c.Frames()) * time.Second / time.Duration(c.SampleRate)
}

// Size is the clip's memory footprint, used to bound caches.
func (c Clip) Size() int64 {
	return int64(len(c.PCM))
}

// sample returns frame i of channel ch as a float in [-1, 1).
func (c Clip) sample(i, ch int) float64 {
	off := (i*c.Channels + ch) * BytesPerSample
	return float64(int16(binary.LittleEndian.Uint16(c.PCM[off:]))) / 32768
}

func putSample(b []byte, v float64) {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	binary.LittleEndian.PutUint16(b, uint16(int16(v*32767)))
}
