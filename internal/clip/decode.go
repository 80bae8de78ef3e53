package clip

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
)

// pcm is the raw outcome of a container decoder before validation.
type pcm struct {
	sampleRate int
	channels   int
	samples    []float32
}

// errNoSamples lets a decoder signal an empty data section without reading it.
var errNoSamples = errors.New("no samples")

type decodeFunc func(r io.ReadSeeker) (pcm, error)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

func decodeWAV(r io.ReadSeeker) (pcm, error) {
	dec := wav.NewDecoder(r)
	if err := dec.FwdToPCM(); err != nil {
		return pcm{}, fmt.Errorf("read wav headers: %w", err)
	}
	if dec.WavAudioFormat != wavFormatPCM && dec.WavAudioFormat != wavFormatExtensible {
		return pcm{}, fmt.Errorf("unsupported wav encoding %d", dec.WavAudioFormat)
	}
	if dec.NumChans == 0 || dec.SampleRate == 0 {
		return pcm{}, fmt.Errorf("invalid wav format: %d channels at %d Hz", dec.NumChans, dec.SampleRate)
	}
	bitDepth := int(dec.BitDepth)
	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		return pcm{}, fmt.Errorf("unsupported wav bit depth %d", bitDepth)
	}

	out := pcm{sampleRate: int(dec.SampleRate), channels: int(dec.NumChans)}
	if dec.PCMSize <= 0 {
		return out, errNoSamples
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return pcm{}, fmt.Errorf("read wav samples: %w", err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return out, errNoSamples
	}

	out.samples = make([]float32, len(buf.Data))
	if bitDepth == 8 {
		for i, v := range buf.Data {
			out.samples[i] = float32(v-128) / 128
		}
	} else {
		scale := float32(int64(1) << (bitDepth - 1))
		for i, v := range buf.Data {
			out.samples[i] = float32(v) / scale
		}
	}
	return out, nil
}

// mp3 output is always signed 16-bit little-endian stereo.
const (
	mp3Channels      = 2
	mp3BytesPerFrame = 4
)

// MP3BlockFrames is the number of frames one MP3 frame decodes to at rate:
// 1152 for MPEG-1 rates, 576 for the MPEG-2 and 2.5 rates.
func MP3BlockFrames(rate int) int {
	switch rate {
	case 32000, 44100, 48000:
		return 1152
	default:
		return 576
	}
}

// MP3Reachable reports whether an MP3 at rate can decode to exactly seconds.
// Decoded length is a whole number of blocks, so at 44.1 kHz no 3.0 s MP3
// exists while 48 kHz and 24 kHz both divide evenly.
func MP3Reachable(rate int, seconds float64) bool {
	want := seconds * float64(rate)
	if rate <= 0 || want != math.Trunc(want) {
		return false
	}
	return int(want)%MP3BlockFrames(rate) == 0
}

func decodeMP3(r io.ReadSeeker) (pcm, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return pcm{}, fmt.Errorf("read mp3 stream: %w", err)
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return pcm{}, fmt.Errorf("decode mp3 frames: %w", err)
	}
	out := pcm{sampleRate: dec.SampleRate(), channels: mp3Channels}
	frames := len(raw) / mp3BytesPerFrame
	if frames == 0 {
		return out, errNoSamples
	}
	out.samples = make([]float32, frames*mp3Channels)
	for i := range out.samples {
		v := int16(uint16(raw[2*i]) | uint16(raw[2*i+1])<<8)
		out.samples[i] = float32(v) / 32768
	}
	return out, nil
}
