package testsupport

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	mkdirFor(t, path)
	if err := os.WriteFile(path, bytes.Repeat([]byte{0x42}, int(size)), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WAVSpec describes a PCM fixture.
type WAVSpec struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Frames     int
}

// WriteWAV writes a little-endian PCM WAV file holding a 440 Hz tone.
// Frames may be zero to produce a file whose data chunk is empty.
func WriteWAV(t testing.TB, path string, spec WAVSpec) {
	t.Helper()

	if spec.SampleRate <= 0 {
		spec.SampleRate = 8000
	}
	if spec.Channels <= 0 {
		spec.Channels = 1
	}
	if spec.BitDepth <= 0 {
		spec.BitDepth = 16
	}
	bytesPerSample := spec.BitDepth / 8
	blockAlign := spec.Channels * bytesPerSample
	dataSize := spec.Frames * blockAlign

	var buf bytes.Buffer
	le := binary.LittleEndian
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, le, uint32(36+dataSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, le, uint32(16))
	_ = binary.Write(&buf, le, uint16(1))
	_ = binary.Write(&buf, le, uint16(spec.Channels))
	_ = binary.Write(&buf, le, uint32(spec.SampleRate))
	_ = binary.Write(&buf, le, uint32(spec.SampleRate*blockAlign))
	_ = binary.Write(&buf, le, uint16(blockAlign))
	_ = binary.Write(&buf, le, uint16(spec.BitDepth))
	buf.WriteString("data")
	_ = binary.Write(&buf, le, uint32(dataSize))

	peak := float64(int(1)<<(spec.BitDepth-1) - 1)
	for i := 0; i < spec.Frames; i++ {
		v := math.Sin(2 * math.Pi * 440 * float64(i) / float64(spec.SampleRate))
		for c := 0; c < spec.Channels; c++ {
			switch spec.BitDepth {
			case 8:
				buf.WriteByte(byte(128 + int(v*127)))
			case 16:
				_ = binary.Write(&buf, le, int16(v*peak))
			case 32:
				_ = binary.Write(&buf, le, int32(v*peak))
			default:
				t.Fatalf("unsupported fixture bit depth %d", spec.BitDepth)
			}
		}
	}

	mkdirFor(t, path)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteClip writes a mono 16-bit clip of the given length in seconds at 8 kHz.
func WriteClip(t testing.TB, path string, seconds float64) {
	t.Helper()
	WriteWAV(t, path, WAVSpec{SampleRate: 8000, Channels: 1, BitDepth: 16, Frames: int(seconds * 8000)})
}

func mkdirFor(t testing.TB, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
}
