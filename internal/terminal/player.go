package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"birdtriage/internal/clip"
	"birdtriage/internal/logging"
)

const playbackBitDepth = 16

// Player plays clips through an external command such as "aplay -q". The
// clip is re-encoded to a temporary 16-bit WAV whose path is appended to the
// command line.
type Player struct {
	command []string
	tempDir string
	logger  *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	lastErr error
}

// NewPlayer returns a player running command. tempDir may be empty to use the
// system temp directory.
func NewPlayer(command []string, tempDir string, logger *slog.Logger) (*Player, error) {
	if len(command) == 0 || command[0] == "" {
		return nil, errors.New("player: command is required")
	}
	cmd := make([]string, len(command))
	copy(cmd, command)
	return &Player{
		command: cmd,
		tempDir: tempDir,
		logger:  logging.NewComponentLogger(logger, "player"),
	}, nil
}

// Play stops any in-flight playback and starts c in the background. Errors
// cover encoding and process start; a player that exits non-zero later is
// logged and reported by the next Wait.
func (p *Player) Play(ctx context.Context, c *clip.Clip) error {
	p.Stop()
	if c == nil || c.Frames() == 0 {
		return errors.New("player: nothing to play")
	}

	path, err := p.writeTemp(c)
	if err != nil {
		return err
	}

	playCtx, cancel := context.WithCancel(ctx)
	args := append(append([]string{}, p.command[1:]...), path)
	cmd := exec.CommandContext(playCtx, p.command[0], args...)
	if err := cmd.Start(); err != nil {
		cancel()
		_ = os.Remove(path)
		return fmt.Errorf("player: start %s: %w", p.command[0], err)
	}

	done := make(chan struct{})
	p.mu.Lock()
	p.cancel = cancel
	p.done = done
	p.lastErr = nil
	p.mu.Unlock()

	go func() {
		defer close(done)
		defer os.Remove(path)
		err := cmd.Wait()
		if err != nil && playCtx.Err() == nil {
			p.logger.Warn("player exited with error",
				logging.String(logging.FieldClip, c.Name()),
				logging.Error(err),
				logging.String(logging.FieldEventType, "player_exit"),
			)
			p.mu.Lock()
			p.lastErr = err
			p.mu.Unlock()
		}
	}()
	return nil
}

// Stop terminates in-flight playback and waits for the process to exit.
func (p *Player) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Wait blocks until the current playback finishes and returns its exit error.
func (p *Player) Wait() error {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done != nil {
		<-done
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

func (p *Player) writeTemp(c *clip.Clip) (string, error) {
	f, err := os.CreateTemp(p.tempDir, "birdtriage-play-*.wav")
	if err != nil {
		return "", fmt.Errorf("player: create temp file: %w", err)
	}
	path := f.Name()
	if err := EncodeWAV(f, c); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("player: close temp file: %w", err)
	}
	return path, nil
}

// EncodeWAV writes c as 16-bit PCM WAV.
func EncodeWAV(w io.WriteSeeker, c *clip.Clip) error {
	enc := wav.NewEncoder(w, c.SampleRate, playbackBitDepth, c.Channels, 1)
	scale := float64(int(1)<<(playbackBitDepth-1) - 1)
	data := make([]int, len(c.Samples))
	for i, s := range c.Samples {
		v := math.Max(-1, math.Min(1, float64(s)))
		data[i] = int(math.Round(v * scale))
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: c.Channels, SampleRate: c.SampleRate},
		Data:           data,
		SourceBitDepth: playbackBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("player: encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("player: finalize wav: %w", err)
	}
	return nil
}
