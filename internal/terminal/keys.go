package terminal

import (
	"bufio"
	"context"
	"io"
	"strings"
	"time"

	"birdtriage/internal/decision"
)

// ThresholdStep is the amount "+" and "-" move the approval threshold.
const ThresholdStep = 10

const (
	keyCtrlC = 0x03
	keyCtrlD = 0x04
	keyEsc   = 0x1b
)

// Action is what a single key press asks for.
type Action int

const (
	ActionNone Action = iota
	ActionEvent
	ActionQuit
)

// Translate maps a key to an action. threshold is the current approval
// threshold, used to build absolute SetThreshold events.
func Translate(key rune, threshold int) (Action, decision.Event) {
	switch key {
	case ' ', 'a', 'A':
		return ActionEvent, decision.Decide(decision.Approve)
	case 'f', 'F':
		return ActionEvent, decision.Decide(decision.FalsePositive)
	case 'n', 'N':
		return ActionEvent, decision.Decide(decision.Noise)
	case 'r', 'R':
		return ActionEvent, decision.Replay()
	case '+', '=':
		return ActionEvent, decision.SetThreshold(threshold + ThresholdStep)
	case '-', '_':
		next := threshold - ThresholdStep
		if next < 1 {
			next = 1
		}
		return ActionEvent, decision.SetThreshold(next)
	case 'q', 'Q', keyCtrlC, keyCtrlD, keyEsc:
		return ActionQuit, decision.Event{}
	default:
		return ActionNone, decision.Event{}
	}
}

// Keyboard turns key presses into decision events.
type Keyboard struct {
	in        io.Reader
	lineMode  bool
	threshold func() int
}

// NewKeyboard reads keys from in. In line mode each line's first character is
// the key; otherwise every byte is a key press (raw terminal). threshold
// reports the session's current threshold.
func NewKeyboard(in io.Reader, lineMode bool, threshold func() int) *Keyboard {
	if threshold == nil {
		threshold = func() int { return 0 }
	}
	return &Keyboard{in: in, lineMode: lineMode, threshold: threshold}
}

// Events starts reading and returns the event channel. The channel is closed
// on quit, end of input, or ctx cancellation; a closed channel ends the
// session as abandoned.
func (k *Keyboard) Events(ctx context.Context) <-chan decision.Event {
	out := make(chan decision.Event)
	keys := make(chan rune)

	go func() {
		defer close(keys)
		if k.lineMode {
			k.readLines(ctx, keys)
		} else {
			k.readBytes(ctx, keys)
		}
	}()

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case key, ok := <-keys:
				if !ok {
					return
				}
				action, ev := Translate(key, k.threshold())
				if !k.lineMode {
					ev.At = time.Now()
				}
				switch action {
				case ActionQuit:
					return
				case ActionEvent:
					select {
					case out <- ev:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()
	return out
}

func (k *Keyboard) readLines(ctx context.Context, keys chan<- rune) {
	scanner := bufio.NewScanner(k.in)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		key := ' '
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			key = []rune(trimmed)[0]
		}
		if !send(ctx, keys, key) {
			return
		}
	}
}

func (k *Keyboard) readBytes(ctx context.Context, keys chan<- rune) {
	buf := make([]byte, 1)
	for {
		n, err := k.in.Read(buf)
		if n == 1 && !send(ctx, keys, rune(buf[0])) {
			return
		}
		if err != nil {
			return
		}
	}
}

func send(ctx context.Context, keys chan<- rune, key rune) bool {
	select {
	case keys <- key:
		return true
	case <-ctx.Done():
		return false
	}
}
