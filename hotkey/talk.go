package hotkey

import (
	"context"
	"time"
)

type Action int

const (
	// Listen asks for a capture to begin.
	Listen Action = iota + 1
	// Finish asks for the running capture to end.
	Finish
)

func (a Action) String() string {
	switch a {
	case Listen:
		return "listen"
	case Finish:
		return "finish"
	}
	return "none"
}

// Talk turns raw key events into listening actions on one key combination.
// A tap starts listening until the next tap; holding past longPress is
// push-to-talk and finishes on release.
type Talk struct {
	actions   chan Action
	listening func() bool
}

// NewTalk starts translating hk events. listening reports whether a capture
// is live; a tapped capture that ended on its own is then not finished by
// the next tap. A nil listening trusts the tap state alone.
func NewTalk(ctx context.Context, hk Hotkey, longPress time.Duration, listening func() bool) *Talk {
	t := &Talk{actions: make(chan Action, 4), listening: listening}
	go t.run(ctx, hk, longPress)
	return t
}

func (t *Talk) Actions() <-chan Action { return t.actions }

func (t *Talk) send(a Action) {
	select {
	case t.actions <- a:
	default:
	}
}

func (t *Talk) run(ctx context.Context, hk Hotkey, longPress time.Duration) {
	toggled := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-hk.Keydown():
		}

		if toggled && t.listening != nil && !t.listening() {
			toggled = false
		}
		if toggled {
			select {
			case <-ctx.Done():
				return
			case <-hk.Keyup():
			}
			toggled = false
			t.send(Finish)
			continue
		}

		t.send(Listen)
		timer := time.NewTimer(longPress)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			select {
			case <-ctx.Done():
				return
			case <-hk.Keyup():
			}
			t.send(Finish)
		case <-hk.Keyup():
			timer.Stop()
			toggled = true
		}
	}
}
