package playqueue

import (
	"errors"
	"slices"
	"testing"
	"time"
)

func TestManagerChannels(t *testing.T) {
	m := NewManager()
	first := NewChannel()

	if err := m.AddChannel("music", first); err != nil {
		t.Fatalf("AddChannel() error = %v", err)
	}
	if err := m.AddChannel("music", NewChannel()); !errors.Is(err, ErrValidation) {
		t.Errorf("duplicate AddChannel() error = %v; want ErrValidation", err)
	}
	if ch, ok := m.Channel("music"); !ok || ch != first {
		t.Error("duplicate AddChannel() must leave the existing channel untouched")
	}
	if err := m.AddChannel("", NewChannel()); !errors.Is(err, ErrValidation) {
		t.Errorf("AddChannel(\"\") error = %v; want ErrValidation", err)
	}
	if err := m.AddChannel("fx", nil); !errors.Is(err, ErrValidation) {
		t.Errorf("AddChannel(nil) error = %v; want ErrValidation", err)
	}

	if ch, ok := m.Channel("missing"); ok || ch != nil {
		t.Errorf("Channel(missing) = %v, %v; want nil, false", ch, ok)
	}
	if err := m.DropChannel("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DropChannel(missing) error = %v; want ErrNotFound", err)
	}

	m.AddChannel("ambient", NewChannel())
	if got := m.Names(); !slices.Equal(got, []string{"ambient", "music"}) {
		t.Errorf("Names() = %v", got)
	}
}

func TestManagerStartStopAll(t *testing.T) {
	clk := newFakeClock()
	sinks, calls := queueOf(t, clk, 4, time.Minute)
	m := NewManager()
	a, b := NewChannel(), NewChannel()
	m.AddChannel("a", a)
	m.AddChannel("b", b)

	a.Push(sinks[0])
	a.Push(sinks[1])
	b.Push(sinks[2])
	b.Push(sinks[3])

	m.StartAll()
	if !a.AutoConsume() || !b.AutoConsume() {
		t.Fatal("StartAll() should enable auto consume")
	}
	if a.CurrentAudio() != sinks[0] || b.CurrentAudio() != sinks[2] {
		t.Fatal("StartAll() should promote each channel's head")
	}

	m.StopAll()
	if a.AutoConsume() || b.AutoConsume() {
		t.Error("StopAll() should disable auto consume")
	}
	if a.IsPlaying() || b.IsPlaying() || a.CurrentAudio() != nil || b.CurrentAudio() != nil {
		t.Error("StopAll() should stop and clear current sinks")
	}
	if calls[0].Load() != 1 || calls[2].Load() != 1 {
		t.Error("stopped sinks should notify once")
	}
	if sinks[1].IsPlaying() || sinks[3].IsPlaying() {
		t.Error("queued sinks must not start after StopAll()")
	}
	if a.Len() != 1 || b.Len() != 1 {
		t.Errorf("queues = %d, %d; StopAll() keeps pending sinks", a.Len(), b.Len())
	}
}

func TestManagerDropChannel(t *testing.T) {
	clk := newFakeClock()
	sinks, _ := queueOf(t, clk, 2, time.Minute)
	m := NewManager()
	ch := NewChannel(WithAutoConsume(true))
	m.AddChannel("main", ch)
	ch.Push(sinks[0])
	ch.Push(sinks[1])

	if err := m.DropChannel("main"); err != nil {
		t.Fatalf("DropChannel() error = %v", err)
	}
	if _, ok := m.Channel("main"); ok {
		t.Error("dropped channel is still registered")
	}
	if sinks[0].State() != Stopped {
		t.Errorf("current sink State() = %v; want stopped", sinks[0].State())
	}
	if sinks[1].IsPlaying() || ch.Len() != 0 {
		t.Error("dropping a channel must not promote queued sinks")
	}
	if err := m.DropChannel("main"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DropChannel() error = %v; want ErrNotFound", err)
	}
}
