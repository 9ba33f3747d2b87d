package playqueue

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

func TestEffectValidate(t *testing.T) {
	tests := []struct {
		name    string
		effect  Effect
		wantErr error
	}{
		{"Fade in", FadeIn(time.Second), nil},
		{"Fade out", FadeOut(time.Second), nil},
		{"Speed", ChangeSpeed(1.5, time.Second), nil},
		{"Instant", VolumeFade(1, 0, 0), nil},
		{"Loud end", VolumeFade(0, 1.5, time.Second), ErrValidation},
		{"Negative start", VolumeFade(-0.5, 1, time.Second), ErrValidation},
		{"Zero speed", SpeedChange(0, 1, time.Second), ErrValidation},
		{"Negative duration", VolumeFade(0, 1, -time.Second), ErrValidation},
		{"Negative offset", FadeIn(time.Second).After(-time.Second), ErrValidation},
		{"Unknown kind", Effect{Kind: EffectKind(7), Duration: time.Second}, ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.effect.validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("validate() error = %v; want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEffectOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Effect
		want bool
	}{
		{"Same window", FadeIn(time.Second), FadeOut(time.Second), true},
		{"Partial", FadeIn(time.Second), FadeOut(time.Second).After(500 * time.Millisecond), true},
		{"Adjacent", FadeIn(time.Second), FadeOut(time.Second).After(time.Second), false},
		{"Disjoint", FadeIn(time.Second), FadeOut(time.Second).After(3 * time.Second), false},
		{"Instant at same offset", VolumeFade(0, 1, 0), VolumeFade(1, 0, 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.overlaps(tt.b); got != tt.want {
				t.Errorf("overlaps() = %v; want %v", got, tt.want)
			}
			if got := tt.b.overlaps(tt.a); got != tt.want {
				t.Errorf("reverse overlaps() = %v; want %v", got, tt.want)
			}
		})
	}
}

func TestEffectEngineFadeIn(t *testing.T) {
	var e EffectEngine
	if err := e.Apply([]Effect{FadeIn(time.Second)}); err != nil {
		t.Fatal(err)
	}

	vol, _ := e.Update(0, 1, 1)
	if vol != 0 {
		t.Errorf("volume at t=0 = %v; want 0", vol)
	}
	prev := vol
	for ms := 50; ms < 1000; ms += 50 {
		vol, _ = e.Update(time.Duration(ms)*time.Millisecond, vol, 1)
		if vol <= prev {
			t.Fatalf("volume at %dms = %v; want > %v", ms, vol, prev)
		}
		if !e.Busy(VolumeFadeEffect) {
			t.Errorf("Busy(VolumeFade) = false at %dms", ms)
		}
		prev = vol
	}

	vol, _ = e.Update(time.Second, vol, 1)
	if vol != 1 {
		t.Errorf("volume at t=D = %v; want 1", vol)
	}
	if e.Len() != 0 || e.Busy(VolumeFadeEffect) {
		t.Errorf("finished effect still scheduled: Len() = %d", e.Len())
	}

	// Повторный Update не применяет эффект заново.
	vol, _ = e.Update(2*time.Second, 0.3, 1)
	if vol != 0.3 {
		t.Errorf("volume after finish = %v; want 0.3", vol)
	}
}

func TestEffectEngineNotStarted(t *testing.T) {
	var e EffectEngine
	e.Apply([]Effect{SpeedChange(1, 2, time.Second).After(time.Second)})

	vol, speed := e.Update(500*time.Millisecond, 0.7, 1.3)
	if vol != 0.7 || speed != 1.3 {
		t.Errorf("Update() = %v, %v; want parameters untouched", vol, speed)
	}
	if e.Busy(SpeedChangeEffect) {
		t.Error("Busy(SpeedChange) = true before ApplyAfter")
	}

	_, speed = e.Update(1500*time.Millisecond, 0.7, 1.3)
	if math.Abs(speed-1.5) > 1e-9 {
		t.Errorf("speed mid-change = %v; want 1.5", speed)
	}
}

func TestEffectEngineIndependentKinds(t *testing.T) {
	var e EffectEngine
	err := e.Apply([]Effect{
		VolumeFade(1, 0, time.Second),
		SpeedChange(1, 3, time.Second),
	})
	if err != nil {
		t.Fatal(err)
	}

	vol, speed := e.Update(500*time.Millisecond, 1, 1)
	if math.Abs(vol-0.5) > 1e-9 || math.Abs(speed-2) > 1e-9 {
		t.Errorf("Update() = %v, %v; want 0.5, 2", vol, speed)
	}
	if !e.Busy(VolumeFadeEffect) || !e.Busy(SpeedChangeEffect) {
		t.Error("both parameters should be busy")
	}
}

func TestEffectEngineConflicts(t *testing.T) {
	var e EffectEngine
	if err := e.Apply([]Effect{FadeIn(time.Second)}); err != nil {
		t.Fatal(err)
	}

	// Пакет отклоняется целиком: валидный первый эффект тоже не добавляется.
	err := e.Apply([]Effect{
		ChangeSpeed(2, time.Second),
		FadeOut(time.Second).After(500 * time.Millisecond),
	})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("Apply() error = %v; want ErrConflict", err)
	}
	if e.Len() != 1 {
		t.Errorf("Len() = %d; rejected batch must not be applied", e.Len())
	}

	// Внутри одного пакета побеждает более ранний эффект.
	err = e.Set([]Effect{FadeOut(time.Second), VolumeFade(0, 1, time.Second).After(200 * time.Millisecond)})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("Set() error = %v; want ErrConflict", err)
	}
	if e.Len() != 1 {
		t.Errorf("Len() = %d; failed Set must keep the old schedule", e.Len())
	}
}

func TestEffectEngineOrder(t *testing.T) {
	var e EffectEngine
	e.Apply([]Effect{FadeOut(time.Second).After(5 * time.Second)})
	e.Apply([]Effect{FadeIn(time.Second)})

	got := e.Effects()
	if len(got) != 2 || got[0].ApplyAfter != 0 || got[1].ApplyAfter != 5*time.Second {
		t.Errorf("Effects() = %v; want sorted by ApplyAfter", got)
	}

	e.Clear()
	if e.Len() != 0 {
		t.Errorf("Len() after Clear = %d", e.Len())
	}
}

func TestEffectEngineInstant(t *testing.T) {
	var e EffectEngine
	e.Apply([]Effect{VolumeFade(1, 0.25, 0).After(time.Second)})

	vol, _ := e.Update(time.Second, 1, 1)
	if vol != 0.25 {
		t.Errorf("instant effect volume = %v; want 0.25", vol)
	}
	if e.Len() != 0 {
		t.Error("instant effect should be removed after applying")
	}
}

func TestEffectString(t *testing.T) {
	s := FadeOut(time.Second).After(2 * time.Second).String()
	for _, want := range []string{"VolumeFade", "current", "1s", "2s"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q; missing %q", s, want)
		}
	}
	if got := SpeedChangeEffect.String(); got != "SpeedChange" {
		t.Errorf("SpeedChangeEffect.String() = %q", got)
	}
}
