package playqueue

import (
	"fmt"
	"time"

	"github.com/Roman77St/playqueue/decode"
)

// Play запускает или возобновляет воспроизведение. Для играющего синка ничего не делает.
func (s *Sink) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case Playing:
		return nil
	case Loaded, Paused:
		now := s.now()
		s.state = Playing
		s.clock.Start(now)
		s.sess.renderedAt = now
		s.log.Debug().Str("path", s.path).Msg("play")
		return nil
	}
	return fmt.Errorf("%w: cannot play %s sink", ErrState, s.state)
}

// Pause приостанавливает воспроизведение, позиция сохраняется.
func (s *Sink) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Playing {
		return fmt.Errorf("%w: cannot pause %s sink", ErrState, s.state)
	}
	s.clock.Pause(s.now())
	s.state = Paused
	return nil
}

// Stop немедленно останавливает загрузку и вызывает уведомление.
// Повторный Stop дает ErrState и уведомление не повторяет.
func (s *Sink) Stop() error {
	s.mu.Lock()
	if s.state != Playing && s.state != Paused {
		st := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot stop %s sink", ErrState, st)
	}
	sess := s.sess
	s.clock.Pause(s.now())
	s.state = Stopped
	sess.halt()
	s.mu.Unlock()

	s.log.Debug().Msg("stopped")
	s.finish(sess, true)
	return nil
}

// SetVolume меняет громкость. Пока идет VolumeFade, дает ErrConflict.
func (s *Sink) SetVolume(v float64) error {
	if err := validateVolume(v); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guard(VolumeFadeEffect); err != nil {
		return err
	}
	s.setLive(s.now(), v, s.speed)
	return nil
}

// SetSpeed меняет скорость. Пока идет SpeedChange, дает ErrConflict.
func (s *Sink) SetSpeed(v float64) error {
	if err := validateSpeed(v); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guard(SpeedChangeEffect); err != nil {
		return err
	}
	s.setLive(s.now(), s.volume, v)
	return nil
}

// guard проверяет, что параметр можно менять вручную. Перед проверкой эффекты
// догоняются до текущей позиции, чтобы завершенный эффект не затер ручное значение.
func (s *Sink) guard(kind EffectKind) error {
	if !s.state.live() {
		return fmt.Errorf("%w: %s sink", ErrState, s.state)
	}
	s.catchUp()
	if s.fx.Busy(kind) {
		return fmt.Errorf("%w: %s in progress", ErrConflict, kind)
	}
	return nil
}

// catchUp догоняет эффекты до текущей позиции, не дожидаясь тика.
// Вызывается под s.mu.
func (s *Sink) catchUp() {
	if !s.state.live() {
		return
	}
	now := s.now()
	s.applyEffects(now, s.clock.Elapsed(now))
}

// GetVolume возвращает текущую громкость.
func (s *Sink) GetVolume() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Unloaded {
		return 0, fmt.Errorf("%w: sink not loaded", ErrState)
	}
	s.catchUp()
	return s.volume, nil
}

// GetSpeed возвращает текущую скорость (1 для незагруженного синка).
func (s *Sink) GetSpeed() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catchUp()
	return s.speed
}

// GetPosition возвращает позицию трека. На паузе она заморожена.
func (s *Sink) GetPosition() (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Unloaded {
		return 0, fmt.Errorf("%w: sink not loaded", ErrState)
	}
	return s.position(), nil
}

func (s *Sink) position() time.Duration {
	return clampPosition(s.clock.Elapsed(s.now()), s.duration)
}

// GetDuration — длительность загруженного трека.
func (s *Sink) GetDuration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

// GetRemaining — сколько осталось играть.
func (s *Sink) GetRemaining() (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Unloaded {
		return 0, fmt.Errorf("%w: sink not loaded", ErrState)
	}
	return s.duration - s.position(), nil
}

// SetDuration переопределяет длительность: трек закончится раньше (или позже,
// доиграв тишину).
func (s *Sink) SetDuration(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("%w: negative duration %v", ErrValidation, d)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.live() {
		return fmt.Errorf("%w: %s sink", ErrState, s.state)
	}
	s.duration = d
	return nil
}

// TrySeek переносит позицию. Значение за концом трека прижимается к длительности.
// Состояние Playing/Paused не меняется.
func (s *Sink) TrySeek(pos time.Duration) error {
	if pos < 0 {
		return fmt.Errorf("%w: negative position %v", ErrValidation, pos)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.live() {
		return fmt.Errorf("%w: cannot seek %s sink", ErrState, s.state)
	}

	pos = clampPosition(pos, s.duration)
	if err := s.sess.render.seek(pos); err != nil {
		return fmt.Errorf("seek to %v: %w", pos, err)
	}
	s.clock.Set(s.now(), pos)
	return nil
}

// ApplyEffects добавляет эффекты к расписанию синка.
func (s *Sink) ApplyEffects(list []Effect) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.live() {
		return fmt.Errorf("%w: cannot schedule effects on %s sink", ErrState, s.state)
	}
	return s.fx.Apply(list)
}

// SetEffects заменяет расписание эффектов.
func (s *Sink) SetEffects(list []Effect) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.live() {
		return fmt.Errorf("%w: cannot schedule effects on %s sink", ErrState, s.state)
	}
	return s.fx.Set(list)
}

// Effects возвращает еще не завершенные эффекты.
func (s *Sink) Effects() []Effect {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fx.Effects()
}

// CancelCallback навсегда отключает пользовательский колбэк завершения.
// Done и очередь канала продолжают получать уведомления.
func (s *Sink) CancelCallback() {
	s.cancelled.Store(true)
}

// Done закрывается, когда текущая загрузка завершилась.
func (s *Sink) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

func (s *Sink) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == Playing
}

func (s *Sink) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Path — файл текущей загрузки.
func (s *Sink) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Metadata возвращает теги с фиксированным набором ключей (decode.Keys).
func (s *Sink) Metadata() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta.Map()
}

// Tags — теги в виде структуры.
func (s *Sink) Tags() decode.Metadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta
}

// Info — снимок состояния синка.
type Info struct {
	State    string        `json:"state"`
	Path     string        `json:"path,omitempty"`
	Position time.Duration `json:"position"`
	Duration time.Duration `json:"duration"`
	Volume   float64       `json:"volume"`
	Speed    float64       `json:"speed"`
	Effects  []string      `json:"effects"`
}

func (s *Sink) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catchUp()

	info := Info{
		State:    s.state.String(),
		Path:     s.path,
		Duration: s.duration,
		Volume:   s.volume,
		Speed:    s.speed,
		Effects:  []string{},
	}
	if s.state != Unloaded {
		info.Position = s.position()
	}
	for _, e := range s.fx.Effects() {
		info.Effects = append(info.Effects, e.String())
	}
	return info
}
