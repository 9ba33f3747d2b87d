package playqueue

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/Roman77St/playqueue/config"
	"github.com/Roman77St/playqueue/decode"
	"github.com/Roman77St/playqueue/output"
)

// State — состояние синка.
type State int

const (
	Unloaded State = iota // Файл еще не загружен
	Loaded                // Декодирован, готов к воспроизведению
	Playing
	Paused
	Stopped // Конечное состояние загрузки: дальше только новая загрузка
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loaded:
		return "loaded"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// live: с загрузкой можно работать (не Unloaded и не Stopped).
func (s State) live() bool {
	return s == Loaded || s == Playing || s == Paused
}

// Sink — один загруженный аудиопоток со своим состоянием, громкостью,
// скоростью и расписанием эффектов. Все методы потокобезопасны.
type Sink struct {
	mu sync.Mutex

	cfg      config.Config
	log      zerolog.Logger
	device   output.Device
	decoder  Decoder
	callback func()

	state    State
	volume   float64
	speed    float64
	duration time.Duration
	path     string
	meta     decode.Metadata
	clock    PlaybackClock
	fx       EffectEngine

	sess *session
	done chan struct{} // Закрывается уведомлением текущей загрузки

	cancelled atomic.Bool // CancelCallback: пользовательский колбэк больше не вызывается

	// Канал, в очереди или слоте которого находится синк.
	owner     *Channel
	onStopped func(*Sink)

	manual bool // Цикл не запускается, тики вызываются вручную (тесты)
	now    func() time.Time
}

// session — ресурсы одной загрузки: рендерер, поток вывода и одноразовое уведомление.
type session struct {
	render *renderer
	stream output.Stream
	rate   int

	quit     chan struct{}
	quitOnce sync.Once
	done     chan struct{}
	once     sync.Once

	renderedAt time.Time // До какого момента звук уже отдан устройству
	carry      float64   // Дробный остаток кадров между тиками
	silent     bool      // Вывод сломался, дальше только считаем время
}

func (sess *session) halt() {
	sess.quitOnce.Do(func() { close(sess.quit) })
}

// frames переводит реальное время в число кадров устройства без накопления ошибки.
func (sess *session) frames(wall time.Duration) int {
	exact := wall.Seconds()*float64(sess.rate) + sess.carry
	n := int(exact)
	sess.carry = exact - float64(n)
	return n
}

// NewSink создает пустой синк. Файл загружается через LoadAudio.
func NewSink(opts ...Option) *Sink {
	s := &Sink{
		cfg:     config.Default(),
		log:     zerolog.Nop(),
		decoder: DecoderFunc(decode.File),
		speed:   1,
		clock:   NewPlaybackClock(),
		done:    make(chan struct{}),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.volume = s.cfg.DefaultVolume
	return s
}

// LoadAudio синхронно декодирует файл и переводит синк в Loaded.
// Повторная загрузка без force дает ErrState. С force играющий синк
// сначала останавливается (его уведомление срабатывает), затем грузится заново.
func (s *Sink) LoadAudio(path string, force bool) error {
	if err := s.cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	s.mu.Lock()
	st := s.state
	s.mu.Unlock()
	if st.live() && !force {
		return fmt.Errorf("%w: sink already %s, use force to reload", ErrState, st)
	}

	// Шаг 1: Декодируем файл целиком.
	audio, err := s.decoder.Decode(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}

	// Шаг 2: Открываем поток устройства вывода.
	dev := s.device
	if dev == nil {
		if dev, err = sharedDevice(s.cfg); err != nil {
			return err
		}
	}
	stream, err := dev.Open()
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}

	// Шаг 3: Закрываем прежнюю загрузку.
	s.mu.Lock()
	if st := s.state; st.live() && !force {
		s.mu.Unlock()
		stream.Close()
		return fmt.Errorf("%w: sink already %s", ErrState, st)
	}
	// Загрузка, которую хоть раз запускали, обязана уведомить. Stopped тоже:
	// последний тик мог еще не дойти до finish, а finish одноразовый.
	old, wasActive := s.sess, s.state != Loaded
	if old != nil {
		s.clock.Pause(s.now())
		old.halt()
		if s.state.live() {
			s.state = Stopped
		}
	}
	s.mu.Unlock()
	if old != nil {
		s.finish(old, wasActive)
	}

	// Шаг 4: Подготавливаем новую загрузку.
	sess := &session{
		render: newRenderer(audio.Buffer, dev.SampleRate(), s.cfg.ResampleQuality),
		stream: stream,
		rate:   dev.SampleRate(),
		quit:   make(chan struct{}),
	}

	s.mu.Lock()
	if s.sess != nil {
		s.done = make(chan struct{})
	}
	sess.done = s.done
	s.sess = sess
	s.state = Loaded
	s.path = path
	s.duration = audio.Duration
	s.meta = audio.Metadata
	s.volume = s.cfg.DefaultVolume
	s.speed = 1
	s.clock.Reset()
	s.fx.Clear()
	sess.render.setVolume(s.volume)
	manual := s.manual
	s.mu.Unlock()

	s.log.Debug().Str("path", path).Dur("duration", audio.Duration).Msg("audio loaded")

	// Шаг 5: Запускаем цикл загрузки. До Play он простаивает.
	if !manual {
		go s.run(sess)
	}
	return nil
}

// finish — одноразовое уведомление о завершении загрузки.
// Вызывается только без s.mu. notify=false просто закрывает Done.
func (s *Sink) finish(sess *session, notify bool) {
	sess.once.Do(func() {
		close(sess.done)
		if !notify {
			return
		}
		if s.callback != nil && !s.cancelled.Load() {
			s.runCallback()
		}

		s.mu.Lock()
		hook := s.onStopped
		s.mu.Unlock()
		if hook != nil {
			hook(s)
		}
	})
}

// runCallback не дает панике пользовательского колбэка уронить цикл синка.
func (s *Sink) runCallback() {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("completion callback panicked")
		}
	}()
	s.callback()
}

// claim закрепляет синк за каналом. Синк может принадлежать только одному каналу.
func (s *Sink) claim(c *Channel, hook func(*Sink)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner != nil {
		return false
	}
	s.owner = c
	s.onStopped = hook
	return true
}

// release освобождает синк, если он принадлежит каналу c.
func (s *Sink) release(c *Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner != c {
		return
	}
	s.owner = nil
	s.onStopped = nil
}
