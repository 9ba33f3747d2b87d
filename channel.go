package playqueue

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Channel — очередь синков с текущим слотом. В режиме auto consume после
// остановки текущего синка следующий из очереди запускается автоматически.
// Порядок блокировок: сначала Channel.mu, потом Sink.mu.
type Channel struct {
	mu sync.Mutex

	queue       []*Sink
	current     *Sink
	autoConsume bool
	template    []Effect // Применяется к каждому продвигаемому синку

	volume    float64
	volumeSet bool

	log zerolog.Logger
}

// NewChannel создает пустой канал. Auto consume по умолчанию выключен.
func NewChannel(opts ...ChannelOption) *Channel {
	c := &Channel{
		volume: 1,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Push ставит синк в конец очереди. Если auto consume включен и слот пуст,
// голова очереди сразу продвигается и запускается.
func (c *Channel) Push(s *Sink) error {
	if s == nil {
		return fmt.Errorf("%w: nil sink", ErrValidation)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if !s.claim(c, c.handleStopped) {
		return fmt.Errorf("%w: sink already belongs to a channel", ErrValidation)
	}
	c.queue = append(c.queue, s)
	if c.autoConsume && c.current == nil {
		c.promoteLocked()
	}
	return nil
}

// handleStopped — внутреннее уведомление синка канала. Срабатывает один раз
// на загрузку, после перехода синка в Stopped.
func (c *Channel) handleStopped(s *Sink) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != s {
		return
	}
	c.current = nil
	s.release(c)
	if c.autoConsume {
		c.promoteLocked()
	}
}

// promoteLocked продвигает голову очереди в текущий слот и запускает ее.
// Синк, который не может играть, пропускается. Вызывается под c.mu.
func (c *Channel) promoteLocked() {
	for len(c.queue) > 0 {
		next := c.queue[0]
		c.queue[0] = nil
		c.queue = c.queue[1:]

		if c.volumeSet {
			if err := next.SetVolume(c.volume); err != nil {
				c.log.Debug().Err(err).Msg("channel volume not applied")
			}
		}
		if len(c.template) > 0 {
			if err := next.ApplyEffects(c.template); err != nil {
				c.log.Warn().Err(err).Str("path", next.Path()).Msg("effects chain not applied")
			}
		}

		c.current = next
		if err := next.Play(); err != nil {
			c.log.Warn().Err(err).Str("path", next.Path()).Msg("skipping sink that cannot play")
			c.current = nil
			next.release(c)
			continue
		}
		c.log.Debug().Str("path", next.Path()).Int("queued", len(c.queue)).Msg("promoted")
		return
	}
}

// SetAutoConsume включает или выключает автопродвижение. Выключение не
// останавливает текущий синк. Включение при пустом слоте сразу продвигает очередь.
func (c *Channel) SetAutoConsume(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoConsume = on
	if on && c.current == nil {
		c.promoteLocked()
	}
}

func (c *Channel) AutoConsume() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.autoConsume
}

// DropCurrentAudio останавливает и убирает текущий синк. Следующий синк
// продвигается только через обычное уведомление и только при auto consume.
func (c *Channel) DropCurrentAudio() {
	c.mu.Lock()
	cur := c.current
	c.mu.Unlock()
	if cur == nil {
		return
	}

	// Stop вызывает уведомление без c.mu: оно само очистит слот.
	if err := cur.Stop(); err == nil {
		return
	}
	// Stopped: уведомление уже в пути (последний тик еще пишет звук),
	// продвигать преемника раньше него нельзя.
	if cur.State() == Stopped {
		return
	}

	// Синк не может остановиться и не уведомит: чистим слот сами.
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != cur {
		return
	}
	c.current = nil
	cur.release(c)
	if c.autoConsume {
		c.promoteLocked()
	}
}

// SetEffectsChain задает шаблон эффектов для будущих продвижений.
// Уже играющий синк не затрагивается.
func (c *Channel) SetEffectsChain(list []Effect) error {
	if err := checkBatch(nil, list); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.template = append([]Effect(nil), list...)
	return nil
}

func (c *Channel) EffectsChain() []Effect {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Effect(nil), c.template...)
}

// SetVolume задает громкость канала: она применяется к каждому продвигаемому
// синку и к текущему, если на нем не идет VolumeFade.
func (c *Channel) SetVolume(v float64) error {
	if err := validateVolume(v); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.volume = v
	c.volumeSet = true
	if c.current != nil {
		if err := c.current.SetVolume(v); err != nil {
			c.log.Debug().Err(err).Msg("channel volume not applied to current sink")
		}
	}
	return nil
}

func (c *Channel) Volume() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume
}

// CurrentAudio возвращает текущий синк или nil.
func (c *Channel) CurrentAudio() *Sink {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// QueueContents возвращает копию очереди (без текущего синка).
func (c *Channel) QueueContents() []*Sink {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Sink(nil), c.queue...)
}

// Len — длина очереди.
func (c *Channel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Idle сообщает, что слот пуст и очередь исчерпана. Проверка атомарна
// относительно продвижения.
func (c *Channel) Idle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current == nil && len(c.queue) == 0
}

func (c *Channel) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil && c.current.IsPlaying()
}

// ClearQueue убирает из очереди все синки, текущий остается.
func (c *Channel) ClearQueue() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.queue {
		s.release(c)
	}
	c.queue = nil
}
