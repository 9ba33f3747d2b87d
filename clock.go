package playqueue

import "time"

// PlaybackClock считает прошедшее время воспроизведения одного синка.
// Пока часы идут, к позиции добавляется реальное время, умноженное на скорость.
// На паузе позиция заморожена. Часы не потокобезопасны: их защищает мьютекс синка.
type PlaybackClock struct {
	elapsed time.Duration // Накопленная позиция на момент last
	last    time.Time     // Момент последнего сэмплирования
	running bool
	speed   float64
}

// NewPlaybackClock создает остановленные часы на нулевой позиции со скоростью 1.
func NewPlaybackClock() PlaybackClock {
	return PlaybackClock{speed: 1}
}

// Start запускает (или возобновляет) отсчет с момента now.
func (c *PlaybackClock) Start(now time.Time) {
	if c.running {
		return
	}
	c.last = now
	c.running = true
}

// Pause фиксирует позицию и останавливает отсчет.
func (c *PlaybackClock) Pause(now time.Time) {
	if !c.running {
		return
	}
	c.fold(now)
	c.running = false
}

// Advance сэмплирует часы один раз за итерацию буфера.
// Возвращает позицию и реальное время, прошедшее с прошлого сэмпла.
func (c *PlaybackClock) Advance(now time.Time) (elapsed, wall time.Duration) {
	if !c.running {
		return c.elapsed, 0
	}
	wall = c.fold(now)
	return c.elapsed, wall
}

// Elapsed возвращает позицию на момент now, не сдвигая точку сэмплирования.
func (c *PlaybackClock) Elapsed(now time.Time) time.Duration {
	if !c.running {
		return c.elapsed
	}
	return c.elapsed + c.scale(now.Sub(c.last))
}

// SetSpeed меняет скорость. Уже прошедшее время учитывается по старой скорости.
func (c *PlaybackClock) SetSpeed(now time.Time, speed float64) {
	if c.running {
		c.fold(now)
	}
	c.speed = speed
}

// Set переносит позицию (перемотка).
func (c *PlaybackClock) Set(now time.Time, pos time.Duration) {
	c.elapsed = pos
	if c.running {
		c.last = now
	}
}

// Running сообщает, идут ли часы.
func (c *PlaybackClock) Running() bool { return c.running }

// Reset возвращает часы в исходное состояние.
func (c *PlaybackClock) Reset() {
	*c = NewPlaybackClock()
}

func (c *PlaybackClock) fold(now time.Time) time.Duration {
	delta := now.Sub(c.last)
	if delta < 0 {
		delta = 0
	}
	c.elapsed += c.scale(delta)
	c.last = now
	return delta
}

func (c *PlaybackClock) scale(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return time.Duration(float64(d) * c.speed)
}
