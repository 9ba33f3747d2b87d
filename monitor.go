package playqueue

import "time"

// run — цикл одной загрузки. На каждом тике step продвигает часы и эффекты,
// отдает звук устройству и проверяет конец трека.
func (s *Sink) run(sess *session) {
	ticker := time.NewTicker(s.cfg.TickInterval)
	// Гарантируем закрытие потока вывода при выходе из цикла.
	defer func() {
		ticker.Stop()
		if err := sess.stream.Close(); err != nil {
			s.log.Warn().Err(err).Msg("output stream close failed")
		}
	}()

	for {
		select {
		case <-sess.quit: // Stop или новая загрузка.
			return
		case <-ticker.C:
			if !s.step(sess) {
				return
			}
		}
	}
}

// step — одна итерация буфера. Часы сэмплируются один раз, по ним считаются
// эффекты и длина фрагмента. Возвращает false, когда загрузка закончилась.
func (s *Sink) step(sess *session) bool {
	s.mu.Lock()
	if s.sess != sess || s.state == Stopped {
		s.mu.Unlock()
		return false
	}
	if s.state != Playing {
		s.mu.Unlock()
		return true
	}

	now := s.now()
	elapsed, _ := s.clock.Advance(now)
	s.applyEffects(now, elapsed)

	wall := now.Sub(sess.renderedAt)
	sess.renderedAt = now
	pcm := sess.render.render(sess.frames(wall))

	// Если музыка дошла до конца.
	finished := elapsed >= s.duration
	if finished {
		s.state = Stopped
		s.clock.Pause(now)
		sess.halt()
	}
	s.mu.Unlock()

	if len(pcm) > 0 && !sess.silent {
		if _, err := sess.stream.Write(pcm); err != nil {
			// Время продолжает идти, трек закончится по часам.
			sess.silent = true
			s.log.Warn().Err(err).Msg("output write failed, continuing silently")
		}
	}

	if finished {
		s.log.Debug().Dur("elapsed", elapsed).Msg("playback finished")
		s.finish(sess, true)
		return false
	}
	return true
}

// applyEffects продвигает эффекты к позиции elapsed и переносит значения
// в живые параметры. Вызывается под s.mu.
func (s *Sink) applyEffects(now time.Time, elapsed time.Duration) {
	volume, speed := s.fx.Update(elapsed, s.volume, s.speed)
	s.setLive(now, volume, speed)
}

// setLive записывает громкость и скорость в синк, часы и рендерер. Вызывается под s.mu.
func (s *Sink) setLive(now time.Time, volume, speed float64) {
	s.volume = volume
	if speed != s.speed {
		s.clock.SetSpeed(now, speed)
		s.speed = speed
	}
	if s.sess != nil {
		s.sess.render.setVolume(volume)
		s.sess.render.setSpeed(speed)
	}
}
