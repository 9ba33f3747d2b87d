package playqueue

import (
	"fmt"
	"math"
	"time"
)

// durationToFrames переводит длительность в количество кадров (по кадру на оба канала).
func durationToFrames(d time.Duration, sampleRate int) int {
	if d <= 0 || sampleRate <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * float64(sampleRate)))
}

// validateVolume проверяет, что громкость лежит в [0, 1].
func validateVolume(v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return fmt.Errorf("%w: volume must be between 0.0 and 1.0, got %v", ErrValidation, v)
	}
	return nil
}

// validateSpeed проверяет, что скорость положительна.
func validateSpeed(s float64) error {
	if math.IsNaN(s) || math.IsInf(s, 0) || s <= 0 {
		return fmt.Errorf("%w: speed must be greater than 0, got %v", ErrValidation, s)
	}
	return nil
}

// clampPosition ограничивает позицию диапазоном [0, duration].
func clampPosition(pos, duration time.Duration) time.Duration {
	if pos < 0 {
		return 0
	}
	if pos > duration {
		return duration
	}
	return pos
}
