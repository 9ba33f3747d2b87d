package playqueue

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// EffectKind определяет, каким параметром синка управляет эффект.
type EffectKind int

const (
	VolumeFadeEffect  EffectKind = iota // Линейное изменение громкости
	SpeedChangeEffect                   // Линейное изменение скорости
)

func (k EffectKind) String() string {
	switch k {
	case VolumeFadeEffect:
		return "VolumeFade"
	case SpeedChangeEffect:
		return "SpeedChange"
	default:
		return "Unknown"
	}
}

// param — живой параметр синка, который защищает эффект.
type param int

const (
	paramVolume param = iota
	paramSpeed
	paramCount
)

// guards: вид эффекта -> параметр, который он блокирует для ручных сеттеров.
var guards = [...]param{
	VolumeFadeEffect:  paramVolume,
	SpeedChangeEffect: paramSpeed,
}

// Effect — запланированный линейный переход параметра от Start к End за Duration.
// ApplyAfter отсчитывается по собственным часам синка.
type Effect struct {
	Kind       EffectKind
	Start      float64
	End        float64
	Duration   time.Duration
	ApplyAfter time.Duration

	// FromCurrent: начальное значение берется из живого параметра
	// в момент активации эффекта, Start игнорируется.
	FromCurrent bool
}

// VolumeFade плавно меняет громкость от start до end.
func VolumeFade(start, end float64, d time.Duration) Effect {
	return Effect{Kind: VolumeFadeEffect, Start: start, End: end, Duration: d}
}

// SpeedChange плавно меняет скорость от start до end.
func SpeedChange(start, end float64, d time.Duration) Effect {
	return Effect{Kind: SpeedChangeEffect, Start: start, End: end, Duration: d}
}

// FadeIn — нарастание громкости от тишины до 1.
func FadeIn(d time.Duration) Effect {
	return VolumeFade(0, 1, d)
}

// FadeOut — затухание от текущей громкости до тишины.
func FadeOut(d time.Duration) Effect {
	return Effect{Kind: VolumeFadeEffect, End: 0, Duration: d, FromCurrent: true}
}

// ChangeSpeed — переход от текущей скорости к end.
func ChangeSpeed(end float64, d time.Duration) Effect {
	return Effect{Kind: SpeedChangeEffect, End: end, Duration: d, FromCurrent: true}
}

// After возвращает копию эффекта, начинающуюся с позиции offset.
func (e Effect) After(offset time.Duration) Effect {
	e.ApplyAfter = offset
	return e
}

func (e Effect) String() string {
	from := fmt.Sprintf("%.2f", e.Start)
	if e.FromCurrent {
		from = "current"
	}
	return fmt.Sprintf("%s(%s->%.2f, %v, after %v)", e.Kind, from, e.End, e.Duration, e.ApplyAfter)
}

// validate проверяет значения эффекта на допустимость для его параметра.
func (e Effect) validate() error {
	if e.Duration < 0 || e.ApplyAfter < 0 {
		return fmt.Errorf("%w: effect %s: negative duration or offset", ErrValidation, e)
	}
	values := []float64{e.End}
	if !e.FromCurrent {
		values = append(values, e.Start)
	}
	switch e.Kind {
	case VolumeFadeEffect:
		for _, v := range values {
			if err := validateVolume(v); err != nil {
				return err
			}
		}
	case SpeedChangeEffect:
		for _, v := range values {
			if err := validateSpeed(v); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: unknown effect kind %d", ErrValidation, e.Kind)
	}
	return nil
}

// overlaps: окна [ApplyAfter, ApplyAfter+Duration) двух эффектов пересекаются.
// Мгновенные эффекты с одинаковым ApplyAfter тоже считаются пересечением.
func (e Effect) overlaps(o Effect) bool {
	if e.ApplyAfter == o.ApplyAfter {
		return true
	}
	return e.ApplyAfter < o.ApplyAfter+o.Duration && o.ApplyAfter < e.ApplyAfter+e.Duration
}

// scheduledEffect — эффект в расписании движка.
type scheduledEffect struct {
	Effect
	from    float64 // Начальное значение, зафиксированное при активации
	started bool
}

// EffectEngine хранит расписание эффектов одного синка и на каждом тике
// вычисляет живые значения громкости и скорости. Защищается мьютексом синка.
type EffectEngine struct {
	pending []*scheduledEffect // Отсортированы по ApplyAfter
	busy    [paramCount]bool   // Параметр меняется эффектом на последнем тике
}

// Apply добавляет эффекты к расписанию. Пакет принимается целиком или отклоняется:
// эффект, чье окно пересекается с уже запланированным эффектом того же вида,
// дает ErrConflict (побеждает более ранняя запись).
func (e *EffectEngine) Apply(list []Effect) error {
	if err := checkBatch(e.Effects(), list); err != nil {
		return err
	}
	for _, eff := range list {
		e.pending = append(e.pending, &scheduledEffect{Effect: eff})
	}
	sort.SliceStable(e.pending, func(i, j int) bool {
		return e.pending[i].ApplyAfter < e.pending[j].ApplyAfter
	})
	return nil
}

// Set заменяет расписание целиком.
func (e *EffectEngine) Set(list []Effect) error {
	if err := checkBatch(nil, list); err != nil {
		return err
	}
	e.Clear()
	return e.Apply(list)
}

// Clear удаляет все эффекты и снимает блокировки параметров.
func (e *EffectEngine) Clear() {
	e.pending = nil
	e.busy = [paramCount]bool{}
}

// Update продвигает эффекты к позиции elapsed и возвращает новые значения параметров.
// Завершенный эффект выставляет ровно End один раз и удаляется из расписания.
func (e *EffectEngine) Update(elapsed time.Duration, volume, speed float64) (float64, float64) {
	values := [paramCount]float64{paramVolume: volume, paramSpeed: speed}
	var busy [paramCount]bool

	kept := e.pending[:0]
	for _, s := range e.pending {
		p := guards[s.Kind]
		el := elapsed - s.ApplyAfter
		if el < 0 {
			kept = append(kept, s)
			continue
		}
		if !s.started {
			s.started = true
			s.from = s.Start
			if s.FromCurrent {
				s.from = values[p]
			}
		}
		if el >= s.Duration {
			values[p] = s.End
			continue
		}
		values[p] = s.from + (s.End-s.from)*float64(el)/float64(s.Duration)
		busy[p] = true
		kept = append(kept, s)
	}
	for i := len(kept); i < len(e.pending); i++ {
		e.pending[i] = nil
	}
	e.pending = kept
	e.busy = busy

	return math.Min(math.Max(values[paramVolume], 0), 1), values[paramSpeed]
}

// Busy сообщает, меняет ли эффект данного вида свой параметр прямо сейчас.
func (e *EffectEngine) Busy(kind EffectKind) bool {
	if kind < 0 || int(kind) >= len(guards) {
		return false
	}
	return e.busy[guards[kind]]
}

// Effects возвращает копию еще не завершенных эффектов.
func (e *EffectEngine) Effects() []Effect {
	out := make([]Effect, 0, len(e.pending))
	for _, s := range e.pending {
		out = append(out, s.Effect)
	}
	return out
}

// Len — число эффектов в расписании.
func (e *EffectEngine) Len() int { return len(e.pending) }

func checkBatch(existing, list []Effect) error {
	for i, eff := range list {
		if err := eff.validate(); err != nil {
			return err
		}
		for _, old := range existing {
			if old.Kind == eff.Kind && old.overlaps(eff) {
				return fmt.Errorf("%w: %s overlaps scheduled %s", ErrConflict, eff, old)
			}
		}
		for _, prev := range list[:i] {
			if prev.Kind == eff.Kind && prev.overlaps(eff) {
				return fmt.Errorf("%w: %s overlaps %s in the same batch", ErrConflict, eff, prev)
			}
		}
	}
	return nil
}
