package playqueue

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// bytesPerFrame: 2 канала по 2 байта на семпл (int16).
const bytesPerFrame = 4

// renderer превращает декодированный буфер синка в PCM для устройства вывода.
// Цепочка: Buffer.Streamer -> Resampler (скорость и частота) -> Volume.
// Используется только под мьютексом синка.
type renderer struct {
	source    beep.StreamSeeker
	resampler *beep.Resampler
	gain      *effects.Volume

	srcRate int
	dstRate int
	quality int
	speed   float64

	scratch [][2]float64
}

func newRenderer(buf *beep.Buffer, dstRate, quality int) *renderer {
	r := &renderer{
		source:  buf.Streamer(0, buf.Len()),
		srcRate: int(buf.Format().SampleRate),
		dstRate: dstRate,
		quality: quality,
		speed:   1,
	}
	r.chain()
	return r
}

// ratio учитывает и скорость воспроизведения, и разницу частот файла и устройства.
func (r *renderer) ratio() float64 {
	return r.speed * float64(r.srcRate) / float64(r.dstRate)
}

// chain пересобирает ресемплер поверх источника, сохраняя громкость.
func (r *renderer) chain() {
	r.resampler = beep.ResampleRatio(r.quality, r.ratio(), r.source)
	gain := &effects.Volume{Streamer: r.resampler, Base: 2}
	if r.gain != nil {
		gain.Volume, gain.Silent = r.gain.Volume, r.gain.Silent
	}
	r.gain = gain
}

// setVolume задает линейную громкость. log2(0) = -Inf, поэтому ноль — это Silent.
func (r *renderer) setVolume(v float64) {
	if v <= 0 {
		r.gain.Volume = 0
		r.gain.Silent = true
		return
	}
	r.gain.Silent = false
	r.gain.Volume = math.Log2(v)
}

func (r *renderer) setSpeed(s float64) {
	if s == r.speed {
		return
	}
	r.speed = s
	r.resampler.SetRatio(r.ratio())
}

// seek переставляет источник на позицию pos.
func (r *renderer) seek(pos time.Duration) error {
	frame := durationToFrames(pos, r.srcRate)
	if frame > r.source.Len() {
		frame = r.source.Len()
	}
	if err := r.source.Seek(frame); err != nil {
		return err
	}
	r.chain()
	return nil
}

// render выдает frames кадров s16le. После конца источника дополняет тишиной.
func (r *renderer) render(frames int) []byte {
	if frames <= 0 {
		return nil
	}
	if cap(r.scratch) < frames {
		r.scratch = make([][2]float64, frames)
	}
	buf := r.scratch[:frames]

	n, _ := r.gain.Stream(buf)
	for i := n; i < frames; i++ {
		buf[i] = [2]float64{}
	}

	out := make([]byte, frames*bytesPerFrame)
	floatToBytes(buf, out)
	return out
}

// floatToBytes переводит стерео float64 в чередующиеся int16 LE с жестким ограничением.
func floatToBytes(in [][2]float64, out []byte) {
	for i, frame := range in {
		for ch, v := range frame {
			if v > 1 {
				v = 1
			} else if v < -1 {
				v = -1
			}
			binary.LittleEndian.PutUint16(out[i*bytesPerFrame+ch*2:], uint16(int16(v*32767)))
		}
	}
}
