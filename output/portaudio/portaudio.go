// Package portaudio регистрирует бэкенд вывода "portaudio".
// Подключается пустым импортом:
//
//	import _ "github.com/Roman77St/playqueue/output/portaudio"
package portaudio

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/Roman77St/playqueue/output"
)

func init() {
	output.Register("portaudio", New)
}

var (
	initOnce sync.Once
	initErr  error
)

// Device открывает блокирующие потоки PortAudio на устройстве по умолчанию.
type Device struct {
	rate            int
	framesPerBuffer int
}

// New инициализирует PortAudio один раз на процесс.
func New(o output.Options) (output.Device, error) {
	initOnce.Do(func() { initErr = portaudio.Initialize() })
	if initErr != nil {
		return nil, initErr
	}
	if o.SampleRate <= 0 {
		o.SampleRate = 44100
	}
	frames := int(time.Duration(o.SampleRate) * o.BufferSize / time.Second)
	if frames <= 0 {
		frames = 1024
	}
	return &Device{rate: o.SampleRate, framesPerBuffer: frames}, nil
}

func (d *Device) SampleRate() int { return d.rate }

func (d *Device) Open() (output.Stream, error) {
	s := &stream{buffer: make([]int16, d.framesPerBuffer*2)}
	st, err := portaudio.OpenDefaultStream(0, 2, float64(d.rate), d.framesPerBuffer, s.buffer)
	if err != nil {
		return nil, err
	}
	if err := st.Start(); err != nil {
		st.Close()
		return nil, err
	}
	s.stream = st
	return s, nil
}

// stream копит семплы и пишет в PortAudio только полными буферами.
type stream struct {
	mu      sync.Mutex
	stream  *portaudio.Stream
	buffer  []int16
	pending []int16
	closed  bool
}

func (s *stream) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, output.ErrClosed
	}

	for i := 0; i+1 < len(p); i += 2 {
		s.pending = append(s.pending, int16(binary.LittleEndian.Uint16(p[i:])))
	}
	for len(s.pending) >= len(s.buffer) {
		copy(s.buffer, s.pending)
		s.pending = s.pending[len(s.buffer):]
		if err := s.stream.Write(); err != nil && err != portaudio.OutputUnderflowed {
			return 0, err
		}
	}
	// Сдвигаем остаток в начало, чтобы слайс не рос бесконечно.
	s.pending = append(s.pending[:0:0], s.pending...)
	return len(p), nil
}

func (s *stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.stream.Stop()
	return s.stream.Close()
}
