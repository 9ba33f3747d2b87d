package output

import "sync/atomic"

// Null — устройство без звука: запись просто отбрасывается.
// Подходит для тестов и машин без аудиокарты.
type Null struct {
	rate    int
	written atomic.Int64
}

func NewNull(sampleRate int) *Null {
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	return &Null{rate: sampleRate}
}

func (n *Null) SampleRate() int { return n.rate }

func (n *Null) Open() (Stream, error) {
	return &nullStream{dev: n}, nil
}

// Written — сколько байт записали все потоки устройства.
func (n *Null) Written() int64 { return n.written.Load() }

type nullStream struct {
	dev    *Null
	closed atomic.Bool
}

func (s *nullStream) Write(p []byte) (int, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	s.dev.written.Add(int64(len(p)))
	return len(p), nil
}

func (s *nullStream) Close() error {
	s.closed.Store(true)
	return nil
}
