package output

import (
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// maxQueued — сколько звука может скопиться в очереди потока.
// Более старые данные отбрасываются, чтобы задержка не росла.
const maxQueued = 2 * time.Second

var (
	otoCtx  *oto.Context
	otoRate int
	once    sync.Once
	initErr error
)

// initEngine инициализирует аудио-движок Oto один раз за все время работы программы.
// Контекст oto может быть только один, поэтому частота первого вызова побеждает.
func initEngine(sampleRate int, buffer time.Duration) error {
	once.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 2,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   buffer,
		}
		var readyChan chan struct{}
		otoCtx, readyChan, initErr = oto.NewContext(op)
		if initErr == nil {
			<-readyChan
			otoRate = sampleRate
		}
	})
	return initErr
}

// Oto — устройство по умолчанию. Каждый поток получает свой oto.Player,
// смешивание потоков делает сам oto.
type Oto struct {
	rate int
}

// NewOto поднимает общий контекст oto.
func NewOto(o Options) (Device, error) {
	if o.SampleRate <= 0 {
		o.SampleRate = 44100
	}
	if err := initEngine(o.SampleRate, o.BufferSize); err != nil {
		return nil, err
	}
	return &Oto{rate: otoRate}, nil
}

func (d *Oto) SampleRate() int { return d.rate }

func (d *Oto) Open() (Stream, error) {
	q := &byteQueue{limit: d.rate * BytesPerFrame * int(maxQueued/time.Second)}
	player := otoCtx.NewPlayer(q)
	player.Play()
	return &otoStream{queue: q, player: player}, nil
}

type otoStream struct {
	queue  *byteQueue
	player *oto.Player
	once   sync.Once
}

func (s *otoStream) Write(p []byte) (int, error) {
	return s.queue.write(p)
}

func (s *otoStream) Close() error {
	var err error
	s.once.Do(func() {
		s.queue.close()
		s.player.Pause()
		err = s.player.Close()
	})
	return err
}

// byteQueue — неблокирующая очередь между синком и oto.Player.
// Когда данных нет, Read отдает тишину, чтобы плеер не считал поток законченным.
type byteQueue struct {
	mu     sync.Mutex
	buf    []byte
	limit  int
	closed bool
}

func (q *byteQueue) write(p []byte) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return 0, ErrClosed
	}
	q.buf = append(q.buf, p...)
	if over := len(q.buf) - q.limit; over > 0 {
		over += (BytesPerFrame - over%BytesPerFrame) % BytesPerFrame
		q.buf = q.buf[over:]
	}
	return len(p), nil
}

func (q *byteQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.buf = nil
	q.mu.Unlock()
}

func (q *byteQueue) Read(p []byte) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := copy(p, q.buf)
	q.buf = q.buf[n:]
	clear(p[n:])
	return len(p), nil
}
