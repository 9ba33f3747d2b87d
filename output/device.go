// Package output — устройства вывода звука. Все устройства принимают
// чередующийся стерео PCM int16 LE на своей частоте дискретизации.
package output

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"
)

// ErrUnknownBackend — бэкенд с таким именем не зарегистрирован.
var ErrUnknownBackend = errors.New("unknown output backend")

// ErrClosed — запись в уже закрытый поток.
var ErrClosed = errors.New("output stream closed")

// Stream — поток одного синка. Write не блокирует дольше, чем длится записанный фрагмент.
type Stream interface {
	io.Writer
	io.Closer
}

// Device открывает потоки вывода. Один Device обслуживает много синков.
type Device interface {
	SampleRate() int
	Open() (Stream, error)
}

// Options — параметры создания устройства.
type Options struct {
	SampleRate int
	BufferSize time.Duration // Размер буфера устройства
}

// Factory создает устройство по параметрам.
type Factory func(Options) (Device, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func init() {
	Register("oto", NewOto)
	Register("null", func(o Options) (Device, error) { return NewNull(o.SampleRate), nil })
}

// Register добавляет бэкенд. Повторная регистрация имени заменяет фабрику.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = f
}

// New создает устройство зарегистрированного бэкенда.
func New(name string, opts Options) (Device, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %v)", ErrUnknownBackend, name, Backends())
	}
	return f(opts)
}

// Backends — имена зарегистрированных бэкендов по алфавиту.
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BytesPerFrame — размер одного стерео кадра int16.
const BytesPerFrame = 4
