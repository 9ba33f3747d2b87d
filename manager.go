package playqueue

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Manager — реестр каналов по уникальным именам.
type Manager struct {
	mu       sync.RWMutex
	channels map[string]*Channel
	log      zerolog.Logger
}

func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		channels: make(map[string]*Channel),
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddChannel регистрирует канал. Занятое имя дает ErrValidation,
// существующий канал при этом не меняется.
func (m *Manager) AddChannel(name string, ch *Channel) error {
	if name == "" || ch == nil {
		return fmt.Errorf("%w: channel name and channel are required", ErrValidation)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.channels[name]; ok {
		return fmt.Errorf("%w: channel %q already exists", ErrValidation, name)
	}
	m.channels[name] = ch
	m.log.Debug().Str("channel", name).Msg("channel added")
	return nil
}

// Channel ищет канал по имени. Отсутствие — не ошибка.
func (m *Manager) Channel(name string) (*Channel, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ch, ok := m.channels[name]
	return ch, ok
}

// DropChannel удаляет канал, останавливает его текущий синк и очищает очередь.
func (m *Manager) DropChannel(name string) error {
	m.mu.Lock()
	ch, ok := m.channels[name]
	delete(m.channels, name)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: channel %q", ErrNotFound, name)
	}

	ch.SetAutoConsume(false)
	ch.ClearQueue()
	ch.DropCurrentAudio()
	m.log.Debug().Str("channel", name).Msg("channel dropped")
	return nil
}

// StartAll включает auto consume во всех каналах.
func (m *Manager) StartAll() {
	for _, ch := range m.snapshot() {
		ch.SetAutoConsume(true)
	}
}

// StopAll выключает auto consume и останавливает текущий синк каждого канала.
func (m *Manager) StopAll() {
	for _, ch := range m.snapshot() {
		ch.SetAutoConsume(false)
		ch.DropCurrentAudio()
	}
}

// Names — имена каналов по алфавиту.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.channels))
	for name := range m.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// snapshot копирует каналы, чтобы не держать m.mu во время вызовов каналов.
func (m *Manager) snapshot() []*Channel {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Channel, 0, len(m.channels))
	for _, ch := range m.channels {
		out = append(out, ch)
	}
	return out
}
