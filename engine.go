package playqueue

import (
	"fmt"
	"sync"

	"github.com/Roman77St/playqueue/config"
	"github.com/Roman77St/playqueue/output"
)

var (
	devicesMu sync.Mutex
	devices   = make(map[string]output.Device)
)

// sharedDevice открывает устройство бэкенда один раз за все время работы программы.
// Все синки без WithDevice пишут в него.
func sharedDevice(cfg config.Config) (output.Device, error) {
	devicesMu.Lock()
	defer devicesMu.Unlock()

	if dev, ok := devices[cfg.Backend]; ok {
		return dev, nil
	}
	dev, err := output.New(cfg.Backend, output.Options{
		SampleRate: cfg.SampleRate,
		BufferSize: cfg.BufferSize,
	})
	if err != nil {
		return nil, fmt.Errorf("output %s: %w", cfg.Backend, err)
	}
	devices[cfg.Backend] = dev
	return dev, nil
}
