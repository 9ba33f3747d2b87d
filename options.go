package playqueue

import (
	"github.com/rs/zerolog"

	"github.com/Roman77St/playqueue/config"
	"github.com/Roman77St/playqueue/output"
)

// Option настраивает Sink.
type Option func(*Sink)

// WithCallback задает колбэк, вызываемый один раз при остановке каждой загрузки.
func WithCallback(f func()) Option {
	return func(s *Sink) { s.callback = f }
}

func WithConfig(cfg config.Config) Option {
	return func(s *Sink) { s.cfg = cfg }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Sink) { s.log = l.With().Str("component", "sink").Logger() }
}

// WithDevice задает устройство вывода вместо общего устройства бэкенда из настроек.
func WithDevice(d output.Device) Option {
	return func(s *Sink) { s.device = d }
}

func WithDecoder(d Decoder) Option {
	return func(s *Sink) { s.decoder = d }
}

// ChannelOption настраивает Channel.
type ChannelOption func(*Channel)

func WithChannelLogger(l zerolog.Logger) ChannelOption {
	return func(c *Channel) { c.log = l.With().Str("component", "channel").Logger() }
}

// WithAutoConsume включает автопродвижение очереди сразу при создании.
func WithAutoConsume(on bool) ChannelOption {
	return func(c *Channel) { c.autoConsume = on }
}

// ManagerOption настраивает Manager.
type ManagerOption func(*Manager)

func WithManagerLogger(l zerolog.Logger) ManagerOption {
	return func(m *Manager) { m.log = l.With().Str("component", "manager").Logger() }
}
