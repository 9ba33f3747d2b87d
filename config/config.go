// Package config загружает настройки движка из .env и переменных окружения.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config — настройки движка воспроизведения.
type Config struct {
	Backend         string        // Бэкенд вывода: oto, null, portaudio
	SampleRate      int           // Частота устройства вывода, Гц
	TickInterval    time.Duration // Период цикла синка
	BufferSize      time.Duration // Буфер устройства вывода
	ResampleQuality int           // Качество ресемплера beep, 1..64
	DefaultVolume   float64       // Громкость свежезагруженного синка, 0..1
	LogLevel        string
}

// Default возвращает настройки по умолчанию.
func Default() Config {
	return Config{
		Backend:         "oto",
		SampleRate:      44100,
		TickInterval:    20 * time.Millisecond,
		BufferSize:      100 * time.Millisecond,
		ResampleQuality: 4,
		DefaultVolume:   1,
		LogLevel:        "info",
	}
}

// Load читает .env файлы (по умолчанию ./.env), затем переменные окружения.
// Отсутствующий файл не ошибка. Некорректные значения игнорируются.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	def := Default()
	cfg := Config{
		Backend:         envStr("PLAYQUEUE_BACKEND", def.Backend),
		SampleRate:      envInt("PLAYQUEUE_SAMPLE_RATE", def.SampleRate),
		TickInterval:    envMillis("PLAYQUEUE_TICK_MS", def.TickInterval),
		BufferSize:      envMillis("PLAYQUEUE_BUFFER_MS", def.BufferSize),
		ResampleQuality: envInt("PLAYQUEUE_RESAMPLE_QUALITY", def.ResampleQuality),
		DefaultVolume:   float64(envInt("PLAYQUEUE_VOLUME", 100)) / 100,
		LogLevel:        strings.ToLower(envStr("PLAYQUEUE_LOG_LEVEL", def.LogLevel)),
	}
	if cfg.DefaultVolume < 0 || cfg.DefaultVolume > 1 {
		cfg.DefaultVolume = def.DefaultVolume
	}
	return cfg, cfg.Validate()
}

// Validate отклоняет невозможные настройки.
func (c Config) Validate() error {
	switch {
	case c.Backend == "":
		return errors.New("config: empty backend")
	case c.SampleRate <= 0:
		return fmt.Errorf("config: sample rate %d", c.SampleRate)
	case c.TickInterval <= 0:
		return fmt.Errorf("config: tick interval %v", c.TickInterval)
	case c.ResampleQuality < 1 || c.ResampleQuality > 64:
		return fmt.Errorf("config: resample quality %d not in 1..64", c.ResampleQuality)
	case c.DefaultVolume < 0 || c.DefaultVolume > 1:
		return fmt.Errorf("config: default volume %v not in [0, 1]", c.DefaultVolume)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Logger создает консольный логгер с уровнем из настроек.
func (c Config) Logger(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}).
		Level(level).
		With().Timestamp().Logger()
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envMillis(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Millisecond
		}
	}
	return fallback
}
