// Package decode превращает аудиофайлы (MP3, WAV, FLAC) в PCM-буфер в памяти
// и читает их теги.
package decode

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/flac"
	"github.com/hajimehoshi/go-mp3"
	"github.com/youpy/go-wav"
)

// ErrUnsupportedFormat — содержимое файла не подходит ни к одному декодеру.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Audio — полностью декодированный трек.
type Audio struct {
	Buffer   *beep.Buffer
	Format   beep.Format
	Duration time.Duration
	Metadata Metadata
}

// File декодирует файл целиком. Декодер выбирается по расширению,
// для неизвестного расширения смотрим сигнатуру RIFF/fLaC, затем пробуем MP3.
func File(path string) (*Audio, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stream, format, err := open(f, path)
	if err != nil {
		return nil, err
	}

	buf := beep.NewBuffer(format)
	buf.Append(stream)
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	meta, err := ReadMetadata(path)
	if err != nil {
		// Файл без тегов — это нормально, оставляем пустые значения.
		meta = Metadata{}
	}

	duration := format.SampleRate.D(buf.Len())
	meta.Duration = duration
	meta.Channels = format.NumChannels
	meta.SampleRate = int(format.SampleRate)

	return &Audio{
		Buffer:   buf,
		Format:   format,
		Duration: duration,
		Metadata: meta,
	}, nil
}

// open выбирает декодер для потока.
func open(f *os.File, path string) (beep.Streamer, beep.Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return decodeMP3(f)
	case ".wav", ".wave":
		return decodeWAV(f)
	case ".flac":
		s, format, err := flac.Decode(f)
		if err != nil {
			return nil, beep.Format{}, fmt.Errorf("%w: flac: %v", ErrUnsupportedFormat, err)
		}
		return s, format, nil
	}

	// Неизвестное расширение: смотрим на сигнатуру контейнера.
	var magic [12]byte
	n, _ := io.ReadFull(f, magic[:])
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, beep.Format{}, err
	}
	switch {
	case n >= 12 && string(magic[0:4]) == "RIFF" && string(magic[8:12]) == "WAVE":
		return decodeWAV(f)
	case n >= 4 && string(magic[0:4]) == "fLaC":
		return flac.Decode(f)
	}

	// Иначе пробуем MP3.
	if s, format, err := decodeMP3(f); err == nil {
		return s, format, nil
	}
	return nil, beep.Format{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
}

// decodeMP3: go-mp3 всегда отдает стерео int16 LE.
func decodeMP3(r io.Reader) (beep.Streamer, beep.Format, error) {
	d, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("%w: mp3: %v", ErrUnsupportedFormat, err)
	}
	format := beep.Format{
		SampleRate:  beep.SampleRate(d.SampleRate()),
		NumChannels: 2,
		Precision:   2,
	}
	return &pcmStreamer{r: d}, format, nil
}

// decodeWAV: youpy/go-wav требует ReadAt для чтения RIFF-чанков.
func decodeWAV(f *os.File) (beep.Streamer, beep.Format, error) {
	r := wav.NewReader(f)
	info, err := r.Format()
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("%w: wav: %v", ErrUnsupportedFormat, err)
	}
	if info.NumChannels == 0 || info.SampleRate == 0 {
		return nil, beep.Format{}, fmt.Errorf("%w: wav: empty format chunk", ErrUnsupportedFormat)
	}
	format := beep.Format{
		SampleRate:  beep.SampleRate(info.SampleRate),
		NumChannels: int(info.NumChannels),
		Precision:   int(info.BitsPerSample / 8),
	}
	return &wavStreamer{r: r, stereo: info.NumChannels > 1}, format, nil
}

// pcmStreamer читает чередующиеся стерео int16 LE из io.Reader.
type pcmStreamer struct {
	r   io.Reader
	buf []byte
	err error
}

func (s *pcmStreamer) Stream(samples [][2]float64) (int, bool) {
	if s.err != nil {
		return 0, false
	}
	need := len(samples) * 4
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}
	n, err := io.ReadFull(s.r, s.buf[:need])
	frames := n / 4
	for i := 0; i < frames; i++ {
		b := s.buf[i*4:]
		samples[i][0] = float64(int16(uint16(b[0])|uint16(b[1])<<8)) / 32768
		samples[i][1] = float64(int16(uint16(b[2])|uint16(b[3])<<8)) / 32768
	}
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		s.err = err
	}
	if frames == 0 {
		return 0, false
	}
	return frames, true
}

func (s *pcmStreamer) Err() error { return s.err }

// wavStreamer переводит семплы go-wav в float.
type wavStreamer struct {
	r       *wav.Reader
	stereo  bool
	pending []wav.Sample
	err     error
	eof     bool
}

func (s *wavStreamer) Stream(samples [][2]float64) (int, bool) {
	n := 0
	for n < len(samples) {
		if len(s.pending) == 0 {
			if s.eof || s.err != nil {
				break
			}
			batch, err := s.r.ReadSamples(uint32(len(samples) - n))
			if err != nil {
				if errors.Is(err, io.EOF) {
					s.eof = true
				} else {
					s.err = err
				}
			}
			if len(batch) == 0 {
				if err == nil {
					s.eof = true
				}
				continue
			}
			s.pending = batch
		}
		sample := s.pending[0]
		s.pending = s.pending[1:]
		left := s.r.FloatValue(sample, 0)
		right := left
		if s.stereo {
			right = s.r.FloatValue(sample, 1)
		}
		samples[n] = [2]float64{left, right}
		n++
	}
	if n == 0 {
		return 0, false
	}
	return n, true
}

func (s *wavStreamer) Err() error { return s.err }
