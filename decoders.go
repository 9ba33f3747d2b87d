package playqueue

import "github.com/Roman77St/playqueue/decode"

// Decoder превращает путь к файлу в декодированный трек. По умолчанию decode.File.
type Decoder interface {
	Decode(path string) (*decode.Audio, error)
}

// DecoderFunc позволяет использовать обычную функцию как Decoder.
type DecoderFunc func(path string) (*decode.Audio, error)

func (f DecoderFunc) Decode(path string) (*decode.Audio, error) { return f(path) }
