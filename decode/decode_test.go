package decode

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeWAV пишет минимальный PCM WAV: 16 бит, стерео.
func writeWAV(t *testing.T, path string, rate, frames int) {
	t.Helper()
	dataLen := frames * 4
	buf := make([]byte, 0, 44+dataLen)
	le := binary.LittleEndian

	buf = append(buf, "RIFF"...)
	buf = le.AppendUint32(buf, uint32(36+dataLen))
	buf = append(buf, "WAVE"...)
	buf = append(buf, "fmt "...)
	buf = le.AppendUint32(buf, 16)
	buf = le.AppendUint16(buf, 1) // PCM
	buf = le.AppendUint16(buf, 2)
	buf = le.AppendUint32(buf, uint32(rate))
	buf = le.AppendUint32(buf, uint32(rate*4))
	buf = le.AppendUint16(buf, 4)
	buf = le.AppendUint16(buf, 16)
	buf = append(buf, "data"...)
	buf = le.AppendUint32(buf, uint32(dataLen))
	for i := 0; i < frames; i++ {
		v := int16(math.Sin(float64(i)/10) * 8000)
		buf = le.AppendUint16(buf, uint16(v))
		buf = le.AppendUint16(buf, uint16(v))
	}

	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFileWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	writeWAV(t, path, 8000, 8000)

	audio, err := File(path)
	if err != nil {
		t.Fatalf("File() error = %v", err)
	}
	if audio.Buffer.Len() != 8000 {
		t.Errorf("Buffer.Len() = %d; want 8000", audio.Buffer.Len())
	}
	if audio.Duration != time.Second {
		t.Errorf("Duration = %v; want 1s", audio.Duration)
	}
	if audio.Metadata.SampleRate != 8000 || audio.Metadata.Channels != 2 {
		t.Errorf("Metadata = %+v; want rate 8000, 2 channels", audio.Metadata)
	}
}

func TestFileWAVWithoutExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.bin")
	writeWAV(t, path, 8000, 400)

	audio, err := File(path)
	if err != nil {
		t.Fatalf("File() error = %v", err)
	}
	if audio.Buffer.Len() != 400 {
		t.Errorf("Buffer.Len() = %d; want 400", audio.Buffer.Len())
	}
}

func TestFileErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := File(filepath.Join(dir, "missing.wav")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("File(missing) error = %v; want os.ErrNotExist", err)
	}

	junk := filepath.Join(dir, "junk.txt")
	if err := os.WriteFile(junk, []byte("definitely not audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := File(junk); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("File(junk) error = %v; want ErrUnsupportedFormat", err)
	}
}

func TestMetadataMapKeys(t *testing.T) {
	tests := []struct {
		name string
		meta Metadata
	}{
		{"Empty", Metadata{}},
		{"Full", Metadata{
			Title: "t", Artist: "a", AlbumTitle: "al", AlbumArtist: "aa", Genre: "g",
			Year: 2024, TrackNumber: 1, TotalTracks: 9, DiscNumber: 1, TotalDiscs: 2,
			Composer: "c", Comment: "x", Date: "2024-01-01",
			Duration: 3 * time.Second, Channels: 2, SampleRate: 44100,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.meta.Map()
			if len(m) != len(Keys) {
				t.Fatalf("len(Map()) = %d; want %d", len(m), len(Keys))
			}
			for _, k := range Keys {
				if _, ok := m[k]; !ok {
					t.Errorf("Map() missing key %q", k)
				}
			}
		})
	}
}

func TestMetadataAbsentValuesAreNull(t *testing.T) {
	data, err := json.Marshal(Metadata{Title: "song"})
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got["title"] != "song" {
		t.Errorf("title = %v; want song", got["title"])
	}
	if v, ok := got["artist"]; !ok || v != nil {
		t.Errorf("artist = %v (present %v); want null", v, ok)
	}
}
