package output

import (
	"bytes"
	"errors"
	"testing"
)

func TestNewUnknownBackend(t *testing.T) {
	if _, err := New("nope", Options{}); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("New(nope) error = %v; want ErrUnknownBackend", err)
	}
}

func TestNullDevice(t *testing.T) {
	dev, err := New("null", Options{SampleRate: 22050})
	if err != nil {
		t.Fatalf("New(null) error = %v", err)
	}
	if dev.SampleRate() != 22050 {
		t.Errorf("SampleRate() = %d; want 22050", dev.SampleRate())
	}

	s, err := dev.Open()
	if err != nil {
		t.Fatal(err)
	}
	if n, err := s.Write(make([]byte, 16)); n != 16 || err != nil {
		t.Errorf("Write() = %d, %v; want 16, nil", n, err)
	}
	if got := dev.(*Null).Written(); got != 16 {
		t.Errorf("Written() = %d; want 16", got)
	}
	s.Close()
	if _, err := s.Write(make([]byte, 4)); !errors.Is(err, ErrClosed) {
		t.Errorf("Write after Close error = %v; want ErrClosed", err)
	}
}

func TestByteQueue(t *testing.T) {
	q := &byteQueue{limit: 8}
	q.write([]byte{1, 2, 3, 4})

	p := make([]byte, 8)
	if n, _ := q.Read(p); n != 8 {
		t.Fatalf("Read() = %d; want 8", n)
	}
	// Недостающее дополняется тишиной.
	if !bytes.Equal(p, []byte{1, 2, 3, 4, 0, 0, 0, 0}) {
		t.Errorf("Read() data = %v", p)
	}

	// Переполнение отбрасывает самые старые кадры целиком.
	q.write([]byte{1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3})
	p = make([]byte, 8)
	q.Read(p)
	if !bytes.Equal(p, []byte{2, 2, 2, 2, 3, 3, 3, 3}) {
		t.Errorf("Read() after overflow = %v", p)
	}

	q.close()
	if _, err := q.write([]byte{1}); !errors.Is(err, ErrClosed) {
		t.Errorf("write after close error = %v; want ErrClosed", err)
	}
}

func TestBackends(t *testing.T) {
	names := Backends()
	want := map[string]bool{"oto": false, "null": false}
	for _, n := range names {
		if _, ok := want[n]; ok {
			want[n] = true
		}
	}
	for n, found := range want {
		if !found {
			t.Errorf("Backends() = %v; missing %q", names, n)
		}
	}
}
