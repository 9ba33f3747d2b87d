package decode

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dhowden/tag"
)

// Keys — фиксированный набор ключей метаданных. Map всегда возвращает их все.
var Keys = []string{
	"title",
	"artist",
	"album_title",
	"album_artist",
	"genre",
	"year",
	"track_number",
	"total_tracks",
	"disc_number",
	"total_discs",
	"composer",
	"comment",
	"date",
	"duration",
	"channels",
	"sample_rate",
}

// Metadata — теги трека и параметры потока. Нулевое значение поля значит «нет тега».
type Metadata struct {
	Title       string
	Artist      string
	AlbumTitle  string
	AlbumArtist string
	Genre       string
	Year        int
	TrackNumber int
	TotalTracks int
	DiscNumber  int
	TotalDiscs  int
	Composer    string
	Comment     string
	Date        string
	Duration    time.Duration
	Channels    int
	SampleRate  int
}

// rawDateKeys — сырые поля разных форматов тегов, где лежит полная дата.
var rawDateKeys = []string{"TDRC", "TDAT", "TYER", "DATE", "date", "\xa9day"}

// ReadMetadata читает теги файла (ID3, MP4, FLAC/Vorbis).
// Длительность и параметры потока заполняет декодер.
func ReadMetadata(path string) (Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return Metadata{}, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return Metadata{}, fmt.Errorf("read tags %s: %w", path, err)
	}

	meta := Metadata{
		Title:       m.Title(),
		Artist:      m.Artist(),
		AlbumTitle:  m.Album(),
		AlbumArtist: m.AlbumArtist(),
		Genre:       m.Genre(),
		Year:        m.Year(),
		Composer:    m.Composer(),
		Comment:     m.Comment(),
	}
	meta.TrackNumber, meta.TotalTracks = m.Track()
	meta.DiscNumber, meta.TotalDiscs = m.Disc()

	raw := m.Raw()
	for _, k := range rawDateKeys {
		if v, ok := raw[k]; ok {
			if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
				meta.Date = s
				break
			}
		}
	}
	return meta, nil
}

// Map возвращает ровно набор Keys. Отсутствующие значения — nil, ключ не пропускается.
func (m Metadata) Map() map[string]any {
	out := make(map[string]any, len(Keys))
	str := func(k, v string) {
		if v == "" {
			out[k] = nil
			return
		}
		out[k] = v
	}
	num := func(k string, v int) {
		if v == 0 {
			out[k] = nil
			return
		}
		out[k] = v
	}

	str("title", m.Title)
	str("artist", m.Artist)
	str("album_title", m.AlbumTitle)
	str("album_artist", m.AlbumArtist)
	str("genre", m.Genre)
	num("year", m.Year)
	num("track_number", m.TrackNumber)
	num("total_tracks", m.TotalTracks)
	num("disc_number", m.DiscNumber)
	num("total_discs", m.TotalDiscs)
	str("composer", m.Composer)
	str("comment", m.Comment)
	str("date", m.Date)
	if m.Duration > 0 {
		out["duration"] = m.Duration.Seconds()
	} else {
		out["duration"] = nil
	}
	num("channels", m.Channels)
	num("sample_rate", m.SampleRate)
	return out
}

func (m Metadata) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Map())
}
