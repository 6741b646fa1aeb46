package metadata

import (
	"strconv"
	"strings"
)

// SourceEmbedded is the provenance name for fields read off the file itself.
const SourceEmbedded = "embedded"

// MaxArtworkURLs caps how many artwork URLs a merged record may carry.
const MaxArtworkURLs = 5

// Record is the normalized, merged metadata view consumed by filename
// generation and tag writing. Every populated field has a contributing
// source recorded in Provenance.
type Record struct {
	Title       string
	Artist      string
	Album       string
	Genre       string
	Director    string
	Description string
	Rating      string
	Quality     string
	Track       int
	Year        int
	Cast        []string
	ArtworkURLs []string
	Provenance  map[string]string
}

// Field names used by provenance, merge rules, and naming patterns.
const (
	FieldTitle       = "title"
	FieldArtist      = "artist"
	FieldAlbum       = "album"
	FieldGenre       = "genre"
	FieldDirector    = "director"
	FieldDescription = "description"
	FieldRating      = "rating"
	FieldQuality     = "quality"
	FieldTrack       = "track"
	FieldYear        = "year"
	FieldCast        = "cast"
)

// Field returns the record value for a pattern placeholder name.
// The boolean reports whether the field carries a value.
func (r Record) Field(name string) (string, bool) {
	switch strings.ToLower(name) {
	case FieldTitle:
		return r.Title, r.Title != ""
	case FieldArtist:
		return r.Artist, r.Artist != ""
	case FieldAlbum:
		return r.Album, r.Album != ""
	case FieldGenre:
		return r.Genre, r.Genre != ""
	case FieldDirector:
		return r.Director, r.Director != ""
	case FieldDescription:
		return r.Description, r.Description != ""
	case FieldRating:
		return r.Rating, r.Rating != ""
	case FieldQuality:
		return r.Quality, r.Quality != ""
	case FieldTrack:
		if r.Track <= 0 {
			return "", false
		}
		return strconv.Itoa(r.Track), true
	case FieldYear:
		if r.Year <= 0 {
			return "", false
		}
		return strconv.Itoa(r.Year), true
	case FieldCast:
		if len(r.Cast) == 0 {
			return "", false
		}
		return strings.Join(r.Cast, ", "), true
	default:
		return "", false
	}
}

// MissingRequired returns the required fields absent for the given kind:
// title always, artist for audio, year for video.
func (r Record) MissingRequired(kind string) []string {
	var missing []string
	if r.Title == "" {
		missing = append(missing, FieldTitle)
	}
	switch kind {
	case "audio":
		if r.Artist == "" {
			missing = append(missing, FieldArtist)
		}
	case "video":
		if r.Year <= 0 {
			missing = append(missing, FieldYear)
		}
	}
	return missing
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := r
	out.Cast = append([]string(nil), r.Cast...)
	out.ArtworkURLs = append([]string(nil), r.ArtworkURLs...)
	out.Provenance = make(map[string]string, len(r.Provenance))
	for k, v := range r.Provenance {
		out.Provenance[k] = v
	}
	return out
}

func (r *Record) setProvenance(field, source string) {
	if r.Provenance == nil {
		r.Provenance = make(map[string]string)
	}
	r.Provenance[field] = source
}

// ParseYear extracts a four-digit year from strings like "2000",
// "2000-05-12", or "May 2000". Returns 0 when none is present.
func ParseYear(value string) int {
	value = strings.TrimSpace(value)
	for i := 0; i+4 <= len(value); i++ {
		candidate := value[i : i+4]
		year, err := strconv.Atoi(candidate)
		if err != nil || year < 1000 || year > 9999 {
			continue
		}
		// Reject digits that are part of a longer number.
		if i > 0 && value[i-1] >= '0' && value[i-1] <= '9' {
			continue
		}
		if i+4 < len(value) && value[i+4] >= '0' && value[i+4] <= '9' {
			continue
		}
		return year
	}
	return 0
}
