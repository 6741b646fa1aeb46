package metadata

import (
	"strconv"
	"strings"

	"curator/internal/tags"
)

// FromRawTags derives a record from embedded tags, recording "embedded"
// provenance for every populated field. Raw values are trimmed but otherwise
// carried verbatim; normalization of year and track is the only parsing.
func FromRawTags(raw tags.RawTags) Record {
	out := Record{}
	if raw == nil {
		return out
	}

	set := func(field string, dst *string, key string) {
		value := strings.TrimSpace(raw[key])
		if value == "" {
			return
		}
		*dst = value
		out.setProvenance(field, SourceEmbedded)
	}

	set(FieldTitle, &out.Title, tags.KeyTitle)
	set(FieldArtist, &out.Artist, tags.KeyArtist)
	set(FieldAlbum, &out.Album, tags.KeyAlbum)
	set(FieldGenre, &out.Genre, tags.KeyGenre)
	set(FieldDirector, &out.Director, tags.KeyDirector)
	set(FieldDescription, &out.Description, tags.KeyDescription)
	set(FieldRating, &out.Rating, tags.KeyRating)

	if year := ParseYear(raw[tags.KeyYear]); year > 0 {
		out.Year = year
		out.setProvenance(FieldYear, SourceEmbedded)
	}
	if track, err := strconv.Atoi(strings.TrimSpace(raw[tags.KeyTrack])); err == nil && track > 0 {
		out.Track = track
		out.setProvenance(FieldTrack, SourceEmbedded)
	}
	if cast := strings.TrimSpace(raw[tags.KeyCast]); cast != "" {
		for _, name := range strings.Split(cast, ";") {
			if name = strings.TrimSpace(name); name != "" {
				out.Cast = append(out.Cast, name)
			}
		}
		if len(out.Cast) > 0 {
			out.setProvenance(FieldCast, SourceEmbedded)
		}
	}
	return out
}

// ToRawTags converts the record back into the codec field mapping for
// writing. Only populated fields are emitted.
func (r Record) ToRawTags() tags.RawTags {
	out := tags.RawTags{}
	put := func(key, value string) {
		if value != "" {
			out[key] = value
		}
	}
	put(tags.KeyTitle, r.Title)
	put(tags.KeyArtist, r.Artist)
	put(tags.KeyAlbum, r.Album)
	put(tags.KeyGenre, r.Genre)
	put(tags.KeyDirector, r.Director)
	put(tags.KeyDescription, r.Description)
	put(tags.KeyRating, r.Rating)
	if r.Year > 0 {
		out[tags.KeyYear] = strconv.Itoa(r.Year)
	}
	if r.Track > 0 {
		out[tags.KeyTrack] = strconv.Itoa(r.Track)
	}
	if len(r.Cast) > 0 {
		out[tags.KeyCast] = strings.Join(r.Cast, "; ")
	}
	return out
}
