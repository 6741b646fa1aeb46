package tags

import "errors"

// RawTags is the unnormalized field mapping read directly off one file.
// The pipeline never mutates a RawTags value in place; it only derives a
// metadata record from it.
type RawTags map[string]string

// Well-known tag keys. Codecs map their native frame/atom names onto these.
const (
	KeyTitle       = "title"
	KeyArtist      = "artist"
	KeyAlbum       = "album"
	KeyGenre       = "genre"
	KeyTrack       = "track"
	KeyYear        = "year"
	KeyDirector    = "director"
	KeyCast        = "cast"
	KeyDescription = "description"
	KeyRating      = "rating"
	KeyDuration    = "duration"
	KeyBitrate     = "bitrate"
)

// Sentinel errors for the codec boundary.
var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrCorruptFile       = errors.New("corrupt file")
	ErrWriteDenied       = errors.New("write denied")
)

// Codec reads and writes embedded metadata for one format family.
type Codec interface {
	// Read returns the embedded tags for the file. An empty (non-nil)
	// RawTags means the file carries no tags; that is not an error.
	Read(path string) (RawTags, error)
	// Write persists the given tags to the file.
	Write(path string, raw RawTags) error
}

// Clone returns an independent copy of the tag mapping.
func (r RawTags) Clone() RawTags {
	if r == nil {
		return nil
	}
	out := make(RawTags, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// IsEmpty reports whether no tag carries a value.
func (r RawTags) IsEmpty() bool {
	for _, v := range r {
		if v != "" {
			return false
		}
	}
	return true
}
