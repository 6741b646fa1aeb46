package media

// Kind classifies a media file by its broad family.
type Kind string

const (
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
)

// MediaFile is the immutable identity of one file entering the pipeline.
// After a successful rename a new MediaFile describes the new path.
type MediaFile struct {
	Path   string
	Kind   Kind
	Format string
	Size   int64
}
