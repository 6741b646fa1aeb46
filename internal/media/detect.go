package media

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"curator/internal/config"
)

// ErrUnknownFormat reports a file whose container could not be recognized.
var ErrUnknownFormat = errors.New("unknown media format")

// Detector classifies files against the configured extension allow-lists and
// the container signatures it knows about.
type Detector struct {
	audio map[string]struct{}
	video map[string]struct{}
}

// NewDetector builds a detector from the configured format allow-lists.
func NewDetector(cfg *config.Config) *Detector {
	d := &Detector{
		audio: make(map[string]struct{}, len(cfg.Formats.Audio)),
		video: make(map[string]struct{}, len(cfg.Formats.Video)),
	}
	for _, ext := range cfg.Formats.Audio {
		d.audio[ext] = struct{}{}
	}
	for _, ext := range cfg.Formats.Video {
		d.video[ext] = struct{}{}
	}
	return d
}

// KindForPath classifies a path by extension alone. The boolean reports
// whether the extension is on either allow-list.
func (d *Detector) KindForPath(path string) (Kind, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := d.audio[ext]; ok {
		return KindAudio, true
	}
	if _, ok := d.video[ext]; ok {
		return KindVideo, true
	}
	return "", false
}

// Detect builds the MediaFile identity for a path: kind from the extension
// allow-list, format from the container signature with the extension as a
// fallback for formats the sniffer does not cover.
func (d *Detector) Detect(path string) (*MediaFile, error) {
	kind, ok := d.KindForPath(path)
	if !ok {
		return nil, fmt.Errorf("%w: extension %q not in allow-list", ErrUnknownFormat, filepath.Ext(path))
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat media file: %w", err)
	}

	format := sniffFormat(path)
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}

	return &MediaFile{
		Path:   path,
		Kind:   kind,
		Format: format,
		Size:   info.Size(),
	}, nil
}

// containerSignature describes one magic-number rule.
type containerSignature struct {
	format string
	offset int
	magic  []byte
}

var containerSignatures = []containerSignature{
	{format: "mp3", offset: 0, magic: []byte("ID3")},
	{format: "flac", offset: 0, magic: []byte("fLaC")},
	{format: "ogg", offset: 0, magic: []byte("OggS")},
	{format: "mp4", offset: 4, magic: []byte("ftyp")},
	{format: "mkv", offset: 0, magic: []byte{0x1A, 0x45, 0xDF, 0xA3}},
	{format: "flv", offset: 0, magic: []byte("FLV")},
	{format: "wmv", offset: 0, magic: []byte{0x30, 0x26, 0xB2, 0x75, 0x8E, 0x66, 0xCF, 0x11}},
}

// sniffFormat inspects the leading bytes of the file for a known container
// signature. Returns "" when nothing matches.
func sniffFormat(path string) string {
	file, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer file.Close()

	header := make([]byte, 16)
	n, err := io.ReadFull(file, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return ""
	}
	header = header[:n]

	for _, sig := range containerSignatures {
		end := sig.offset + len(sig.magic)
		if end <= len(header) && bytes.Equal(header[sig.offset:end], sig.magic) {
			return sig.format
		}
	}

	// RIFF containers distinguish WAVE from AVI by the form type.
	if len(header) >= 12 && bytes.Equal(header[:4], []byte("RIFF")) {
		switch string(header[8:12]) {
		case "WAVE":
			return "wav"
		case "AVI ":
			return "avi"
		}
	}

	// Bare MPEG audio frames have no ID3 header, just frame sync bits.
	if len(header) >= 2 && header[0] == 0xFF && header[1]&0xE0 == 0xE0 {
		return "mp3"
	}

	return ""
}
