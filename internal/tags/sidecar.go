package tags

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// SidecarCodec stores tags in a JSON sidecar file next to the media file.
// It is the registry fallback for formats without a native codec, which keeps
// tag writes lossless without linking a codec library for every container.
type SidecarCodec struct{}

const sidecarSuffix = ".tags.json"

func (SidecarCodec) sidecarPath(path string) string {
	return path + sidecarSuffix
}

// Read loads tags from the sidecar. A missing sidecar yields empty tags.
func (c SidecarCodec) Read(path string) (RawTags, error) {
	data, err := os.ReadFile(c.sidecarPath(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return RawTags{}, nil
		}
		return nil, fmt.Errorf("read sidecar: %w", err)
	}
	var raw RawTags
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode sidecar: %v", ErrCorruptFile, err)
	}
	if raw == nil {
		raw = RawTags{}
	}
	return raw, nil
}

// Write persists tags to the sidecar.
func (c SidecarCodec) Write(path string, raw RawTags) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteDenied, err)
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("encode sidecar: %w", err)
	}
	if err := os.WriteFile(c.sidecarPath(path), data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteDenied, err)
	}
	return nil
}
