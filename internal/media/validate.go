package media

import (
	"errors"
	"fmt"
	"os"
)

// Validate performs the integrity checks required before a file may enter or
// leave the pipeline: the path must exist, be a regular non-empty file, be
// readable, and carry a recognized container signature.
func (d *Detector) Validate(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("file does not exist: %s", path)
		}
		return fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("path is not a file: %s", path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("file is empty: %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("file is not readable: %w", err)
	}
	_ = file.Close()

	if _, ok := d.KindForPath(path); !ok {
		return fmt.Errorf("%w: unsupported extension", ErrUnknownFormat)
	}
	if sniffFormat(path) == "" {
		return fmt.Errorf("%w: no recognized container signature", ErrUnknownFormat)
	}
	return nil
}
