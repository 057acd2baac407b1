package pipeline

import (
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"segmentation-augmentor/internal/logger"
)

// Saver encodes images by file extension and writes them atomically.
type Saver struct {
	jpegQuality int
	logger      logger.Logger
}

func NewSaver(jpegQuality int, log logger.Logger) *Saver {
	if log == nil {
		log = logger.Nop()
	}
	return &Saver{jpegQuality: jpegQuality, logger: log}
}

// Save writes img to path through a temporary file in the same directory,
// renaming it into place only once encoding succeeded. It returns the number
// of bytes written. All failures are *OutputWriteError.
func (s *Saver) Save(path string, img image.Image) (int64, error) {
	format, err := imaging.FormatFromFilename(path)
	if err != nil {
		return 0, &OutputWriteError{Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return 0, &OutputWriteError{Path: path, Err: err}
	}
	tmpName := tmp.Name()
	cleanup := func(cause error) (int64, error) {
		tmp.Close()
		os.Remove(tmpName)
		return 0, &OutputWriteError{Path: path, Err: cause}
	}

	counter := &countingWriter{w: tmp}
	if err := imaging.Encode(counter, img, format, imaging.JPEGQuality(s.jpegQuality)); err != nil {
		return cleanup(errors.Wrapf(err, "encoding %s", format))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return 0, &OutputWriteError{Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return 0, &OutputWriteError{Path: path, Err: err}
	}

	s.logger.Debug("Saver", "file written", map[string]interface{}{
		"path":   path,
		"format": format.String(),
		"bytes":  counter.n,
	})
	return counter.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
