package xl

import (
	"io"
	"log/slog"
	"os"
)

// flushThreshold is the buffer size at which pending bytes go to disk.
const flushThreshold = 8192

// BufferedWriter is an append-only byte sink backed by a file. Writes are
// collected in memory and flushed once the buffer reaches flushThreshold.
// Tell and Seek flush first, so offsets always refer to the file.
//
// A writer whose file could not be opened stays usable: every call turns
// into a no-op and Err reports the open failure.
type BufferedWriter struct {
	path string
	fd   *os.File
	buf  []byte
	err  error
	log  *slog.Logger
}

// NewBufferedWriter creates (or truncates) path for writing.
func NewBufferedWriter(path string, log *slog.Logger) *BufferedWriter {
	if log == nil {
		log = slog.Default()
	}
	w := &BufferedWriter{
		path: path,
		buf:  make([]byte, 0, flushThreshold+1024),
		log:  log,
	}
	fd, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		w.fail("unable to open file for writing", err)
		return w
	}
	w.fd = fd
	return w
}

// Path returns the backing file name.
func (w *BufferedWriter) Path() string { return w.path }

// Err returns the first open, write or seek failure.
func (w *BufferedWriter) Err() error { return w.err }

func (w *BufferedWriter) Write(p []byte) (int, error) {
	if w.fd == nil {
		return len(p), nil
	}
	w.buf = append(w.buf, p...)
	if len(w.buf) >= flushThreshold {
		w.purge()
	}
	return len(p), nil
}

func (w *BufferedWriter) WriteString(s string) (int, error) {
	if w.fd == nil {
		return len(s), nil
	}
	w.buf = append(w.buf, s...)
	if len(w.buf) >= flushThreshold {
		w.purge()
	}
	return len(s), nil
}

// Tell returns the logical write offset, or -1 when there is no file.
func (w *BufferedWriter) Tell() int64 {
	if w.fd == nil {
		return -1
	}
	w.purge()
	pos, err := w.fd.Seek(0, io.SeekCurrent)
	if err != nil {
		w.fail("tell failed", err)
		return -1
	}
	return pos
}

// Seek repositions the file cursor for an in-place overwrite.
func (w *BufferedWriter) Seek(offset int64) error {
	if w.fd == nil {
		return w.err
	}
	w.purge()
	if _, err := w.fd.Seek(offset, io.SeekStart); err != nil {
		w.fail("seek failed", err)
		return err
	}
	return nil
}

// Close flushes and releases the file. It is safe to call more than once.
func (w *BufferedWriter) Close() error {
	if w.fd == nil {
		return w.err
	}
	w.purge()
	err := w.fd.Close()
	w.fd = nil
	if err != nil {
		w.fail("close failed", err)
	}
	return w.err
}

func (w *BufferedWriter) purge() {
	if w.fd == nil || len(w.buf) == 0 {
		return
	}
	if _, err := w.fd.Write(w.buf); err != nil {
		w.fail("write failed", err)
	}
	w.buf = w.buf[:0]
}

func (w *BufferedWriter) fail(msg string, err error) {
	if w.err != nil {
		return
	}
	w.err = err
	w.log.Error(msg, "file", w.path, "error", err)
}
