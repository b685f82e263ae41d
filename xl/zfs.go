package xl

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Storage receives the package parts. Small parts arrive as blobs,
// worksheets are copied from their temp files.
type Storage interface {
	WriteBlob(path string, blob []byte) error
	WriteFile(path string, src string) error
}

// DirStorage lays the parts out as an unzipped package, which is handy for
// inspecting the generated XML.
type DirStorage struct {
	Dir string // Root directory path
}

// ZipStorage writes the parts into a zip archive, producing an .xlsx.
type ZipStorage struct {
	z *zip.Writer
}

func NewDirStorage(dir string) *DirStorage {
	return &DirStorage{
		Dir: dir,
	}
}

func (ds *DirStorage) create(path string) (*os.File, error) {
	path = strings.TrimPrefix(path, "/")
	fn := filepath.Join(ds.Dir, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(fn), 0o777); err != nil {
		return nil, err
	}
	return os.Create(fn)
}

// WriteBlob writes a part, creating parent directories as needed.
func (ds *DirStorage) WriteBlob(path string, blob []byte) error {
	f, err := ds.create(path)
	if err != nil {
		return err
	}
	_, err = f.Write(blob)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// WriteFile copies src into the part at path.
func (ds *DirStorage) WriteFile(path string, src string) error {
	f, err := ds.create(path)
	if err != nil {
		return err
	}
	err = copyFrom(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// NewZipStorage creates a zip storage over out. Close must be called once
// all parts are written.
func NewZipStorage(out io.Writer) *ZipStorage {
	return &ZipStorage{z: zip.NewWriter(out)}
}

func (zs *ZipStorage) WriteBlob(path string, blob []byte) error {
	path = strings.TrimPrefix(path, "/")
	f, err := zs.z.Create(path)
	if err != nil {
		return err
	}
	_, err = f.Write(blob)
	return err
}

// WriteFile streams src into a new archive entry.
func (zs *ZipStorage) WriteFile(path string, src string) error {
	path = strings.TrimPrefix(path, "/")
	f, err := zs.z.Create(path)
	if err != nil {
		return err
	}
	return copyFrom(f, src)
}

// Close writes the central directory. Without it the archive is unreadable.
func (zs *ZipStorage) Close() error {
	return zs.z.Close()
}

func copyFrom(dst io.Writer, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	_, err = io.Copy(dst, in)
	return err
}
