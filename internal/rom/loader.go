// Package rom loads cartridge images from plain files and compressed
// archives (ZIP, 7z, gzip, tar.gz, RAR), lists the images in a directory and
// persists cartridge save RAM.
package rom

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Magic bytes for format detection
var (
	magicZIP    = []byte{0x50, 0x4B, 0x03, 0x04}
	magicZIPEnd = []byte{0x50, 0x4B, 0x05, 0x06} // empty zip
	magic7z     = []byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}
	magicGzip   = []byte{0x1F, 0x8B}
	magicRAR    = []byte{0x52, 0x61, 0x72, 0x21} // "Rar!"
)

// MaxImageSize is the largest image Load accepts.
const MaxImageSize = 8 * 1024 * 1024

// ROMExtensions are the cartridge image extensions recognised by Load and Scan.
var ROMExtensions = []string{".gb", ".gbc"}

// ArchiveExtensions are the archive extensions Scan lists when archives are enabled.
var ArchiveExtensions = []string{".zip", ".7z", ".gz", ".tgz", ".rar"}

var (
	// ErrNoROMFile is returned when an archive holds no cartridge image.
	ErrNoROMFile = errors.New("no ROM file found in archive")

	// ErrUnsupportedFormat is returned for unrecognised files.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrFileTooLarge is returned when an image exceeds MaxImageSize.
	ErrFileTooLarge = errors.New("file exceeds maximum size limit")
)

// IoError reports a ROM image that could not be opened or was read short.
type IoError struct {
	Path string
	Op   string
	Err  error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IoError) Unwrap() error {
	return e.Err
}

type formatType int

const (
	formatUnknown formatType = iota
	formatRaw
	formatZIP
	format7z
	formatGzip
	formatRAR
)

// Image is a cartridge image owned by the harness for the lifetime of one
// loaded title.
type Image struct {
	Path string
	Name string // file name inside the archive, or the base name
	data []byte
}

// Size returns the image length, or 0 once released.
func (img *Image) Size() int {
	return len(img.data)
}

// Bytes returns the image buffer.
func (img *Image) Bytes() []byte {
	return img.data
}

// ByteAt returns the byte at addr, or 0xFF outside the image.
func (img *Image) ByteAt(addr uint32) uint8 {
	if int64(addr) >= int64(len(img.data)) {
		return 0xFF
	}
	return img.data[addr]
}

// Release drops the buffer. It reports false if it was already released.
func (img *Image) Release() bool {
	if img.data == nil {
		return false
	}
	img.data = nil
	return true
}

// Released reports whether Release has been called.
func (img *Image) Released() bool {
	return img.data == nil
}

// NewImage wraps data already in memory.
func NewImage(name string, data []byte) *Image {
	return &Image{Path: name, Name: name, data: data}
}

// Load reads a cartridge image from path. Archives are detected by magic
// bytes and the first entry with one of ROMExtensions is extracted. Every
// failure is reported as *IoError.
func Load(path string) (*Image, error) {
	data, name, err := load(path, ROMExtensions)
	if err != nil {
		var ioErr *IoError
		if errors.As(err, &ioErr) {
			return nil, err
		}
		return nil, &IoError{Path: path, Op: "load", Err: err}
	}
	log.Printf("[ROM] Loaded %s (%d bytes) from %s", name, len(data), path)
	return &Image{Path: path, Name: name, data: data}, nil
}

func load(path string, extensions []string) ([]byte, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", &IoError{Path: path, Op: "open", Err: err}
	}
	defer f.Close()

	header := make([]byte, 16)
	n, err := f.Read(header)
	if err != nil && err != io.EOF {
		return nil, "", &IoError{Path: path, Op: "read header", Err: err}
	}
	header = header[:n]

	format := detectFormat(header, path, extensions)

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, "", &IoError{Path: path, Op: "seek", Err: err}
	}

	switch format {
	case formatRaw:
		data, err := readWhole(f)
		if err != nil {
			return nil, "", &IoError{Path: path, Op: "read", Err: err}
		}
		return data, filepath.Base(path), nil
	case formatZIP:
		return extractFromZIP(path, extensions)
	case format7z:
		return extractFrom7z(path, extensions)
	case formatGzip:
		return extractFromGzip(path, extensions)
	case formatRAR:
		return extractFromRAR(path, extensions)
	default:
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// readWhole reads exactly the size the file reports, so a file that shrinks
// underneath us is a short read rather than a truncated image.
func readWhole(f *os.File) ([]byte, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := info.Size()
	if size > MaxImageSize {
		return nil, ErrFileTooLarge
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, err
	}
	return data, nil
}

func detectFormat(header []byte, path string, extensions []string) formatType {
	ext := strings.ToLower(filepath.Ext(path))

	if len(header) >= 4 {
		if bytes.HasPrefix(header, magicZIP) || bytes.HasPrefix(header, magicZIPEnd) {
			return formatZIP
		}
		if bytes.HasPrefix(header, magicRAR) {
			return formatRAR
		}
	}
	if len(header) >= 6 && bytes.HasPrefix(header, magic7z) {
		return format7z
	}
	if len(header) >= 2 && bytes.HasPrefix(header, magicGzip) {
		return formatGzip
	}

	switch ext {
	case ".zip":
		return formatZIP
	case ".7z":
		return format7z
	case ".gz", ".tgz":
		return formatGzip
	case ".rar":
		return formatRAR
	}

	if hasExtension(path, extensions) {
		return formatRaw
	}
	return formatUnknown
}

func hasExtension(name string, extensions []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range extensions {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

// limitedRead reads from r up to MaxImageSize bytes.
func limitedRead(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxImageSize {
		return nil, ErrFileTooLarge
	}
	return data, nil
}
