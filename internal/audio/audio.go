package audio

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/crypto/blake2b"
)

var (
	// ErrNotFound is returned when the audio file does not exist.
	ErrNotFound = errors.New("audio file not found")

	// ErrNotRegularFile is returned for directories and special files.
	ErrNotRegularFile = errors.New("audio path is not a regular file")

	// ErrEmptyFile is returned for zero-length files.
	ErrEmptyFile = errors.New("audio file is empty")

	// ErrUnsupportedFormat is returned for extensions the service does not accept.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrTooLarge is returned when the file exceeds the upload limit.
	ErrTooLarge = errors.New("audio file too large")
)

// contentTypes maps accepted extensions to the MIME type sent with the upload.
// mp3, wav, m4a and ogg were accepted by the first upload form; the rest are
// containers the service also decodes.
var contentTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".m4a":  "audio/mp4",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
	".webm": "audio/webm",
	".mp4":  "audio/mp4",
}

// SupportedExtensions returns the accepted file extensions in sorted order.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(contentTypes))
	for ext := range contentTypes {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

// IsSupported reports whether the file extension of path is accepted.
// The comparison is case-insensitive.
func IsSupported(path string) bool {
	_, ok := contentTypes[strings.ToLower(filepath.Ext(path))]
	return ok
}

// ContentType returns the MIME type for path, or application/octet-stream
// for unknown extensions.
func ContentType(path string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// File describes a validated recording.
type File struct {
	// Path is the path as given by the user.
	Path string
	// Name is the base name sent as the upload file name.
	Name string
	// Size is the file size in bytes.
	Size int64
	// ContentType is the MIME type derived from the extension.
	ContentType string
}

// Validate checks that path names a non-empty, regular audio file with an
// accepted extension and at most maxSize bytes. A maxSize of zero or less
// disables the size check.
func Validate(path string, maxSize int64) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotRegularFile, path)
	}
	if !IsSupported(path) {
		return nil, fmt.Errorf("%w: %q (accepted: %s)", ErrUnsupportedFormat,
			filepath.Ext(path), strings.Join(SupportedExtensions(), ", "))
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}
	if maxSize > 0 && info.Size() > maxSize {
		return nil, fmt.Errorf("%w: %s is %d bytes (limit %d)", ErrTooLarge, path, info.Size(), maxSize)
	}

	return &File{
		Path:        path,
		Name:        filepath.Base(path),
		Size:        info.Size(),
		ContentType: ContentType(path),
	}, nil
}

// Fingerprint returns the hex-encoded BLAKE2b-256 digest of r.
func Fingerprint(r io.Reader) (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("failed to hash audio: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// FingerprintFile returns the BLAKE2b-256 digest of the file at path.
func FingerprintFile(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // path was validated by the caller
	if err != nil {
		return "", err
	}
	defer f.Close()
	return Fingerprint(f)
}
