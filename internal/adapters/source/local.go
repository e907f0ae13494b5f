package source

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/kamal-hamza/stg-cli/internal/core/domain"
)

// ErrNotRegularFile is returned for directories, devices and other non-files
var ErrNotRegularFile = errors.New("not a regular file")

// LocalSource builds file handles from paths on the local filesystem
type LocalSource struct{}

// NewLocalSource creates a new local file source
func NewLocalSource() *LocalSource {
	return &LocalSource{}
}

// Open stats path and detects its content type.
// The handle's Name is the base name, which is what staging deduplicates on.
func (s *LocalSource) Open(ctx context.Context, path string) (domain.FileHandle, error) {
	if err := ctx.Err(); err != nil {
		return domain.FileHandle{}, err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return domain.FileHandle{}, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return domain.FileHandle{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return domain.FileHandle{}, fmt.Errorf("%s: %w", path, ErrNotRegularFile)
	}

	contentType, err := DetectContentType(absPath)
	if err != nil {
		return domain.FileHandle{}, err
	}

	return domain.FileHandle{
		Name:        filepath.Base(absPath),
		ContentType: contentType,
		Size:        info.Size(),
		Path:        absPath,
	}, nil
}

// DetectContentType returns the bare media type of the file at path.
// The extension wins when it is registered; otherwise the content is sniffed.
// Parameters such as charset are dropped.
func DetectContentType(path string) (string, error) {
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); byExt != "" {
		return bareMediaType(byExt), nil
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to detect content type of %s: %w", path, err)
	}
	return bareMediaType(mt.String()), nil
}

func bareMediaType(v string) string {
	mediaType, _, err := mime.ParseMediaType(v)
	if err != nil {
		return v
	}
	return mediaType
}
