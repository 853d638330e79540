package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/custodia-labs/auditrag/internal/core/domain"
	"github.com/custodia-labs/auditrag/internal/core/ports/driven"
	"github.com/custodia-labs/auditrag/internal/logger"
)

// Ensure Source implements the interface.
var _ driven.DocumentSource = (*Source)(nil)

// DefaultMaxBytes is the largest report Load accepts.
const DefaultMaxBytes = 32 << 20

// Source reads reports from local files.
type Source struct {
	maxBytes int64
	now      func() time.Time
}

// Option configures a Source.
type Option func(*Source)

// WithMaxBytes overrides the size limit.
func WithMaxBytes(n int64) Option {
	return func(s *Source) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

// WithClock overrides the LoadedAt clock.
func WithClock(now func() time.Time) Option {
	return func(s *Source) {
		s.now = now
	}
}

// New creates a file source.
func New(opts ...Option) *Source {
	s := &Source{maxBytes: DefaultMaxBytes, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads and decodes the report at path.
func (s *Source) Load(ctx context.Context, path string) (*domain.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if path == "" {
		return nil, fmt.Errorf("%w: report path is empty", domain.ErrInvalidInput)
	}
	if err := checkSupported(path); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return nil, fmt.Errorf("stat report: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, path)
	}
	if info.Size() > s.maxBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit is %d", domain.ErrInvalidInput, path, info.Size(), s.maxBytes)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open report: %w", err)
	}
	defer f.Close()

	raw, err := io.ReadAll(io.LimitReader(f, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	if int64(len(raw)) > s.maxBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", domain.ErrInvalidInput, path, s.maxBytes)
	}

	fmtr := formatFor(path)
	content, title, err := fmtr.extract(raw)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if title == "" {
		title = titleFromPath(path)
	}

	uri := path
	if abs, err := filepath.Abs(path); err == nil {
		uri = abs
	}
	logger.Debug("loaded %s as %s (%d bytes, %d chars of text)", uri, fmtr.name(), len(raw), len([]rune(content)))

	return &domain.Report{
		URI:      uri,
		Title:    title,
		Content:  content,
		LoadedAt: s.now(),
	}, nil
}
