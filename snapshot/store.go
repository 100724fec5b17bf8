package snapshot

import (
	"context"
	"encoding"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/hupe1980/bitdex/blobstore"
	"github.com/hupe1980/bitdex/internal/conv"
	"github.com/hupe1980/bitdex/resource"
	"golang.org/x/sync/errgroup"
)

// Extension is appended to index names to form blob names.
const Extension = ".bdx"

// Options configures a Store.
type Options struct {
	// Compression applied by Save. Default: ZSTD.
	Compression Compression

	// Prefix is prepended to every blob name, e.g. "tables/trades/".
	Prefix string

	// Resources bounds concurrent jobs, buffered bytes and IO throughput.
	// If nil, only the number of concurrent jobs is bounded, by GOMAXPROCS.
	Resources *resource.Controller

	// Logger receives save and load events. If nil, nothing is logged.
	Logger *slog.Logger
}

// Option configures a Store.
type Option func(*Options)

// WithCompression sets the compression used by Save.
func WithCompression(c Compression) Option {
	return func(o *Options) {
		o.Compression = c
	}
}

// WithPrefix sets the blob name prefix.
func WithPrefix(prefix string) Option {
	return func(o *Options) {
		o.Prefix = prefix
	}
}

// WithResources sets the resource controller.
func WithResources(rc *resource.Controller) Option {
	return func(o *Options) {
		o.Resources = rc
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// Store persists named indexes as snapshot frames in a BlobStore.
// It is safe for concurrent use.
type Store struct {
	blobs blobstore.BlobStore
	opts  Options
}

// Info describes a stored snapshot.
type Info struct {
	Name string
	// Size is the size of the frame in bytes.
	Size int64
	Header
}

// NewStore creates a Store on top of blobs.
func NewStore(blobs blobstore.BlobStore, opts ...Option) *Store {
	o := Options{Compression: ZSTD}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return &Store{blobs: blobs, opts: o}
}

func (s *Store) blobName(name string) (string, error) {
	blob := s.opts.Prefix + name + Extension
	if name == "" || strings.Contains(name, "/") {
		return "", fmt.Errorf("%w: %q", blobstore.ErrInvalidName, name)
	}
	if err := blobstore.ValidateName(blob); err != nil {
		return "", err
	}
	return blob, nil
}

// reservation is the number of bytes reserved from the memory budget for a
// blob of size n. It never exceeds the limit, so oversized blobs still get
// through once they hold the whole budget.
func (s *Store) reservation(n int) int64 {
	r := int64(n)
	if limit := s.opts.Resources.Config().MemoryLimitBytes; limit > 0 && r > limit {
		r = limit
	}
	return r
}

// Save encodes idx and stores it under name.
func (s *Store) Save(ctx context.Context, name string, idx encoding.BinaryMarshaler) error {
	err := s.save(ctx, name, idx)
	if err != nil {
		s.opts.Logger.ErrorContext(ctx, "snapshot save failed", "name", name, "error", err)
	}
	return err
}

func (s *Store) save(ctx context.Context, name string, idx encoding.BinaryMarshaler) error {
	blob, err := s.blobName(name)
	if err != nil {
		return err
	}

	start := time.Now()
	data, err := Encode(idx, s.opts.Compression)
	if err != nil {
		return fmt.Errorf("snapshot: encode %q: %w", name, err)
	}

	rc := s.opts.Resources
	reserved := s.reservation(len(data))
	if err := rc.AcquireMemory(ctx, reserved); err != nil {
		return err
	}
	defer rc.ReleaseMemory(reserved)

	if err := rc.AcquireIO(ctx, len(data)); err != nil {
		return err
	}
	if err := s.blobs.Put(ctx, blob, data); err != nil {
		return fmt.Errorf("snapshot: put %q: %w", blob, err)
	}

	h, _, _ := ReadHeader(data)
	s.opts.Logger.DebugContext(ctx, "snapshot saved",
		"name", name,
		"bytes", len(data),
		"compression", h.Compression.String(),
		"duration", time.Since(start),
	)
	return nil
}

// Load reads the snapshot stored under name into idx.
func (s *Store) Load(ctx context.Context, name string, idx encoding.BinaryUnmarshaler) error {
	err := s.load(ctx, name, idx)
	if err != nil {
		s.opts.Logger.ErrorContext(ctx, "snapshot load failed", "name", name, "error", err)
	}
	return err
}

func (s *Store) load(ctx context.Context, name string, idx encoding.BinaryUnmarshaler) error {
	blob, err := s.blobName(name)
	if err != nil {
		return err
	}

	start := time.Now()
	b, err := s.blobs.Open(ctx, blob)
	if err != nil {
		return fmt.Errorf("snapshot: open %q: %w", blob, err)
	}
	defer b.Close()

	size, err := conv.Int64ToInt(b.Size())
	if err != nil {
		return fmt.Errorf("snapshot: %q: %w", blob, err)
	}

	rc := s.opts.Resources
	reserved := s.reservation(size)
	if err := rc.AcquireMemory(ctx, reserved); err != nil {
		return err
	}
	defer rc.ReleaseMemory(reserved)

	if err := rc.AcquireIO(ctx, size); err != nil {
		return err
	}
	data, err := blobstore.ReadAll(ctx, b)
	if err != nil {
		return fmt.Errorf("snapshot: read %q: %w", blob, err)
	}

	h, _, err := ReadHeader(data)
	if err != nil {
		return fmt.Errorf("snapshot: %q: %w", name, err)
	}
	if err := Decode(data, idx); err != nil {
		return fmt.Errorf("snapshot: %q: %w", name, err)
	}

	s.opts.Logger.DebugContext(ctx, "snapshot loaded",
		"name", name,
		"bytes", len(data),
		"compression", h.Compression.String(),
		"duration", time.Since(start),
	)
	return nil
}

// SaveAll saves every index concurrently. The first failure cancels the
// remaining jobs and is returned.
func (s *Store) SaveAll(ctx context.Context, indexes map[string]encoding.BinaryMarshaler) error {
	g, gctx := s.group(ctx)
	for name, idx := range indexes {
		g.Go(func() error {
			return s.background(gctx, func() error {
				return s.Save(gctx, name, idx)
			})
		})
	}
	return g.Wait()
}

// LoadAll loads every named index concurrently. The first failure cancels
// the remaining jobs and is returned.
func (s *Store) LoadAll(ctx context.Context, indexes map[string]encoding.BinaryUnmarshaler) error {
	g, gctx := s.group(ctx)
	for name, idx := range indexes {
		g.Go(func() error {
			return s.background(gctx, func() error {
				return s.Load(gctx, name, idx)
			})
		})
	}
	return g.Wait()
}

func (s *Store) group(ctx context.Context) (*errgroup.Group, context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	limit := s.opts.Resources.Config().MaxBackgroundWorkers
	if limit <= 0 {
		limit = int64(runtime.GOMAXPROCS(0))
	}
	g.SetLimit(int(limit))
	return g, gctx
}

func (s *Store) background(ctx context.Context, fn func() error) error {
	rc := s.opts.Resources
	if err := rc.AcquireBackground(ctx); err != nil {
		return err
	}
	defer rc.ReleaseBackground()
	return fn()
}

// Stat reads only the frame header of the snapshot stored under name.
func (s *Store) Stat(ctx context.Context, name string) (Info, error) {
	blob, err := s.blobName(name)
	if err != nil {
		return Info{}, err
	}

	b, err := s.blobs.Open(ctx, blob)
	if err != nil {
		return Info{}, fmt.Errorf("snapshot: open %q: %w", blob, err)
	}
	defer b.Close()

	buf := make([]byte, min(int64(MaxHeaderSize), b.Size()))
	n, err := b.ReadAt(ctx, buf, 0)
	if err != nil && n < len(buf) {
		return Info{}, fmt.Errorf("snapshot: read %q: %w", blob, err)
	}

	h, _, err := ReadHeader(buf[:n])
	if err != nil {
		return Info{}, fmt.Errorf("snapshot: %q: %w", name, err)
	}
	return Info{Name: name, Size: b.Size(), Header: h}, nil
}

// List returns the names of all stored snapshots, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	blobs, err := s.blobs.List(ctx, s.opts.Prefix)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, blob := range blobs {
		name, ok := strings.CutSuffix(strings.TrimPrefix(blob, s.opts.Prefix), Extension)
		if !ok || name == "" || strings.Contains(name, "/") {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// Delete removes the snapshot stored under name. Deleting a missing
// snapshot is not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	blob, err := s.blobName(name)
	if err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, blob); err != nil && !errors.Is(err, blobstore.ErrNotFound) {
		return fmt.Errorf("snapshot: delete %q: %w", blob, err)
	}
	return nil
}
