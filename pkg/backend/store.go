package backend

import (
	"bytes"
	"context"
	"io"
	"math/rand"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/oklog/ulid"
	"github.com/pkg/errors"
	"github.com/thanos-io/objstore"
	"github.com/thanos-io/objstore/providers/filesystem"
	"github.com/thanos-io/thanos/pkg/runutil"
)

// Mode selects where written objects are kept.
type Mode string

const (
	MemoryMode Mode = "memory"
	FileMode   Mode = "file"
)

// ParseMode parses store mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case MemoryMode, FileMode:
		return Mode(s), nil
	}
	return "", errors.Errorf("unknown store mode %q", s)
}

// Store keeps objects written by backends for the duration of a run.
// File mode places them in a fresh temporary directory which is removed on Close.
type Store struct {
	logger log.Logger
	mode   Mode
	bkt    objstore.Bucket
	dir    string

	mtx     sync.Mutex
	entropy io.Reader
}

// NewStore creates store in given mode.
func NewStore(logger log.Logger, mode Mode) (*Store, error) {
	s := &Store{
		logger:  logger,
		mode:    mode,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}

	switch mode {
	case MemoryMode:
		s.bkt = objstore.NewInMemBucket()
	case FileMode:
		dir, err := os.MkdirTemp("", "colbench-")
		if err != nil {
			return nil, errors.Wrap(err, "create temporary dir")
		}
		bkt, err := filesystem.NewBucket(dir)
		if err != nil {
			_ = os.RemoveAll(dir)
			return nil, errors.Wrap(err, "create filesystem bucket")
		}
		s.bkt, s.dir = bkt, dir
	default:
		return nil, errors.Errorf("unknown store mode %q", mode)
	}

	level.Debug(logger).Log("msg", "store opened", "mode", mode, "dir", s.dir)
	return s, nil
}

func (s *Store) Mode() Mode { return s.mode }

// Dir returns the temporary directory of a file store or empty string.
func (s *Store) Dir() string { return s.dir }

func (s *Store) newName(prefix, ext string) string {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return path.Join(prefix, ulid.MustNew(ulid.Now(), s.entropy).String()+ext)
}

func (s *Store) uri(name string) string {
	if s.mode == FileMode {
		return filepath.Join(s.dir, filepath.FromSlash(name))
	}
	return "mem://" + name
}

// Put uploads data as a new object under prefix and returns its handle.
func (s *Store) Put(ctx context.Context, prefix, ext string, data []byte) (Handle, error) {
	name := s.newName(prefix, ext)
	if err := s.bkt.Upload(ctx, name, bytes.NewReader(data)); err != nil {
		return Handle{}, errors.Wrapf(err, "upload %s", name)
	}

	attrs, err := s.bkt.Attributes(ctx, name)
	if err != nil {
		return Handle{}, errors.Wrapf(err, "attributes of %s", name)
	}
	if attrs.Size != int64(len(data)) {
		return Handle{}, errors.Errorf("object %s has %d bytes after upload, expected %d", name, attrs.Size, len(data))
	}

	return Handle{
		Name:   name,
		URI:    s.uri(name),
		Size:   attrs.Size,
		Digest: xxhash.Sum64(data),
	}, nil
}

// ReaderAt gives random access to the object through ranged reads.
func (s *Store) ReaderAt(ctx context.Context, h Handle) io.ReaderAt {
	return &bucketReaderAt{ctx: ctx, logger: s.logger, bkt: s.bkt, name: h.Name, size: h.Size}
}

// Release deletes the object of h.
func (s *Store) Release(ctx context.Context, h Handle) error {
	if err := s.bkt.Delete(ctx, h.Name); err != nil {
		return errors.Wrapf(err, "delete %s", h.Name)
	}
	return nil
}

// Objects lists names of objects currently kept under prefix.
func (s *Store) Objects(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	err := s.bkt.Iter(ctx, prefix, func(name string) error {
		names = append(names, name)
		return nil
	})
	return names, errors.Wrapf(err, "iterate %q", prefix)
}

// Close releases the bucket and removes the temporary directory of a file store.
func (s *Store) Close() error {
	err := s.bkt.Close()
	if s.dir != "" {
		if rerr := os.RemoveAll(s.dir); rerr != nil && err == nil {
			err = errors.Wrapf(rerr, "remove %s", s.dir)
		}
	}
	return err
}

type bucketReaderAt struct {
	ctx    context.Context
	logger log.Logger
	bkt    objstore.BucketReader
	name   string
	size   int64
}

func (r *bucketReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off >= r.size {
		return 0, io.EOF
	}
	length := int64(len(p))
	if off+length > r.size {
		length = r.size - off
	}

	rc, err := r.bkt.GetRange(r.ctx, r.name, off, length)
	if err != nil {
		return 0, errors.Wrapf(err, "get range %d+%d of %s", off, length, r.name)
	}
	defer runutil.CloseWithLogOnErr(r.logger, rc, "close range reader of %s", r.name)

	n, err := io.ReadFull(rc, p[:length])
	if err != nil {
		return n, err
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
