package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/lumipallolabs/storviz/internal/model"
)

var (
	// ErrPathNotFound is returned when the scan root does not exist
	ErrPathNotFound = errors.New("scan root not found")
	// ErrPermissionDenied is returned when the scan root cannot be read
	ErrPermissionDenied = errors.New("scan root not readable")
)

// Defaults for Options
const (
	DefaultWorkers       = 8
	DefaultCheckEvery    = 256
	DefaultBatchSize     = 500
	DefaultFlushInterval = 100 * time.Millisecond
)

// Options configures a scan
type Options struct {
	// Workers is the number of goroutines reading directories in parallel
	Workers int
	// CheckEvery is how many entries of one directory may be processed
	// between cancellation checks
	CheckEvery int
	// OneFilesystem skips directories on a different device than the root
	OneFilesystem bool
	// Exclude holds doublestar patterns matched against slash-separated
	// paths relative to the root
	Exclude []string

	// BatchSize is the maximum number of nodes per progress batch; a batch
	// is flushed as soon as this many are pending
	BatchSize int
	// FlushInterval flushes pending nodes even when the batch is not full
	FlushInterval time.Duration
}

// DefaultOptions returns sensible defaults
func DefaultOptions() Options {
	return Options{
		Workers:       DefaultWorkers,
		CheckEvery:    DefaultCheckEvery,
		BatchSize:     DefaultBatchSize,
		FlushInterval: DefaultFlushInterval,
	}
}

func (o Options) withDefaults() Options {
	if o.Workers < 1 {
		o.Workers = DefaultWorkers
	}
	if o.CheckEvery < 1 {
		o.CheckEvery = DefaultCheckEvery
	}
	if o.BatchSize < 1 {
		o.BatchSize = DefaultBatchSize
	}
	if o.FlushInterval <= 0 {
		o.FlushInterval = DefaultFlushInterval
	}
	return o
}

// Canceller is polled by the walker between filesystem operations.
// session.Token implements it.
type Canceller interface {
	Cancelled() bool
}

// Progress reports cumulative scanning progress
type Progress struct {
	CurrentPath  string
	FilesScanned int64 // entries delivered so far, files and directories
	ScannedSize  int64 // bytes of non-directory entries delivered so far
}

// Stream validates root, then walks it on a separate goroutine and returns
// the channel carrying progress batches followed by exactly one Terminal.
// Root errors are returned here and no channel is produced.
func (w *Walker) Stream(root string, tok Canceller, disk *model.DiskInfo) (<-chan Message, error) {
	absRoot, info, err := statRoot(root)
	if err != nil {
		return nil, err
	}

	em := NewEmitter(w.opts.BatchSize, w.opts.FlushInterval, disk)
	go func() {
		res := w.walkFrom(absRoot, info, tok, em.Add)
		em.Finish(res)
	}()

	return em.Messages(), nil
}

// statRoot resolves root to an absolute path and makes sure it can be read.
// The root itself may be a symlink; it is followed.
func statRoot(root string) (string, fs.FileInfo, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", nil, fmt.Errorf("resolve %q: %w", root, err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return "", nil, classifyRootErr(absRoot, err)
	}

	if info.IsDir() {
		f, err := os.Open(absRoot)
		if err != nil {
			return "", nil, classifyRootErr(absRoot, err)
		}
		f.Close()
	}

	return absRoot, info, nil
}

func classifyRootErr(path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", ErrPathNotFound, path)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %s", ErrPermissionDenied, path)
	default:
		return fmt.Errorf("scan %s: %w", path, err)
	}
}
