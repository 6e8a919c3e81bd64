package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/semaphore"

	"github.com/lumipallolabs/storviz/internal/logging"
	"github.com/lumipallolabs/storviz/internal/model"
)

// readDir lists a directory; tests replace it to inject read failures
var readDir = os.ReadDir

// Walker builds a size-annotated tree of a directory subtree
type Walker struct {
	opts Options
}

// NewWalker creates a new parallel filesystem walker
func NewWalker(opts Options) (*Walker, error) {
	opts = opts.withDefaults()
	for _, p := range opts.Exclude {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid exclude pattern %q", p)
		}
	}
	return &Walker{opts: opts}, nil
}

// Result is the outcome of a walk
type Result struct {
	Root     *model.Node
	Complete bool  // false when the walk stopped on cancellation
	Errors   int64 // unreadable entries, counted as 0 bytes
}

// Walk scans root synchronously. onEntry receives every non-root node once
// it is final: files immediately, directories after all their children.
// It may be called from several goroutines at once. Only errors on the
// root itself are returned.
func (w *Walker) Walk(root string, tok Canceller, onEntry func(*model.Node)) (*Result, error) {
	absRoot, info, err := statRoot(root)
	if err != nil {
		return nil, err
	}
	return w.walkFrom(absRoot, info, tok, onEntry), nil
}

// walk is the state of one walk
type walk struct {
	opts    Options
	root    string
	rootDev uint64
	tok     Canceller
	onEntry func(*model.Node)
	sem     *semaphore.Weighted

	errors  atomic.Int64
	stopped atomic.Bool
}

func (w *Walker) walkFrom(absRoot string, info fs.FileInfo, tok Canceller, onEntry func(*model.Node)) *Result {
	if onEntry == nil {
		onEntry = func(*model.Node) {}
	}

	name := filepath.Base(absRoot)
	rootNode := &model.Node{
		Path:  absRoot,
		Name:  name,
		IsDir: info.IsDir(),
	}

	// A regular file as root is a single leaf
	if !info.IsDir() {
		rootNode.Size = info.Size()
		return &Result{Root: rootNode, Complete: true}
	}

	wk := &walk{
		opts:    w.opts,
		root:    absRoot,
		rootDev: deviceID(info),
		tok:     tok,
		onEntry: onEntry,
		sem:     semaphore.NewWeighted(int64(w.opts.Workers - 1)),
	}

	logging.Scanner.Debug().Str("root", absRoot).Int("workers", w.opts.Workers).Msg("walk started")

	wk.dir(rootNode)

	res := &Result{
		Root:     rootNode,
		Complete: !wk.stopped.Load(),
		Errors:   wk.errors.Load(),
	}

	logging.Scanner.Debug().
		Str("root", absRoot).
		Int64("size", rootNode.Size).
		Bool("complete", res.Complete).
		Int64("errors", res.Errors).
		Msg("walk finished")

	return res
}

// cancelled polls the token and remembers that the walk was cut short
func (wk *walk) cancelled() bool {
	if wk.stopped.Load() {
		return true
	}
	if wk.tok != nil && wk.tok.Cancelled() {
		wk.stopped.Store(true)
		return true
	}
	return false
}

// dir fills in node's children and size. It returns false if the walk was
// cancelled before the directory was read, in which case node must be
// dropped by the caller.
func (wk *walk) dir(node *model.Node) bool {
	if wk.cancelled() {
		return false
	}

	entries, err := readDir(node.Path)
	if err != nil {
		// Keep whatever was read before the error
		wk.errors.Add(1)
		logging.Scanner.Debug().Err(err).Str("path", node.Path).Int("partial", len(entries)).Msg("read dir")
		if len(entries) == 0 {
			node.Size = 0
			return true
		}
	}

	// Slots keep ReadDir order regardless of which goroutine finishes first
	slots := make([]*model.Node, len(entries))
	var wg sync.WaitGroup

	for i, e := range entries {
		if i > 0 && i%wk.opts.CheckEvery == 0 && wk.cancelled() {
			break
		}

		path := filepath.Join(node.Path, e.Name())
		if wk.excluded(path) {
			continue
		}

		if !e.IsDir() {
			leaf := wk.leaf(path, e)
			slots[i] = leaf
			wk.onEntry(leaf)
			continue
		}

		if wk.opts.OneFilesystem && wk.otherDevice(e) {
			logging.Scanner.Debug().Str("path", path).Msg("skipping mount point")
			continue
		}

		child := &model.Node{
			Path:  path,
			Name:  e.Name(),
			IsDir: true,
		}

		if wk.sem.TryAcquire(1) {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				defer wk.sem.Release(1)
				if wk.dir(child) {
					slots[i] = child
					wk.onEntry(child)
				}
			}(i)
			continue
		}

		if wk.dir(child) {
			slots[i] = child
			wk.onEntry(child)
		}
	}

	wg.Wait()

	children := make([]*model.Node, 0, len(slots))
	for _, c := range slots {
		if c != nil {
			children = append(children, c)
		}
	}
	node.Children = children
	node.SumChildren()
	return true
}

// leaf builds a node for a file, symlink or other non-directory entry.
// Symlinks are reported with their own size and never followed.
func (wk *walk) leaf(path string, e fs.DirEntry) *model.Node {
	n := &model.Node{
		Path: path,
		Name: e.Name(),
	}

	info, err := e.Info()
	if err != nil {
		wk.errors.Add(1)
		logging.Scanner.Debug().Err(err).Str("path", path).Msg("stat")
		return n
	}

	n.Size = info.Size()
	return n
}

func (wk *walk) excluded(path string) bool {
	if len(wk.opts.Exclude) == 0 {
		return false
	}

	rel, err := filepath.Rel(wk.root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)

	for _, p := range wk.opts.Exclude {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

func (wk *walk) otherDevice(e fs.DirEntry) bool {
	info, err := e.Info()
	if err != nil {
		return false
	}
	dev := deviceID(info)
	return dev != 0 && wk.rootDev != 0 && dev != wk.rootDev
}
