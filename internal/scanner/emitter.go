package scanner

import (
	"sync"
	"time"

	"github.com/lumipallolabs/storviz/internal/model"
)

// pendingFactor bounds how many nodes may wait for the sender before Add
// blocks, as a multiple of the batch size
const pendingFactor = 4

// Emitter groups completed nodes into bounded batches and delivers them,
// followed by one Terminal, on a single channel.
//
// Add may be called from many goroutines. One sender goroutine cuts every
// batch and owns the cumulative counters, so batches arrive in order with
// non-decreasing totals and nothing can follow the Terminal.
type Emitter struct {
	out       chan Message
	batchSize int
	interval  time.Duration
	disk      *model.DiskInfo
	start     time.Time

	mu       sync.Mutex
	cond     *sync.Cond
	pending  []*model.Node
	finished bool

	kick     chan struct{}
	done     chan *Result
	once     sync.Once
	progress Progress // owned by the sender goroutine
}

// NewEmitter starts an emitter. disk is attached to every message.
func NewEmitter(batchSize int, interval time.Duration, disk *model.DiskInfo) *Emitter {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	if interval <= 0 {
		interval = DefaultFlushInterval
	}

	e := &Emitter{
		out:       make(chan Message, 16),
		batchSize: batchSize,
		interval:  interval,
		disk:      disk,
		start:     time.Now(),
		kick:      make(chan struct{}, 1),
		done:      make(chan *Result, 1),
	}
	e.cond = sync.NewCond(&e.mu)

	go e.run()
	return e
}

// Messages returns the stream. It is closed after the Terminal.
func (e *Emitter) Messages() <-chan Message {
	return e.out
}

// Add queues a completed node. It blocks while too many nodes are waiting
// for a slow consumer.
func (e *Emitter) Add(n *model.Node) {
	e.mu.Lock()
	for len(e.pending) >= e.batchSize*pendingFactor && !e.finished {
		e.cond.Wait()
	}
	if e.finished {
		e.mu.Unlock()
		return
	}
	e.pending = append(e.pending, n)
	full := len(e.pending) >= e.batchSize
	e.mu.Unlock()

	if full {
		select {
		case e.kick <- struct{}{}:
		default:
		}
	}
}

// Finish flushes what is pending and sends the Terminal for res. Only the
// first call has an effect.
func (e *Emitter) Finish(res *Result) {
	e.once.Do(func() {
		e.done <- res
	})
}

func (e *Emitter) run() {
	defer close(e.out)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-e.kick:
			e.flush(false)
		case <-ticker.C:
			e.flush(true)
		case res := <-e.done:
			e.mu.Lock()
			e.finished = true
			e.cond.Broadcast()
			e.mu.Unlock()

			e.flush(true)
			e.out <- e.terminal(res)
			return
		}
	}
}

// flush sends pending nodes in chunks of at most batchSize. Unless all is
// set, only full chunks are sent.
func (e *Emitter) flush(all bool) {
	for {
		chunk := e.cut(all)
		if chunk == nil {
			return
		}

		for _, n := range chunk {
			e.progress.FilesScanned++
			if !n.IsDir {
				e.progress.ScannedSize += n.Size
			}
		}
		e.progress.CurrentPath = chunk[len(chunk)-1].Path

		e.out <- Batch{
			Nodes:    chunk,
			Progress: e.progress,
			DiskInfo: e.disk,
		}
	}
}

func (e *Emitter) cut(all bool) []*model.Node {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.pending) == 0 || (!all && len(e.pending) < e.batchSize) {
		return nil
	}

	k := min(len(e.pending), e.batchSize)
	chunk := make([]*model.Node, k)
	copy(chunk, e.pending)

	rest := copy(e.pending, e.pending[k:])
	clear(e.pending[rest:])
	e.pending = e.pending[:rest]

	e.cond.Broadcast()
	return chunk
}

func (e *Emitter) terminal(res *Result) Terminal {
	t := Terminal{
		Progress: e.progress,
		Elapsed:  time.Since(e.start),
		DiskInfo: e.disk,
	}
	if res != nil {
		t.Root = res.Root
		t.Cancelled = !res.Complete
		t.Errors = res.Errors
		if res.Root != nil {
			t.CurrentPath = res.Root.Path
		}
	}
	return t
}
