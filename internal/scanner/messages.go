package scanner

import (
	"time"

	"github.com/lumipallolabs/storviz/internal/model"
)

// Message is one item on a scan stream: either a Batch or the Terminal
type Message interface {
	isMessage()
}

// Batch is a non-terminal group of newly completed nodes. Nodes are final
// and must not be modified.
type Batch struct {
	Nodes []*model.Node
	Progress
	DiskInfo *model.DiskInfo
}

func (Batch) isMessage() {}

// Terminal is the last message of every stream. Root holds the whole tree,
// or the consistent partial tree when the scan was cancelled.
type Terminal struct {
	Root *model.Node
	Progress
	Cancelled bool
	Errors    int64 // entries that could not be read and were counted as 0 bytes
	Elapsed   time.Duration
	DiskInfo  *model.DiskInfo
}

func (Terminal) isMessage() {}
