package core

import (
	"time"

	"github.com/lumipallolabs/storviz/internal/compact"
	"github.com/lumipallolabs/storviz/internal/model"
	"github.com/lumipallolabs/storviz/internal/scanner"
)

// Payload is the wire form of one stream message. Exactly one payload per
// stream has IsComplete set, and only that one carries RootNode.
type Payload struct {
	SessionID    string          `json:"sessionId"`
	CompactNodes []*compact.Node `json:"compactNodes,omitempty"`
	TotalScanned int64           `json:"totalScanned"`
	TotalSize    int64           `json:"totalSize"`
	IsComplete   bool            `json:"isComplete"`
	Cancelled    bool            `json:"cancelled,omitempty"`
	// RootNode is the compact tree without paths. Terminal rebuilds them
	// from a root path, which the terminal payload carries in CurrentPath.
	RootNode     *compact.Node   `json:"rootNode,omitempty"`
	DiskInfo     *model.DiskInfo `json:"diskInfo,omitempty"`
	CurrentPath  string          `json:"currentPath,omitempty"`
	Errors       int64           `json:"errors,omitempty"`
	ElapsedMs    int64           `json:"elapsedMs,omitempty"`
}

// NewPayload converts a stream message for sessionID
func NewPayload(sessionID string, msg scanner.Message) Payload {
	p := Payload{SessionID: sessionID}

	switch m := msg.(type) {
	case scanner.Batch:
		p.CompactNodes = compact.ShallowAll(m.Nodes)
		p.TotalScanned = m.FilesScanned
		p.TotalSize = m.ScannedSize
		p.CurrentPath = m.CurrentPath
		p.DiskInfo = m.DiskInfo
	case scanner.Terminal:
		p.IsComplete = true
		p.Cancelled = m.Cancelled
		p.TotalScanned = m.FilesScanned
		p.TotalSize = m.ScannedSize
		p.CurrentPath = m.CurrentPath
		p.DiskInfo = m.DiskInfo
		p.Errors = m.Errors
		p.ElapsedMs = m.Elapsed.Milliseconds()
		if m.Root != nil {
			p.RootNode = compact.Encode(m.Root)
		}
	}

	return p
}

// Terminal rebuilds the terminal message from a complete payload, for
// reading saved streams. Node paths are rooted at rootPath.
func (p Payload) Terminal(rootPath string) (scanner.Terminal, bool) {
	if !p.IsComplete {
		return scanner.Terminal{}, false
	}

	t := scanner.Terminal{
		Progress: scanner.Progress{
			CurrentPath:  p.CurrentPath,
			FilesScanned: p.TotalScanned,
			ScannedSize:  p.TotalSize,
		},
		Cancelled: p.Cancelled,
		Errors:    p.Errors,
		Elapsed:   time.Duration(p.ElapsedMs) * time.Millisecond,
		DiskInfo:  p.DiskInfo,
	}
	if p.RootNode != nil {
		t.Root = compact.Decode(p.RootNode, rootPath)
	}
	return t, true
}
