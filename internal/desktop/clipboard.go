package desktop

import (
	"github.com/virtdesk/vdesk/internal/winsys"
)

// clipboardEntry holds one cut window together with the workspace it was
// cut from and its visibility at cut time.
type clipboardEntry struct {
	snap       *Snapshot
	origin     *Workspace
	wasVisible bool
}

// Clipboard is the single cross-workspace holding stack for cut windows.
// Entries are pushed last-in-first-out. Pasting does not drain the stack:
// the same cut window may be pasted onto multiple desktops.
type Clipboard struct {
	entries []clipboardEntry
}

// NewClipboard returns an empty clipboard.
func NewClipboard() *Clipboard {
	return &Clipboard{}
}

// Push records a cut window tagged with its originating workspace.
func (c *Clipboard) Push(snap *Snapshot, origin *Workspace, wasVisible bool) {
	c.entries = append(c.entries, clipboardEntry{
		snap:       snap,
		origin:     origin,
		wasVisible: wasVisible,
	})
}

// Len returns the number of held windows.
func (c *Clipboard) Len() int { return len(c.entries) }

// Contains reports whether a window handle is held by the clipboard.
func (c *Clipboard) Contains(id winsys.WindowID) bool {
	for _, e := range c.entries {
		if e.snap.id == id {
			return true
		}
	}
	return false
}

// Windows returns the held snapshots in push order (bottom of the stack
// first), which preserves relative stacking when the set is re-shown.
func (c *Clipboard) Windows() []*Snapshot {
	out := make([]*Snapshot, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.snap)
	}
	return out
}

// takeFrom removes and returns the entries originating from the given
// workspace, in push order.
func (c *Clipboard) takeFrom(origin *Workspace) []clipboardEntry {
	var taken []clipboardEntry
	var kept []clipboardEntry
	for _, e := range c.entries {
		if e.origin == origin {
			taken = append(taken, e)
		} else {
			kept = append(kept, e)
		}
	}
	c.entries = kept
	return taken
}

// drop removes a window from the clipboard, if present.
func (c *Clipboard) drop(id winsys.WindowID) {
	for i, e := range c.entries {
		if e.snap.id == id {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			return
		}
	}
}
