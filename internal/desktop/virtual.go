package desktop

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/virtdesk/vdesk/internal/winsys"
)

// Filter classifies a window as manageable (true) or ignored (false).
type Filter func(winsys.Window) bool

// Options configures a virtual desktop manager.
type Options struct {
	// StartupName names the initial desktop. Defaults to "main".
	StartupName string
	// Filter overrides the default manageability predicate. When nil,
	// normal application windows outside IgnoredClasses are manageable.
	Filter Filter
	// IgnoredClasses lists WM_CLASS values that are never managed.
	IgnoredClasses []string
	// IgnorePrivilegeCheck skips the construction-time privilege probe.
	IgnorePrivilegeCheck bool
	// RepositionTimeout bounds every show/hide batch. Defaults to 2s.
	RepositionTimeout time.Duration
	Logger            *slog.Logger
}

// VirtualDesktops composes the generic workspace engine with window
// discovery, filtering, cut/paste and unresponsive-window reporting. It
// is the Strategy of its own embedded Manager.
type VirtualDesktops struct {
	*Manager

	sys     winsys.System
	filter  Filter
	ignored map[string]struct{}

	clipboard *Clipboard

	// invalid caches windows classified as non-manageable or observed
	// destroyed, so the diff pass does not re-evaluate them. Guarded by
	// invalidMu: the monitor channel may observe it concurrently.
	invalidMu sync.Mutex
	invalid   map[winsys.WindowID]struct{}

	logger *slog.Logger
}

var _ Strategy = (*VirtualDesktops)(nil)

// New validates the runtime environment, builds the engine and creates
// the startup desktop pre-populated with every currently manageable
// window. Validation failures are configuration errors: the manager
// never becomes usable and the condition is never raised later.
func New(sys winsys.System, opts Options) (*VirtualDesktops, error) {
	if err := validateRuntime(opts.IgnorePrivilegeCheck); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	v := &VirtualDesktops{
		sys:       sys,
		filter:    opts.Filter,
		ignored:   make(map[string]struct{}, len(opts.IgnoredClasses)),
		clipboard: NewClipboard(),
		invalid:   make(map[winsys.WindowID]struct{}),
		logger:    logger,
	}
	for _, class := range opts.IgnoredClasses {
		v.ignored[class] = struct{}{}
	}
	v.Manager = newManager(sys, v, opts.RepositionTimeout)

	name := opts.StartupName
	if name == "" {
		name = "main"
	}
	if _, err := v.Manager.CreateWorkspace(name); err != nil {
		return nil, fmt.Errorf("failed to create startup desktop: %w", err)
	}
	return v, nil
}

// Clipboard returns the shared cut/paste clipboard.
func (v *VirtualDesktops) Clipboard() *Clipboard { return v.clipboard }

// manageable applies the configured filter policy.
func (v *VirtualDesktops) manageable(win winsys.Window) bool {
	if v.filter != nil {
		return v.filter(win)
	}
	if !win.Normal {
		return false
	}
	_, ignored := v.ignored[win.Class]
	return !ignored
}

func (v *VirtualDesktops) cacheInvalid(id winsys.WindowID) {
	v.invalidMu.Lock()
	v.invalid[id] = struct{}{}
	v.invalidMu.Unlock()
}

func (v *VirtualDesktops) isInvalid(id winsys.WindowID) bool {
	v.invalidMu.Lock()
	_, ok := v.invalid[id]
	v.invalidMu.Unlock()
	return ok
}

// InvalidCount returns the size of the invalid-window cache.
func (v *VirtualDesktops) InvalidCount() int {
	v.invalidMu.Lock()
	defer v.invalidMu.Unlock()
	return len(v.invalid)
}

// known reports whether a window is already tracked anywhere: some
// workspace, the clipboard, or the invalid cache.
func (v *VirtualDesktops) known(id winsys.WindowID) bool {
	if v.owner(id) != nil {
		return true
	}
	if v.clipboard.Contains(id) {
		return true
	}
	return v.isInvalid(id)
}

// PopulateWorkspace pre-populates only the startup desktop: every
// currently manageable window joins it, everything else enters the
// invalid cache. Later desktops start empty.
func (v *VirtualDesktops) PopulateWorkspace(ws *Workspace) error {
	if v.Current() != nil {
		return nil
	}

	windows, err := v.sys.ListWindows()
	if err != nil {
		return fmt.Errorf("failed to enumerate windows: %w", err)
	}
	for _, win := range windows {
		if v.manageable(win) {
			ws.add(NewSnapshot(win))
		} else {
			v.cacheInvalid(win.ID)
		}
	}
	return nil
}

// CompositeGroup returns snap plus any windows transient for it that
// live in the same workspace, in stacking order behind the leader.
func (v *VirtualDesktops) CompositeGroup(ws *Workspace, snap *Snapshot) []*Snapshot {
	group := []*Snapshot{snap}
	transients, err := v.sys.TransientsFor(snap.id)
	if err != nil {
		return group
	}
	for _, id := range transients {
		if member := ws.find(id); member != nil && member != snap {
			group = append(group, member)
		}
	}
	return group
}

// WorkspaceClosing returns the closing workspace's cut windows to
// visibility, restoring their prior visible flag, and hands them to the
// current workspace so they stay tracked. Unresponsive windows are
// collected and returned; the close completes regardless.
func (v *VirtualDesktops) WorkspaceClosing(ws *Workspace) []winsys.WindowID {
	entries := v.clipboard.takeFrom(ws)
	if len(entries) == 0 {
		return nil
	}

	var show []winsys.WindowID
	for _, e := range entries {
		if e.wasVisible {
			show = append(show, e.snap.id)
		}
	}

	result := v.sys.Reposition(winsys.RepositionRequest{
		Show:    show,
		Timeout: v.repositionTimeout,
	})

	cur := v.Current()
	for _, e := range entries {
		if cur != nil && cur != ws {
			cur.add(e.snap)
		}
	}
	restored := make([]*Snapshot, 0, len(entries))
	for _, e := range entries {
		restored = append(restored, e.snap)
	}
	applyVisibility(restored, result, true)

	return result.Unresponsive
}

// UpdateWindowAssociations is the single explicit re-entry point for
// reconciling tracked state with the live window population: newly
// discovered manageable windows join the current desktop, windows that
// became invalid leave it, surviving snapshots are refreshed and
// destroyed entries are pruned from the invalid cache. Invoking it twice
// with no intervening OS change is a no-op.
func (v *VirtualDesktops) UpdateWindowAssociations() error {
	if err := v.guard(); err != nil {
		return err
	}

	all, err := v.sys.ListWindows()
	if err != nil {
		return fmt.Errorf("failed to enumerate windows: %w", err)
	}
	live := make(map[winsys.WindowID]winsys.Window, len(all))
	for _, win := range all {
		live[win.ID] = win
	}

	v.pruneInvalid(live)
	v.pruneClipboard(live)

	cur := v.Current()
	if cur == nil {
		return nil
	}

	// Drop current-desktop windows that were destroyed or stopped
	// passing the filter; refresh the rest in place.
	for _, snap := range cur.Windows() {
		win, listed := live[snap.id]
		if !listed {
			if err := snap.Update(v.sys); err == nil && snap.Destroyed() {
				cur.remove(snap.id)
			}
			continue
		}
		if !v.manageable(win) {
			cur.remove(snap.id)
			v.cacheInvalid(snap.id)
			continue
		}
		snap.capture(win)
	}

	// Adopt newly observed windows in stacking order.
	for _, win := range all {
		if v.known(win.ID) {
			continue
		}
		if v.manageable(win) {
			cur.add(NewSnapshot(win))
		} else {
			v.cacheInvalid(win.ID)
		}
	}
	return nil
}

func (v *VirtualDesktops) pruneInvalid(live map[winsys.WindowID]winsys.Window) {
	v.invalidMu.Lock()
	defer v.invalidMu.Unlock()
	for id := range v.invalid {
		if _, ok := live[id]; ok {
			continue
		}
		alive, err := v.sys.WindowAlive(id)
		if err == nil && !alive {
			delete(v.invalid, id)
		}
	}
}

func (v *VirtualDesktops) pruneClipboard(live map[winsys.WindowID]winsys.Window) {
	for _, snap := range v.clipboard.Windows() {
		if _, ok := live[snap.id]; ok {
			continue
		}
		alive, err := v.sys.WindowAlive(snap.id)
		if err == nil && !alive {
			v.clipboard.drop(snap.id)
		}
	}
}

// CutWindow refreshes associations, then moves the window's composite
// group from the current desktop onto the clipboard, hiding it. Windows
// the manager does not track are silently ignored.
func (v *VirtualDesktops) CutWindow(id winsys.WindowID) error {
	if err := v.guard(); err != nil {
		return err
	}
	// Newly visible windows must be eligible for cutting.
	if err := v.UpdateWindowAssociations(); err != nil {
		return err
	}

	cur := v.Current()
	snap := cur.find(id)
	if snap == nil {
		return nil
	}

	group := v.CompositeGroup(cur, snap)
	result := v.sys.Reposition(winsys.RepositionRequest{
		Hide:    handles(group),
		Timeout: v.repositionTimeout,
	})

	hidden := make(map[winsys.WindowID]struct{}, len(result.Done))
	for _, done := range result.Done {
		hidden[done] = struct{}{}
	}

	for _, member := range group {
		wasVisible := member.visible
		cur.remove(member.id)

		cut := NewSnapshot(member.Info())
		if _, ok := hidden[cut.id]; ok {
			cut.visible = false
		}
		v.clipboard.Push(cut, cur, wasVisible)
	}

	v.report(cur, result.Unresponsive)
	return nil
}

// PasteWindows refreshes associations, then adds the entire clipboard
// contents to the current desktop and shows them. The clipboard is
// retained: the same cut window may be pasted onto further desktops.
func (v *VirtualDesktops) PasteWindows() error {
	if err := v.guard(); err != nil {
		return err
	}
	if err := v.UpdateWindowAssociations(); err != nil {
		return err
	}

	cur := v.Current()
	held := v.clipboard.Windows()
	if len(held) == 0 {
		return nil
	}

	pasted := make([]*Snapshot, 0, len(held))
	for _, snap := range held {
		if existing := cur.find(snap.id); existing != nil {
			pasted = append(pasted, existing)
			continue
		}
		added := NewSnapshot(snap.Info())
		cur.add(added)
		pasted = append(pasted, added)
	}

	result := v.sys.Reposition(winsys.RepositionRequest{
		Show:    handles(pasted),
		Timeout: v.repositionTimeout,
	})
	applyVisibility(pasted, result, true)

	v.report(cur, result.Unresponsive)
	return nil
}
