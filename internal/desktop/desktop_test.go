package desktop

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/virtdesk/vdesk/internal/winsys"
)

// fakeSystem is an in-memory winsys.System. Windows are added and
// destroyed by the test; Reposition flips visibility except for windows
// marked unresponsive.
type fakeSystem struct {
	mu           sync.Mutex
	windows      map[winsys.WindowID]winsys.Window
	order        []winsys.WindowID
	transients   map[winsys.WindowID][]winsys.WindowID
	unresponsive map[winsys.WindowID]bool
}

func newFakeSystem() *fakeSystem {
	return &fakeSystem{
		windows:      make(map[winsys.WindowID]winsys.Window),
		transients:   make(map[winsys.WindowID][]winsys.WindowID),
		unresponsive: make(map[winsys.WindowID]bool),
	}
}

func (f *fakeSystem) addWindow(id winsys.WindowID, pid int, class string, normal bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.windows[id] = winsys.Window{
		ID:      id,
		PID:     pid,
		Class:   class,
		Title:   fmt.Sprintf("%s-%d", class, id),
		Visible: true,
		Normal:  normal,
	}
	f.order = append(f.order, id)
}

func (f *fakeSystem) destroyWindow(id winsys.WindowID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.windows, id)
	for i, existing := range f.order {
		if existing == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
}

func (f *fakeSystem) ListWindows() ([]winsys.Window, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]winsys.Window, 0, len(f.order))
	for i, id := range f.order {
		win := f.windows[id]
		win.StackPos = i
		out = append(out, win)
	}
	return out, nil
}

func (f *fakeSystem) WindowAlive(id winsys.WindowID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.windows[id]
	return ok, nil
}

func (f *fakeSystem) WindowInfo(id winsys.WindowID) (winsys.Window, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	win, ok := f.windows[id]
	if !ok {
		return winsys.Window{}, fmt.Errorf("no window %d", id)
	}
	return win, nil
}

func (f *fakeSystem) TransientsFor(id winsys.WindowID) ([]winsys.WindowID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.transients[id], nil
}

func (f *fakeSystem) ProcessPath(pid int) (string, error) {
	return fmt.Sprintf("/usr/bin/app-%d", pid), nil
}

func (f *fakeSystem) Reposition(req winsys.RepositionRequest) winsys.RepositionResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result winsys.RepositionResult
	apply := func(id winsys.WindowID, visible bool) {
		if f.unresponsive[id] {
			result.Unresponsive = append(result.Unresponsive, id)
			return
		}
		if win, ok := f.windows[id]; ok {
			win.Visible = visible
			f.windows[id] = win
		}
		result.Done = append(result.Done, id)
	}
	for _, id := range req.Hide {
		apply(id, false)
	}
	for _, id := range req.Show {
		apply(id, true)
	}
	return result
}

func (f *fakeSystem) visible(id winsys.WindowID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.windows[id].Visible
}

func newTestDesktops(t *testing.T, sys *fakeSystem) *VirtualDesktops {
	t.Helper()
	v, err := New(sys, Options{
		IgnorePrivilegeCheck: true,
		IgnoredClasses:       []string{"ignored"},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return v
}

func workspaceIDs(ws *Workspace) []winsys.WindowID {
	snaps := ws.Windows()
	out := make([]winsys.WindowID, len(snaps))
	for i, snap := range snaps {
		out[i] = snap.ID()
	}
	return out
}

func TestStartupPopulation(t *testing.T) {
	sys := newFakeSystem()
	sys.addWindow(1, 100, "editor", true)
	sys.addWindow(2, 101, "dock", false)
	sys.addWindow(3, 102, "ignored", true)
	sys.addWindow(4, 103, "browser", true)

	v := newTestDesktops(t, sys)

	cur := v.Current()
	if cur == nil {
		t.Fatal("no current desktop after construction")
	}
	if cur.Name() != "main" {
		t.Errorf("startup desktop name = %q, want main", cur.Name())
	}
	got := workspaceIDs(cur)
	want := []winsys.WindowID{1, 4}
	if len(got) != len(want) {
		t.Fatalf("startup desktop windows = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("startup desktop windows = %v, want %v", got, want)
		}
	}
	if v.InvalidCount() != 2 {
		t.Errorf("invalid cache size = %d, want 2", v.InvalidCount())
	}
}

func TestLaterDesktopsStartEmpty(t *testing.T) {
	sys := newFakeSystem()
	sys.addWindow(1, 100, "editor", true)

	v := newTestDesktops(t, sys)
	ws, err := v.CreateWorkspace("work")
	if err != nil {
		t.Fatalf("CreateWorkspace failed: %v", err)
	}
	if n := len(ws.Windows()); n != 0 {
		t.Errorf("new desktop has %d windows, want 0", n)
	}
	if v.Current().Name() != "main" {
		t.Errorf("current desktop changed to %q on create", v.Current().Name())
	}
}

func TestSwitchRoundTrip(t *testing.T) {
	sys := newFakeSystem()
	sys.addWindow(1, 100, "editor", true)
	sys.addWindow(2, 101, "browser", true)

	v := newTestDesktops(t, sys)
	main := v.Current()
	work, err := v.CreateWorkspace("work")
	if err != nil {
		t.Fatalf("CreateWorkspace failed: %v", err)
	}

	if err := v.SwitchTo(work); err != nil {
		t.Fatalf("SwitchTo(work) failed: %v", err)
	}
	if v.Current() != work {
		t.Fatal("current desktop did not change")
	}
	if sys.visible(1) || sys.visible(2) {
		t.Error("main's windows still visible after switching away")
	}
	if main.Visible() {
		t.Error("main still flagged visible")
	}

	if err := v.SwitchTo(main); err != nil {
		t.Fatalf("SwitchTo(main) failed: %v", err)
	}
	if !sys.visible(1) || !sys.visible(2) {
		t.Error("main's windows not restored after switching back")
	}
	got := workspaceIDs(main)
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("main membership after round trip = %v, want [1 2]", got)
	}
}

func TestSwitchToCurrentIsNoop(t *testing.T) {
	sys := newFakeSystem()
	sys.addWindow(1, 100, "editor", true)

	v := newTestDesktops(t, sys)
	if err := v.SwitchTo(v.Current()); err != nil {
		t.Fatalf("SwitchTo(current) failed: %v", err)
	}
	if !sys.visible(1) {
		t.Error("window hidden by a self-switch")
	}
}

func TestSwitchMovesCompositeGroup(t *testing.T) {
	sys := newFakeSystem()
	sys.addWindow(1, 100, "editor", true)
	sys.addWindow(2, 100, "editor", true) // tool window of 1
	sys.transients[1] = []winsys.WindowID{2}

	v := newTestDesktops(t, sys)
	work, _ := v.CreateWorkspace("work")

	if err := v.SwitchTo(work); err != nil {
		t.Fatalf("SwitchTo failed: %v", err)
	}
	if sys.visible(1) || sys.visible(2) {
		t.Error("composite group not hidden together")
	}
}

func TestUpdateWindowAssociationsIdempotent(t *testing.T) {
	sys := newFakeSystem()
	sys.addWindow(1, 100, "editor", true)
	sys.addWindow(2, 101, "dock", false)

	v := newTestDesktops(t, sys)
	if err := v.UpdateWindowAssociations(); err != nil {
		t.Fatalf("first update failed: %v", err)
	}
	before := workspaceIDs(v.Current())
	invalidBefore := v.InvalidCount()

	if err := v.UpdateWindowAssociations(); err != nil {
		t.Fatalf("second update failed: %v", err)
	}
	after := workspaceIDs(v.Current())
	if len(before) != len(after) {
		t.Fatalf("membership changed with no OS change: %v -> %v", before, after)
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("membership changed with no OS change: %v -> %v", before, after)
		}
	}
	if v.InvalidCount() != invalidBefore {
		t.Errorf("invalid cache changed with no OS change: %d -> %d", invalidBefore, v.InvalidCount())
	}
}

func TestUpdateAdoptsNewWindows(t *testing.T) {
	sys := newFakeSystem()
	sys.addWindow(1, 100, "editor", true)

	v := newTestDesktops(t, sys)
	sys.addWindow(2, 101, "browser", true)
	sys.addWindow(3, 102, "dock", false)

	if err := v.UpdateWindowAssociations(); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if !v.Current().Contains(2) {
		t.Error("new manageable window not adopted by current desktop")
	}
	if v.Current().Contains(3) {
		t.Error("non-manageable window adopted")
	}
	if v.InvalidCount() != 1 {
		t.Errorf("invalid cache size = %d, want 1", v.InvalidCount())
	}
}

func TestUpdateDropsDestroyedWindows(t *testing.T) {
	sys := newFakeSystem()
	sys.addWindow(1, 100, "editor", true)
	sys.addWindow(2, 101, "browser", true)

	v := newTestDesktops(t, sys)
	sys.destroyWindow(1)

	if err := v.UpdateWindowAssociations(); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if v.Current().Contains(1) {
		t.Error("destroyed window still tracked")
	}
	if !v.Current().Contains(2) {
		t.Error("surviving window dropped")
	}
}

func TestInvalidCachePruned(t *testing.T) {
	sys := newFakeSystem()
	sys.addWindow(1, 100, "editor", true)
	sys.addWindow(2, 101, "dock", false)

	v := newTestDesktops(t, sys)
	if v.InvalidCount() != 1 {
		t.Fatalf("invalid cache size = %d, want 1", v.InvalidCount())
	}

	sys.destroyWindow(2)
	if err := v.UpdateWindowAssociations(); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if v.InvalidCount() != 0 {
		t.Errorf("destroyed window not pruned from invalid cache, size = %d", v.InvalidCount())
	}
}

func TestCustomFilter(t *testing.T) {
	sys := newFakeSystem()
	sys.addWindow(1, 100, "editor", true)
	sys.addWindow(2, 101, "browser", true)

	v, err := New(sys, Options{
		IgnorePrivilegeCheck: true,
		Filter: func(win winsys.Window) bool {
			return win.Class == "editor"
		},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if !v.Current().Contains(1) || v.Current().Contains(2) {
		t.Errorf("filter not applied: %v", workspaceIDs(v.Current()))
	}
}

func TestCutThenPasteRetainsClipboard(t *testing.T) {
	sys := newFakeSystem()
	sys.addWindow(1, 100, "editor", true)
	sys.addWindow(2, 101, "browser", true)

	v := newTestDesktops(t, sys)
	if err := v.CutWindow(1); err != nil {
		t.Fatalf("CutWindow failed: %v", err)
	}

	if v.Current().Contains(1) {
		t.Error("cut window still on desktop")
	}
	if sys.visible(1) {
		t.Error("cut window still visible")
	}
	if v.Clipboard().Len() != 1 {
		t.Fatalf("clipboard len = %d, want 1", v.Clipboard().Len())
	}

	if err := v.PasteWindows(); err != nil {
		t.Fatalf("PasteWindows failed: %v", err)
	}
	if !v.Current().Contains(1) {
		t.Error("pasted window not on desktop")
	}
	if !sys.visible(1) {
		t.Error("pasted window not shown")
	}

	// Pasting must not drain the clipboard.
	if v.Clipboard().Len() != 1 {
		t.Errorf("clipboard len after paste = %d, want 1", v.Clipboard().Len())
	}
	if !v.Clipboard().Contains(1) {
		t.Error("clipboard no longer holds the pasted window")
	}
}

func TestPasteOntoSecondDesktop(t *testing.T) {
	sys := newFakeSystem()
	sys.addWindow(1, 100, "editor", true)

	v := newTestDesktops(t, sys)
	work, _ := v.CreateWorkspace("work")

	if err := v.CutWindow(1); err != nil {
		t.Fatalf("CutWindow failed: %v", err)
	}
	if err := v.SwitchTo(work); err != nil {
		t.Fatalf("SwitchTo failed: %v", err)
	}
	if err := v.PasteWindows(); err != nil {
		t.Fatalf("PasteWindows failed: %v", err)
	}

	if !work.Contains(1) {
		t.Error("window not pasted onto target desktop")
	}
	if !sys.visible(1) {
		t.Error("pasted window not shown")
	}
	if v.Clipboard().Len() != 1 {
		t.Errorf("clipboard len = %d, want 1", v.Clipboard().Len())
	}
}

func TestCutUnknownWindowIsNoop(t *testing.T) {
	sys := newFakeSystem()
	sys.addWindow(1, 100, "editor", true)

	v := newTestDesktops(t, sys)
	if err := v.CutWindow(99); err != nil {
		t.Fatalf("CutWindow(unknown) returned error: %v", err)
	}
	if v.Clipboard().Len() != 0 {
		t.Errorf("clipboard len = %d, want 0", v.Clipboard().Len())
	}
}

func TestPasteEmptyClipboardIsNoop(t *testing.T) {
	sys := newFakeSystem()
	sys.addWindow(1, 100, "editor", true)

	v := newTestDesktops(t, sys)
	if err := v.PasteWindows(); err != nil {
		t.Fatalf("PasteWindows on empty clipboard returned error: %v", err)
	}
}

func TestCutMovesCompositeGroup(t *testing.T) {
	sys := newFakeSystem()
	sys.addWindow(1, 100, "editor", true)
	sys.addWindow(2, 100, "editor", true)
	sys.transients[1] = []winsys.WindowID{2}

	v := newTestDesktops(t, sys)
	if err := v.CutWindow(1); err != nil {
		t.Fatalf("CutWindow failed: %v", err)
	}
	if v.Clipboard().Len() != 2 {
		t.Fatalf("clipboard len = %d, want 2 (leader plus tool window)", v.Clipboard().Len())
	}
	if sys.visible(2) {
		t.Error("tool window not hidden with its leader")
	}
}

func TestPartitionInvariant(t *testing.T) {
	sys := newFakeSystem()
	sys.addWindow(1, 100, "editor", true)
	sys.addWindow(2, 101, "browser", true)
	sys.addWindow(3, 102, "term", true)

	v := newTestDesktops(t, sys)
	work, _ := v.CreateWorkspace("work")

	if err := v.CutWindow(2); err != nil {
		t.Fatalf("CutWindow failed: %v", err)
	}
	if err := v.SwitchTo(work); err != nil {
		t.Fatalf("SwitchTo failed: %v", err)
	}

	// Windows 1 and 3 live on main, window 2 on the clipboard. No window
	// may be tracked by more than one workspace, and clipboard windows by
	// none.
	for _, id := range []winsys.WindowID{1, 2, 3} {
		owners := 0
		for _, ws := range v.Workspaces() {
			if ws.Contains(id) {
				owners++
			}
		}
		onClipboard := v.Clipboard().Contains(id)
		if owners > 1 {
			t.Errorf("window %d tracked by %d workspaces", id, owners)
		}
		if onClipboard && owners != 0 {
			t.Errorf("window %d on clipboard and on a workspace", id)
		}
		if !onClipboard && owners != 1 {
			t.Errorf("window %d tracked nowhere", id)
		}
	}
}

func TestUnresponsiveReportedNotFatal(t *testing.T) {
	sys := newFakeSystem()
	sys.addWindow(1, 100, "editor", true)
	sys.addWindow(2, 101, "browser", true)
	sys.unresponsive[2] = true

	v := newTestDesktops(t, sys)

	type event struct {
		ws      *Workspace
		handles []winsys.WindowID
	}
	var events []event
	v.OnUnresponsive(func(ws *Workspace, handles []winsys.WindowID) {
		events = append(events, event{ws, handles})
	})

	main := v.Current()
	work, _ := v.CreateWorkspace("work")
	if err := v.SwitchTo(work); err != nil {
		t.Fatalf("SwitchTo failed: %v", err)
	}
	if v.Current() != work {
		t.Error("switch did not complete despite unresponsive window")
	}
	if !sys.visible(2) {
		t.Error("unresponsive window's state was changed")
	}
	if sys.visible(1) {
		t.Error("responsive window not hidden")
	}

	if len(events) != 1 {
		t.Fatalf("got %d unresponsive events, want 1", len(events))
	}
	if events[0].ws != main {
		t.Errorf("event workspace = %q, want %q", events[0].ws.Name(), main.Name())
	}
	if len(events[0].handles) != 1 || events[0].handles[0] != 2 {
		t.Errorf("event handles = %v, want [2]", events[0].handles)
	}
}

func TestMerge(t *testing.T) {
	sys := newFakeSystem()
	sys.addWindow(1, 100, "editor", true)
	sys.addWindow(2, 101, "browser", true)

	v := newTestDesktops(t, sys)
	main := v.Current()
	work, _ := v.CreateWorkspace("work")

	if err := v.Merge(main, work); err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if n := len(main.Windows()); n != 0 {
		t.Errorf("source desktop still has %d windows", n)
	}
	got := workspaceIDs(work)
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("target membership = %v, want [1 2]", got)
	}
	// The emptied source desktop remains open.
	if len(v.Workspaces()) != 2 {
		t.Errorf("workspace count after merge = %d, want 2", len(v.Workspaces()))
	}
	if v.WorkspaceByID("main") != main {
		t.Error("source desktop closed by merge")
	}
}

func TestCloseCurrentDesktopFails(t *testing.T) {
	sys := newFakeSystem()
	v := newTestDesktops(t, sys)

	if err := v.Close(v.Current()); err == nil {
		t.Fatal("closing the current desktop succeeded")
	}
}

func TestCloseRestoresClipboardEntries(t *testing.T) {
	sys := newFakeSystem()
	sys.addWindow(1, 100, "editor", true)

	v := newTestDesktops(t, sys)
	main := v.Current()
	work, _ := v.CreateWorkspace("work")

	// Cut from main, then make work current so main can be closed.
	if err := v.CutWindow(1); err != nil {
		t.Fatalf("CutWindow failed: %v", err)
	}
	if err := v.SwitchTo(work); err != nil {
		t.Fatalf("SwitchTo failed: %v", err)
	}
	if err := v.Close(main); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if v.Clipboard().Contains(1) {
		t.Error("clipboard still holds a window cut from the closed desktop")
	}
	if !work.Contains(1) {
		t.Error("restored window not handed to the current desktop")
	}
	if !sys.visible(1) {
		t.Error("previously visible window not re-shown on close")
	}
	if len(v.Workspaces()) != 1 {
		t.Errorf("workspace count = %d, want 1", len(v.Workspaces()))
	}
}

func TestCreateWorkspaceFromSessionReclaimsWindows(t *testing.T) {
	sys := newFakeSystem()
	sys.addWindow(1, 100, "editor", true)
	sys.addWindow(2, 101, "browser", true)

	v := newTestDesktops(t, sys)
	main := v.Current()

	snaps := []*Snapshot{NewSnapshot(sys.windows[1])}
	restored, err := v.CreateWorkspaceFromSession("restored", snaps)
	if err != nil {
		t.Fatalf("CreateWorkspaceFromSession failed: %v", err)
	}

	if main.Contains(1) {
		t.Error("window still claimed by its previous owner")
	}
	if !restored.Contains(1) {
		t.Error("restored workspace does not hold the window")
	}
	if snaps[0].Workspace() != restored {
		t.Error("snapshot back-reference does not point at the restored workspace")
	}
	if !main.Contains(2) {
		t.Error("unrelated window was moved")
	}
}

func TestSnapshotUpdate(t *testing.T) {
	sys := newFakeSystem()
	sys.addWindow(1, 100, "editor", true)

	snap := NewSnapshot(sys.windows[1])
	sys.mu.Lock()
	win := sys.windows[1]
	win.Title = "renamed"
	win.Visible = false
	sys.windows[1] = win
	sys.mu.Unlock()

	if err := snap.Update(sys); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if snap.Destroyed() {
		t.Fatal("live window marked destroyed")
	}
	if snap.Title() != "renamed" || snap.Visible() {
		t.Errorf("snapshot not refreshed: title=%q visible=%v", snap.Title(), snap.Visible())
	}

	sys.destroyWindow(1)
	if err := snap.Update(sys); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if !snap.Destroyed() {
		t.Error("destroyed window not marked")
	}
}

func TestShutdownGuardsEveryOperation(t *testing.T) {
	sys := newFakeSystem()
	sys.addWindow(1, 100, "editor", true)

	v := newTestDesktops(t, sys)
	work, _ := v.CreateWorkspace("work")
	v.Shutdown()

	ops := map[string]func() error{
		"CreateWorkspace": func() error { _, err := v.CreateWorkspace("x"); return err },
		"SwitchTo":        func() error { return v.SwitchTo(work) },
		"Merge":           func() error { return v.Merge(v.Current(), work) },
		"Close":           func() error { return v.Close(work) },
		"CutWindow":       func() error { return v.CutWindow(1) },
		"PasteWindows":    func() error { return v.PasteWindows() },
		"Update":          func() error { return v.UpdateWindowAssociations() },
	}
	for name, op := range ops {
		if err := op(); !errors.Is(err, ErrShutdown) {
			t.Errorf("%s after Shutdown = %v, want ErrShutdown", name, err)
		}
	}

	// Shutdown is idempotent.
	v.Shutdown()
	if err := v.UpdateWindowAssociations(); !errors.Is(err, ErrShutdown) {
		t.Error("second Shutdown changed guard behavior")
	}
}

func TestWorkspaceLookup(t *testing.T) {
	sys := newFakeSystem()
	v := newTestDesktops(t, sys)
	work, _ := v.CreateWorkspace("work")

	if got := v.WorkspaceByID("work"); got != work {
		t.Error("lookup by name failed")
	}
	if got := v.WorkspaceByID(work.ID().String()); got != work {
		t.Error("lookup by id failed")
	}
	if got := v.WorkspaceByID("nope"); got != nil {
		t.Errorf("lookup of unknown ref returned %v", got)
	}
}
