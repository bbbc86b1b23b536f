package session

import (
	"encoding/json"
	"testing"
	"time"
)

func testSession(name string) *Session {
	return &Session{
		Name:        name,
		SuspendedAt: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		Applications: []PersistedApplication{
			{
				AppPath:    "/usr/bin/xterm",
				ProviderID: "terminal:xterm",
				Data:       json.RawMessage(`{"cwd":"/tmp"}`),
			},
			{
				AppPath:    "/usr/bin/rxvt",
				ProviderID: "terminal:rxvt",
				Data:       json.RawMessage(`{"cwd":"/home/u","cmdline":["rxvt","-e","top"],"windows":2}`),
			},
		},
	}
}

func TestStoreWriteReadDelete(t *testing.T) {
	store := NewStore(t.TempDir())

	if err := store.Write(testSession("dev")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := store.Read("dev")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got.Name != "dev" {
		t.Errorf("Name = %q", got.Name)
	}
	if len(got.Applications) != 2 {
		t.Fatalf("got %d applications, want 2", len(got.Applications))
	}
	app := got.Applications[0]
	if app.AppPath != "/usr/bin/xterm" || app.ProviderID != "terminal:xterm" {
		t.Errorf("application = %+v", app)
	}

	// Provider payloads must round-trip byte-identical: resume hands the
	// blob back to the provider exactly as it was produced at suspend.
	want := testSession("dev")
	for i := range want.Applications {
		if gotData, wantData := string(got.Applications[i].Data), string(want.Applications[i].Data); gotData != wantData {
			t.Errorf("application %d Data = %s, want %s", i, gotData, wantData)
		}
	}

	if err := store.Delete("dev"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Read("dev"); err == nil {
		t.Error("Read succeeded after Delete")
	}
}

func TestStoreList(t *testing.T) {
	store := NewStore(t.TempDir())

	names, err := store.List()
	if err != nil {
		t.Fatalf("List on empty store failed: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("empty store listed %v", names)
	}

	for _, name := range []string{"work", "dev", "mail"} {
		if err := store.Write(testSession(name)); err != nil {
			t.Fatalf("Write(%q) failed: %v", name, err)
		}
	}

	names, err = store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []string{"dev", "mail", "work"}
	if len(names) != len(want) {
		t.Fatalf("List = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("List = %v, want %v", names, want)
		}
	}
}

func TestStoreRejectsInvalidNames(t *testing.T) {
	store := NewStore(t.TempDir())

	for _, name := range []string{"", ".", "..", "../escape", "a/b", "a..b"} {
		if err := store.Write(testSession(name)); err == nil {
			t.Errorf("Write accepted invalid name %q", name)
		}
		if _, err := store.Read(name); err == nil {
			t.Errorf("Read accepted invalid name %q", name)
		}
	}
}
