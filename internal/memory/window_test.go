package memory

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adrianfhr/customer-support-chatbot/internal/store"
)

func newTestWindow(t *testing.T, maxExchanges int) (*Window, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return NewWindow(s, maxExchanges, slog.Default()), s
}

func fillSession(t *testing.T, s *store.Store, sessionID string, turns int) {
	t.Helper()
	ctx := context.Background()
	for i := 1; i <= turns; i++ {
		msg, err := s.AppendUserTurn(ctx, sessionID, "pertanyaan "+string(rune('0'+i)))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := s.AppendAssistantTurn(ctx, sessionID, "jawaban "+string(rune('0'+i)), msg.TurnIndex); err != nil {
			t.Fatal(err)
		}
	}
}

func TestExcerptEmptySession(t *testing.T) {
	w, _ := newTestWindow(t, 3)

	entries, err := w.Excerpt(context.Background(), "empty", 0)
	if err != nil {
		t.Fatalf("excerpt: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries, want 0", len(entries))
	}
}

func TestExcerptBoundedAndChronological(t *testing.T) {
	w, s := newTestWindow(t, 3)
	fillSession(t, s, "s1", 5)

	entries, err := w.Excerpt(context.Background(), "s1", 0)
	if err != nil {
		t.Fatalf("excerpt: %v", err)
	}

	// Never more than 2 × maxExchanges.
	if len(entries) != 6 {
		t.Fatalf("got %d entries, want 6", len(entries))
	}

	// Chronological: oldest kept exchange first, user before assistant.
	if entries[0].Role != store.RoleUser || entries[0].Content != "pertanyaan 3" {
		t.Errorf("first entry: %+v", entries[0])
	}
	if entries[5].Role != store.RoleAssistant || entries[5].Content != "jawaban 5" {
		t.Errorf("last entry: %+v", entries[5])
	}
}

func TestExcerptBeforeTurnExcludesCurrent(t *testing.T) {
	w, s := newTestWindow(t, 3)
	ctx := context.Background()

	fillSession(t, s, "s1", 1)
	current, err := s.AppendUserTurn(ctx, "s1", "pertanyaan baru")
	if err != nil {
		t.Fatal(err)
	}

	entries, err := w.Excerpt(ctx, "s1", current.TurnIndex)
	if err != nil {
		t.Fatalf("excerpt: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	for _, e := range entries {
		if e.Content == "pertanyaan baru" {
			t.Error("excerpt leaked the current turn")
		}
	}
}

func TestExcerptDefaultWindowSize(t *testing.T) {
	w, _ := newTestWindow(t, 0)
	if w.MaxExchanges() != DefaultMaxExchanges {
		t.Errorf("got %d, want %d", w.MaxExchanges(), DefaultMaxExchanges)
	}
}

func TestFormatForPrompt(t *testing.T) {
	entries := []Entry{
		{Role: store.RoleUser, Content: "Halo"},
		{Role: store.RoleAssistant, Content: "Halo! Ada yang bisa dibantu?"},
	}

	got := FormatForPrompt(entries)
	want := "Riwayat percakapan sebelumnya:\nPengguna: Halo\nAsisten: Halo! Ada yang bisa dibantu?"
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestFormatForPromptEmpty(t *testing.T) {
	got := FormatForPrompt(nil)
	if got != NoHistorySentinel {
		t.Errorf("got %q, want sentinel", got)
	}
	if !strings.Contains(got, "Tidak ada riwayat") {
		t.Errorf("sentinel wording changed: %q", got)
	}
}

func TestClear(t *testing.T) {
	w, s := newTestWindow(t, 3)
	ctx := context.Background()
	fillSession(t, s, "s1", 2)

	if err := w.Clear(ctx, "s1"); err != nil {
		t.Fatalf("clear: %v", err)
	}

	entries, err := w.Excerpt(ctx, "s1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries after clear, want 0", len(entries))
	}
}
