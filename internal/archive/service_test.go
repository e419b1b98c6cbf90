package archive

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRevisionArchiveLifecycle(t *testing.T) {
	tempDir := t.TempDir()
	svc := New(tempDir)

	first := json.RawMessage(`{"title":"Hello","content":{"blocks":[]}}`)
	commit, err := svc.CommitRevision("p_1", 1, first, "Avery")
	if err != nil {
		t.Fatalf("CommitRevision() error = %v", err)
	}
	if commit.Hash == "" {
		t.Fatal("expected commit hash")
	}
	if !strings.Contains(commit.Message, "Revision 1") {
		t.Fatalf("unexpected commit message %q", commit.Message)
	}
	if _, err := os.Stat(filepath.Join(tempDir, "p_1")); err != nil {
		t.Fatalf("repo directory missing: %v", err)
	}

	second := json.RawMessage(`{"title":"Hello again","content":{"blocks":[]}}`)
	if _, err := svc.CommitRevision("p_1", 2, second, "Avery"); err != nil {
		t.Fatalf("CommitRevision() second error = %v", err)
	}

	history, err := svc.History("p_1", 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(history))
	}
	if !strings.Contains(history[0].Message, "Revision 2") {
		t.Fatalf("expected newest first, got %q", history[0].Message)
	}

	snapshot, err := svc.SnapshotByHash("p_1", history[1].Hash)
	if err != nil {
		t.Fatalf("SnapshotByHash() error = %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(snapshot, &decoded); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if decoded["title"] != "Hello" {
		t.Fatalf("expected first snapshot title, got %v", decoded["title"])
	}
}

func TestHistoryForUnknownPost(t *testing.T) {
	svc := New(t.TempDir())

	history, err := svc.History("p_missing", 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("expected empty history, got %d entries", len(history))
	}
}

func TestCommitRevisionRejectsBadSnapshot(t *testing.T) {
	svc := New(t.TempDir())

	if _, err := svc.CommitRevision("p_1", 1, json.RawMessage(`{broken`), "Avery"); err == nil {
		t.Fatal("expected error for invalid snapshot JSON")
	}
}
