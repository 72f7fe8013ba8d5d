package vault

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/parakeep/organizer/internal/dedupe"
	"github.com/parakeep/organizer/internal/models"
)

// writeNote creates a note file under the vault root, making parent
// directories as needed.
func writeNote(t *testing.T, root, relPath, content string) {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(abs), 0o750); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write note: %v", err)
	}
}

func openTestVault(t *testing.T) *Vault {
	t.Helper()
	v, err := New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Failed to open vault: %v", err)
	}
	return v
}

func TestNewRejectsMissingRoot(t *testing.T) {
	t.Parallel()

	if _, err := New("/definitely/not/a/vault", nil); err == nil {
		t.Error("Expected error for missing root")
	}
}

func TestReadNote(t *testing.T) {
	t.Parallel()

	v := openTestVault(t)
	writeNote(t, v.Root(), "00-Inbox/idea.md", "# Idea\nbody")

	note, err := v.ReadNote("00-Inbox/idea.md")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if note.Title != "idea" {
		t.Errorf("Title = %q, want idea", note.Title)
	}
	if note.Content != "# Idea\nbody" {
		t.Errorf("Content = %q", note.Content)
	}
	if note.CurrentFolder() != "00-Inbox" {
		t.Errorf("CurrentFolder() = %q, want 00-Inbox", note.CurrentFolder())
	}
}

func TestReadNoteRejectsEscape(t *testing.T) {
	t.Parallel()

	v := openTestVault(t)
	if _, err := v.ReadNote("../outside.md"); err == nil {
		t.Error("Expected error for path escaping the vault")
	}
	if _, err := v.ReadNote("/etc/passwd"); err == nil {
		t.Error("Expected error for absolute path")
	}
}

func TestScanNotes(t *testing.T) {
	t.Parallel()

	v := openTestVault(t)
	writeNote(t, v.Root(), "00-Inbox/a.md", "a")
	writeNote(t, v.Root(), "01-Projects/Site/b.md", "b")
	writeNote(t, v.Root(), "01-Projects/Site/readme.txt", "not a note")
	writeNote(t, v.Root(), ".obsidian/config.md", "hidden")

	notes, err := v.ScanNotes()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(notes) != 2 {
		paths := make([]string, 0, len(notes))
		for _, n := range notes {
			paths = append(paths, n.Path)
		}
		t.Fatalf("ScanNotes() = %v, want exactly the two markdown notes", paths)
	}
}

func TestFolderCounts(t *testing.T) {
	t.Parallel()

	v := openTestVault(t)
	writeNote(t, v.Root(), "01-Projects/Site/a.md", "a")
	writeNote(t, v.Root(), "01-Projects/Site/b.md", "b")
	writeNote(t, v.Root(), "01-Projects/App/sub/c.md", "c")

	counts, err := v.FolderCounts(models.CategoryProjects)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if counts["Site"] != 2 {
		t.Errorf("counts[Site] = %d, want 2", counts["Site"])
	}
	if counts["App"] != 1 {
		t.Errorf("counts[App] = %d, want nested notes counted", counts["App"])
	}
}

func TestFolderCountsMissingTree(t *testing.T) {
	t.Parallel()

	v := openTestVault(t)
	counts, err := v.FolderCounts(models.CategoryArchive)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(counts) != 0 {
		t.Errorf("counts = %v, want empty for missing tree", counts)
	}
}

func TestMoveNote(t *testing.T) {
	t.Parallel()

	v := openTestVault(t)
	writeNote(t, v.Root(), "00-Inbox/plan.md", "content")

	note, err := v.ReadNote("00-Inbox/plan.md")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	newPath, err := v.MoveNote(note, "01-Projects/Launch")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if newPath != "01-Projects/Launch/plan.md" {
		t.Errorf("newPath = %q, want 01-Projects/Launch/plan.md", newPath)
	}
	if note.Path != newPath {
		t.Errorf("note.Path = %q, should track the move", note.Path)
	}
	if _, err := os.Stat(filepath.Join(v.Root(), "00-Inbox/plan.md")); !os.IsNotExist(err) {
		t.Error("source file should be gone")
	}
}

func TestMoveNoteCollisionRenamesFile(t *testing.T) {
	t.Parallel()

	v := openTestVault(t)
	writeNote(t, v.Root(), "00-Inbox/plan.md", "new")
	writeNote(t, v.Root(), "01-Projects/Launch/plan.md", "existing")

	note, err := v.ReadNote("00-Inbox/plan.md")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	newPath, err := v.MoveNote(note, "01-Projects/Launch")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if newPath != "01-Projects/Launch/plan_2.md" {
		t.Errorf("newPath = %q, want plan_2.md collision rename", newPath)
	}
}

func TestApplyMerge(t *testing.T) {
	t.Parallel()

	v := openTestVault(t)
	writeNote(t, v.Root(), "02-Areas/Team Sync/a.md", "a")
	writeNote(t, v.Root(), "02-Areas/Team Sync_2/b.md", "b")
	writeNote(t, v.Root(), "02-Areas/Team Sync_2/a.md", "duplicate name")

	merge := dedupe.Merge{Target: "Team Sync", Sources: []string{"Team Sync_2"}}
	if err := v.ApplyMerge(models.CategoryAreas, merge); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(v.Root(), "02-Areas/Team Sync/b.md")); err != nil {
		t.Error("b.md should have moved to the target")
	}
	if _, err := os.Stat(filepath.Join(v.Root(), "02-Areas/Team Sync/a_2.md")); err != nil {
		t.Error("colliding a.md should be renamed a_2.md")
	}
	if _, err := os.Stat(filepath.Join(v.Root(), "02-Areas/Team Sync_2")); !os.IsNotExist(err) {
		t.Error("emptied source folder should be removed")
	}
}
