package vault

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/parakeep/organizer/internal/dedupe"
	"github.com/parakeep/organizer/internal/models"
)

// Vault is a PARA-organized directory of markdown notes.
type Vault struct {
	root   string
	logger *zap.Logger
}

// New opens a vault rooted at the given directory.
func New(root string, logger *zap.Logger) (*Vault, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("opening vault: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("opening vault: %s is not a directory", root)
	}

	return &Vault{root: root, logger: logger}, nil
}

// Root returns the vault's root directory.
func (v *Vault) Root() string {
	return v.root
}

// ReadNote loads one note by vault-relative path.
func (v *Vault) ReadNote(relPath string) (*models.Note, error) {
	abs, err := v.resolve(relPath)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(abs) // #nosec G304 - path is vault-confined by resolve
	if err != nil {
		return nil, fmt.Errorf("reading note %s: %w", relPath, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("reading note %s: %w", relPath, err)
	}

	return &models.Note{
		ID:         uuid.New(),
		Path:       filepath.ToSlash(relPath),
		Title:      strings.TrimSuffix(filepath.Base(relPath), filepath.Ext(relPath)),
		Content:    string(data),
		ModifiedAt: info.ModTime(),
	}, nil
}

// ScanNotes walks the vault and loads every markdown note. Hidden
// directories (".obsidian" and friends) are skipped.
func (v *Vault) ScanNotes() ([]*models.Note, error) {
	var notes []*models.Note

	err := filepath.WalkDir(v.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != v.root {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}

		rel, err := filepath.Rel(v.root, path)
		if err != nil {
			return err
		}
		note, err := v.ReadNote(rel)
		if err != nil {
			v.logger.Warn("note_read_failed", zap.String("path", rel), zap.Error(err))
			return nil
		}
		notes = append(notes, note)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning vault: %w", err)
	}

	return notes, nil
}

// FolderCounts returns the note count per subfolder of a category tree.
// The category folder itself must exist; a missing tree yields an empty
// map, not an error.
func (v *Vault) FolderCounts(category models.Category) (map[string]int, error) {
	base := category.FolderName()
	if base == "" {
		return nil, fmt.Errorf("category %s has no folder", category)
	}

	counts := make(map[string]int)
	categoryRoot := filepath.Join(v.root, base)
	entries, err := os.ReadDir(categoryRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return counts, nil
		}
		return nil, fmt.Errorf("listing %s: %w", base, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		n, err := countNotes(filepath.Join(categoryRoot, entry.Name()))
		if err != nil {
			return nil, err
		}
		counts[entry.Name()] = n
	}

	return counts, nil
}

// MoveNote relocates a note into targetDir (vault-relative). A name
// collision renames the file with a numeric suffix; folders are never
// renamed here.
func (v *Vault) MoveNote(note *models.Note, targetDir string) (string, error) {
	absDir, err := v.resolve(targetDir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(absDir, 0o750); err != nil {
		return "", fmt.Errorf("creating %s: %w", targetDir, err)
	}

	src, err := v.resolve(note.Path)
	if err != nil {
		return "", err
	}

	base := filepath.Base(note.Path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	name := dedupe.ResolveFileCollision(stem, ext, func(candidate string) bool {
		_, statErr := os.Stat(filepath.Join(absDir, candidate))
		return statErr == nil
	})

	dst := filepath.Join(absDir, name)
	if err := os.Rename(src, dst); err != nil {
		return "", fmt.Errorf("moving %s: %w", note.Path, err)
	}

	newRel := filepath.ToSlash(filepath.Join(targetDir, name))
	v.logger.Info("note_moved",
		zap.String("from", note.Path),
		zap.String("to", newRel),
	)
	note.Path = newRel
	return newRel, nil
}

// ApplyMerge moves every note out of the merge's source folders into the
// target and removes sources that end up empty.
func (v *Vault) ApplyMerge(category models.Category, merge dedupe.Merge) error {
	base := category.FolderName()
	if base == "" {
		return fmt.Errorf("category %s has no folder", category)
	}
	targetDir := filepath.ToSlash(filepath.Join(base, merge.Target))

	for _, source := range merge.Sources {
		sourceAbs, err := v.resolve(filepath.Join(base, source))
		if err != nil {
			return err
		}

		entries, err := os.ReadDir(sourceAbs)
		if err != nil {
			return fmt.Errorf("listing %s: %w", source, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			note := &models.Note{Path: filepath.ToSlash(filepath.Join(base, source, entry.Name()))}
			if _, err := v.MoveNote(note, targetDir); err != nil {
				return err
			}
		}

		// Remove the source only when the merge emptied it.
		if remaining, err := os.ReadDir(sourceAbs); err == nil && len(remaining) == 0 {
			if err := os.Remove(sourceAbs); err != nil {
				v.logger.Warn("merge_source_not_removed", zap.String("folder", source), zap.Error(err))
			}
		}
	}

	return nil
}

// resolve joins a vault-relative path and rejects escapes from the root.
func (v *Vault) resolve(relPath string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(relPath))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("path %s escapes the vault", relPath)
	}
	return filepath.Join(v.root, cleaned), nil
}

func countNotes(dir string) (int, error) {
	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".md") {
			count++
		}
		return nil
	})
	return count, err
}
