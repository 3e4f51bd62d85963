package renamer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/Lllllllleong/pdf-smart-rename/internal/config"
	"github.com/Lllllllleong/pdf-smart-rename/internal/textproc"
)

// Characters that are illegal in filenames on at least one supported
// filesystem. Always stripped, independent of the special-chars setting.
var illegalChars = regexp.MustCompile(`[/\\:*?"<>|]+`)

const maxCollisionProbes = 1000

// Renamer turns a generated title into a legal on-disk name and performs the
// backup and rename for one file at a time.
type Renamer struct {
	cfg      config.Config
	runStamp string
	special  *regexp.Regexp
}

// New builds a renamer for one batch run. All backups of the run land under a
// single timestamped directory so repeated runs never clobber each other.
func New(cfg config.Config) *Renamer {
	r := &Renamer{
		cfg:      cfg,
		runStamp: time.Now().Format("20060102-150405"),
	}
	if cfg.RemoveSpecialChars {
		r.special = regexp.MustCompile(`[^a-zA-Z0-9 ` + regexp.QuoteMeta(cfg.PreserveChars) + `]+`)
	}
	return r
}

// SafeFilename strips filesystem-illegal and (per config) special characters
// from a title and enforces the configured length bounds.
func (r *Renamer) SafeFilename(title string) string {
	title = textproc.Clean(title)
	title = illegalChars.ReplaceAllString(title, " ")
	if r.special != nil {
		title = r.special.ReplaceAllString(title, " ")
	}
	title = strings.Join(strings.Fields(title), " ")

	title = textproc.TruncateWords(title, r.cfg.TitleMaxLength)
	title = textproc.FormatStyle(title, r.cfg.Style)
	if len(title) < r.cfg.TitleMinLength {
		title = title + strings.Repeat("_", r.cfg.TitleMinLength-len(title))
	}
	return title
}

// Backup copies the original bytes into the run's backup directory before any
// rename touches the file. A relative BACKUP_DIR is resolved against the
// file's own directory, keeping backups next to their source.
func (r *Renamer) Backup(path string) (string, error) {
	backupRoot := r.cfg.BackupDir
	if !filepath.IsAbs(backupRoot) {
		backupRoot = filepath.Join(filepath.Dir(path), backupRoot)
	}
	backupDir := filepath.Join(backupRoot, r.runStamp)
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup dir %s: %w", backupDir, err)
	}

	backupPath := filepath.Join(backupDir, filepath.Base(path))
	if err := copyFile(path, backupPath); err != nil {
		return "", fmt.Errorf("failed to back up %s: %w", path, err)
	}
	return backupPath, nil
}

// Rename moves the file to its new title within the same directory, resolving
// collisions with numeric suffixes. An existing file is never overwritten.
func (r *Renamer) Rename(oldPath, title string) (string, error) {
	dir := filepath.Dir(oldPath)
	ext := filepath.Ext(oldPath)

	newPath, err := resolveCollision(dir, title, ext)
	if err != nil {
		return "", err
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		return "", fmt.Errorf("failed to rename %s: %w", oldPath, err)
	}
	return newPath, nil
}

// resolveCollision probes name, name-1, name-2, ... until a free path is
// found. The probe is bounded so a pathological directory cannot stall the
// batch.
func resolveCollision(dir, base, ext string) (string, error) {
	candidate := filepath.Join(dir, base+ext)
	for i := 1; i <= maxCollisionProbes; i++ {
		if _, err := os.Lstat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s-%d%s", base, i, ext))
	}
	return "", fmt.Errorf("could not find a free name for %s%s in %s after %d attempts", base, ext, dir, maxCollisionProbes)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
