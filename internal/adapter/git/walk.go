package git

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
)

// projectExtensions is the allow-list for whole-project analysis. Narrower
// than the pull-request list on purpose: walking a whole tree already
// produces plenty of candidates.
var projectExtensions = []string{
	".py", ".js", ".jsx", ".ts", ".tsx", ".java", ".go", ".cpp", ".c", ".rs",
}

// WalkProject lists the repository's source files relative to the clone
// root, skipping the .git directory.
func (m *Manager) WalkProject(ctx context.Context, clone *Clone) ([]string, error) {
	var files []string
	err := filepath.WalkDir(clone.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !hasProjectExtension(path) {
			return nil
		}
		rel, err := filepath.Rel(clone.Dir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.LogInfo(ctx, "project walked", map[string]interface{}{
		"dir":   clone.Dir,
		"files": len(files),
	})
	return files, nil
}

func hasProjectExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range projectExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
