// Package schema loads the database documentation files that seed the
// generation prompt.
package schema

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/talentbase/nl2sql/src/models"
)

// Loader reads schema description files from disk, caching file contents
// for the process lifetime. Schemas change on deploy, not at runtime.
type Loader struct {
	dir string

	mu    sync.RWMutex
	cache map[string]string
}

func NewLoader(dir string) *Loader {
	return &Loader{
		dir:   dir,
		cache: make(map[string]string),
	}
}

func (l *Loader) Load(path string) (string, error) {
	if path == "" {
		return "", &models.SchemaError{Message: "chemin de schéma vide", Path: path}
	}

	l.mu.RLock()
	content, ok := l.cache[path]
	l.mu.RUnlock()
	if ok {
		return content, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", &models.SchemaError{Message: "lecture du fichier de schéma impossible: " + err.Error(), Path: path}
	}
	content = string(data)
	if strings.TrimSpace(content) == "" {
		return "", &models.SchemaError{Message: "fichier de schéma vide", Path: path}
	}

	l.mu.Lock()
	l.cache[path] = content
	l.mu.Unlock()
	return content, nil
}

// ListAvailable returns the schema files present in the configured
// directory, relative to it.
func (l *Loader) ListAvailable() ([]string, error) {
	pattern := filepath.Join(l.dir, "*.sql")
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, &models.SchemaError{Message: "parcours du répertoire de schémas impossible: " + err.Error(), Path: l.dir}
	}
	names := make([]string, 0, len(paths))
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	return names, nil
}
