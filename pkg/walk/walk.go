// Package walk expands directory arguments into the source files to scan.
package walk

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// defaultIgnores are skipped even without a .gitignore.
var defaultIgnores = []string{
	".git/",
	"node_modules/",
	"vendor/",
	"build/",
	"*.o",
	"*.obj",
	"*.so",
	"*.a",
	"infer-out/",
}

// Files returns the regular files below root that survive root's .gitignore
// and the default ignores. Hidden files and directories are skipped. A root
// that is a file is returned as is.
func Files(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	matcher := compile(root)

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}

		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			rel += "/"
		}
		if matcher.MatchesPath(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func compile(root string) *ignore.GitIgnore {
	patterns := append([]string(nil), defaultIgnores...)
	if content, err := os.ReadFile(filepath.Join(root, ".gitignore")); err == nil {
		patterns = append(patterns, strings.Split(string(content), "\n")...)
	}
	return ignore.CompileIgnoreLines(patterns...)
}
