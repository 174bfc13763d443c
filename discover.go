package stylec

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/maruel/natural"
	ignore "github.com/sabhiram/go-gitignore"
	"go.uber.org/zap"
)

// defineCall finds calls that contribute to the project config.
var defineCall = regexp.MustCompile(`\b(defineVariables|defineTemplates|defineGlobalStyles|defineMediaQuery)\s*\(`)

// ScanStats tracks project walk statistics.
type ScanStats struct {
	FilesDiscovered int // style files matching the naming convention
	FilesScanned    int // style files kept after filtering
	FilesSkipped    int // style files dropped by ignore patterns
}

// sourceFile is one discovered style file.
type sourceFile struct {
	Path string
	// Rel is the slash-separated path relative to the project root.
	Rel string
	// Config is set when the file calls a define function.
	Config bool
}

// IsStyleFile reports whether path follows the style file naming convention,
// e.g. button.css.ts.
func (c *Compiler) IsStyleFile(path string) bool {
	return c.styleFile.MatchString(filepath.Base(path))
}

// loadGitIgnore loads the project .gitignore once. A missing file is fine.
func (c *Compiler) loadGitIgnore() *ignore.GitIgnore {
	c.gitIgnoreOnce.Do(func() {
		gi, err := ignore.CompileIgnoreFile(filepath.Join(c.root, ".gitignore"))
		if err != nil {
			return
		}
		c.gitIgnore = gi
	})
	return c.gitIgnore
}

// SkipDir reports whether the walk and the watcher ignore a directory.
func (c *Compiler) SkipDir(path string) bool {
	if path == c.root {
		return false
	}
	name := filepath.Base(path)
	if name == "node_modules" || name == ".git" || (strings.HasPrefix(name, ".") && name != ".") {
		return true
	}
	if path == c.OutputDir() {
		return true
	}
	return c.ignored(path, true)
}

// ignored checks gitignore rules and, for files, the config ignore patterns.
func (c *Compiler) ignored(path string, dir bool) bool {
	rel, err := filepath.Rel(c.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	rel = filepath.ToSlash(rel)

	if gi := c.loadGitIgnore(); gi != nil {
		candidate := rel
		if dir {
			candidate += "/"
		}
		if gi.MatchesPath(candidate) {
			return true
		}
	}
	if dir {
		return false
	}
	for _, pattern := range c.cfg.Ignore {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// discover walks the project for style files, sorted naturally by path.
func (c *Compiler) discover() ([]sourceFile, ScanStats, error) {
	var files []sourceFile
	var stats ScanStats

	err := filepath.WalkDir(c.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if c.SkipDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if !c.IsStyleFile(path) {
			return nil
		}
		stats.FilesDiscovered++
		if c.ignored(path, false) {
			stats.FilesSkipped++
			return nil
		}

		f, err := c.sourceFile(path)
		if err != nil {
			c.log.Warn("skipping unreadable file", zap.String("path", path), zap.Error(err))
			stats.FilesSkipped++
			return nil
		}
		files = append(files, f)
		stats.FilesScanned++
		return nil
	})
	if err != nil {
		return nil, stats, err
	}

	sort.Slice(files, func(i, j int) bool { return natural.Less(files[i].Rel, files[j].Rel) })
	return files, stats, nil
}

func (c *Compiler) sourceFile(path string) (sourceFile, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return sourceFile{}, err
	}
	return sourceFile{Path: path, Rel: c.rel(path), Config: defineCall.Match(src)}, nil
}

// rel returns path relative to the root, slash-separated.
func (c *Compiler) rel(path string) string {
	rel, err := filepath.Rel(c.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// abs resolves path against the root.
func (c *Compiler) abs(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(c.root, path)
}
