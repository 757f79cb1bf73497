package suite

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// BaseFileName is the directory base settings file applied before any suite
// in the same directory.
const BaseFileName = "_base.yaml"

// Extensions lists suite file extensions in resolution order.
var Extensions = []string{".yaml", ".yml"}

// IsSuiteFile reports whether name looks like a suite file.
func IsSuiteFile(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, "_") || strings.HasPrefix(base, ".") {
		return false
	}
	ext := filepath.Ext(base)
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func skipDir(name string) bool {
	return name == "node_modules" || (strings.HasPrefix(name, ".") && name != ".")
}

// Discover walks root and parses every suite file in lexical path order.
// Directory base settings are attached to each suite.
func Discover(root string, opts ParseOptions) ([]*Suite, error) {
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if IsSuiteFile(p) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discovering suites: %w", err)
	}

	bases := make(map[string]*Settings)
	suites := make([]*Suite, 0, len(files))
	for _, file := range files {
		rel, err := filepath.Rel(root, file)
		if err != nil {
			return nil, err
		}
		s, err := ParseFile(filepath.ToSlash(rel), file, opts)
		if err != nil {
			return nil, err
		}

		dir := filepath.Dir(file)
		base, ok := bases[dir]
		if !ok {
			base, err = loadBase(dir)
			if err != nil {
				return nil, err
			}
			bases[dir] = base
		}
		s.Base = base
		suites = append(suites, s)
	}

	return suites, nil
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

func loadBase(dir string) (*Settings, error) {
	p := filepath.Join(dir, BaseFileName)
	if !fileExists(p) {
		return nil, nil
	}
	return ParseBaseFile(p)
}

// ResolveDependency maps a depends_on reference of s to a suite identity.
// The reference is tried relative to the suite's directory first, then
// relative to the run root, with each of Extensions appended. References
// that already carry a suite extension are also tried verbatim.
func ResolveDependency(s *Suite, ref string, exists func(id string) bool) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}
	exts := Extensions
	if IsSuiteFile(ref) {
		exts = append([]string{""}, Extensions...)
	}
	for _, dir := range []string{s.Dir(), "."} {
		for _, ext := range exts {
			id := path.Clean(path.Join(dir, ref+ext))
			if exists(id) {
				return id, true
			}
		}
	}
	return "", false
}
