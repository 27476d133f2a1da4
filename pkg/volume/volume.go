// Package volume recognizes the file names of multi-volume RAR archives.
//
// Three naming schemes are understood:
//
//	name.part1.rar, name.part2.rar, ...   (also part01, part001)
//	name.rar, name.r00, name.r01, ...
//	name.001, name.002, ...               (also name.rar.001)
package volume

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
)

var (
	partPattern = regexp.MustCompile(`(?i)^(.*)\.part(\d+)\.rar$`)
	rPattern    = regexp.MustCompile(`(?i)^(.*)\.r(\d{2})$`)
	numPattern  = regexp.MustCompile(`^(.*)\.(\d{3})$`)
)

// IsMultipart reports whether path is named like one volume of a set. A plain
// "name.rar" counts when a "name.r00" sibling exists.
func IsMultipart(path string) bool {
	name := filepath.Base(path)
	if partPattern.MatchString(name) || rPattern.MatchString(name) || numPattern.MatchString(name) {
		return true
	}
	if ext := filepath.Ext(name); len(ext) == 4 && (ext[1:] == "rar" || ext[1:] == "RAR") {
		return exists(filepath.Join(filepath.Dir(path), name[:len(name)-len(ext)]+".r00"))
	}
	return false
}

// IsFirstVolume reports whether path is the volume extraction has to start
// from. Names outside the multi-volume schemes are first volumes.
func IsFirstVolume(path string) bool {
	name := filepath.Base(path)

	if m := partPattern.FindStringSubmatch(name); m != nil {
		n, _ := strconv.Atoi(m[2])
		return n == 1
	}
	if rPattern.MatchString(name) {
		// name.rNN is never first when name.rar exists; otherwise r00 leads.
		m := rPattern.FindStringSubmatch(name)
		if exists(filepath.Join(filepath.Dir(path), m[1]+".rar")) {
			return false
		}
		return m[2] == "00"
	}
	if m := numPattern.FindStringSubmatch(name); m != nil {
		return m[2] == "001"
	}
	return true
}

// FirstVolume returns the path of the first volume of the set path belongs
// to. Candidates are looked up on disk; if none exists, path is returned as is.
func FirstVolume(path string) string {
	dir, name := filepath.Split(path)

	var candidates []string
	switch {
	case partPattern.MatchString(name):
		m := partPattern.FindStringSubmatch(name)
		for width := len(m[2]); width >= 1; width-- {
			candidates = append(candidates, fmt.Sprintf("%s.part%0*d.rar", m[1], width, 1))
		}
		candidates = append(candidates, m[1]+".part001.rar", m[1]+".part01.rar", m[1]+".part1.rar")
	case rPattern.MatchString(name):
		m := rPattern.FindStringSubmatch(name)
		candidates = append(candidates, m[1]+".rar", m[1]+".RAR", m[1]+".r00")
	case numPattern.MatchString(name):
		m := numPattern.FindStringSubmatch(name)
		candidates = append(candidates, m[1]+".001")
	default:
		return path
	}

	for _, c := range candidates {
		if p := filepath.Join(dir, c); exists(p) {
			return p
		}
	}
	return path
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
