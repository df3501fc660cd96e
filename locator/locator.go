// Package locator finds files that may hold the segments referenced by an
// ordered-chapters Matroska file.
package locator

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/unicode/norm"

	"mkvlink/internal/logger"
)

// MatroskaExtensions lists the file extensions considered when scanning a
// directory for sibling segments.
var MatroskaExtensions = []string{".mkv", ".mka", ".mks", ".mk3d"}

// SimilarityBucket is the number of common prefix characters that make up
// one similarity point.
const SimilarityBucket = 5

// Candidate is a file found by a directory scan.
type Candidate struct {
	Path  string
	Score int
	Size  int64
}

// Locator produces the ordered list of files to probe for referenced
// segments.
//
// Sources are consulted by priority: the index file if one is set, then the
// explicit file list, then a scan of the root's directory.
type Locator struct {
	log      logger.Logger
	listFile string
	files    []string
}

// New creates a Locator that scans the root's directory.
func New(log logger.Logger) *Locator {
	if log == nil {
		log = logger.Nop()
	}
	return &Locator{log: log}
}

// SetListFile sets an index file holding one candidate path per line.
func (l *Locator) SetListFile(path string) *Locator {
	l.listFile = path
	return l
}

// SetFiles sets an explicit list of candidate files.
func (l *Locator) SetFiles(files []string) *Locator {
	l.files = append([]string(nil), files...)
	return l
}

// Locate returns the candidate files for rootPath in probing order.
// It never fails; problems are logged and yield fewer candidates.
func (l *Locator) Locate(rootPath string) []string {
	if l.listFile != "" {
		l.log.Infof("Loading references from '%s'", l.listFile)
		paths, err := LoadList(l.listFile)
		if err != nil {
			l.log.Warnf("Cannot read reference list: %v", err)
			return nil
		}
		return paths
	}

	if len(l.files) > 0 {
		l.log.Infof("Using %d explicitly listed files to find referenced sources", len(l.files))
		return append([]string(nil), l.files...)
	}

	if !IsLocalPath(rootPath) {
		l.log.Warnf("Playback source is not a normal disk file. Will not search for related files.")
		return nil
	}

	l.log.Infof("Will scan other files in the same directory to find referenced sources")
	return l.Scan(rootPath)
}

// Scan lists the Matroska files next to rootPath, most similar name first
// and smaller files first among equally similar names.
func (l *Locator) Scan(rootPath string) []string {
	candidates := l.ScanCandidates(rootPath)
	paths := make([]string, len(candidates))
	for i, c := range candidates {
		paths[i] = c.Path
	}
	return paths
}

// ScanCandidates is Scan with the ranking details kept.
func (l *Locator) ScanCandidates(rootPath string) []Candidate {
	dir := filepath.Dir(rootPath)
	base := filepath.Base(rootPath)

	entries, err := os.ReadDir(dir)
	if err != nil {
		l.log.Warnf("Cannot list directory %s: %v", dir, err)
		return nil
	}

	var candidates []Candidate
	for _, entry := range entries {
		name := entry.Name()
		if name == base || !IsMatroskaFile(name) {
			continue
		}

		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		candidates = append(candidates, Candidate{
			Path:  path,
			Score: Similarity(name, base),
			Size:  info.Size(),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Size != b.Size {
			return a.Size < b.Size
		}
		return a.Path < b.Path
	})

	for _, c := range candidates {
		l.log.Debugf("Candidate %s (score %d, %s)", c.Path, c.Score, humanize.IBytes(uint64(c.Size)))
	}

	return candidates
}

// Similarity scores how alike name is to rootBase: the length of their
// common prefix in characters, divided by SimilarityBucket. Both names are
// NFC-normalized first so differently composed accents still compare equal.
func Similarity(name, rootBase string) int {
	a := []rune(norm.NFC.String(name))
	b := []rune(norm.NFC.String(rootBase))
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n / SimilarityBucket
}

// IsMatroskaFile reports whether name carries a Matroska extension. A bare
// extension such as ".mkv" does not count.
func IsMatroskaFile(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range MatroskaExtensions {
		if len(lower) > len(ext) && strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// IsLocalPath reports whether p names a file on a local filesystem rather
// than a URL. file:// URLs count as local.
func IsLocalPath(p string) bool {
	u, err := url.Parse(p)
	if err != nil {
		return true
	}
	// Single letter schemes are Windows drive letters.
	if len(u.Scheme) <= 1 {
		return true
	}
	return u.Scheme == "file"
}

// LoadList reads an index file with one candidate path per line.
//
// Blank lines and lines starting with '#' are ignored. Relative paths are
// resolved against the directory of the index file.
func LoadList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open reference list: %w", err)
	}
	defer f.Close()

	dir := filepath.Dir(path)
	var paths []string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		line = strings.TrimPrefix(line, "\ufeff")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if IsLocalPath(line) && !filepath.IsAbs(line) {
			line = filepath.Join(dir, line)
		}
		paths = append(paths, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read reference list: %w", err)
	}

	return paths, nil
}
