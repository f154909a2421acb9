// Package tabparse builds Documents from ASCII guitar tab files, reading
// metadata from header lines or an optional YAML front matter block.
package tabparse

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/tabprompt/internal/model"
)

// headerScanLines is how many leading lines are searched for metadata.
const headerScanLines = 15

const (
	defaultArtist = "Unknown"
	defaultTuning = "Standard"
)

var (
	titleRe  = regexp.MustCompile(`(?i)^(title|song|name)\s*:\s*(.+)`)
	artistRe = regexp.MustCompile(`(?i)^(artist|by|band)\s*:\s*(.+)`)
	tuningRe = regexp.MustCompile(`(?i)^tuning\s*:\s*(.+)`)
	tempoRe  = regexp.MustCompile(`(?i)^(bpm|tempo)\s*:\s*(\d+)`)
	extRe    = regexp.MustCompile(`(?i)\.(txt|tab)$`)
)

// frontMatter is the optional YAML block at the top of a file.
type frontMatter struct {
	Title  string `yaml:"title"`
	Artist string `yaml:"artist"`
	Tuning string `yaml:"tuning"`
	Tempo  int    `yaml:"tempo"`
}

// Parse extracts metadata from content. It never fails: anything it cannot
// read falls back to defaults derived from filename.
func Parse(content, filename string) model.Document {
	return parseAt(content, filename, time.Now())
}

func parseAt(content, filename string, now time.Time) model.Document {
	doc := model.Document{
		ID:        "tab_" + uuid.NewString(),
		Title:     titleFromFilename(filename),
		Artist:    defaultArtist,
		Tuning:    defaultTuning,
		Content:   content,
		CreatedAt: now,
	}
	scanHeader(&doc, content)
	if fm, ok := parseFrontMatter(content); ok {
		applyFrontMatter(&doc, fm)
	}
	return doc
}

func titleFromFilename(filename string) string {
	base := filepath.Base(filename)
	base = extRe.ReplaceAllString(base, "")
	return strings.NewReplacer("-", " ", "_", " ").Replace(base)
}

func scanHeader(doc *model.Document, content string) {
	lines := strings.SplitN(content, "\n", headerScanLines+1)
	if len(lines) > headerScanLines {
		lines = lines[:headerScanLines]
	}
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if m := titleRe.FindStringSubmatch(trimmed); m != nil {
			doc.Title = strings.TrimSpace(m[2])
			continue
		}
		if m := artistRe.FindStringSubmatch(trimmed); m != nil {
			doc.Artist = strings.TrimSpace(m[2])
			continue
		}
		if m := tuningRe.FindStringSubmatch(trimmed); m != nil {
			doc.Tuning = strings.TrimSpace(m[1])
			continue
		}
		if m := tempoRe.FindStringSubmatch(trimmed); m != nil {
			if v, err := strconv.Atoi(m[2]); err == nil {
				doc.Tempo = v
			}
		}
	}
}

// parseFrontMatter reads a YAML block delimited by --- lines at the very top
// of the file. Malformed blocks are ignored.
func parseFrontMatter(content string) (frontMatter, bool) {
	trimmed := strings.TrimLeft(content, " \t\r\n")
	if !strings.HasPrefix(trimmed, "---") {
		return frontMatter{}, false
	}
	rest := trimmed[3:]
	idx := strings.Index(rest, "\n---")
	if idx < 0 {
		return frontMatter{}, false
	}
	var fm frontMatter
	if err := yaml.Unmarshal([]byte(rest[:idx]), &fm); err != nil {
		return frontMatter{}, false
	}
	return fm, true
}

func applyFrontMatter(doc *model.Document, fm frontMatter) {
	if v := strings.TrimSpace(fm.Title); v != "" {
		doc.Title = v
	}
	if v := strings.TrimSpace(fm.Artist); v != "" {
		doc.Artist = v
	}
	if v := strings.TrimSpace(fm.Tuning); v != "" {
		doc.Tuning = v
	}
	if fm.Tempo > 0 {
		doc.Tempo = fm.Tempo
	}
}
