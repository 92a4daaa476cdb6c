package importer

import (
	"bufio"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ParsedJournal represents a single journal file that has been parsed.
type ParsedJournal struct {
	// Path is the absolute filesystem path to the file.
	Path string

	// RelativePath is the path relative to the import root directory.
	RelativePath string

	// Title is derived from the filename or the frontmatter "title" field.
	Title string

	// Entries are the diary entry texts extracted from the body, in order.
	// A file with "## " section headings yields one entry per section;
	// otherwise the whole body is a single entry.
	Entries []string

	// Frontmatter holds the parsed YAML frontmatter key/value pairs.
	Frontmatter map[string]interface{}

	// UserID is the frontmatter "user" field, or "" when absent.
	UserID string

	// Date is from the frontmatter "date" field, or zero if absent.
	Date time.Time
}

// ParseJournalFile parses a journal file's content. Frontmatter is optional;
// wiki links in the body are flattened to plain text before the entries are
// handed to the pipeline.
func ParseJournalFile(content []byte, absolutePath, relativePath string) (*ParsedJournal, error) {
	text := string(content)

	fm, body, err := splitFrontmatter(text)
	if err != nil {
		return nil, fmt.Errorf("frontmatter parse error in %s: %w", relativePath, err)
	}

	title := extractString(fm, "title", "")
	if title == "" {
		title = titleFromPath(relativePath)
	}

	body = StripWikiLinks(body)

	return &ParsedJournal{
		Path:         absolutePath,
		RelativePath: relativePath,
		Title:        title,
		Entries:      splitEntries(body),
		Frontmatter:  fm,
		UserID:       extractString(fm, "user", ""),
		Date:         extractDate(fm),
	}, nil
}

// splitFrontmatter separates YAML frontmatter (between --- delimiters) from
// the body. Returns empty map and full text when no frontmatter found.
func splitFrontmatter(text string) (map[string]interface{}, string, error) {
	scanner := bufio.NewScanner(strings.NewReader(text))

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	if len(lines) == 0 {
		return map[string]interface{}{}, text, nil
	}

	// Frontmatter must start with "---" on the first line.
	if strings.TrimSpace(lines[0]) != "---" {
		return map[string]interface{}{}, text, nil
	}

	closeIdx := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			closeIdx = i
			break
		}
	}

	if closeIdx == -1 {
		// No closing delimiter - treat entire file as body.
		return map[string]interface{}{}, text, nil
	}

	fmText := strings.Join(lines[1:closeIdx], "\n")
	fm := make(map[string]interface{})
	if err := yaml.Unmarshal([]byte(fmText), &fm); err != nil {
		return map[string]interface{}{}, text, fmt.Errorf("invalid YAML: %w", err)
	}

	body := strings.Join(lines[closeIdx+1:], "\n")
	return fm, body, nil
}

// splitEntries breaks a journal body into individual entry texts. Sections
// introduced by "## " headings each become one entry, with the heading line
// dropped. Bodies without section headings stay a single entry. Empty
// sections are skipped.
func splitEntries(body string) []string {
	lines := strings.Split(body, "\n")

	var entries []string
	var current []string
	flush := func() {
		text := strings.TrimSpace(strings.Join(current, "\n"))
		if text != "" {
			entries = append(entries, text)
		}
		current = current[:0]
	}

	for _, line := range lines {
		if strings.HasPrefix(line, "## ") {
			flush()
			continue
		}
		// The file title heading is not entry text.
		if strings.HasPrefix(line, "# ") {
			continue
		}
		current = append(current, line)
	}
	flush()

	return entries
}

// titleFromPath derives a human-readable title from the file name (no extension).
func titleFromPath(rel string) string {
	base := filepath.Base(rel)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	name = strings.ReplaceAll(name, "-", " ")
	name = strings.ReplaceAll(name, "_", " ")
	return strings.TrimSpace(name)
}

// extractDate reads a date field from frontmatter and attempts several
// common layouts.
func extractDate(fm map[string]interface{}) time.Time {
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
		"January 2, 2006",
		"Jan 2, 2006",
	}

	for _, key := range []string{"date", "created", "created_at"} {
		raw, ok := fm[key]
		if !ok {
			continue
		}
		var s string
		switch v := raw.(type) {
		case string:
			s = v
		case time.Time:
			return v
		default:
			s = fmt.Sprintf("%v", v)
		}
		for _, layout := range layouts {
			if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

// extractString pulls a string value from frontmatter by key with a default.
func extractString(fm map[string]interface{}, key, defaultVal string) string {
	v, ok := fm[key]
	if !ok {
		return defaultVal
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return defaultVal
}
