package content

import (
	"path"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

var (
	headingRegex   = regexp.MustCompile(`(?m)^#+\s+(.+)$`)
	extensionRegex = regexp.MustCompile(`\.[^/.]+$`)
	separatorRegex = regexp.MustCompile(`[-_]`)
)

// DeriveTitle picks a title for content that was saved without one. In
// order: the file name without extension, the first markdown heading, the
// first short line that reads like a title, the first line (truncated), and
// finally a date stamp.
func DeriveTitle(text, fileName string, now time.Time) string {
	if fileName != "" {
		name := extensionRegex.ReplaceAllString(path.Base(fileName), "")
		if name = strings.TrimSpace(separatorRegex.ReplaceAllString(name, " ")); name != "" {
			return name
		}
	}

	if m := headingRegex.FindStringSubmatch(text); m != nil {
		if h := strings.TrimSpace(m[1]); h != "" {
			return h
		}
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}

	for _, line := range lines {
		if utf8.RuneCountInString(line) < 100 && (isUpperLine(line) || isSentence(line)) {
			return strings.TrimSpace(line)
		}
	}

	if len(lines) > 0 {
		first := []rune(strings.TrimSpace(lines[0]))
		if len(first) > 60 {
			return string(first[:57]) + "..."
		}
		return string(first)
	}

	return "Contenido del " + now.Format("2/1/2006")
}

func isUpperLine(line string) bool {
	return strings.ToUpper(line) == line
}

// isSentence reports whether line starts with a capital letter and holds a
// single sentence ending in '.', '!' or '?'.
func isSentence(line string) bool {
	r, _ := utf8.DecodeRuneInString(line)
	if !unicode.IsUpper(r) {
		return false
	}
	body := strings.TrimRight(line, "\r")
	i := strings.IndexAny(body, ".!?")
	return i == len(body)-1
}
