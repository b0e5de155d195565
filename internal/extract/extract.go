// Package extract turns raw note text into the structured facts the index stores:
// a display title, action items (TODO/TASK lines) and open questions.
// Everything here is pure string processing with no external state.
package extract

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

// Kind is the marker that introduced an action item.
type Kind string

const (
	KindTodo Kind = "TODO"
	KindTask Kind = "TASK"
)

// Markers must stand alone as words. RE2's \b only knows ASCII, so the
// boundaries are spelled out with Unicode letter and digit classes.
var (
	actionPattern   = regexp.MustCompile(`(?i)^((?:.*?[^\p{L}\p{N}_])??)(TODO|TASK)((?:[^\p{L}\p{N}_].*)?)$`)
	donePattern     = regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}_])DONE(?:[^\p{L}\p{N}_]|$)`)
	questionPattern = regexp.MustCompile(`(?i)\[QUESTION:\s*([^\]]+)\]`)
)

// bullets are prefixes that carry no meaning of their own.
var bullets = map[string]struct{}{
	"-": {},
	"*": {},
	"•": {},
}

// ActionItem is one TODO or TASK found on a line.
type ActionItem struct {
	Line int // 1-indexed
	Kind Kind
	Text string
	Done bool
}

// Question is one [QUESTION: ...] annotation.
type Question struct {
	Line int // 1-indexed
	Text string
}

// Result holds everything extracted from a document.
type Result struct {
	Title       string
	ActionItems []ActionItem
	Questions   []Question
}

// Extract runs title, action item and question extraction over content.
// filename is used for the title fallback.
func Extract(content, filename string) Result {
	res := Result{Title: Title(content, filename)}
	for i, line := range strings.Split(content, "\n") {
		lineNum := i + 1
		if item, ok := ParseActionItem(line); ok {
			item.Line = lineNum
			res.ActionItems = append(res.ActionItems, item)
		}
		for _, text := range ParseQuestions(line) {
			res.Questions = append(res.Questions, Question{Line: lineNum, Text: text})
		}
	}
	return res
}

// Title returns the first line with leading heading markers removed.
// Falls back to the filename stem when that leaves nothing.
func Title(content, filename string) string {
	first, _, _ := strings.Cut(content, "\n")
	title := strings.TrimSpace(strings.TrimLeft(first, "#"))
	if title == "" {
		return Stem(filename)
	}
	return title
}

// Stem returns the filename without directory and extension.
func Stem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ParseActionItem matches at most one action item on a single line.
// The returned item has Line unset.
func ParseActionItem(line string) (ActionItem, bool) {
	m := actionPattern.FindStringSubmatch(line)
	if m == nil {
		return ActionItem{}, false
	}
	prefix := strings.TrimSpace(m[1])
	suffix := strings.TrimSpace(strings.TrimLeftFunc(m[3], func(r rune) bool {
		return r == ':' || unicode.IsSpace(r)
	}))

	return ActionItem{
		Kind: Kind(strings.ToUpper(m[2])),
		Text: displayText(prefix, suffix, line),
		Done: donePattern.MatchString(line),
	}, true
}

func displayText(prefix, suffix, line string) string {
	if suffix != "" {
		return suffix
	}
	if _, bullet := bullets[prefix]; prefix != "" && !bullet {
		return prefix + ": " + suffix
	}
	return strings.TrimSpace(line)
}

// ParseQuestions returns the text of every [QUESTION: ...] on the line, in order.
// Unlike action items, a line may carry several questions.
func ParseQuestions(line string) []string {
	matches := questionPattern.FindAllStringSubmatch(line, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.TrimSpace(m[1]))
	}
	return out
}
