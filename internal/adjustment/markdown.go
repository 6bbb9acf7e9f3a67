package adjustment

// markdown.go — lightweight syntax check for the free-text description.
//
// Descriptions are markdown-flavored. The check flags unpaired emphasis
// and code markers and unbalanced link brackets, line by line. Issues
// are warnings only: the caller reports them and lets the user decide
// whether to re-enter the text or keep it as-is.

import (
	"fmt"
	"strings"
)

// Issue is one markdown-syntax warning, anchored to a 1-based line.
type Issue struct {
	Line    int
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("line %d: %s", i.Line, i.Message)
}

// LintMarkdown scans text for unpaired markers. It returns every issue
// found; an empty slice means the text looks clean.
func LintMarkdown(text string) []Issue {
	var issues []Issue
	for n, line := range strings.Split(text, "\n") {
		issues = append(issues, lintLine(n+1, line)...)
	}
	return issues
}

func lintLine(n int, line string) []Issue {
	var issues []Issue

	if strings.Count(line, "`")%2 != 0 {
		issues = append(issues, Issue{Line: n, Message: "unpaired ` code marker"})
	}

	bold := strings.Count(line, "**")
	if bold%2 != 0 {
		issues = append(issues, Issue{Line: n, Message: "unpaired ** bold marker"})
	}
	// Single asterisks left over once bold markers are paired off.
	if (strings.Count(line, "*")-2*bold)%2 != 0 {
		issues = append(issues, Issue{Line: n, Message: "unpaired * italic marker"})
	}

	if open, close := strings.Count(line, "["), strings.Count(line, "]"); open != close {
		issues = append(issues, Issue{Line: n, Message: fmt.Sprintf("unbalanced link brackets (%d '[' vs %d ']')", open, close)})
	}
	if open, close := strings.Count(line, "("), strings.Count(line, ")"); open != close {
		issues = append(issues, Issue{Line: n, Message: fmt.Sprintf("unbalanced parentheses (%d '(' vs %d ')')", open, close)})
	}
	return issues
}
