package utils

import (
	"regexp"
)

func AssertInvariant(condition bool, message string) {
	if !condition {
		panic("invariant violated - " + message)
	}
}

// ConvertMarkdownToSlack rewrites common markdown constructs into Slack's
// mrkdwn dialect so a sticky configured with markdown renders the same on
// both platforms.
func ConvertMarkdownToSlack(message string) string {
	result := message

	// Convert markdown links [text](url) to Slack format <url|text> first,
	// so later rewrites don't touch the link text.
	linkRegex := regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	result = linkRegex.ReplaceAllString(result, "<$2|$1>")

	// Headings become bold lines; any embedded **bold** collapses into the
	// heading's own emphasis.
	headingRegex := regexp.MustCompile(`(?m)^#+\s*(.+)$`)
	result = headingRegex.ReplaceAllStringFunc(result, func(match string) string {
		content := regexp.MustCompile(`^#+\s*(.+)$`).ReplaceAllString(match, "$1")
		boldRegex := regexp.MustCompile(`\*\*(.+?)\*\*`)
		content = boldRegex.ReplaceAllString(content, "$1")
		return "*" + content + "*"
	})

	// Remaining **text** (double asterisks) becomes *text* (single asterisks)
	boldRegex := regexp.MustCompile(`\*\*(.+?)\*\*`)
	result = boldRegex.ReplaceAllString(result, "*$1*")

	return result
}
