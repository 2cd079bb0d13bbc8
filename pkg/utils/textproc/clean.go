package textproc

import (
	"regexp"
	"strings"
)

// Patterns for Slack-flavored markup. Order of application matters: masked
// links and bare URLs are rewritten only after mentions and emoji codes are
// gone, so their patterns can assume plain `<...>` tokens.
var (
	userMentionRe    = regexp.MustCompile(`<@[A-Z0-9]+>`)
	channelMentionRe = regexp.MustCompile(`<#[A-Z0-9]+\|[^>]+>`)
	bareChannelRe    = regexp.MustCompile(`<#[A-Z0-9]+>`)
	emojiCodeRe      = regexp.MustCompile(`:[a-zA-Z0-9_+-]+:`)
	maskedLinkRe     = regexp.MustCompile(`<([^|>]+)\|([^>]+)>`)
	bareURLRe        = regexp.MustCompile(`<(https?://[^>]+)>`)
	whitespaceRe     = regexp.MustCompile(`\s+`)
)

// Clean strips Slack markup from a raw message so the remainder can be used
// as a retrieval query or stored in conversation memory. Total and pure:
// empty input yields an empty string, and Clean(Clean(x)) == Clean(x).
func Clean(text string) string {
	if text == "" {
		return ""
	}

	text = userMentionRe.ReplaceAllString(text, "")
	text = channelMentionRe.ReplaceAllString(text, "")
	text = bareChannelRe.ReplaceAllString(text, "")
	text = emojiCodeRe.ReplaceAllString(text, "")
	text = maskedLinkRe.ReplaceAllString(text, "$2")
	text = bareURLRe.ReplaceAllString(text, "$1")
	text = whitespaceRe.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}

var (
	fencedCodeRe = regexp.MustCompile("(?s)```(?:\\w+)?\\n?(.*?)```")
	inlineCodeRe = regexp.MustCompile("`([^`]+)`")
)

// codeBlockPlaceholder replaces fenced blocks in the remaining text
const codeBlockPlaceholder = "[CODE_BLOCK]"

// ExtractCodeBlocks pulls code spans out of a message. Fenced blocks are
// extracted first and replaced with a placeholder so inline extraction does
// not match inside them. Returns the remaining text and the code spans in
// order of appearance (fenced before inline).
func ExtractCodeBlocks(text string) (string, []string) {
	var blocks []string

	for _, m := range fencedCodeRe.FindAllStringSubmatch(text, -1) {
		blocks = append(blocks, m[1])
	}
	remaining := fencedCodeRe.ReplaceAllString(text, codeBlockPlaceholder)

	for _, m := range inlineCodeRe.FindAllStringSubmatch(remaining, -1) {
		blocks = append(blocks, m[1])
	}

	return remaining, blocks
}

// questionIndicators is a fixed heuristic list; matching is substring based
// and case-insensitive.
var questionIndicators = []string{
	"?",
	"how",
	"what",
	"why",
	"when",
	"where",
	"which",
	"who",
	"can i",
	"could you",
	"is it",
	"are there",
	"does",
	"do i",
	"help me",
	"explain",
	"tell me",
}

// IsQuestion reports whether the cleaned text is likely a question
func IsQuestion(text string) bool {
	lower := strings.ToLower(text)
	for _, indicator := range questionIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

// ellipsis marks truncated text
const ellipsis = "..."

// Truncate cuts text to at most maxLen runes, preferring a word boundary:
// the cut happens at the last space before the limit only when that space is
// within 80% of the limit, otherwise it hard-cuts. The ellipsis marker is
// appended only when the text was actually truncated.
func Truncate(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}

	truncated := runes[:maxLen]
	lastSpace := -1
	for i := len(truncated) - 1; i >= 0; i-- {
		if truncated[i] == ' ' {
			lastSpace = i
			break
		}
	}

	if lastSpace > maxLen*8/10 {
		truncated = truncated[:lastSpace]
	}

	return string(truncated) + ellipsis
}
