package gitscan

import (
	"regexp"
	"strconv"
	"strings"
)

// Patterns matching todo references in commit messages.
var todoPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)#T(\d+)`),            // #T42
	regexp.MustCompile(`#(\d+)`),                 // #42
	regexp.MustCompile(`(?i)todo[:\s]+#?(\d+)`),  // todo: #42, todo 42
	regexp.MustCompile(`(?i)fixes?\s+#(\d+)`),    // fixes #42, fix #42
	regexp.MustCompile(`(?i)closes?\s+#(\d+)`),   // closes #42, close #42
	regexp.MustCompile(`(?i)resolves?\s+#(\d+)`), // resolves #42, resolve #42
}

// Keywords that mark referenced todos as completed.
var completionKeywords = []string{
	"fix", "fixes", "fixed",
	"close", "closes", "closed",
	"resolve", "resolves", "resolved",
	"complete", "completes", "completed",
}

// MessageRef is the result of parsing a commit message.
type MessageRef struct {
	TodoIDs   []int64
	Completes bool
}

// ParseMessage extracts todo references and the completion signal from a
// commit message.
func ParseMessage(message string) MessageRef {
	ref := MessageRef{}

	lower := strings.ToLower(message)
	for _, keyword := range completionKeywords {
		if strings.Contains(lower, keyword) {
			ref.Completes = true
			break
		}
	}

	seen := make(map[int64]bool)
	for _, pattern := range todoPatterns {
		for _, match := range pattern.FindAllStringSubmatch(message, -1) {
			id, err := strconv.ParseInt(match[1], 10, 64)
			if err != nil {
				continue
			}
			if !seen[id] {
				seen[id] = true
				ref.TodoIDs = append(ref.TodoIDs, id)
			}
		}
	}
	return ref
}
