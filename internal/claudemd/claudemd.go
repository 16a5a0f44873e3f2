// Package claudemd extracts project metadata from CLAUDE.md files found in
// scanned workspace directories.
package claudemd

import (
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Limits on extracted text.
const (
	maxDescription = 500
	maxTechStack   = 10
)

// GoalHint is a candidate goal parsed from a roadmap-style section.
type GoalHint struct {
	Title    string
	Category string
}

// Doc is the structured content of a CLAUDE.md file.
type Doc struct {
	Description string
	TechStack   []string
	Commands    map[string]string
	Goals       []GoalHint
}

var techKeywords = []string{
	"python", "javascript", "typescript", "react", "vue", "angular",
	"node", "express", "fastapi", "django", "flask",
	"swift", "kotlin", "java", "go", "rust",
	"postgresql", "mysql", "mongodb", "redis",
	"docker", "kubernetes", "aws", "gcp", "azure",
	"nextjs", "gatsby", "nuxt", "svelte",
}

var (
	overviewRe  = sectionRe("Overview")
	commandsRe  = sectionRe("Commands")
	codeBlockRe = regexp.MustCompile("(?s)```(?:bash|sh)?\n(.*?)```")

	goalSectionRes = []*regexp.Regexp{
		sectionRe(`Next\s+Steps`),
		sectionRe("TODO"),
		sectionRe("Roadmap"),
		sectionRe(`Planned\s+Features`),
	}

	listItemRes = []*regexp.Regexp{
		regexp.MustCompile(`^\s*[-*]\s+\[[ x]\]\s+(.+)$`), // checkbox list
		regexp.MustCompile(`^\s*[-*]\s+(.+)$`),            // bullet list
		regexp.MustCompile(`^\s*\d+\.\s+(.+)$`),           // numbered list
	}
)

func sectionRe(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?is)##\s+` + name + `\s*\n+(.*?)(\n##|\z)`)
}

// ParseFile parses a CLAUDE.md file. A missing file yields an empty Doc.
func ParseFile(path string) (*Doc, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Doc{}, nil
		}
		return nil, err
	}
	return Parse(string(content)), nil
}

// Parse extracts structured data from CLAUDE.md content.
func Parse(content string) *Doc {
	return &Doc{
		Description: extractDescription(content),
		TechStack:   extractTechStack(content),
		Commands:    extractCommands(content),
		Goals:       extractGoals(content),
	}
}

// extractDescription takes the Overview section's first paragraph, falling
// back to the first paragraph after the title
func extractDescription(content string) string {
	if m := overviewRe.FindStringSubmatch(content); m != nil {
		desc := strings.TrimSpace(m[1])
		if i := strings.Index(desc, "\n\n"); i >= 0 {
			desc = desc[:i]
		}
		return truncate(desc, maxDescription)
	}

	var descLines []string
	foundTitle := false
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "# ") {
			foundTitle = true
			continue
		}
		if foundTitle && strings.TrimSpace(line) != "" {
			if strings.HasPrefix(line, "#") {
				break
			}
			descLines = append(descLines, strings.TrimSpace(line))
			if len(strings.Join(descLines, " ")) > maxDescription {
				break
			}
		}
	}
	return truncate(strings.Join(descLines, " "), maxDescription)
}

func extractTechStack(content string) []string {
	lower := strings.ToLower(content)
	var found []string
	for _, tech := range techKeywords {
		if strings.Contains(lower, tech) {
			found = append(found, strings.ToUpper(tech[:1])+tech[1:])
			if len(found) == maxTechStack {
				break
			}
		}
	}
	return found
}

// extractCommands pulls shell lines out of Commands-section code blocks,
// keyed by the command's first word
func extractCommands(content string) map[string]string {
	commands := make(map[string]string)

	m := commandsRe.FindStringSubmatch(content)
	if m == nil {
		return commands
	}

	for i, block := range codeBlockRe.FindAllStringSubmatch(m[1], -1) {
		for _, line := range strings.Split(strings.TrimSpace(block[1]), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			name := strings.Fields(line)[0]
			if name == "cd" || name == "export" || name == "source" {
				continue
			}
			commands[name+"_"+strconv.Itoa(i)] = line
		}
	}
	return commands
}

func extractGoals(content string) []GoalHint {
	var goals []GoalHint
	for _, re := range goalSectionRes {
		if m := re.FindStringSubmatch(content); m != nil {
			goals = append(goals, parseGoalItems(m[1])...)
		}
	}
	return goals
}

func parseGoalItems(section string) []GoalHint {
	var goals []GoalHint
	for _, line := range strings.Split(section, "\n") {
		for _, re := range listItemRes {
			m := re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			title := strings.TrimSpace(m[1])
			if len(title) > 5 && !strings.HasPrefix(title, "#") {
				goals = append(goals, GoalHint{Title: title, Category: InferCategory(title)})
			}
			break
		}
	}
	return goals
}

// InferCategory guesses a goal category from its title.
func InferCategory(title string) string {
	lower := strings.ToLower(title)
	switch {
	case containsAny(lower, "fix", "bug", "issue", "error"):
		return "bugfix"
	case containsAny(lower, "refactor", "cleanup", "improve"):
		return "refactor"
	case containsAny(lower, "doc", "readme", "guide"):
		return "docs"
	case containsAny(lower, "deploy", "ci", "test", "build"):
		return "ops"
	default:
		return "feature"
	}
}

// SuggestPriority suggests a goal priority from title keywords.
func SuggestPriority(title string) int {
	lower := strings.ToLower(title)
	switch {
	case containsAny(lower, "critical", "urgent", "blocker", "security"):
		return 90
	case containsAny(lower, "important", "bug", "fix", "issue"):
		return 70
	case containsAny(lower, "enhance", "improve", "optimize"):
		return 60
	default:
		return 50
	}
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
