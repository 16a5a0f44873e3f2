package claudemd

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleDoc = `# My App

A small tool for tracking things.

## Overview

Tracks personal projects and syncs git activity.

With a second paragraph nobody needs.

## Commands

` + "```bash" + `
# build it
go build ./...
cd /tmp
npm test
` + "```" + `

## Next Steps

- [ ] Fix the login bug
- [x] Write user guide
- Add dark mode support
1. Improve cache eviction

## Tech

Built with Go, Redis and Docker.
`

func TestParse(t *testing.T) {
	doc := Parse(sampleDoc)

	if doc.Description != "Tracks personal projects and syncs git activity." {
		t.Errorf("description = %q", doc.Description)
	}

	wantTech := map[string]bool{"Go": true, "Redis": true, "Docker": true}
	for _, tech := range doc.TechStack {
		if !wantTech[tech] {
			t.Errorf("unexpected tech %q", tech)
		}
		delete(wantTech, tech)
	}
	if len(wantTech) != 0 {
		t.Errorf("missing tech: %v", wantTech)
	}

	if len(doc.Commands) != 2 {
		t.Errorf("commands = %v, want build and test lines only", doc.Commands)
	}
	for _, cmd := range doc.Commands {
		if cmd != "go build ./..." && cmd != "npm test" {
			t.Errorf("unexpected command %q", cmd)
		}
	}

	if len(doc.Goals) != 4 {
		t.Fatalf("goals = %+v, want 4", doc.Goals)
	}
	if doc.Goals[0].Title != "Fix the login bug" || doc.Goals[0].Category != "bugfix" {
		t.Errorf("first goal = %+v", doc.Goals[0])
	}
}

func TestExtractDescriptionFallback(t *testing.T) {
	content := "# Tool\n\nDoes one thing well.\n\n## Usage\n\nRun it.\n"
	doc := Parse(content)
	if doc.Description != "Does one thing well." {
		t.Errorf("description = %q", doc.Description)
	}
}

func TestParseFileMissing(t *testing.T) {
	doc, err := ParseFile(filepath.Join(t.TempDir(), "CLAUDE.md"))
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if doc.Description != "" || len(doc.Goals) != 0 {
		t.Errorf("missing file should yield empty doc, got %+v", doc)
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "CLAUDE.md")
	if err := os.WriteFile(path, []byte(sampleDoc), 0644); err != nil {
		t.Fatal(err)
	}

	doc, err := ParseFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Description == "" {
		t.Error("expected parsed description")
	}
}

func TestInferCategory(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Fix crash on resume", "bugfix"},
		{"Refactor storage layer", "refactor"},
		{"Update README examples", "docs"},
		{"Set up CI pipeline", "ops"},
		{"Add export command", "feature"},
	}
	for _, tt := range tests {
		if got := InferCategory(tt.title); got != tt.want {
			t.Errorf("InferCategory(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestSuggestPriority(t *testing.T) {
	tests := []struct {
		title string
		want  int
	}{
		{"Critical security patch", 90},
		{"Fix pagination bug", 70},
		{"Improve load times", 60},
		{"Add themes", 50},
	}
	for _, tt := range tests {
		if got := SuggestPriority(tt.title); got != tt.want {
			t.Errorf("SuggestPriority(%q) = %d, want %d", tt.title, got, tt.want)
		}
	}
}
