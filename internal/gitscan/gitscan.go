// Package gitscan reads commit history from project repositories and syncs
// it into the store. It shells out to the git binary; projects without a
// .git directory are skipped.
package gitscan

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"pm/internal/db"
	"pm/internal/models"
)

// Scanner syncs git history into the store.
type Scanner struct {
	db  *db.DB
	log *log.Logger
}

// New creates a scanner.
func New(database *db.DB, logger *log.Logger) *Scanner {
	if logger == nil {
		logger = log.Default()
	}
	return &Scanner{db: database, log: logger}
}

// ScanProject reads new commits from a project's repository and applies
// them in one transaction. Returns commits added and todos auto-completed
// by commit-message keywords.
func (s *Scanner) ScanProject(project *models.Project, limit int) (int, int, error) {
	if !project.HasGit {
		return 0, 0, nil
	}
	if _, err := os.Stat(filepath.Join(project.Path, ".git")); err != nil {
		return 0, 0, nil
	}

	entries, err := readLog(project.Path, limit)
	if err != nil {
		return 0, 0, fmt.Errorf("read git log for %s: %w", project.Name, err)
	}

	existing, err := s.db.ExistingSHAs(project.ID)
	if err != nil {
		return 0, 0, err
	}

	var commits []models.Commit
	completions := make(map[int64]time.Time)
	for i := range entries {
		e := &entries[i]
		if existing[e.SHA] {
			continue
		}

		ref := ParseMessage(e.Message)
		commits = append(commits, models.Commit{
			ProjectID:    project.ID,
			SHA:          e.SHA,
			Message:      e.Message,
			Author:       e.Author,
			CommittedAt:  e.CommittedAt,
			FilesChanged: e.FilesChanged,
			Insertions:   e.Insertions,
			Deletions:    e.Deletions,
			TodoIDs:      ref.TodoIDs,
		})

		if ref.Completes {
			for _, id := range ref.TodoIDs {
				if _, ok := completions[id]; !ok || e.CommittedAt.After(completions[id]) {
					completions[id] = e.CommittedAt
				}
			}
		}
	}

	added, completed, err := s.db.ApplyCommits(project.ID, commits, completions)
	if err != nil {
		return 0, 0, err
	}
	if added > 0 {
		s.log.Debug("synced commits", "project", project.Name, "added", added, "completed", completed)
	}
	return added, completed, nil
}

// SyncAll scans every git-tracked project. Returns per-project results
// keyed by name, omitting projects with nothing new.
func (s *Scanner) SyncAll(limit int) (map[string][2]int, error) {
	projects, err := s.db.ListProjects("", "name")
	if err != nil {
		return nil, err
	}

	results := make(map[string][2]int)
	for i := range projects {
		if !projects[i].HasGit {
			continue
		}
		added, completed, err := s.ScanProject(&projects[i], limit)
		if err != nil {
			s.log.Warn("scan failed", "project", projects[i].Name, "err", err)
			continue
		}
		if added > 0 || completed > 0 {
			results[projects[i].Name] = [2]int{added, completed}
		}
	}
	return results, nil
}

// logEntry is one parsed commit from git log output.
type logEntry struct {
	SHA          string
	Author       string
	CommittedAt  time.Time
	Message      string
	FilesChanged int
	Insertions   int
	Deletions    int
}

// Field and record separators for the pretty format. Control characters
// cannot appear in commit metadata, so splitting on them is safe.
const (
	recordSep = "\x1e"
	fieldSep  = "\x1f"
)

// readLog runs git log with numstat output and parses it. A limit of 0
// reads the full history.
func readLog(repoPath string, limit int) ([]logEntry, error) {
	args := []string{
		"-C", repoPath, "log", "--no-merges", "--numstat",
		"--pretty=format:" + recordSep + "%H" + fieldSep + "%an <%ae>" + fieldSep + "%ct" + fieldSep + "%B" + fieldSep,
	}
	if limit > 0 {
		args = append(args, fmt.Sprintf("--max-count=%d", limit))
	}

	out, err := exec.Command("git", args...).Output()
	if err != nil {
		return nil, err
	}
	return parseLog(string(out))
}

// parseLog splits raw git log output into entries
func parseLog(out string) ([]logEntry, error) {
	var entries []logEntry

	for _, record := range strings.Split(out, recordSep) {
		if strings.TrimSpace(record) == "" {
			continue
		}
		fields := strings.SplitN(record, fieldSep, 5)
		if len(fields) < 5 {
			continue
		}

		unix, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad commit timestamp %q: %w", fields[2], err)
		}

		entry := logEntry{
			SHA:         fields[0],
			Author:      fields[1],
			CommittedAt: time.Unix(unix, 0).UTC(),
			Message:     strings.TrimSpace(fields[3]),
		}

		// Remaining lines are numstat: insertions, deletions, path
		for _, line := range strings.Split(fields[4], "\n") {
			parts := strings.Fields(line)
			if len(parts) != 3 {
				continue
			}
			entry.FilesChanged++
			// Binary files report "-"
			if ins, err := strconv.Atoi(parts[0]); err == nil {
				entry.Insertions += ins
			}
			if del, err := strconv.Atoi(parts[1]); err == nil {
				entry.Deletions += del
			}
		}

		entries = append(entries, entry)
	}
	return entries, nil
}
