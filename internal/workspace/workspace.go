// Package workspace discovers projects by scanning a directory of project
// folders.
package workspace

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"pm/internal/claudemd"
	"pm/internal/db"
	"pm/internal/models"
)

// ScanResult reports what a workspace scan found.
type ScanResult struct {
	ProjectsAdded int
	ProjectsSeen  int
	GoalsSeeded   int
}

// Scan walks the immediate subdirectories of root and registers each as a
// project. Already-registered paths are left untouched. A CLAUDE.md in a
// project directory seeds its description, tech stack and initial goals.
func Scan(database *db.DB, root string, logger *log.Logger) (*ScanResult, error) {
	if logger == nil {
		logger = log.Default()
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	result := &ScanResult{}
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name()[0] == '.' {
			continue
		}
		result.ProjectsSeen++

		path := filepath.Join(root, entry.Name())
		added, goals, err := registerProject(database, entry.Name(), path)
		if err != nil {
			if errors.Is(err, db.ErrDuplicate) {
				continue
			}
			return nil, err
		}
		if added {
			result.ProjectsAdded++
			result.GoalsSeeded += goals
			logger.Debug("registered project", "name", entry.Name(), "goals", goals)
		}
	}
	return result, nil
}

func registerProject(database *db.DB, name, path string) (bool, int, error) {
	if _, err := database.GetProjectByName(name); err == nil {
		return false, 0, nil
	}

	hasGit := isGitRepo(path)
	doc, err := claudemd.ParseFile(filepath.Join(path, "CLAUDE.md"))
	if err != nil {
		return false, 0, err
	}

	project, err := database.CreateProject(&models.Project{
		Name:        name,
		Path:        path,
		Description: doc.Description,
		TechStack:   doc.TechStack,
		HasGit:      hasGit,
	})
	if err != nil {
		return false, 0, err
	}

	seeded := 0
	for _, hint := range doc.Goals {
		_, err := database.CreateGoal(&models.Goal{
			ProjectID: project.ID,
			Title:     hint.Title,
			Category:  hint.Category,
			Priority:  claudemd.SuggestPriority(hint.Title),
		})
		if err != nil {
			return true, seeded, err
		}
		seeded++
	}
	return true, seeded, nil
}

func isGitRepo(path string) bool {
	info, err := os.Stat(filepath.Join(path, ".git"))
	return err == nil && info.IsDir()
}
