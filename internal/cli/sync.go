package cli

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"pm/internal/export"
)

func (a *App) cmdSync(args []string) error {
	fs := flag.NewFlagSet("sync", flag.ContinueOnError)
	project := fs.String("project", "", "limit to one project")
	limit := fs.Int("limit", 0, "maximum commits to read per repo")
	stats := fs.Bool("stats", false, "print commit stats after syncing")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *project != "" {
		p, err := a.resolveProject(*project)
		if err != nil {
			return err
		}
		added, completed, err := a.Scanner.ScanProject(p, *limit)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "%s: %d new commits, %d todos completed\n", p.Name, added, completed)
		if *stats {
			return a.printStats(p.ID, p.Name)
		}
		return nil
	}

	results, err := a.Scanner.SyncAll(*limit)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(a.Out, "Everything up to date.")
		return nil
	}

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		r := results[name]
		fmt.Fprintf(a.Out, "%s: %d new commits, %d todos completed\n", name, r[0], r[1])
	}
	return nil
}

func (a *App) printStats(projectID int64, name string) error {
	since := time.Now().AddDate(0, 0, -30)
	stats, err := a.Metrics.Stats(projectID, since)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.Out, sty.Header.Render(fmt.Sprintf("%s, last 30 days", name)))
	fmt.Fprintf(a.Out, "Commits:   %d\n", stats.TotalCommits)
	fmt.Fprintf(a.Out, "Changed:   +%d -%d across %d files\n",
		stats.TotalInsertions, stats.TotalDeletions, stats.TotalFilesChanged)
	fmt.Fprintf(a.Out, "Authors:   %d\n", stats.UniqueAuthors)

	timeline, err := a.Metrics.ActivityTimeline(projectID, 14)
	if err != nil {
		return err
	}
	if len(timeline) > 0 {
		fmt.Fprintln(a.Out, sty.Header.Render("Activity"))
		for _, day := range timeline {
			fmt.Fprintf(a.Out, "%s  %2d commits  +%d -%d\n",
				day.Date.Format(dateFormat), day.Commits, day.Insertions, day.Deletions)
		}
	}

	recent, err := a.DB.RecentCommits(projectID, 5)
	if err != nil {
		return err
	}
	if len(recent) > 0 {
		fmt.Fprintln(a.Out, sty.Header.Render("Recent commits"))
		for _, c := range recent {
			sha := c.SHA
			if len(sha) > 7 {
				sha = sha[:7]
			}
			subject := strings.SplitN(c.Message, "\n", 2)[0]
			fmt.Fprintf(a.Out, "%s  %s  %s\n",
				sha, c.CommittedAt.Format(dateFormat), truncate(subject, 60))
		}
	}
	return nil
}

func (a *App) cmdExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	project := fs.String("project", "", "project name or id")
	out := fs.String("out", "", "output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	p, err := a.resolveProject(*project)
	if err != nil {
		return err
	}

	w := a.Out
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	if err := export.Export(a.DB, p.Name, w); err != nil {
		return err
	}
	if *out != "" {
		fmt.Fprintf(a.Out, "Exported %s to %s\n", p.Name, *out)
	}
	return nil
}

func (a *App) cmdImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	in := fs.String("in", "", "input file (default stdin)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	r := a.Stdin
	if *in != "" {
		f, err := os.Open(*in)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	p, err := export.Import(a.DB, r)
	if err != nil {
		return err
	}

	if _, err := a.Priority.RecalculateAll(&p.ID); err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Imported project %s (#%d)\n", p.Name, p.ID)
	return nil
}
