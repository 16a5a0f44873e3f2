package cli

import "pm/internal/ui"

func (a *App) cmdReview(args []string) error {
	return ui.Run(a.DB, a.Config, a.Log)
}
