package cmd

import (
	"github.com/spf13/cobra"

	"facecrop-go/internal/detect"
	"facecrop-go/internal/ui"
)

var guiCmd = &cobra.Command{
	Use:   "gui",
	Short: "Open the capture window (default)",
	RunE:  runGUI,
}

func init() {
	rootCmd.AddCommand(guiCmd)
}

func runGUI(cmd *cobra.Command, args []string) error {
	source, err := newSource(cfg)
	if err != nil {
		return sourceError(cfg, err)
	}
	j, closeJournal := openJournal(cfg)
	defer closeJournal()

	// The window picks the classifier; Start stays disabled until it loads.
	app := ui.NewApp(cfg, ui.Deps{
		Source:  source,
		Engine:  detect.NewEngine(nil),
		Journal: j,
	})
	app.Run(cmd.Context())
	return nil
}
