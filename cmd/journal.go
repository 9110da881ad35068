package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"facecrop-go/internal/journal"
)

var (
	journalLimit     int
	journalWithCrops bool
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Print recorded capture sessions as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(cfg.JournalPath); err != nil {
			return fmt.Errorf("no journal at %s: %w", cfg.JournalPath, err)
		}
		j, err := journal.Open(cfg.JournalPath)
		if err != nil {
			return err
		}
		defer j.Close()

		sessions, err := j.Sessions(journalLimit, journalWithCrops)
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Println("No sessions recorded.")
			return nil
		}

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(sessions)
	},
}

func init() {
	journalCmd.Flags().IntVarP(&journalLimit, "limit", "l", 10, "number of most recent sessions (0 = all)")
	journalCmd.Flags().BoolVar(&journalWithCrops, "crops", false, "include every saved crop")
	rootCmd.AddCommand(journalCmd)
}
