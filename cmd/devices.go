package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"facecrop-go/internal/camera"
	"facecrop-go/internal/helpers"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List V4L2 video devices and the processes holding them",
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := camera.DiscoverDevices()
		if err != nil {
			return err
		}
		if len(devices) == 0 {
			fmt.Println("No video devices found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "INDEX\tDEVICE\tNAME\tHELD BY")
		fmt.Fprintln(w, "-----\t------\t----\t-------")
		for _, d := range devices {
			holders := "-"
			if pids := helpers.HolderPIDs(d.Path); len(pids) > 0 {
				holders = fmt.Sprint(pids)
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", d.Index, d.Path, d.Name, holders)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
