package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func latestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "latest",
		Short: "Scan once for new image files across all cameras",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			current := app.currentService(nil)

			cams, err := app.cameras.ListAll()
			if err != nil {
				return err
			}
			for i := range cams {
				cam := &cams[i]
				created, err := current.ScanOnce(cam)
				if err != nil {
					fmt.Printf("Camera %d, %s: scan failed: %v\n", cam.ID, cam.Name, err)
					continue
				}
				if len(created) > 0 {
					fmt.Printf("Camera %d, %s: added %d new files\n", cam.ID, cam.Name, len(created))
				}
			}
			return nil
		},
	}
}
