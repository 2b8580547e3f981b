package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newSettingsCommand(global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect or reset the classifier settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the active classifier settings as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := global.openHeadless(cmd)
			if err != nil {
				return err
			}
			defer closeQuietly(h, h.log)

			data, err := yaml.Marshal(h.engine.Settings())
			if err != nil {
				return fmt.Errorf("failed to encode settings: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Restore the default classifier settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := global.openHeadless(cmd)
			if err != nil {
				return err
			}
			defer closeQuietly(h, h.log)

			s, err := h.engine.ResetSettings()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Settings reset to defaults (algorithm %s)\n", s.Algorithm)
			return nil
		},
	})

	return cmd
}
