package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *App) showConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show-config",
		Short: "Display the effective configuration",
		Long:  `Shows the configuration loaded from defaults, the configuration file, .env files and the environment. Secrets are masked.`,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			_, err := fmt.Fprint(a.out, a.cfg.String())
			return err
		},
	}
}
