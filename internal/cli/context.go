package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lukaszraczylo/idptest/internal/sessionctx"
)

func (a *App) contextCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Inspect or clear the stored test context",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the session stored by the latest run",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.showContext(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Forget the session stored by the latest run",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.clearContext(cmd.Context())
			},
		},
	)
	return cmd
}

func (a *App) showContext(ctx context.Context) error {
	store, release, err := a.contextStore()
	if err != nil {
		return err
	}
	defer func() { _ = release() }()

	sess, ok, err := sessionctx.LoadSession(ctx, sessionctx.Bind(store, a.cfg.Context.ID))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintf(a.out, "Context %s holds no session\n", a.cfg.Context.ID)
		return nil
	}
	fmt.Fprintf(a.out, "Context:  %s\nSession:  %s\nIdP:      %s\nTenant:   %s\n",
		a.cfg.Context.ID, sess.SessionID, sess.IdpID, sess.TenantDomain)
	return nil
}

func (a *App) clearContext(ctx context.Context) error {
	store, release, err := a.contextStore()
	if err != nil {
		return err
	}
	defer func() { _ = release() }()

	if err := store.Clear(ctx, a.cfg.Context.ID); err != nil {
		return fmt.Errorf("failed to clear context %s: %w", a.cfg.Context.ID, err)
	}
	fmt.Fprintf(a.out, "Cleared context %s\n", a.cfg.Context.ID)
	return nil
}
