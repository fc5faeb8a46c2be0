package cli

import (
	"context"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/lukaszraczylo/idptest/internal/console"
	"github.com/lukaszraczylo/idptest/internal/debugflow"
	"github.com/lukaszraczylo/idptest/internal/sessionctx"
)

func (a *App) resultCommand() *cobra.Command {
	var location, sessionID string

	cmd := &cobra.Command{
		Use:   "result [idpId]",
		Short: "Show the result of a connection test",
		Long: `Shows the result of a connection test. The session id is taken from the
current context first, then from --url or --session, then from the opener
context.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var idpID string
			if len(args) == 1 {
				idpID = args[0]
			}
			return a.showStoredResult(cmd.Context(), idpID, location, sessionID)
		},
	}
	cmd.Flags().StringVar(&location, "url", "", "results URL printed by a run")
	cmd.Flags().StringVar(&sessionID, "session", "", "debug session id")
	return cmd
}

func (a *App) showStoredResult(ctx context.Context, idpID, location, sessionID string) error {
	log := a.log("result")
	tenant := a.cfg.Server.TenantDomain

	loc, err := resultLocation(location, tenant, idpID, sessionID)
	if err != nil {
		return err
	}
	if idpID == "" {
		if route, err := debugflow.ParseRoute(loc.String()); err == nil && route.IdpID != "" {
			idpID = route.IdpID
		}
	}

	api, err := a.apiClient()
	if err != nil {
		return err
	}
	store, release, err := a.contextStore()
	if err != nil {
		return err
	}
	defer func() { _ = release() }()

	storage := sessionctx.Bind(store, a.cfg.Context.ID)
	if idpID == "" {
		if sess, ok, err := sessionctx.LoadSession(ctx, storage); err == nil && ok {
			idpID = sess.IdpID
		}
	}

	opener := sessionctx.NewOpener(store, a.cfg.Context.OpenerID)
	view := console.NewResultView(tenant, idpID, debugflow.NewFetcher(api, a.catalog, log), storage, opener, log)
	return a.showResult(ctx, view, loc)
}

// resultLocation is the location the results view is opened at.
func resultLocation(location, tenant, idpID, sessionID string) (*url.URL, error) {
	if location != "" {
		loc, err := url.Parse(location)
		if err != nil {
			return nil, fmt.Errorf("invalid results URL: %w", err)
		}
		return loc, nil
	}
	if sessionID != "" {
		return url.Parse(debugflow.ResultsPath(tenant, idpID, sessionID))
	}
	return &url.URL{}, nil
}
