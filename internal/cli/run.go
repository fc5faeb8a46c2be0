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

func (a *App) runCommand() *cobra.Command {
	var noBrowser bool

	cmd := &cobra.Command{
		Use:   "run <idpId>",
		Short: "Run the connection test of an identity provider",
		Long: `Starts a connection test, opens the authorization URL in a browser and
shows the results once the window is closed or the run timeout passes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTest(cmd.Context(), args[0], !noBrowser)
		},
	}
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "print the authorization URL instead of opening it")
	return cmd
}

func (a *App) runTest(ctx context.Context, idpID string, openBrowser bool) error {
	log := a.log("run")
	tenant := a.cfg.Server.TenantDomain

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

	var popups debugflow.PopupOpener
	if openBrowser && a.newPopups != nil {
		if popups, err = a.newPopups(a.cfg, log); err != nil {
			return err
		}
	}

	render := a.renderer()
	router := console.NewRouter(debugflow.ConnectionPath(tenant, idpID), log)
	runner := debugflow.NewRunner(api, storage, popups, router, debugflow.RunnerConfig{
		TenantDomain: tenant,
		PollInterval: a.cfg.Run.PollInterval,
		Timeout:      a.cfg.Run.Timeout,
	}, log)

	view := console.NewTestView(tenant, idpID, runner, api, a.catalog, log)
	view.Load(ctx)
	render.TestView(view)
	fmt.Fprintln(a.out)

	run, err := view.Run(ctx)
	if err != nil {
		return err
	}
	render.Run(run)
	if run.Err != nil {
		render.Statuses(runner.Statuses())
		return errTestFailed
	}
	if run.AuthorizationURL != "" {
		fmt.Fprintf(a.out, "Waiting for the authentication window (up to %s)…\n", a.cfg.Run.Timeout)
	}
	if err := run.Wait(ctx); err != nil {
		return err
	}
	if !run.Navigated() {
		render.Statuses(runner.Statuses())
		return nil
	}

	fmt.Fprintln(a.out)
	route, err := debugflow.ParseRoute(router.Current())
	if err != nil {
		return err
	}
	opener := sessionctx.NewOpener(store, a.cfg.Context.OpenerID)
	results := console.NewResultView(tenant, idpID, debugflow.NewFetcher(api, a.catalog, log), storage, opener, log)
	return a.showResult(ctx, results, route.Location)
}

// showResult activates the results view and offers a retry while the
// display allows one.
func (a *App) showResult(ctx context.Context, view *console.ResultView, loc *url.URL) error {
	render := a.renderer()

	d := view.Activate(ctx, loc)
	for {
		render.ResultView(view, d)
		if !d.Retryable {
			break
		}
		again, err := a.prompter.Confirm(retryQuestion(d), true)
		if err != nil || !again {
			break
		}
		fmt.Fprintln(a.out)
		d = view.Retry(ctx)
	}

	if d.Kind == console.DisplayError {
		return errTestFailed
	}
	return nil
}

func retryQuestion(d console.Display) string {
	if d.Kind == console.DisplayError && d.State.Err != nil && d.State.Err.IsNotReady() {
		return "The result is not ready yet. Retry?"
	}
	if d.Kind == console.DisplayEmpty {
		return "Refresh the result?"
	}
	return "Retry?"
}
