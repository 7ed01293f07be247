package main

import (
	"context"
	"fmt"
	"io"

	"github.com/anonto42/discuss/internal/drawer"
	"github.com/anonto42/discuss/internal/session"
	"github.com/anonto42/discuss/internal/store"
	"github.com/anonto42/discuss/pkg/api"
	"github.com/anonto42/discuss/pkg/config"
	"github.com/anonto42/discuss/pkg/log"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type options struct {
	apiURL   string
	token    string
	email    string
	password string
	logLevel string
}

// app wires one client session: the comment list, the drawer stack and the identity behind them.
type app struct {
	out     io.Writer
	log     *zap.Logger
	client  *api.Client
	session *session.Session
	store   *store.Store
	stack   *drawer.Stack
}

func newRootCmd() *cobra.Command {
	cfg := config.LoadClient()
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "discuss",
		Short:         "Read and write the discussion from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.apiURL, "api-url", cfg.APIURL, "base URL of the comment service")
	flags.StringVar(&opts.token, "token", cfg.Token, "bearer token from a previous login")
	flags.StringVar(&opts.email, "email", "", "email to sign in with")
	flags.StringVar(&opts.password, "password", "", "password to sign in with")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level for client diagnostics")

	cmd.AddCommand(
		newRegisterCmd(opts),
		newLoginCmd(opts),
		newListCmd(opts),
		newShowCmd(opts),
		newPostCmd(opts),
		newReplyCmd(opts),
		newUpvoteCmd(opts),
		newDeleteCmd(opts),
		newBrowseCmd(opts),
	)
	return cmd
}

// newApp builds the client and signs in with --token or --email/--password when given.
func newApp(ctx context.Context, cmd *cobra.Command, opts *options) (*app, error) {
	logger, err := log.New()
	if err != nil {
		return nil, err
	}
	if err := log.SetLevel(opts.logLevel); err != nil {
		return nil, fmt.Errorf("invalid --log-level: %w", err)
	}
	return newAppWithLogger(ctx, cmd.OutOrStdout(), opts, logger)
}

func newAppWithLogger(ctx context.Context, out io.Writer, opts *options, logger *zap.Logger) (*app, error) {
	client := api.New(opts.apiURL)
	sess := session.New(client)
	client.UseTokens(sess)

	switch {
	case opts.token != "":
		if err := sess.Restore(ctx, opts.token); err != nil {
			return nil, fmt.Errorf("token rejected: %w", err)
		}
	case opts.email != "" && opts.password != "":
		if err := sess.Login(ctx, opts.email, opts.password); err != nil {
			return nil, err
		}
	}

	return &app{
		out:     out,
		log:     logger,
		client:  client,
		session: sess,
		store:   store.New(client, logger),
		stack:   drawer.NewStack(client, logger),
	}, nil
}

func (a *app) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.out, format, args...)
}
