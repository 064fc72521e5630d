package main

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/wanderinn/go-client/access"
	"github.com/wanderinn/go-client/api"
	"github.com/wanderinn/go-client/gateway"
	"github.com/wanderinn/go-client/internal/config"
	"github.com/wanderinn/go-client/session"
	"github.com/wanderinn/go-client/tokenstore"
)

// app bundles the wired SDK components the commands share.
type app struct {
	cfg      *config.Config
	tokens   tokenstore.Repo
	client   *api.Client
	store    *session.Store
	gate     *access.Gate
	registry *prometheus.Registry
}

func buildApp(cfg *config.Config) (*app, error) {
	tokenPath, err := cfg.GetTokenFile()
	if err != nil {
		return nil, errors.Wrap(err, "[buildApp] resolving token file")
	}
	tokens := tokenstore.NewFileRepo(tokenPath)

	registry := prometheus.NewRegistry()
	gw, err := gateway.New(cfg.APIBaseURL, tokens,
		gateway.WithRefreshTimeout(cfg.RefreshTimeout),
		gateway.WithMetrics(gateway.NewMetrics(registry)),
	)
	if err != nil {
		return nil, errors.Wrap(err, "[buildApp] gateway.New")
	}

	client, err := api.NewClient(gw)
	if err != nil {
		return nil, errors.Wrap(err, "[buildApp] api.NewClient")
	}

	store, err := session.NewStore(tokens, client)
	if err != nil {
		return nil, errors.Wrap(err, "[buildApp] session.NewStore")
	}

	// An unrecoverable refresh ends the session; the next command starts
	// from the login entry point.
	gw.OnSessionExpired = func() {
		store.Reset()
		log.Warn().Str("next", access.LoginRoute).Msg("session expired, sign in again")
	}

	return &app{
		cfg:      cfg,
		tokens:   tokens,
		client:   client,
		store:    store,
		gate:     access.NewGate(store),
		registry: registry,
	}, nil
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	var a *app

	root := &cobra.Command{
		Use:           "wanderinn",
		Short:         "WanderInn hotel booking platform client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			a, err = buildApp(cfg)
			return err
		},
	}

	displayAppname("WanderInn")

	root.AddCommand(
		newLoginCmd(func() *app { return a }),
		newLogoutCmd(func() *app { return a }),
		newWhoamiCmd(func() *app { return a }),
		newHotelsCmd(func() *app { return a }),
		newBookingsCmd(func() *app { return a }),
		newRouteCmd(func() *app { return a }),
		newMetricsCmd(func() *app { return a }),
	)
	return root
}
