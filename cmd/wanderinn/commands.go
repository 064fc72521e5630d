package main

import (
	"bufio"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/wanderinn/go-client/api"
	"github.com/wanderinn/go-client/session"
	"github.com/wanderinn/go-client/social"
	"github.com/wanderinn/go-client/tokenstore"
)

func newLoginCmd(getApp func() *app) *cobra.Command {
	var email string
	var useOIDC bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email/password or an identity provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			ctx := cmd.Context()

			if useOIDC {
				flow, err := social.New(ctx, a.cfg.OIDCIssuer, a.cfg.OIDCClientID, a.cfg.OIDCCallbackAddr, "google", a.client, a.store)
				if err != nil {
					return err
				}
				user, err := flow.SignIn(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("Signed in as %s (%s)\n", user.DisplayName, user.Role)
				return nil
			}

			if email == "" {
				return errors.New("--email is required for password login")
			}
			password, err := promptLine("Password: ")
			if err != nil {
				return err
			}

			result, err := a.client.Login(ctx, email, password)
			if err != nil {
				return err
			}
			if err := a.store.SetCredentials(result.AccessToken, result.RefreshToken); err != nil {
				return err
			}

			user := result.User
			if user == nil {
				user, err = a.client.Me(ctx)
				if err != nil {
					a.store.Reset()
					return errors.Wrap(err, "identity fetch after login")
				}
			}
			if err := a.store.SetUser(user); err != nil {
				return err
			}

			fmt.Printf("Signed in as %s (%s)\n", user.DisplayName, user.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().BoolVar(&useOIDC, "oidc", false, "sign in through the configured identity provider")
	return cmd
}

func newLogoutCmd(getApp func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			if err := a.store.Restore(cmd.Context()); err != nil && !errors.Is(err, session.ErrNoStoredSession) {
				log.Debug().Err(err).Msg("session restore before logout")
			}
			a.store.Logout(cmd.Context())
			fmt.Println("Signed out.")
			return nil
		},
	}
}

func newWhoamiCmd(getApp func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			if err := a.store.Restore(cmd.Context()); err != nil {
				if errors.Is(err, session.ErrNoStoredSession) {
					fmt.Println("Not signed in.")
					return nil
				}
				return err
			}

			user := a.store.CurrentUser()
			fmt.Printf("%s <%s>\nrole: %s  status: %s  email verified: %t\n",
				user.DisplayName, user.Email, user.Role, user.Status, user.EmailVerified)

			if creds, err := a.tokens.Load(); err == nil {
				if claims, err := tokenstore.ParseAccessClaims(creds.AccessToken); err == nil && !claims.ExpiresAt.IsZero() {
					fmt.Printf("access token expires: %s\n", claims.ExpiresAt.Local())
				}
			}
			return nil
		},
	}
}

func newHotelsCmd(getApp func() *app) *cobra.Command {
	var search api.HotelSearch

	cmd := &cobra.Command{
		Use:   "hotels",
		Short: "Search hotels",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			hotels, err := a.client.SearchHotels(cmd.Context(), search)
			if err != nil {
				return err
			}
			if len(hotels) == 0 {
				fmt.Println("No hotels found.")
				return nil
			}
			for _, h := range hotels {
				fmt.Printf("%-24s  %-16s  %6d/night  rating %.1f\n", h.Name, h.City, h.PricePerDay, h.Rating)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&search.City, "city", "", "filter by city")
	cmd.Flags().StringVar(&search.CheckIn, "check-in", "", "check-in date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&search.CheckOut, "check-out", "", "check-out date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&search.Guests, "guests", 0, "number of guests")
	return cmd
}

func newBookingsCmd(getApp func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "bookings",
		Short: "List your bookings",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			if err := a.store.Restore(cmd.Context()); err != nil {
				return errors.Wrap(err, "sign in first")
			}
			bookings, err := a.client.Bookings(cmd.Context())
			if err != nil {
				return err
			}
			if len(bookings) == 0 {
				fmt.Println("No bookings.")
				return nil
			}
			for _, b := range bookings {
				fmt.Printf("%-12s  %s → %s  %d guests  %s\n", b.ID, b.CheckIn, b.CheckOut, b.Guests, b.Status)
			}
			return nil
		},
	}
}

func newRouteCmd(getApp func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "route <path>",
		Short: "Show whether the current session may visit a route",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			if err := a.store.Restore(cmd.Context()); err != nil && !errors.Is(err, session.ErrNoStoredSession) {
				return err
			}
			decision := a.gate.Resolve(args[0])
			if decision.Allow {
				fmt.Println("allowed")
				return nil
			}
			fmt.Printf("redirect to %s\n", decision.RedirectTo)
			return nil
		},
	}
}

func newMetricsCmd(getApp func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Serve gateway metrics for scraping",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
			log.Info().Str("addr", a.cfg.MetricsAddr).Msg("serving metrics")
			return http.ListenAndServe(a.cfg.MetricsAddr, mux)
		},
	}
}

func promptLine(prompt string) (string, error) {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", errors.Wrap(err, "reading input")
	}
	return strings.TrimSpace(line), nil
}
