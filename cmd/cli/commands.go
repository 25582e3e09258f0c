package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/and161185/ayurtrace/internal/api"
	"github.com/and161185/ayurtrace/internal/model"
	"github.com/and161185/ayurtrace/internal/token"
)

type dialFunc func(ctx context.Context, o connOpts, bearer string) (*api.Client, func(), error)

// cli carries shared flags and the dialer; tests swap dial for an in-memory one.
type cli struct {
	conn connOpts
	dial dialFunc
}

// anon dials without credentials, for the public login RPCs.
func (c *cli) anon(ctx context.Context) (*api.Client, func(), error) {
	return c.dial(ctx, c.conn, "")
}

// authed dials with the stored access token.
func (c *cli) authed(ctx context.Context) (*api.Client, func(), error) {
	tok, err := loadToken()
	if err != nil {
		return nil, nil, err
	}
	return c.dial(ctx, c.conn, tok)
}

func newRootCmd(dial dialFunc) *cobra.Command {
	if dial == nil {
		dial = dialGRPC
	}
	c := &cli{dial: dial}

	root := &cobra.Command{
		Use:           "ayur",
		Short:         "AyurTrace batch traceability client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&c.conn.addr, "addr", "127.0.0.1:8443", "server address")
	pf.StringVar(&c.conn.caPath, "cacert", "", "CA cert PEM for TLS")
	pf.BoolVar(&c.conn.skipVerify, "insecure", false, "skip TLS verification (dev)")
	pf.BoolVar(&c.conn.plaintext, "plaintext", false, "dial without TLS (dev)")

	root.AddCommand(
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "ayur %s (build: %s)\n", version, buildDate)
			},
		},
		c.registerCmd(),
		c.loginCmd(),
		c.codeCmd(),
		c.federatedCmd(),
		c.whoamiCmd(),
		c.profileCmd(),
		c.batchesCmd(),
		c.statsCmd(),
		c.summaryCmd(),
		c.fhirCmd(),
	)
	return root
}

// storeSession persists s and prints the signed-in user.
func storeSession(cmd *cobra.Command, s *api.Session) error {
	if err := saveSession(s); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "OK: signed in as %s (%s)\n", s.User.Name, s.User.Role)
	return nil
}

func (c *cli) registerCmd() *cobra.Command {
	var name, phone, secret string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a farmer account and sign in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cl, done, err := c.anon(cmd.Context())
			if err != nil {
				return err
			}
			defer done()
			s, err := cl.Register(cmd.Context(), &api.RegisterRequest{Name: name, Phone: phone, Secret: secret})
			if err != nil {
				return err
			}
			return storeSession(cmd, s)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&secret, "password", "", "password")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("phone")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (c *cli) loginCmd() *cobra.Command {
	var id, secret string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with phone (or user id) and password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cl, done, err := c.anon(cmd.Context())
			if err != nil {
				return err
			}
			defer done()
			s, err := cl.Authenticate(cmd.Context(), &api.AuthenticateRequest{Identifier: id, Secret: secret})
			if err != nil {
				return err
			}
			return storeSession(cmd, s)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "phone or user id")
	cmd.Flags().StringVar(&secret, "password", "", "password")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (c *cli) codeCmd() *cobra.Command {
	var contact, code string
	cmd := &cobra.Command{Use: "code", Short: "One-time code login"}
	cmd.PersistentFlags().StringVar(&contact, "phone", "", "phone number")
	_ = cmd.MarkPersistentFlagRequired("phone")

	request := &cobra.Command{
		Use:   "request",
		Short: "Send a login code to the phone",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cl, done, err := c.anon(cmd.Context())
			if err != nil {
				return err
			}
			defer done()
			if _, err := cl.RequestCode(cmd.Context(), &api.RequestCodeRequest{Contact: contact}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "OK: code sent")
			return nil
		},
	}
	verify := &cobra.Command{
		Use:   "verify",
		Short: "Exchange a received code for a session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cl, done, err := c.anon(cmd.Context())
			if err != nil {
				return err
			}
			defer done()
			s, err := cl.VerifyCode(cmd.Context(), &api.VerifyCodeRequest{Contact: contact, Code: code})
			if err != nil {
				return err
			}
			return storeSession(cmd, s)
		},
	}
	verify.Flags().StringVar(&code, "code", "", "received code")
	_ = verify.MarkFlagRequired("code")

	cmd.AddCommand(request, verify)
	return cmd
}

func (c *cli) federatedCmd() *cobra.Command {
	var (
		assertion string
		devKey    string
		id        model.FederatedIdentity
	)
	cmd := &cobra.Command{
		Use:   "federated",
		Short: "Sign in with an identity provider assertion",
		Long: `Sign in with an assertion from a trusted identity provider.
With --dev-key the CLI signs the assertion itself using the shared key,
which only makes sense against a development server.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if assertion == "" {
				if devKey == "" {
					return errors.New("either --assertion or --dev-key is required")
				}
				var err error
				assertion, err = token.SignAssertion([]byte(devKey), id, 5*time.Minute)
				if err != nil {
					return err
				}
			}
			cl, done, err := c.anon(cmd.Context())
			if err != nil {
				return err
			}
			defer done()
			s, err := cl.FederatedLogin(cmd.Context(), &api.FederatedLoginRequest{Assertion: assertion})
			if err != nil {
				return err
			}
			return storeSession(cmd, s)
		},
	}
	f := cmd.Flags()
	f.StringVar(&assertion, "assertion", "", "signed assertion")
	f.StringVar(&devKey, "dev-key", "", "shared federation key (dev)")
	f.StringVar(&id.Issuer, "issuer", "dev-idp", "issuer for --dev-key")
	f.StringVar(&id.Subject, "subject", "", "subject for --dev-key")
	f.StringVar(&id.Name, "name", "", "display name for --dev-key")
	f.StringVar(&id.Phone, "phone", "", "phone for --dev-key")
	return cmd
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cl, done, err := c.authed(cmd.Context())
			if err != nil {
				return err
			}
			defer done()
			u, err := cl.GetProfile(cmd.Context(), &api.Empty{})
			if err != nil {
				return err
			}
			printJSON(cmd.OutOrStdout(), u)
			return nil
		},
	}
}

func (c *cli) profileCmd() *cobra.Command {
	var (
		name, country, lang string
		sms, ivr            bool
	)
	update := &cobra.Command{
		Use:   "update",
		Short: "Change profile fields",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := cmd.Flags()
			req := &api.UpdateProfileRequest{}
			if f.Changed("name") {
				req.Name = &name
			}
			if f.Changed("country") {
				req.Country = &country
			}
			if f.Changed("language") || f.Changed("sms") || f.Changed("ivr") {
				req.Settings = &api.Settings{SMS: sms, IVR: ivr, Language: lang}
			}
			cl, done, err := c.authed(cmd.Context())
			if err != nil {
				return err
			}
			defer done()
			u, err := cl.UpdateProfile(cmd.Context(), req)
			if err != nil {
				return err
			}
			printJSON(cmd.OutOrStdout(), u)
			return nil
		},
	}
	f := update.Flags()
	f.StringVar(&name, "name", "", "display name")
	f.StringVar(&country, "country", "", "country")
	f.StringVar(&lang, "language", "English", "notification language")
	f.BoolVar(&sms, "sms", true, "SMS notifications")
	f.BoolVar(&ivr, "ivr", true, "IVR notifications")

	cmd := &cobra.Command{Use: "profile", Short: "Profile management"}
	cmd.AddCommand(update)
	return cmd
}

func (c *cli) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Batch counts per status (lab, regulator)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cl, done, err := c.authed(cmd.Context())
			if err != nil {
				return err
			}
			defer done()
			st, err := cl.BatchStats(cmd.Context(), &api.Empty{})
			if err != nil {
				return err
			}
			printJSON(cmd.OutOrStdout(), st)
			return nil
		},
	}
}

func (c *cli) summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Own harvest totals, earnings and quality (farmer)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cl, done, err := c.authed(cmd.Context())
			if err != nil {
				return err
			}
			defer done()
			sum, err := cl.MyStats(cmd.Context(), &api.Empty{})
			if err != nil {
				return err
			}
			printJSON(cmd.OutOrStdout(), sum)
			return nil
		},
	}
}

func (c *cli) fhirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fhir <batch-id>",
		Short: "Export a batch as a FHIR Observation (regulator)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, done, err := c.authed(cmd.Context())
			if err != nil {
				return err
			}
			defer done()
			obs, err := cl.ExportFHIR(cmd.Context(), &api.ExportFHIRRequest{ID: args[0]})
			if err != nil {
				return err
			}
			printJSON(cmd.OutOrStdout(), obs)
			return nil
		},
	}
}
