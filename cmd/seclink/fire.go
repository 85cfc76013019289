package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/corvusHold/seclink/internal/logger"
	"github.com/corvusHold/seclink/internal/security"
	"github.com/corvusHold/seclink/internal/security/domain"
)

type fireOpts struct {
	username    string
	source      string
	legacy      bool
	reason      string
	authorities []string
}

func newFireCmd(v *viper.Viper) *cobra.Command {
	var o fireOpts
	cmd := &cobra.Command{
		Use:   "fire <kind>",
		Short: "Fire one event in-process and print what each API observed",
		Long: `Fire builds a runtime with both bridges, fires a single event on the
legacy API (--legacy) or the new API, and prints every delivery.

Kinds: authenticated, failed_to_authenticate, logged_in, failed_to_log_in, logged_out.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.ParseKind(args[0])
			if err != nil {
				return err
			}
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			log := logger.WithLevel(logger.NewWithWriter(cfg.AppEnv, cmd.ErrOrStderr()), cfg.LogLevel)
			rt, err := security.New(cfg, log)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if _, err := rt.Listeners.Register(&printer{out: out}); err != nil {
				return err
			}
			if _, err := rt.LegacyListeners.Register(&legacyPrinter{out: out}); err != nil {
				return err
			}
			return fire(cmd.Context(), rt, kind, o)
		},
	}
	cmd.Flags().StringVarP(&o.username, "username", "u", "", "username (required)")
	cmd.Flags().StringVarP(&o.source, "source", "s", "", "authentication source")
	cmd.Flags().BoolVar(&o.legacy, "legacy", false, "fire on the legacy API")
	cmd.Flags().StringVar(&o.reason, "reason", "", "failure reason (failure kinds only)")
	cmd.Flags().StringSliceVar(&o.authorities, "authority", nil, "granted authority (repeatable)")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func fire(ctx context.Context, rt *security.Runtime, kind domain.Kind, o fireOpts) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if o.legacy {
		switch kind {
		case domain.KindAuthenticated:
			u, err := domain.NewUser(o.username, "", domain.ActiveAccount, o.authorities...)
			if err != nil {
				return err
			}
			return rt.Hub.FireAuthenticated(ctx, u, o.source)
		case domain.KindFailedToAuthenticate:
			return rt.Hub.FireFailedToAuthenticate(ctx, o.username, o.source)
		case domain.KindLoggedIn:
			return rt.Hub.FireLoggedIn(ctx, o.username, o.source)
		case domain.KindFailedToLogIn:
			return rt.Hub.FireFailedToLogIn(ctx, o.username, o.source)
		case domain.KindLoggedOut:
			return rt.Hub.FireLoggedOut(ctx, o.username, o.source)
		}
		return domain.ErrUnknownKind{Kind: string(kind)}
	}

	switch kind {
	case domain.KindAuthenticated:
		ev, err := domain.NewAuthenticationEvent(o.username, o.source)
		if err != nil {
			return err
		}
		rt.Dispatcher.FireAuthenticated(ctx, ev)
	case domain.KindFailedToAuthenticate:
		ev, err := domain.NewAuthenticationFailureEvent(o.username, o.source)
		if o.reason != "" {
			ev, err = domain.NewAuthenticationFailureWithDetail(o.username, o.source, o.reason, nil)
		}
		if err != nil {
			return err
		}
		rt.Dispatcher.FireFailedToAuthenticate(ctx, ev)
	case domain.KindLoggedIn:
		ev, err := domain.NewLoginEvent(o.username, o.source, o.authorities)
		if err != nil {
			return err
		}
		rt.Dispatcher.FireLoggedIn(ctx, ev)
	case domain.KindFailedToLogIn:
		ev, err := domain.NewLoginFailureEvent(o.username, o.source)
		if o.reason != "" {
			ev, err = domain.NewLoginFailureWithDetail(o.username, o.source, o.reason, nil)
		}
		if err != nil {
			return err
		}
		rt.Dispatcher.FireFailedToLogIn(ctx, ev)
	case domain.KindLoggedOut:
		ev, err := domain.NewLogoutEvent(o.username, o.source)
		if err != nil {
			return err
		}
		rt.Dispatcher.FireLoggedOut(ctx, ev)
	default:
		return errors.New("unsupported kind " + string(kind))
	}
	return nil
}

// printer writes one line per new-API delivery.
type printer struct {
	out io.Writer
}

func (p *printer) print(ev domain.Event) bool {
	fmt.Fprintf(p.out, "new    %-22s username=%s source=%s legacy=%t\n", ev.Kind(), ev.Username(), ev.Source(), ev.FromLegacy())
	return true
}

func (p *printer) Authenticated(_ context.Context, ev domain.AuthenticationEvent) bool {
	return p.print(ev)
}
func (p *printer) FailedToAuthenticate(_ context.Context, ev domain.AuthenticationFailureEvent) bool {
	return p.print(ev)
}
func (p *printer) LoggedIn(_ context.Context, ev domain.LoginEvent) bool { return p.print(ev) }
func (p *printer) FailedToLogIn(_ context.Context, ev domain.LoginFailureEvent) bool {
	return p.print(ev)
}
func (p *printer) LoggedOut(_ context.Context, ev domain.LogoutEvent) bool { return p.print(ev) }

// legacyPrinter writes one line per legacy delivery.
type legacyPrinter struct {
	out io.Writer
}

func (p *legacyPrinter) print(kind domain.Kind, username, source string) {
	fmt.Fprintf(p.out, "legacy %-22s username=%s source=%s\n", kind, username, source)
}

func (p *legacyPrinter) Authenticated(_ context.Context, d domain.UserDetails, source string) {
	p.print(domain.KindAuthenticated, d.Username(), source)
}
func (p *legacyPrinter) FailedToAuthenticate(_ context.Context, username, source string) {
	p.print(domain.KindFailedToAuthenticate, username, source)
}
func (p *legacyPrinter) LoggedIn(_ context.Context, username, source string) {
	p.print(domain.KindLoggedIn, username, source)
}
func (p *legacyPrinter) FailedToLogIn(_ context.Context, username, source string) {
	p.print(domain.KindFailedToLogIn, username, source)
}
func (p *legacyPrinter) LoggedOut(_ context.Context, username, source string) {
	p.print(domain.KindLoggedOut, username, source)
}
