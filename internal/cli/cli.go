// Package cli реализует терминальный клиент программы лояльности на cobra.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mmeshcher/loyalty-client/internal/app"
	"github.com/mmeshcher/loyalty-client/internal/config"
	"github.com/mmeshcher/loyalty-client/internal/logging"
	"github.com/mmeshcher/loyalty-client/internal/model"
	"github.com/mmeshcher/loyalty-client/internal/presenter"
	"github.com/mmeshcher/loyalty-client/internal/validation"
)

const keySessionExpired = "errors.sessionExpired"

// Streams содержит потоки ввода и вывода клиента.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

type runner struct {
	cfg       *config.Config
	streams   Streams
	assumeYes bool
}

// clientEnv держит собранный клиент и терминал на время одной команды.
type clientEnv struct {
	app    *app.App
	term   *Terminal
	logger *zap.Logger
}

// NewRootCommand создаёт корневую команду клиента.
func NewRootCommand(version string, streams Streams) *cobra.Command {
	r := &runner{cfg: config.New(), streams: streams}
	r.cfg.TokenStore = defaultTokenStore()

	root := &cobra.Command{
		Use:           "loyalty",
		Short:         "Loyalty program client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return r.cfg.ApplyEnv()
		},
	}
	root.SetIn(streams.In)
	root.SetOut(streams.Out)
	root.SetErr(streams.Err)

	fs := flag.NewFlagSet("loyalty", flag.ContinueOnError)
	r.cfg.BindFlags(fs)
	root.PersistentFlags().AddGoFlagSet(fs)
	root.PersistentFlags().BoolVarP(&r.assumeYes, "yes", "y", false, "answer yes to confirmations")

	root.AddCommand(
		r.loginCmd(),
		r.registerCmd(),
		r.logoutCmd(),
		r.whoamiCmd(),
		r.homeCmd(),
		r.pointsCmd(),
		r.historyCmd(),
		r.couponsCmd(),
		r.couponCmd(),
		r.redeemCmd(),
		r.languageCmd(),
		r.notificationsCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "loyalty version %s\n", version)
			},
		},
	)
	return root
}

func defaultTokenStore() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "memory"
	}
	return "file:" + filepath.Join(dir, "loyalty", "token")
}

// start собирает клиент и восстанавливает сессию по сохранённому токену.
func (r *runner) start(ctx context.Context) (*clientEnv, func(), error) {
	logger, err := logging.NewConsole(r.cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	a, err := app.New(ctx, r.cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}

	a.Session.Reconcile(ctx)

	term := NewTerminal(r.streams.In, r.streams.Out, r.streams.Err, a.Catalog)
	term.assumeYes = r.assumeYes

	closeFn := func() {
		if err := a.Close(); err != nil {
			logger.Warn("close app", zap.Error(err))
		}
		_ = logger.Sync()
	}
	return &clientEnv{app: a, term: term, logger: logger}, closeFn, nil
}

// withSession выполняет fn в собранном клиенте.
func (r *runner) withSession(cmd *cobra.Command, fn func(ctx context.Context, s *clientEnv) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, closeFn, err := r.start(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := fn(ctx, s); err != nil {
		return err
	}
	return s.term.Err()
}

// member возвращает текущего участника или ошибку, если сессии нет.
func (s *clientEnv) member() (model.Member, error) {
	m, ok := s.app.Session.Member()
	if !ok {
		return model.Member{}, errors.New(s.app.Catalog.Translate(keySessionExpired, nil))
	}
	return m, nil
}

func (r *runner) loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login PHONE [PASSWORD]",
		Short: "Log in with phone and password",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withSession(cmd, func(ctx context.Context, s *clientEnv) error {
				var password string
				if len(args) == 2 {
					password = args[1]
				} else {
					password = s.term.readLine("Password: ")
				}

				auth := presenter.NewAuth(s.term, s.app.Session, s.app.Policy, s.app.Registrar, s.logger)
				auth.Login(ctx, strings.TrimSpace(args[0]), password)
				return nil
			})
		},
	}
}

func (r *runner) registerCmd() *cobra.Command {
	var form validation.RegisterForm

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withSession(cmd, func(ctx context.Context, s *clientEnv) error {
				if form.ConfirmPassword == "" {
					form.ConfirmPassword = form.Password
				}
				auth := presenter.NewAuth(s.term, s.app.Session, s.app.Policy, s.app.Registrar, s.logger)
				auth.Register(ctx, form)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&form.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&form.Name, "name", "", "member name")
	cmd.Flags().StringVar(&form.Email, "email", "", "email address")
	cmd.Flags().StringVar(&form.Password, "password", "", "password")
	cmd.Flags().StringVar(&form.ConfirmPassword, "confirm", "", "password confirmation, defaults to --password")
	cmd.Flags().StringVar(&form.Birthday, "birthday", "", "birthday, YYYY-MM-DD")
	cmd.Flags().StringVar(&form.Gender, "gender", "", "gender: 1 male, 2 female")
	return cmd
}

func (r *runner) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withSession(cmd, func(ctx context.Context, s *clientEnv) error {
				settings := presenter.NewSettings(s.term, s.app.Session, s.app.Catalog, s.app.Registrar, s.logger)
				settings.OnLogoutTapped()
				if s.term.Confirmed() {
					settings.ConfirmLogout(ctx)
				}
				return nil
			})
		},
	}
}

func (r *runner) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withSession(cmd, func(ctx context.Context, s *clientEnv) error {
				m, err := s.member()
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s\t%s\n", m.Phone, m.Name)
				if m.Email != "" {
					fmt.Fprintln(out, m.Email)
				}
				fmt.Fprintf(out, "%s · %s\n", s.app.Catalog.Translate(presenter.TierKey(m.MembershipTier), nil), s.app.Session.Mode())
				return nil
			})
		},
	}
}

func (r *runner) homeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "home",
		Short: "Show the member summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withSession(cmd, func(ctx context.Context, s *clientEnv) error {
				m, err := s.member()
				if err != nil {
					return err
				}
				presenter.NewHome(s.term, s.app.Points, s.app.Catalog, s.logger).Load(ctx, m)
				return nil
			})
		},
	}
}

func (r *runner) pointsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "points",
		Short: "Show the points balance and recent transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withSession(cmd, func(ctx context.Context, s *clientEnv) error {
				if _, err := s.member(); err != nil {
					return err
				}
				presenter.NewPoints(s.term, s.app.Points, r.cfg.PageSize, s.app.Catalog, s.logger).Refresh(ctx)
				return nil
			})
		},
	}
}

func (r *runner) historyCmd() *cobra.Command {
	var pages int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the transaction history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withSession(cmd, func(ctx context.Context, s *clientEnv) error {
				if _, err := s.member(); err != nil {
					return err
				}

				p := presenter.NewPoints(s.term, s.app.Points, r.cfg.PageSize, s.app.Catalog, s.logger)
				p.LoadTransactions(ctx, true)
				for i := 1; i < pages && p.HasMore() && s.term.Err() == nil; i++ {
					p.LoadMore(ctx)
				}
				if s.term.Err() == nil && !p.HasMore() && p.CurrentPage() > 1 {
					fmt.Fprintln(cmd.OutOrStdout(), s.app.Catalog.Translate("points.noMore", nil))
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&pages, "pages", 1, "number of pages to load")
	return cmd
}

func (r *runner) couponsCmd() *cobra.Command {
	var redeemed bool

	cmd := &cobra.Command{
		Use:   "coupons",
		Short: "List available or redeemed coupons",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withSession(cmd, func(ctx context.Context, s *clientEnv) error {
				if _, err := s.member(); err != nil {
					return err
				}

				c := presenter.NewCoupons(s.term, s.app.Coupons, s.app.Catalog, s.logger)
				if redeemed {
					c.LoadRedeemed(ctx)
				} else {
					c.LoadAvailable(ctx)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&redeemed, "redeemed", false, "list redeemed coupons")
	return cmd
}

func (r *runner) couponCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "coupon ID",
		Short: "Show coupon details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withSession(cmd, func(ctx context.Context, s *clientEnv) error {
				if _, err := s.member(); err != nil {
					return err
				}
				presenter.NewCoupons(s.term, s.app.Coupons, s.app.Catalog, s.logger).Details(ctx, args[0])
				return nil
			})
		},
	}
}

func (r *runner) redeemCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "redeem ID",
		Short: "Redeem a coupon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withSession(cmd, func(ctx context.Context, s *clientEnv) error {
				m, err := s.member()
				if err != nil {
					return err
				}

				c := presenter.NewCoupons(s.term, s.app.Coupons, s.app.Catalog, s.logger)
				c.Details(ctx, args[0])
				item, ok := s.term.Coupon()
				if !ok {
					return nil
				}

				c.OnRedeemTapped(item.Coupon, m)
				if s.term.Err() != nil || !s.term.Confirmed() {
					return nil
				}
				c.ConfirmRedeem(ctx, m.ID, item.ID)
				return nil
			})
		},
	}
}

func (r *runner) languageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "language [TAG]",
		Short: "Show or check the interface language",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withSession(cmd, func(ctx context.Context, s *clientEnv) error {
				if len(args) == 0 {
					s.term.RenderLanguage(s.app.Catalog.Language().String())
					return nil
				}
				presenter.NewSettings(s.term, s.app.Session, s.app.Catalog, s.app.Registrar, s.logger).ChangeLanguage(ctx, args[0])
				return nil
			})
		},
	}
}

func (r *runner) notificationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "notifications on|off",
		Short:     "Enable or disable push notifications",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withSession(cmd, func(ctx context.Context, s *clientEnv) error {
				if _, err := s.member(); err != nil {
					return err
				}
				presenter.NewSettings(s.term, s.app.Session, s.app.Catalog, s.app.Registrar, s.logger).
					ToggleNotifications(ctx, args[0] == "on")
				return nil
			})
		},
	}
}
