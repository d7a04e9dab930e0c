// Package cli implements posctl, an operator console over the same
// slices and screens the BFF serves.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/multipos/console/internal/application/query"
	"github.com/multipos/console/internal/application/slice"
	"github.com/multipos/console/internal/application/workspace"
	"github.com/multipos/console/internal/domain/identity"
	"github.com/multipos/console/internal/domain/shared"
	"github.com/multipos/console/internal/infrastructure/apiclient"
	"github.com/multipos/console/internal/infrastructure/auth"
	"github.com/multipos/console/internal/infrastructure/config"
	"github.com/multipos/console/internal/infrastructure/logger"
)

// TokenEnv is read when --token is not given.
const TokenEnv = "POSCONSOLE_TOKEN"

type options struct {
	configPath string
	api        string
	token      string
	output     string
	logLevel   string
	timeout    time.Duration

	scopeType string
	scopeID   string
	from      string
	to        string
	search    string
	filters   []string
}

type app struct {
	opts   *options
	out    io.Writer
	errOut io.Writer

	cfg *config.Config
	log *zap.Logger
	ws  *workspace.Workspace
}

// NewRootCommand builds the posctl command tree writing to out and errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	a := &app{opts: &options{}, out: out, errOut: errOut}
	o := a.opts

	root := &cobra.Command{
		Use:           "posctl",
		Short:         "Operate the POS back office from a terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&o.configPath, "config", "", "config file (default: search config.toml)")
	pf.StringVar(&o.api, "api", "", "POS API base URL, overrides api.base_url")
	pf.StringVar(&o.token, "token", "", "bearer token (default $"+TokenEnv+")")
	pf.StringVarP(&o.output, "output", "o", "table", "output format: table, json or yaml")
	pf.StringVar(&o.logLevel, "log-level", "warn", "log level on stderr")
	pf.DurationVar(&o.timeout, "timeout", 0, "overall command timeout (default api.timeout)")
	pf.StringVar(&o.scopeType, "scope-type", "", "scope type: BRANCH, WAREHOUSE or COMPANY")
	pf.StringVar(&o.scopeID, "scope-id", "", "scope id")
	pf.StringVar(&o.from, "from", "", "start date, YYYY-MM-DD")
	pf.StringVar(&o.to, "to", "", "end date, YYYY-MM-DD")
	pf.StringVar(&o.search, "search", "", "free text search")
	pf.StringArrayVar(&o.filters, "filter", nil, "extra filter as key=value, repeatable")

	root.AddCommand(
		a.companiesCommand(),
		a.posCommand(),
		a.salesCommand(),
		a.ledgerCommand(),
		a.inventoryCommand(),
		a.stockCommand(),
		a.reportsCommand(),
		a.exportCommand(),
		a.canCommand(),
	)
	return root
}

// Execute runs posctl against os.Args and returns the process exit code.
func Execute() int {
	cmd := NewRootCommand(os.Stdout, os.Stderr)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", describe(err))
		return 1
	}
	return 0
}

func (a *app) setup() error {
	switch a.opts.output {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("unknown output format %q", a.opts.output)
	}
	a.log = logger.NewWriter(a.errOut, logger.CLIConfig(a.opts.logLevel))

	cfg, err := config.LoadFile(a.opts.configPath)
	if err != nil {
		return err
	}
	if a.opts.api != "" {
		cfg.API.BaseURL = a.opts.api
	}
	a.cfg = cfg
	return nil
}

// session builds the caller's workspace on first use. Only commands that
// talk to the API need a token.
func (a *app) session() (*workspace.Workspace, error) {
	if a.ws != nil {
		return a.ws, nil
	}
	token := a.opts.token
	if token == "" {
		token = os.Getenv(TokenEnv)
	}
	if token == "" {
		return nil, fmt.Errorf("a token is required, pass --token or set %s", TokenEnv)
	}
	p, err := auth.NewTokenReader(a.cfg.Auth).Principal(token)
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}

	client, err := apiclient.New(apiclient.Config{
		BaseURL:   a.cfg.API.BaseURL,
		Timeout:   a.cfg.API.Timeout,
		RateLimit: a.cfg.API.RateLimit,
		Burst:     a.cfg.API.Burst,
		UserAgent: "posctl",
	}, apiclient.WithLogger(a.log), apiclient.WithBearer(token))
	if err != nil {
		return nil, err
	}
	a.ws = workspace.New(p, workspace.GatewaysOf(client), nil, slice.WithLogger(a.log))
	a.log.Debug("session ready",
		zap.String("user", p.UserID), zap.String("role", string(p.Role)), zap.Stringer("scope", p.Scope))
	return a.ws, nil
}

func (a *app) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	timeout := a.opts.timeout
	if timeout <= 0 {
		timeout = a.cfg.API.Timeout
	}
	ctx := logger.WithContext(cmd.Context(), a.log)
	return context.WithTimeout(ctx, timeout)
}

// filters collects the shared filter flags. Later sources win: scope and
// search flags, then the date range, then --filter pairs.
func (a *app) filters() (query.Filters, error) {
	o := a.opts
	f := query.Filters{}
	if o.scopeType != "" {
		f["scopeType"] = strings.ToUpper(o.scopeType)
	}
	if o.scopeID != "" {
		f["scopeId"] = o.scopeID
	}
	if o.search != "" {
		f["search"] = o.search
	}
	r, err := query.ParseRange(o.from, o.to)
	if err != nil {
		return nil, fmt.Errorf("invalid date range: %w", err)
	}
	if !r.Valid() {
		return nil, errors.New("--to is before --from")
	}
	f = r.Apply(f)
	for _, kv := range o.filters {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("filter %q is not key=value", kv)
		}
		f[strings.TrimSpace(k)] = v
	}
	return f, nil
}

// guard fails early when the caller's role lacks the capability.
func (a *app) guard(ctx context.Context, ws *workspace.Workspace, res identity.Resource, act identity.Action) error {
	if ws.Principal.Can(res, act, ws.Flags(ctx)) {
		return nil
	}
	return fmt.Errorf("role %s cannot %s %s", ws.Principal.Role, act, res)
}

// describe prefers the server's message over the wrapped chain.
func describe(err error) string {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.UserMessage()
		for field, problem := range apiErr.Fields {
			msg += fmt.Sprintf("\n  %s: %s", field, problem)
		}
		return msg
	}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) && len(domainErr.Fields) > 0 {
		msg := domainErr.Message
		for field, problem := range domainErr.Fields {
			msg += fmt.Sprintf("\n  %s: %s", field, problem)
		}
		return msg
	}
	return err.Error()
}
