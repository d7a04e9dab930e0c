package cli

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/multipos/console/internal/application/query"
	"github.com/multipos/console/internal/application/workspace"
	"github.com/multipos/console/internal/domain/finance"
	"github.com/multipos/console/internal/domain/identity"
	"github.com/multipos/console/internal/domain/organization"
	"github.com/multipos/console/internal/domain/pos"
	"github.com/multipos/console/internal/domain/report"
	"github.com/multipos/console/internal/domain/shared"
)

// listScreen loads a screen with the filter flags plus extra and prints it.
func (a *app) listScreen(cmd *cobra.Command, name string, extra query.Filters) error {
	ws, err := a.session()
	if err != nil {
		return err
	}
	ctx, cancel := a.context(cmd)
	defer cancel()

	v, ok := ws.Screen(name)
	if !ok {
		return fmt.Errorf("unknown screen %q", name)
	}
	if err := a.guard(ctx, ws, v.Resource(), identity.ActRead); err != nil {
		return err
	}
	f, err := a.filters()
	if err != nil {
		return err
	}
	if err := v.SetFilters(ctx, query.Merge(f, extra)); err != nil {
		return err
	}
	ds, err := ws.Dataset(v.Name())
	if err != nil {
		return err
	}
	return a.printTable(ds, v.Snapshot(ws.Principal, ws.Flags(ctx)).Data)
}

func (a *app) listCommand(use, short, screenName string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.listScreen(cmd, screenName, nil)
		},
	}
}

// scope reads --scope-type/--scope-id, falling back to the caller's scope.
func (a *app) scope(ws *workspace.Workspace) (shared.Scope, error) {
	if a.opts.scopeType == "" && a.opts.scopeID == "" {
		if ws.Principal.Scope.IsZero() {
			return shared.Scope{}, fmt.Errorf("--scope-type and --scope-id are required")
		}
		return ws.Principal.Scope, nil
	}
	t, err := shared.ParseScopeType(a.opts.scopeType)
	if err != nil {
		return shared.Scope{}, err
	}
	return shared.NewScope(t, a.opts.scopeID)
}

func (a *app) companiesCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "companies", Short: "List and manage companies"}

	var in organization.CompanyInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a company",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := a.session()
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd)
			defer cancel()
			if err := a.guard(ctx, ws, identity.ResCompanies, identity.ActCreate); err != nil {
				return err
			}
			c, err := ws.Companies.Create(ctx, in)
			if err != nil {
				return err
			}
			return a.print(c)
		},
	}
	create.Flags().StringVar(&in.Name, "name", "", "company name")
	create.Flags().StringVar(&in.Code, "code", "", "short alphanumeric code")
	create.Flags().StringVar(&in.Email, "email", "", "contact email")
	create.Flags().StringVar(&in.Phone, "phone", "", "contact phone")
	create.Flags().StringVar(&in.Address, "address", "", "postal address")
	create.Flags().StringVar(&in.Status, "status", "", "active or inactive")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a company",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.session()
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd)
			defer cancel()
			if err := a.guard(ctx, ws, identity.ResCompanies, identity.ActDelete); err != nil {
				return err
			}
			if err := ws.Companies.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted company %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(a.listCommand("list", "List companies", workspace.ScreenCompanies), create, del)
	return cmd
}

func (a *app) posCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "pos", Short: "POS terminals and held bills"}

	var (
		in    pos.HoldInput
		items []string
	)
	hold := &cobra.Command{
		Use:   "hold",
		Short: "Park a bill on a terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := a.session()
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd)
			defer cancel()
			if err := a.guard(ctx, ws, identity.ResHeldBills, identity.ActCreate); err != nil {
				return err
			}
			scope, err := a.scope(ws)
			if err != nil {
				return err
			}
			in.ScopeType, in.ScopeID = scope.Type, scope.ID
			if in.Items, err = parseItems(items); err != nil {
				return err
			}
			bill, err := ws.POS.Hold(ctx, in)
			if err != nil {
				return err
			}
			return a.print(bill)
		},
	}
	hold.Flags().StringVar(&in.TerminalID, "terminal", "", "terminal id")
	hold.Flags().StringVar(&in.CustomerName, "customer", "", "customer name")
	hold.Flags().StringVar(&in.Note, "note", "", "note printed on the bill")
	hold.Flags().StringArrayVar(&items, "item", nil, "line as productId:quantity:unitPrice, repeatable")

	resume := &cobra.Command{
		Use:   "resume <id>",
		Short: "Resume a held bill",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.session()
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd)
			defer cancel()
			if err := a.guard(ctx, ws, identity.ResHeldBills, identity.ActDelete); err != nil {
				return err
			}
			bill, err := ws.POS.Resume(ctx, args[0])
			if err != nil {
				return err
			}
			return a.print(bill)
		},
	}

	cmd.AddCommand(
		a.listCommand("list", "List POS terminals", workspace.ScreenTerminals),
		a.listCommand("held", "List held bills", workspace.ScreenHeldBills),
		hold, resume,
	)
	return cmd
}

// parseItems reads productId:quantity:unitPrice lines.
func parseItems(raw []string) ([]pos.HoldItemInput, error) {
	out := make([]pos.HoldItemInput, 0, len(raw))
	for _, s := range raw {
		parts := strings.Split(s, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("item %q is not productId:quantity:unitPrice", s)
		}
		qty, err := decimal.NewFromString(parts[1])
		if err != nil {
			return nil, fmt.Errorf("item %q: quantity: %w", s, err)
		}
		price, err := decimal.NewFromString(parts[2])
		if err != nil {
			return nil, fmt.Errorf("item %q: unit price: %w", s, err)
		}
		out = append(out, pos.HoldItemInput{ProductID: parts[0], Quantity: qty, UnitPrice: price})
	}
	return out, nil
}

func (a *app) salesCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "sales", Short: "Sales"}
	cmd.AddCommand(a.listCommand("list", "List sales", workspace.ScreenSales))
	return cmd
}

func (a *app) inventoryCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "inventory", Short: "Inventory items"}
	cmd.AddCommand(a.listCommand("list", "List inventory items", workspace.ScreenInventory))
	return cmd
}

func (a *app) ledgerCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "ledger", Short: "Party ledgers"}
	var partyType, partyID string
	cmd.PersistentFlags().StringVar(&partyType, "party-type", "", "customer, supplier, employee or cash")
	cmd.PersistentFlags().StringVar(&partyID, "party-id", "", "party id")

	account := func(ws *workspace.Workspace) (finance.Account, error) {
		scope, err := a.scope(ws)
		if err != nil {
			return finance.Account{}, err
		}
		pt, err := finance.ParsePartyType(partyType)
		if err != nil {
			return finance.Account{}, err
		}
		return finance.NewAccount(scope, pt, partyID)
	}

	entries := &cobra.Command{
		Use:   "entries",
		Short: "List ledger entries of an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := a.session()
			if err != nil {
				return err
			}
			acct, err := account(ws)
			if err != nil {
				return err
			}
			return a.listScreen(cmd, workspace.ScreenLedger, query.Filters{
				"scopeType": string(acct.Scope.Type),
				"scopeId":   acct.Scope.ID,
				"partyType": string(acct.PartyType),
				"partyId":   acct.PartyID,
			})
		},
	}

	balance := &cobra.Command{
		Use:   "balance",
		Short: "Show the balance of an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := a.session()
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd)
			defer cancel()
			if err := a.guard(ctx, ws, identity.ResLedger, identity.ActRead); err != nil {
				return err
			}
			acct, err := account(ws)
			if err != nil {
				return err
			}
			b, err := ws.Ledger.Balance(ctx, acct)
			if err != nil {
				return err
			}
			return a.print(b)
		},
	}

	posting := func(use, short string, credit bool) *cobra.Command {
		var (
			in     finance.PostingInput
			amount string
		)
		c := &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				ws, err := a.session()
				if err != nil {
					return err
				}
				ctx, cancel := a.context(cmd)
				defer cancel()
				if err := a.guard(ctx, ws, identity.ResLedger, identity.ActCreate); err != nil {
					return err
				}
				acct, err := account(ws)
				if err != nil {
					return err
				}
				if in.Amount, err = decimal.NewFromString(amount); err != nil {
					return fmt.Errorf("invalid --amount %q", amount)
				}
				post := ws.Ledger.Debit
				if credit {
					post = ws.Ledger.Credit
				}
				entry, err := post(ctx, acct, in)
				if err != nil {
					return err
				}
				return a.print(entry)
			},
		}
		c.Flags().StringVar(&amount, "amount", "", "positive amount")
		c.Flags().StringVar(&in.Description, "description", "", "entry description")
		c.Flags().StringVar(&in.Reference, "reference", "", "external reference")
		c.Flags().StringVar(&in.PaymentMethod, "method", "", "CASH, CARD, BANK_TRANSFER, MOBILE or CHEQUE")
		return c
	}

	cmd.AddCommand(entries, balance,
		posting("debit", "Post a debit", false),
		posting("credit", "Post a credit", true))
	return cmd
}

func (a *app) stockCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "stock", Short: "Stock reports"}

	run := func(fetch func(cmd *cobra.Command, ws *workspace.Workspace, f query.Filters, args []string) (any, error)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ws, err := a.session()
			if err != nil {
				return err
			}
			f, err := a.filters()
			if err != nil {
				return err
			}
			v, err := fetch(cmd, ws, f, args)
			if err != nil {
				return err
			}
			return a.print(v)
		}
	}

	summary := &cobra.Command{
		Use:   "summary",
		Short: "Stock value and counts",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, ws *workspace.Workspace, f query.Filters, _ []string) (any, error) {
			ctx, cancel := a.context(cmd)
			defer cancel()
			if err := a.guard(ctx, ws, identity.ResStock, identity.ActRead); err != nil {
				return nil, err
			}
			return ws.Inventory.Summary(ctx, f)
		}),
	}
	statistics := &cobra.Command{
		Use:   "statistics",
		Short: "Stock movement statistics",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, ws *workspace.Workspace, f query.Filters, _ []string) (any, error) {
			ctx, cancel := a.context(cmd)
			defer cancel()
			if err := a.guard(ctx, ws, identity.ResStock, identity.ActRead); err != nil {
				return nil, err
			}
			return ws.Inventory.Statistics(ctx, f)
		}),
	}
	product := &cobra.Command{
		Use:   "product <id>",
		Short: "Stock report of one product",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, ws *workspace.Workspace, f query.Filters, args []string) (any, error) {
			ctx, cancel := a.context(cmd)
			defer cancel()
			if err := a.guard(ctx, ws, identity.ResStock, identity.ActRead); err != nil {
				return nil, err
			}
			return ws.Inventory.ProductReport(ctx, args[0], f)
		}),
	}

	cmd.AddCommand(summary, statistics, product)
	return cmd
}

func (a *app) reportsCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "reports", Short: "Sales, inventory, ledger and financial reports"}
	for _, kind := range report.Kinds {
		cmd.AddCommand(a.listCommand(string(kind), "Show the "+string(kind)+" report", workspace.ReportScreen(kind)))
	}
	return cmd
}
