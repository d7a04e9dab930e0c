package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/multipos/console/internal/domain/identity"
)

type verdict struct {
	Role     identity.Role     `json:"role" yaml:"role"`
	Resource identity.Resource `json:"resource" yaml:"resource"`
	Action   identity.Action   `json:"action" yaml:"action"`
	Allowed  bool              `json:"allowed" yaml:"allowed"`
}

// canCommand evaluates the capability policy offline.
func (a *app) canCommand() *cobra.Command {
	var flags identity.Flags
	cmd := &cobra.Command{
		Use:   "can <role> <resource> <action>",
		Short: "Check whether a role may perform an action",
		Args:  cobra.ExactArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			role := identity.ParseRole(args[0])
			if role == "" {
				return fmt.Errorf("unknown role %q", args[0])
			}
			res, ok := identity.ParseResource(args[1])
			if !ok {
				return fmt.Errorf("unknown resource %q", args[1])
			}
			act, ok := identity.ParseAction(args[2])
			if !ok {
				return fmt.Errorf("unknown action %q", args[2])
			}
			v := verdict{Role: role, Resource: res, Action: act,
				Allowed: identity.CapabilityWithSettings(role, res, act, flags)}
			if a.opts.output != "table" {
				return a.print(v)
			}
			answer := "no"
			if v.Allowed {
				answer = "yes"
			}
			fmt.Fprintln(a.out, answer)
			return nil
		},
	}
	cmd.Flags().BoolVar(&flags.AllowManagerCompanyCrud, "allow-manager-company-crud", false, "scope setting: managers manage companies")
	cmd.Flags().BoolVar(&flags.AllowCashierPosTabs, "allow-cashier-pos-tabs", false, "scope setting: cashiers manage tabs")
	cmd.Flags().BoolVar(&flags.AllowCreditSales, "allow-credit-sales", false, "scope setting: credit sales")
	return cmd
}
