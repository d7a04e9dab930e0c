package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	exportapp "github.com/multipos/console/internal/application/export"
	"github.com/multipos/console/internal/application/query"
	exportdomain "github.com/multipos/console/internal/domain/export"
	"github.com/multipos/console/internal/domain/identity"
	infraexport "github.com/multipos/console/internal/infrastructure/export"
)

func (a *app) exportCommand() *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "export <screen>",
		Short: "Render a screen to csv, xlsx, html or pdf",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := exportdomain.ParseFormat(format)
			if err != nil {
				return err
			}
			ws, err := a.session()
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd)
			defer cancel()

			v, ok := ws.Screen(args[0])
			if !ok {
				return fmt.Errorf("unknown screen %q, one of %v", args[0], ws.Screens())
			}
			if err := a.guard(ctx, ws, v.Resource(), identity.ActExport); err != nil {
				return err
			}
			filters, err := a.filters()
			if err != nil {
				return err
			}
			if err := v.SetFilters(ctx, query.Merge(v.Filters(), filters)); err != nil {
				return err
			}
			ds, err := ws.Dataset(v.Name())
			if err != nil {
				return err
			}

			set := infraexport.NewSet(a.cfg.Export, a.log)
			defer set.Close()
			svc := exportapp.NewService(set.Renderers,
				exportapp.WithLogger(a.log),
				exportapp.WithMaxRows(a.cfg.Export.MaxRows))

			res, err := svc.Export(ctx, ds, exportapp.Request{Format: f, Principal: ws.Principal})
			if err != nil {
				return err
			}
			if out == "" {
				out = res.FileName
			}
			if out == "-" {
				_, err = a.out.Write(res.Body)
				return err
			}
			if err := os.WriteFile(out, res.Body, 0o644); err != nil {
				return err
			}
			a.log.Info("export written", zap.String("file", out), zap.Int("rows", res.Rows))
			fmt.Fprintf(a.out, "Wrote %d rows to %s\n", res.Rows, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "csv, xlsx, html or pdf")
	cmd.Flags().StringVar(&out, "out", "", "output file, - for stdout (default: generated name)")
	return cmd
}
