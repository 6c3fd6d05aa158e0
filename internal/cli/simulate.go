package cli

import (
	"errors"
	"fmt"
	"production-simulator/internal/engine"
	"production-simulator/internal/types"
	"strings"

	"github.com/spf13/cobra"
)

func newSimulateCmd(app *App) *cobra.Command {
	var (
		quantities []string
		random     bool
		where      string
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Estimate total production time per product",
		Long: `Estimate total production time per product. Every product needs a quantity,
either with --qty "<product>=<n>" (repeatable) or --random.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := engine.CompileFilter(where)
			if err != nil {
				return err
			}
			sim := app.Simulator

			var report *engine.Report
			if random {
				if _, err := sim.Registry().GenerateRandomQuantities(app.Config.RandomQuantity.Min, app.Config.RandomQuantity.Max); err != nil {
					return err
				}
				report, err = sim.RunWithStoredQuantities(cmd.Context(), filter)
			} else {
				inputs, perr := parseQuantityFlags(quantities, sim.Registry().HasProduct)
				if perr != nil {
					return perr
				}
				report, err = sim.Run(cmd.Context(), inputs, filter)
			}

			out := cmd.OutOrStdout()
			var qErr *engine.QuantityError
			if errors.As(err, &qErr) {
				fmt.Fprintln(out, engine.QuantityNotice)
				fmt.Fprintf(out, "%s: %q\n", qErr.Product, qErr.Input)
				return ErrQuantities
			}
			if err != nil {
				return err
			}

			fmt.Fprint(out, report.String())
			if len(report.Failed()) > 0 {
				return ErrQuantities
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&quantities, "qty", "q", nil, `quantity per product as "<product>=<n>"`)
	cmd.Flags().BoolVar(&random, "random", false, "generate random quantities for every product")
	cmd.Flags().StringVarP(&where, "where", "w", "", "only count operations matching this expression")
	cmd.MarkFlagsMutuallyExclusive("qty", "random")
	return cmd
}

// parseQuantityFlags 解析 "<产品>=<数量>" 形式的参数
// 数量文本原样保留，由模拟器统一校验
func parseQuantityFlags(values []string, known func(types.Product) bool) (map[types.Product]string, error) {
	inputs := make(map[types.Product]string, len(values))
	for _, v := range values {
		idx := strings.LastIndex(v, "=")
		if idx <= 0 {
			return nil, fmt.Errorf("invalid --qty %q: expected <product>=<n>", v)
		}
		product := types.Product(strings.TrimSpace(v[:idx]))
		if !known(product) {
			return nil, fmt.Errorf("invalid --qty %q: unknown product %q", v, product)
		}
		inputs[product] = v[idx+1:]
	}
	return inputs, nil
}
