package cli

import (
	"fmt"
	"io"
	"production-simulator/internal/engine"
	"production-simulator/internal/operation"
	"production-simulator/internal/registry"
	"production-simulator/internal/types"

	"github.com/spf13/cobra"
)

func newOpsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ops",
		Short: "List and add operations",
	}
	cmd.AddCommand(newOpsListCmd(app), newOpsAddCmd(app))
	return cmd
}

func newOpsListCmd(app *App) *cobra.Command {
	var product, where string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered operations per product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := engine.CompileFilter(where)
			if err != nil {
				return err
			}
			if product != "" && !app.Simulator.Registry().HasProduct(types.Product(product)) {
				return fmt.Errorf("unknown product %q", product)
			}
			table, err := app.Simulator.Table(filter)
			if err != nil {
				return err
			}
			for _, p := range app.Simulator.Registry().Products() {
				if product != "" && p != types.Product(product) {
					continue
				}
				printColumn(cmd.OutOrStdout(), p, table[p])
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&product, "product", "p", "", "only list this product")
	cmd.Flags().StringVarP(&where, "where", "w", "", `filter expression, e.g. op.machine == "Forno"`)
	return cmd
}

// printColumn 输出工序表中一个产品的列
func printColumn(w io.Writer, product types.Product, cells []string) {
	fmt.Fprintf(w, "%s:\n", product)
	if len(cells) == 0 {
		fmt.Fprintln(w, "  (nessuna operazione)")
		return
	}
	for i, cell := range cells {
		fmt.Fprintf(w, "  %d. %s\n", i+1, cell)
	}
}

type addOptions struct {
	product  string
	name     string
	machine  string
	capacity int
	min      string
	max      string
	save     bool
}

func newOpsAddCmd(app *App) *cobra.Command {
	opts := &addOptions{}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an operation to a product",
		Long: `Add an operation to a product. Times are given as gg:hh:mm:ss (days:hours:minutes:seconds);
without --max the operation has a fixed time (max = min).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := app.Simulator.Registry()
			if !reg.HasProduct(types.Product(opts.product)) {
				return fmt.Errorf("%w: %q", registry.ErrUnknownProduct, opts.product)
			}
			if !reg.HasMachine(types.Machine(opts.machine)) {
				return fmt.Errorf("%w: %q", registry.ErrUnknownMachine, opts.machine)
			}
			op, err := buildOperation(opts.product, opts.name, opts.machine, opts.capacity, opts.min, opts.max)
			if err != nil {
				return err
			}
			if err := app.Simulator.AddOperation(op, opts.save); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %s\n", op.Product, engine.FormatOperation(op))
			if !opts.save {
				fmt.Fprintln(out, "not saved: pass --save to store the operation in the snapshot")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.product, "product", "p", "", "product name")
	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "operation name")
	cmd.Flags().StringVarP(&opts.machine, "machine", "m", "", "machine name")
	cmd.Flags().IntVar(&opts.capacity, "capacity", 0, "max batch capacity (units per execution)")
	cmd.Flags().StringVar(&opts.min, "min", "", "minimum (or fixed) time, gg:hh:mm:ss")
	cmd.Flags().StringVar(&opts.max, "max", "", "maximum time, gg:hh:mm:ss (omit for a fixed time)")
	cmd.Flags().BoolVar(&opts.save, "save", false, "save as default (overwrite the snapshot)")
	_ = cmd.MarkFlagRequired("product")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("machine")
	_ = cmd.MarkFlagRequired("capacity")
	_ = cmd.MarkFlagRequired("min")
	return cmd
}

// buildOperation 将录入的字段转换为工序；maxText 为空表示固定时长
func buildOperation(product, name, machine string, capacity int, minText, maxText string) (*operation.Operation, error) {
	minFields, err := types.ParseDurationFields(minText)
	if err != nil {
		return nil, fmt.Errorf("min: %w", err)
	}
	minSeconds := minFields.TotalSeconds()
	maxSeconds := minSeconds
	if maxText != "" {
		maxFields, err := types.ParseDurationFields(maxText)
		if err != nil {
			return nil, fmt.Errorf("max: %w", err)
		}
		maxSeconds = maxFields.TotalSeconds()
	}
	return operation.New(name, types.Machine(machine), minSeconds, maxSeconds, capacity, types.Product(product))
}
