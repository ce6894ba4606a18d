package cli

import (
	"fmt"
	"strconv"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/pkg/e"

	"github.com/spf13/cobra"
)

const (
	notesFlag = "notes"
	limitFlag = "limit"
)

func newStockCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stock",
		Short: "Record stock movements",
	}
	cmd.AddCommand(
		newMovementCommand(a, model.TxIn, "in", "Receive units into stock"),
		newMovementCommand(a, model.TxOut, "out", "Remove units from stock"),
	)
	return cmd
}

func newMovementCommand(a *app, txType model.TransactionType, use, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " <product-id> <quantity>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return e.Validationf("quantity %q is not a whole number", args[1])
			}
			notes, _ := cmd.Flags().GetString(notesFlag)

			res, err := a.svc.Stock.RecordMovement(cmd.Context(), &model.MovementRequest{
				ProductID: id,
				Type:      txType,
				Quantity:  qty,
				Notes:     notes,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d %s, now %d on hand\n",
				res.Transaction.Type, res.Transaction.Quantity, res.Product.SKU, res.Product.Quantity)
			return nil
		},
	}
	cmd.Flags().String(notesFlag, "", "Free text stored with the ledger entry")
	return cmd
}

func newHistoryCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [product-id]",
		Short: "Show the ledger of one product, or the latest entries overall",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				entries []model.Transaction
				err     error
			)
			if len(args) == 1 {
				id, perr := parseID(args[0])
				if perr != nil {
					return perr
				}
				entries, err = a.svc.Ledger.ListFor(cmd.Context(), id)
			} else {
				limit, _ := cmd.Flags().GetInt(limitFlag)
				entries, err = a.svc.Ledger.Recent(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "TIME\tPRODUCT\tTYPE\tQTY\tNOTES")
			for _, t := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
					t.CreatedAt.Format("2006-01-02 15:04:05"), t.ProductID, t.Type, t.Quantity, t.Notes)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Int(limitFlag, 20, "Entries to show when no product is given")
	return cmd
}

func newStatsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show catalog totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := a.svc.Dashboard.GetDashboardStats(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "products:      %d\n", m.Total)
			fmt.Fprintf(out, "low stock:     %d\n", m.LowStock)
			fmt.Fprintf(out, "out of stock:  %d\n", m.OutOfStock)
			fmt.Fprintf(out, "total value:   %s\n", m.TotalValueDisplay())
			return nil
		},
	}
}

func newAuditCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "audit [product-id]",
		Short: "Check stored quantities against the ledger",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				rec, err := a.svc.Stock.Reconcile(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s: initial %d + in %d - out %d = %d, stored %d\n",
					rec.SKU, rec.InitialQuantity, rec.Inbound, rec.Outbound, rec.Expected, rec.Stored)
				if !rec.Consistent {
					return fmt.Errorf("product %s does not match its ledger", rec.SKU)
				}
				return nil
			}

			drifted, err := a.svc.Stock.ReconcileAll(cmd.Context())
			if err != nil {
				return err
			}
			if len(drifted) == 0 {
				fmt.Fprintln(out, "all products match their ledger")
				return nil
			}
			for _, rec := range drifted {
				fmt.Fprintf(out, "%s (%s): stored %d, ledger gives %d\n", rec.SKU, rec.ProductID, rec.Stored, rec.Expected)
			}
			return fmt.Errorf("%d product(s) do not match their ledger", len(drifted))
		},
	}
}
