package cli

import (
	"context"
	"io"
	"text/tabwriter"

	"go-inventory-ledger/internal/bootstrap"
	"go-inventory-ledger/pkg/e"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// Opener connects to the store and returns the services. It runs once,
// before the selected command, so --help needs no database.
type Opener func(ctx context.Context) (*bootstrap.Services, error)

type app struct {
	open Opener
	svc  *bootstrap.Services
}

func NewRootCommand(open Opener) *cobra.Command {
	a := &app{open: open}

	root := &cobra.Command{
		Use:   "inventoryctl",
		Short: "Operate the inventory catalog and stock ledger",
		Long: `inventoryctl manages products and records stock movements against the
same store the API uses. Every quantity change goes through the ledger.

Examples:
  inventoryctl product add --sku A1 --name Widget --quantity 10 --price 2.50
  inventoryctl stock out <product-id> 3 --notes "order 17"
  inventoryctl history <product-id>
  inventoryctl audit`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			a.svc = svc
			return nil
		},
	}

	root.AddCommand(
		newProductCommand(a),
		newStockCommand(a),
		newHistoryCommand(a),
		newStatsCommand(a),
		newAuditCommand(a),
	)
	return root
}

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, e.Validationf("invalid product id %q", s)
	}
	return id, nil
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}
