package cli

import (
	"fmt"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/internal/stock"

	"github.com/spf13/cobra"
)

const (
	skuFlag         = "sku"
	nameFlag        = "name"
	descriptionFlag = "description"
	categoryFlag    = "category"
	quantityFlag    = "quantity"
	minQuantityFlag = "min-quantity"
	priceFlag       = "price"
	statusFlag      = "status"
)

func newProductCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product",
		Short: "Manage catalog entries",
	}
	cmd.AddCommand(
		newProductAddCommand(a),
		newProductListCommand(a),
		newProductUpdateCommand(a),
		newProductDeleteCommand(a),
	)
	return cmd
}

func newProductAddCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := cmd.Flags()
			in := &model.ProductInput{}
			in.SKU, _ = f.GetString(skuFlag)
			in.Name, _ = f.GetString(nameFlag)
			in.Description, _ = f.GetString(descriptionFlag)
			in.Category, _ = f.GetString(categoryFlag)
			in.Quantity, _ = f.GetInt(quantityFlag)
			in.MinQuantity, _ = f.GetInt(minQuantityFlag)

			rawPrice, _ := f.GetString(priceFlag)
			price, err := service.ParsePrice(rawPrice)
			if err != nil {
				return err
			}
			in.Price = price

			p, err := a.svc.Catalog.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%d units)\n", p.ID, p.SKU, p.Quantity)
			return nil
		},
	}

	f := cmd.Flags()
	f.String(skuFlag, "", "Stock keeping unit, unique among live products (required)")
	f.String(nameFlag, "", "Display name (required)")
	f.String(descriptionFlag, "", "Free text description")
	f.String(categoryFlag, "", "Category label")
	f.Int(quantityFlag, 0, "Initial quantity")
	f.Int(minQuantityFlag, 0, "Low stock threshold")
	f.String(priceFlag, "0", "Unit price, at most two decimals")
	_ = cmd.MarkFlagRequired(skuFlag)
	_ = cmd.MarkFlagRequired(nameFlag)
	return cmd
}

func newProductListCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List live products with their stock status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, _ := cmd.Flags().GetString(statusFlag)
			selector, err := stock.ParseSelector(raw)
			if err != nil {
				return err
			}

			products, err := a.svc.Dashboard.GetProducts(cmd.Context(), selector)
			if err != nil {
				return err
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tSKU\tNAME\tQTY\tMIN\tPRICE\tSTATUS")
			for _, p := range products {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
					p.ID, p.SKU, p.Name, p.Quantity, p.MinQuantity, p.Price.StringFixed(2), p.Status)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().String(statusFlag, "all", "Filter: all, low or out")
	return cmd
}

func newProductUpdateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <product-id>",
		Short: "Edit product fields; quantity only changes through stock movements",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			f := cmd.Flags()
			patch := &model.ProductPatch{}
			if f.Changed(skuFlag) {
				v, _ := f.GetString(skuFlag)
				patch.SKU = &v
			}
			if f.Changed(nameFlag) {
				v, _ := f.GetString(nameFlag)
				patch.Name = &v
			}
			if f.Changed(descriptionFlag) {
				v, _ := f.GetString(descriptionFlag)
				patch.Description = &v
			}
			if f.Changed(categoryFlag) {
				v, _ := f.GetString(categoryFlag)
				patch.Category = &v
			}
			if f.Changed(minQuantityFlag) {
				v, _ := f.GetInt(minQuantityFlag)
				patch.MinQuantity = &v
			}
			if f.Changed(priceFlag) {
				raw, _ := f.GetString(priceFlag)
				price, err := service.ParsePrice(raw)
				if err != nil {
					return err
				}
				patch.Price = &price
			}

			p, err := a.svc.Catalog.Update(cmd.Context(), id, patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %s %s\n", p.ID, p.SKU)
			return nil
		},
	}

	f := cmd.Flags()
	f.String(skuFlag, "", "New SKU")
	f.String(nameFlag, "", "New name")
	f.String(descriptionFlag, "", "New description")
	f.String(categoryFlag, "", "New category")
	f.Int(minQuantityFlag, 0, "New low stock threshold")
	f.String(priceFlag, "", "New unit price")
	return cmd
}

func newProductDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <product-id>",
		Short: "Delete a product; its ledger history is kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.svc.Catalog.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
			return nil
		},
	}
}
