package cli

import (
	"fmt"

	"github.com/doclens/backend/internal/domain"
	"github.com/doclens/backend/internal/infrastructure/catalog"
	"github.com/spf13/cobra"
)

func newProductsCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Manage the product catalog",
	}

	cmd.AddCommand(
		newProductsListCmd(rt),
		newProductsAddCmd(rt),
		newProductsRemoveCmd(rt),
		newProductsImportCmd(rt),
		newProductsExportCmd(rt),
	)
	return cmd
}

func newProductsListCmd(rt *runtime) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog products ordered by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := outputFormat(format); err != nil {
				return err
			}

			products, err := rt.app.Products.List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == "json" {
				return writeJSON(out, products)
			}

			if len(products) == 0 {
				writeln(out, "No products found")
				return nil
			}
			writeln(out, "Found %d product(s):", len(products))
			writeln(out, "")
			for _, p := range products {
				writeln(out, "%s  %s", p.ID, p.Name)
				if p.Description != "" {
					writeln(out, "  Description: %s", p.Description)
				}
				writeln(out, "  Positive:    %s", p.PositiveKeywords)
				writeln(out, "  Negative:    %s", p.NegativeKeywords)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: json or text")
	return cmd
}

func newProductsAddCmd(rt *runtime) *cobra.Command {
	var product domain.Product

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a product to the catalog",
		Long: `Add a product. Keywords are comma-separated; phrases are allowed.

Example:
  doclens products add --name "Agua Mineral" --positive "gelada, sem gas" --negative "quente"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.app.Products.Create(cmd.Context(), &product); err != nil {
				return err
			}
			writeln(cmd.OutOrStdout(), "Added %s (%s)", product.Name, product.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&product.ID, "id", "", "Product id (default: generated)")
	cmd.Flags().StringVar(&product.Name, "name", "", "Product name as it appears in documents")
	cmd.Flags().StringVar(&product.Description, "description", "", "Free-form description")
	cmd.Flags().StringVar(&product.PositiveKeywords, "positive", "", "Comma-separated positive keywords")
	cmd.Flags().StringVar(&product.NegativeKeywords, "negative", "", "Comma-separated negative keywords")
	cmd.MarkFlagRequired("name")
	return cmd
}

func newProductsRemoveCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a product from the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.app.Products.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			writeln(cmd.OutOrStdout(), "Removed %s", args[0])
			return nil
		},
	}
}

func newProductsImportCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "import <catalog.yaml>",
		Short: "Import products from a YAML catalog",
		Long: `Import a YAML catalog. Products whose id already exists are updated;
the rest are created.

File layout:
  products:
    - name: Papel A4
      positive_keywords: resistente, branco
      negative_keywords: amassado`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			products, err := catalog.LoadYAML(args[0])
			if err != nil {
				return err
			}

			n, err := rt.app.Products.Import(cmd.Context(), products)
			if err != nil {
				return fmt.Errorf("imported %d of %d: %w", n, len(products), err)
			}
			writeln(cmd.OutOrStdout(), "Imported %d product(s)", n)
			return nil
		},
	}
}

func newProductsExportCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "export [catalog.yaml]",
		Short: "Export the catalog as YAML (stdout when no file is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			products, err := rt.app.Products.List(cmd.Context())
			if err != nil {
				return err
			}

			if len(args) == 0 || args[0] == "-" {
				return catalog.EncodeYAML(cmd.OutOrStdout(), products)
			}
			if err := catalog.WriteYAML(args[0], products); err != nil {
				return err
			}
			writeln(cmd.ErrOrStderr(), "Exported %d product(s) to %s", len(products), args[0])
			return nil
		},
	}
}
