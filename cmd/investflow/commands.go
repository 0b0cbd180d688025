package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/bobmcallan/investflow/internal/common"
	"github.com/bobmcallan/investflow/internal/interfaces"
	"github.com/bobmcallan/investflow/internal/models"
	"github.com/bobmcallan/investflow/internal/services/portfolio"
)

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Annotations: map[string]string{"app": "none"},
		Run: func(cmd *cobra.Command, args []string) {
			common.LoadVersionFromFile()
			fmt.Fprintf(c.out, "investflow %s\n", common.GetFullVersion())
		},
	}
}

func (c *cli) registerCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account with --email and --password",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.app.AuthService.Register(cmd.Context(), interfaces.RegisterRequest{
				Name:     name,
				Email:    c.email,
				Password: c.password,
			})
			if err != nil {
				return userError(err)
			}
			fmt.Fprintf(c.out, "Registered %s <%s> (%s)\n", res.User.Name, res.User.Email, res.User.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	return cmd
}

func (c *cli) holdingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "holdings",
		Short: "List holdings with derived values",
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := c.ownerID(cmd.Context())
			if err != nil {
				return err
			}
			holdings, err := c.app.PortfolioService.Holdings(cmd.Context(), owner)
			if err != nil {
				return userError(err)
			}
			c.printHoldings(holdings)
			return nil
		},
	}
}

func (c *cli) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show portfolio totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := c.ownerID(cmd.Context())
			if err != nil {
				return err
			}
			summary, err := c.app.PortfolioService.Summary(cmd.Context(), owner)
			if err != nil {
				return userError(err)
			}
			tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "Holdings\t%d\n", summary.Holdings)
			fmt.Fprintf(tw, "Total value\t%s\n", summary.Display.TotalValue)
			fmt.Fprintf(tw, "Total cost\t%s\n", summary.Display.TotalCost)
			fmt.Fprintf(tw, "Total gain\t%s\n", summary.Display.TotalGain)
			fmt.Fprintf(tw, "Return\t%s\n", summary.Display.TotalGainPercent)
			return tw.Flush()
		},
	}
}

func (c *cli) allocationCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "allocation",
		Short: "Show value by sector",
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := c.ownerID(cmd.Context())
			if err != nil {
				return err
			}
			slices, err := c.app.PortfolioService.Allocation(cmd.Context(), owner)
			if err != nil {
				return userError(err)
			}
			currency := c.app.Config.Currency()
			tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "SECTOR\tVALUE")
			for _, s := range slices {
				fmt.Fprintf(tw, "%s\t%s\n", s.Name, common.FormatMoney(s.Value, currency))
			}
			return tw.Flush()
		},
	}
}

func (c *cli) importCmd() *cobra.Command {
	var req interfaces.ImportRequest
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import positions from Trading 212",
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := c.ownerID(cmd.Context())
			if err != nil {
				return err
			}
			if req.APIKey == "" {
				req.APIKey, _ = common.ResolveAPIKey("trading212_api_key", "")
			}
			res, err := c.app.PortfolioService.Import(cmd.Context(), owner, req)
			if err != nil {
				return userError(err)
			}
			fmt.Fprintf(c.out, "Imported %d positions from %s: %d added, %d updated\n",
				res.Fetched, res.Source, res.Added, res.Updated)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.APIKey, "api-key", "", "Trading 212 API key (env TRADING212_API_KEY)")
	cmd.Flags().BoolVar(&req.Demo, "demo", false, "use the demo environment")
	return cmd
}

func (c *cli) insightCmd() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "insight",
		Short: "Generate an AI analysis of the portfolio",
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := c.ownerID(cmd.Context())
			if err != nil {
				return err
			}
			holdings, err := c.app.PortfolioService.Holdings(cmd.Context(), owner)
			if err != nil {
				return userError(err)
			}
			stats := portfolio.ComputeStats(holdings, c.app.Config.Currency())
			result := c.app.InsightService.Generate(cmd.Context(), holdings, stats)
			if raw {
				fmt.Fprintln(c.out, result.Markdown)
				return nil
			}
			return renderMarkdown(c, result.Markdown)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print markdown without terminal styling")
	return cmd
}

func (c *cli) printHoldings(holdings []models.Holding) {
	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TICKER\tTYPE\tQTY\tAVG\tPRICE\tVALUE\tGAIN")
	for _, h := range holdings {
		cur := h.Asset.Currency
		fmt.Fprintf(tw, "%s\t%s\t%g\t%s\t%s\t%s\t%s\n",
			h.Asset.Ticker,
			h.Asset.Type,
			h.Quantity,
			common.FormatMoney(h.AveragePrice, cur),
			common.FormatMoney(h.CurrentPrice, cur),
			common.FormatMoney(h.TotalValue(), cur),
			common.FormatPercent(h.GainPercent()),
		)
	}
	tw.Flush()
}

// renderMarkdown styles md for the terminal, falling back to plain text.
func renderMarkdown(c *cli, md string) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err == nil {
		var out string
		if out, err = r.Render(md); err == nil {
			_, err = fmt.Fprint(c.out, out)
			return err
		}
	}
	_, err = fmt.Fprintln(c.out, md)
	return err
}
