package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var errUnhealthy = errors.New("one or more dependencies are unhealthy")

func (c *cli) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Ping the configured storage and cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			results, healthy := c.app.Check(cmd.Context())

			rows := make([][]any, 0, len(results))
			for _, r := range results {
				rows = append(rows, []any{r.Name, r.Status})
			}
			renderTable(c.out, []string{"Dependency", "Status"}, rows)

			if !healthy {
				return errUnhealthy
			}
			return nil
		},
	}
}
