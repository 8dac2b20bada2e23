package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"itemgrid.ai/internal/grid"
)

var queryCmd = &cobra.Command{
	Use:     "q ITEM MODE [PARAM]",
	Aliases: []string{"query"},
	Short:   "Query item counts or balance them across nodes",
	Long: `Query the grid for an item pattern.

Modes:
  count        total across all nodes
  high         node holding the most
  low [all]    node holding the least ("all" includes empty nodes)
  bal [min]    balance evenly; stop once a pass moves fewer than min units

The compact form q:<item>:<mode>[:<param>] is accepted as a single argument:
  gridmove q:iron:count
  gridmove q iron bal 8`,
	Args: cobra.RangeArgs(1, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		item, mode, param, err := queryArgs(args)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		e, client, err := connect(ctx)
		if err != nil {
			return err
		}
		defer client.Close()

		switch mode {
		case "count":
			n, err := e.Count(ctx, item)
			if err != nil {
				return err
			}
			fmt.Println(color.GreenString("%d x %s", n, item))

		case "high":
			id, n, err := e.High(ctx, item)
			if err != nil {
				return err
			}
			if id == "" {
				fmt.Println("no nodes reachable")
				return nil
			}
			fmt.Println(color.GreenString("%s holds %d", id, n))

		case "low":
			includeEmpty := param == "all"
			id, n, err := e.Low(ctx, item, includeEmpty)
			if err != nil {
				return err
			}
			if id == "" {
				fmt.Println("no nodes hold " + item)
				return nil
			}
			fmt.Println(color.GreenString("%s holds %d", id, n))

		case "bal":
			minMoved := 0
			if param != "" {
				minMoved, err = strconv.Atoi(param)
				if err != nil {
					return fmt.Errorf("bal param must be a number, got %q", param)
				}
			}
			moved, err := e.Balance(ctx, item, grid.BalanceOptions{Verbose: verbose, MinMoved: minMoved})
			if err != nil {
				return err
			}
			fmt.Println(color.GreenString("balanced, moved %d", moved))

		default:
			return fmt.Errorf("unknown mode %q (want count|high|low|bal)", mode)
		}
		return nil
	},
}

// queryArgs accepts both the spaced form (ITEM MODE [PARAM]) and the compact
// q:<item>:<mode>[:<param>] form.
func queryArgs(args []string) (item, mode, param string, err error) {
	if len(args) == 1 && strings.HasPrefix(args[0], "q:") {
		parts := strings.Split(args[0], ":")
		switch len(parts) {
		case 3:
			return parts[1], parts[2], "", nil
		case 4:
			return parts[1], parts[2], parts[3], nil
		}
		return "", "", "", fmt.Errorf("compact form is q:<item>:<mode>[:<param>], got %q", args[0])
	}
	if len(args) < 2 {
		return "", "", "", fmt.Errorf("need ITEM and MODE")
	}
	item, mode = args[0], args[1]
	if len(args) == 3 {
		param = args[2]
	}
	return item, mode, param, nil
}
