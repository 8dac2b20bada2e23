package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"itemgrid.ai/internal/grid"
)

var moveCmd = &cobra.Command{
	Use:   "move SOURCE DEST",
	Short: "Move items matching SOURCE into DEST",
	Long: `Move items between grid nodes.

Patterns take the form location/item:count. Location "." is the actor's own
inventory, "*" (or "..") is every reachable node. Count "*" takes one stack,
"++" drains every matching stack.

Examples:
  gridmove move "bin_a/iron:32" "."
  gridmove move "./cobble:++" "*"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, client, err := connect(ctx)
		if err != nil {
			return err
		}
		defer client.Close()

		moved, err := e.Move(ctx, args[0], args[1], grid.MoveOptions{Verbose: verbose})
		if err != nil {
			if moved > 0 {
				fmt.Printf("moved %d before failing\n", moved)
			}
			return err
		}
		fmt.Println(color.GreenString("moved %d", moved))
		return nil
	},
}
