package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpatel/tritium-sc/pkg/simulation"

	_ "github.com/valpatel/tritium-sc/cmd/tritium-sc/simulation"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered simulations",
	RunE:  listSimulations,
}

func listSimulations(cmd *cobra.Command, args []string) error {
	names := simulation.DefaultRegistry.List()
	if len(names) == 0 {
		fmt.Println("No simulations registered")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tDESCRIPTION")
	_, _ = fmt.Fprintln(w, "----\t-----------")

	for _, name := range names {
		sim, err := simulation.DefaultRegistry.Get(name)
		if err != nil {
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\n", name, sim.Description())
	}

	return w.Flush()
}
