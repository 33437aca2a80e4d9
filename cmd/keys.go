package cmd

import (
	"fmt"

	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"

	"github.com/agentic-research/collate/internal/frontmatter"
	"github.com/agentic-research/collate/internal/fsport"
	"github.com/agentic-research/collate/internal/inventory"
)

var keysAsJSON bool

func init() {
	keysCmd.Flags().BoolVar(&keysAsJSON, "json", false, "Emit the report as JSON")
	rootCmd.AddCommand(keysCmd)
}

var keysCmd = &cobra.Command{
	Use:   "keys [inputs...]",
	Short: "Report frontmatter key coverage across the input set",
	Long: `keys loads the frontmatter of every input document and reports, for
each dotted key, how many documents define it. Useful for spotting keys
that only a few documents carry before writing a schema against them.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		port := fsport.OS()
		paths, err := expandInputs(port, args)
		if err != nil {
			return err
		}

		loader := frontmatter.NewLoader(port)
		ix := inventory.New()
		for _, path := range paths {
			doc, err := loader.Load(path)
			if err != nil {
				return fmt.Errorf("load %s: %w", path, err)
			}
			ix.Add(doc.Frontmatter)
		}

		if keysAsJSON {
			rows := make([]any, 0, len(ix.Keys()))
			for _, c := range ix.Coverage() {
				rows = append(rows, map[string]any{
					"key":      c.Key,
					"count":    c.Count,
					"fraction": c.Fraction,
				})
			}
			fmt.Println(oj.JSON(rows, 2))
			return nil
		}

		fmt.Printf("%d documents, %d distinct keys\n\n", ix.Documents(), len(ix.Keys()))
		for _, c := range ix.Coverage() {
			fmt.Printf("%-40s %4d  (%3.0f%%)\n", c.Key, c.Count, c.Fraction*100)
		}
		return nil
	},
}
