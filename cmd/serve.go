package cmd

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/agentic-research/collate/api"
	"github.com/agentic-research/collate/internal/aggregate"
	"github.com/agentic-research/collate/internal/frontmatter"
	"github.com/agentic-research/collate/internal/fsport"
	"github.com/agentic-research/collate/internal/inventory"
	"github.com/agentic-research/collate/internal/logging"
	"github.com/agentic-research/collate/internal/render"
	"github.com/agentic-research/collate/internal/strategy"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose aggregation as MCP tools over stdio",
	Long: `serve speaks the Model Context Protocol on stdin/stdout so agent
runtimes can aggregate frontmatter without shelling out. Two tools are
exposed: aggregate runs the full pipeline against a schema and a glob,
inspect_keys reports key coverage for a glob.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logging.New(verbose)
		defer func() { _ = log.Sync() }()

		s := server.NewMCPServer("collate", "0.3.0",
			server.WithToolCapabilities(false),
		)

		aggregateTool := mcp.NewTool("aggregate",
			mcp.WithDescription("Aggregate frontmatter from documents matching a glob into one JSON structure driven by a schema"),
			mcp.WithString("schema",
				mcp.Required(),
				mcp.Description("Path to the aggregation schema (JSON)"),
			),
			mcp.WithString("glob",
				mcp.Required(),
				mcp.Description("Glob pattern selecting the input documents"),
			),
			mcp.WithString("strategy",
				mcp.Description("Explicit strategy: single, array or merge (default: schema-driven placement)"),
			),
		)
		s.AddTool(aggregateTool, handleAggregate)

		inspectTool := mcp.NewTool("inspect_keys",
			mcp.WithDescription("Report which frontmatter keys the matching documents define and how widely"),
			mcp.WithString("glob",
				mcp.Required(),
				mcp.Description("Glob pattern selecting the input documents"),
			),
		)
		s.AddTool(inspectTool, handleInspectKeys)

		log.Info("serving MCP tools on stdio")
		return server.ServeStdio(s)
	},
}

func handleAggregate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	schemaArg, err := req.RequireString("schema")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	glob, err := req.RequireString("glob")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	port := fsport.OS()
	text, err := port.ReadText(schemaArg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("read schema: %v", err)), nil
	}
	schema, err := api.Parse([]byte(text))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	paths, err := port.List(glob)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	opts := aggregate.Options{}
	if name := req.GetString("strategy", ""); name != "" {
		kind, err := strategy.ParseKind(name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		opts.Strategy = &kind
	}

	res, err := aggregate.New(frontmatter.NewLoader(port), schema, opts).Run(ctx, paths)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(render.EncodeJSON(res.Data)), nil
}

func handleInspectKeys(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	glob, err := req.RequireString("glob")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	port := fsport.OS()
	paths, err := port.List(glob)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	loader := frontmatter.NewLoader(port)
	ix := inventory.New()
	for _, path := range paths {
		doc, err := loader.Load(path)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("load %s: %v", path, err)), nil
		}
		ix.Add(doc.Frontmatter)
	}

	rows := make([]any, 0, len(ix.Keys()))
	for _, c := range ix.Coverage() {
		rows = append(rows, map[string]any{
			"key":      c.Key,
			"count":    c.Count,
			"fraction": c.Fraction,
		})
	}
	out := map[string]any{
		"documents": ix.Documents(),
		"keys":      rows,
	}
	return mcp.NewToolResultText(render.EncodeJSON(out)), nil
}
