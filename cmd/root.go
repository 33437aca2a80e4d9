package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agentic-research/collate/api"
	"github.com/agentic-research/collate/internal/aggregate"
	"github.com/agentic-research/collate/internal/config"
	"github.com/agentic-research/collate/internal/frontmatter"
	"github.com/agentic-research/collate/internal/fsport"
	"github.com/agentic-research/collate/internal/logging"
	"github.com/agentic-research/collate/internal/render"
	"github.com/agentic-research/collate/internal/strategy"
)

var (
	schemaPath     string
	templatePath   string
	outPath        string
	configPath     string
	formatName     string
	strategyName   string
	conflictPolicy string
	arrayKey       string
	workers        int
	maxHeapMB      int
	includeMeta    bool
	preserveArrays bool
	verbose        bool
)

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&schemaPath, "schema", "s", "", "Path to the aggregation schema (JSON)")
	f.StringVarP(&templatePath, "template", "t", "", "Path to an output template")
	f.StringVarP(&outPath, "out", "o", "", "Output file (stdout when empty)")
	f.StringVarP(&configPath, "config", "c", "", "Path to an HCL run configuration")
	f.StringVar(&formatName, "format", "", "Output format: json or yaml")
	f.StringVar(&strategyName, "strategy", "", "Explicit strategy: single, array or merge")
	f.StringVar(&conflictPolicy, "conflict-policy", "", "Merge conflicts: first-wins, last-wins or array-combine")
	f.StringVar(&arrayKey, "array-key", "", "Wrapping key for array aggregation")
	f.IntVarP(&workers, "workers", "w", 0, "Parallel batch width (1 = sequential)")
	f.IntVar(&maxHeapMB, "max-heap-mb", 0, "Abort when the heap exceeds this many MB (0 = unlimited)")
	f.BoolVar(&includeMeta, "metadata", false, "Include the aggregationMetadata block")
	f.BoolVar(&preserveArrays, "preserve-arrays", false, "Concatenate arrays during merge aggregation")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
}

var rootCmd = &cobra.Command{
	Use:   "collate [inputs...]",
	Short: "Aggregate document frontmatter against a schema",
	Long: `collate extracts frontmatter from a set of documents, applies the
schema's per-document directives, places the results into the structure the
schema describes, derives cross-document summary fields and renders a single
JSON/YAML result or a filled template.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logging.New(verbose)
		defer func() { _ = log.Sync() }()

		cfg, err := loadRunConfig(cmd)
		if err != nil {
			return err
		}

		port := fsport.OS()
		paths, err := expandInputs(port, args)
		if err != nil {
			return err
		}
		log.Debug("inputs resolved", zap.Int("count", len(paths)))

		var schema *api.Schema
		if schemaPath != "" {
			text, err := port.ReadText(schemaPath)
			if err != nil {
				return fmt.Errorf("read schema: %w", err)
			}
			schema, err = api.Parse([]byte(text))
			if err != nil {
				return err
			}
		}

		opts, err := buildOptions(cfg, log)
		if err != nil {
			return err
		}

		orch := aggregate.New(frontmatter.NewLoader(port), schema, opts)
		res, err := orch.Run(cmd.Context(), paths)
		if err != nil {
			return err
		}

		text, err := renderResult(port, cfg, res.Data)
		if err != nil {
			return err
		}

		if outPath == "" {
			fmt.Println(strings.TrimRight(text, "\n"))
		} else if err := port.WriteText(outPath, text); err != nil {
			return err
		}

		log.Info("aggregation complete",
			zap.Int("documents", res.SourceCount),
			zap.Int("skipped", len(res.DocumentErrors)),
			zap.String("strategy", res.StrategyName),
			zap.Duration("took", res.ExecutionTime))
		log.Debug("run metadata", zap.Any("run", aggregate.Metadata{
			SchemaPath:             schemaPath,
			TemplatePath:           templatePath,
			OutputPath:             outPath,
			InputPaths:             paths,
			ProcessedDocumentCount: res.SourceCount,
			ExecutionTime:          res.ExecutionTime,
		}))
		return nil
	},
}

// loadRunConfig layers flag values over the optional HCL config file.
func loadRunConfig(cmd *cobra.Command) (config.Run, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.LoadFile(configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = workers
	}
	if cmd.Flags().Changed("strategy") {
		cfg.Strategy = strategyName
	}
	if cmd.Flags().Changed("conflict-policy") {
		cfg.ConflictPolicy = conflictPolicy
	}
	if cmd.Flags().Changed("array-key") {
		cfg.ArrayKey = arrayKey
	}
	if cmd.Flags().Changed("format") {
		cfg.Format = formatName
	}
	if cmd.Flags().Changed("max-heap-mb") {
		cfg.MaxHeapMB = maxHeapMB
	}
	if cmd.Flags().Changed("metadata") {
		cfg.IncludeMetadata = includeMeta
	}
	if cmd.Flags().Changed("preserve-arrays") {
		cfg.PreserveArrays = preserveArrays
	}
	if cfg.Format != "json" && cfg.Format != "yaml" {
		return cfg, fmt.Errorf("unknown format %q (want json or yaml)", cfg.Format)
	}
	return cfg, nil
}

// buildOptions translates the run config into orchestrator options.
func buildOptions(cfg config.Run, log *zap.Logger) (aggregate.Options, error) {
	policy, err := strategy.ParseConflictPolicy(cfg.ConflictPolicy)
	if err != nil {
		return aggregate.Options{}, err
	}
	opts := aggregate.Options{
		Workers:      cfg.Workers,
		MaxHeapBytes: uint64(cfg.MaxHeapMB) << 20,
		Logger:       log,
		StrategyOptions: strategy.Options{
			ArrayKey:        cfg.ArrayKey,
			IncludeMetadata: cfg.IncludeMetadata,
			Policy:          policy,
			PreserveArrays:  cfg.PreserveArrays,
		},
	}
	if cfg.Strategy != "" {
		kind, err := strategy.ParseKind(cfg.Strategy)
		if err != nil {
			return opts, err
		}
		opts.Strategy = &kind
	}
	return opts, nil
}

// expandInputs resolves glob patterns and verifies plain paths exist.
func expandInputs(port *fsport.Port, args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		if strings.ContainsAny(arg, "*?[") {
			matches, err := port.List(arg)
			if err != nil {
				return nil, err
			}
			paths = append(paths, matches...)
			continue
		}
		if !port.Exists(arg) {
			return nil, fmt.Errorf("input %s does not exist", arg)
		}
		paths = append(paths, arg)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no input documents matched")
	}
	return paths, nil
}

// renderResult produces the output text: template when given, encoded
// JSON/YAML otherwise.
func renderResult(port *fsport.Port, cfg config.Run, data map[string]any) (string, error) {
	if templatePath != "" {
		tmpl, err := port.ReadText(templatePath)
		if err != nil {
			return "", fmt.Errorf("read template: %w", err)
		}
		return render.Render(tmpl, data)
	}
	if cfg.Format == "yaml" {
		return render.EncodeYAML(data)
	}
	return render.EncodeJSON(data) + "\n", nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
