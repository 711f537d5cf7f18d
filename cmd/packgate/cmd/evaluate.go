package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/solatis/packgate/internal/core/config"
	"github.com/solatis/packgate/internal/core/db"
	"github.com/solatis/packgate/internal/engine"
	"github.com/solatis/packgate/internal/packfile"
	"github.com/solatis/packgate/internal/selector"
	"github.com/solatis/packgate/internal/types"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a policy pack against a pull request context",
	Long: `Evaluates the applicable policy pack against a PR context document and
prints the decision, findings, and engine fingerprint as JSON.

The pack comes from --pack (a file or a directory of packs) or, when
--pack is omitted, from published pack records in the database. With a
directory or database source, scope resolution picks the single
applicable pack for the target named by --workspace/--repo/--branch.`,
	RunE:          runEvaluate,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	evalPackPath  string
	evalCtxPath   string
	evalWorkspace string
	evalOrg       string
	evalRepo      string
	evalBranch    string
	evalService   string
	evalHybrid    bool
	evalSave      bool
)

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().StringVar(&evalPackPath, "pack", "", "pack file or directory (omit to resolve from database)")
	evaluateCmd.Flags().StringVar(&evalCtxPath, "context", "", "PR context JSON file (required)")
	evaluateCmd.Flags().StringVar(&evalWorkspace, "workspace", "", "workspace id for scope resolution")
	evaluateCmd.Flags().StringVar(&evalOrg, "org", "", "organization of the target repository")
	evaluateCmd.Flags().StringVar(&evalRepo, "repo", "", "target repository name")
	evaluateCmd.Flags().StringVar(&evalBranch, "branch", "", "PR base branch")
	evaluateCmd.Flags().StringVar(&evalService, "service", "", "owning service id, when known")
	evaluateCmd.Flags().BoolVar(&evalHybrid, "hybrid", false, "cross-check comparators against their condition translations")
	evaluateCmd.Flags().BoolVar(&evalSave, "save", false, "persist the evaluation result to the database")
	evaluateCmd.MarkFlagRequired("context")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	pr, err := loadPRContext(evalCtxPath)
	if err != nil {
		return err
	}

	var store *db.Store
	if evalSave || evalPackPath == "" {
		url := dbURL
		if url == "" {
			url = cfg.DatabaseURL
		}
		database, err := db.Open(url)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer database.Close()

		queries, err := db.LoadQueries(database)
		if err != nil {
			return fmt.Errorf("failed to load queries: %w", err)
		}
		store = db.NewStore(queries)
	}

	pack, err := resolvePack(store)
	if err != nil {
		return err
	}
	if pack == nil {
		fmt.Fprintln(os.Stderr, "no applicable pack for target, nothing to evaluate")
		return nil
	}

	opts := []engine.Option{}
	if evalHybrid || cfg.HybridMode {
		opts = append(opts, engine.WithHybridMode())
	}
	evaluator := engine.NewEvaluator(engine.DefaultRegistry(), engine.NewFactCatalog(), logger, opts...)

	result := evaluator.EvaluatePack(cmd.Context(), pack, pr)

	if evalSave {
		id, err := store.SaveEvaluation(result, time.Now())
		if err != nil {
			return fmt.Errorf("failed to save evaluation: %w", err)
		}
		logger.Info("evaluation saved", "evaluation_id", string(id))
	}

	if err := printResult(pack, result); err != nil {
		return err
	}

	// Observe-mode packs report but never gate.
	if pack.Metadata.Mode == types.ModeEnforce && result.Decision == types.DecisionBlock {
		return fmt.Errorf("pack %s blocked the change", pack.Metadata.ID)
	}
	return nil
}

// resolvePack picks the pack to evaluate. A pack file wins outright; a
// directory or the database goes through scope resolution.
func resolvePack(store *db.Store) (*types.Pack, error) {
	if evalPackPath == "" {
		if evalWorkspace == "" {
			return nil, fmt.Errorf("--workspace required when resolving packs from the database")
		}
		records, err := store.ListPackRecords(evalWorkspace)
		if err != nil {
			return nil, err
		}
		return resolveFromRecords(records), nil
	}

	info, err := os.Stat(evalPackPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat pack path: %w", err)
	}

	if !info.IsDir() {
		pack, err := packfile.Load(evalPackPath)
		if err != nil {
			return nil, err
		}
		if err := packfile.Validate(pack); err != nil {
			return nil, err
		}
		pack.Source = string(pack.Scope.Level)
		return pack, nil
	}

	packs, err := packfile.LoadDir(evalPackPath)
	if err != nil {
		return nil, err
	}
	records := make([]selector.PackRecord, 0, len(packs))
	for _, p := range packs {
		if err := packfile.Validate(p); err != nil {
			return nil, err
		}
		records = append(records, selector.PackRecord{
			ID:   types.NewPackRecordID(),
			Pack: p,
		})
	}
	return resolveFromRecords(records), nil
}

func resolveFromRecords(records []selector.PackRecord) *types.Pack {
	winner := selector.Resolve(selector.Query{
		Workspace: evalWorkspace,
		Org:       evalOrg,
		Repo:      evalRepo,
		Branch:    evalBranch,
		Service:   evalService,
	}, records)
	if winner == nil {
		return nil
	}
	return winner.Pack
}

func loadPRContext(path string) (*types.PRContext, error) {
	doc, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read PR context: %w", err)
	}
	var pr types.PRContext
	if err := json.Unmarshal(doc, &pr); err != nil {
		return nil, fmt.Errorf("failed to parse PR context: %w", err)
	}
	return &pr, nil
}

// printResult writes the evaluation result, plus the host conclusion when
// the pack's routing maps the decision, as indented JSON on stdout.
func printResult(pack *types.Pack, result *types.PackEvaluationResult) error {
	out := struct {
		*types.PackEvaluationResult
		Mode       types.PackMode `json:"packMode"`
		Conclusion string         `json:"conclusion,omitempty"`
	}{
		PackEvaluationResult: result,
		Mode:                 pack.Metadata.Mode,
		Conclusion:           pack.Routing.ConclusionMapping[result.Decision],
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
