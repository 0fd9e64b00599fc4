package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"codepatch/internal/logging"
	"codepatch/internal/patch"
	"codepatch/internal/workspace"
)

var (
	verbose       bool
	workspaceDir  string
	writeBranches bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "codepatch",
	Short: "codepatch - locate and apply model-proposed edits",
	Long: `codepatch locates approximately-quoted edits inside the files of a
workspace and applies them to isolated branch copies, without touching the
originals. Edit proposals are YAML files listing excerpts of the text to
change plus replacement text.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logging.Configure(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var applyCmd = &cobra.Command{
	Use:   "apply [proposal.yaml]",
	Short: "Locate a proposal's edits and materialize them onto branches",
	Long: `Reads a YAML edit proposal, locates every edit inside the workspace,
applies the edits to isolated branch buffers and prints the result. The
files on disk are only modified with --write.`,
	Args: cobra.ExactArgs(1),
	RunE: runApply,
}

// proposalFile is the on-disk YAML shape of a proposal.
type proposalFile struct {
	Title string `yaml:"title"`
	Edits []struct {
		Path        string  `yaml:"path"`
		Operation   string  `yaml:"operation"`
		OldText     *string `yaml:"old_text"`
		NewText     *string `yaml:"new_text"`
		Description string  `yaml:"description"`
	} `yaml:"edits"`
}

func loadProposal(path string) (patch.Proposal, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return patch.Proposal{}, fmt.Errorf("reading proposal: %w", err)
	}
	var file proposalFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return patch.Proposal{}, fmt.Errorf("parsing proposal: %w", err)
	}

	proposal := patch.Proposal{Title: file.Title, Status: patch.StatusReady}
	for i, raw := range file.Edits {
		edit, err := patch.ParseEdit(patch.RawEdit{
			Path:        raw.Path,
			Operation:   raw.Operation,
			OldText:     raw.OldText,
			NewText:     raw.NewText,
			Description: raw.Description,
		})
		if err != nil {
			return patch.Proposal{}, fmt.Errorf("edit %d: %w", i, err)
		}
		proposal.Edits = append(proposal.Edits, edit)
	}
	return proposal, nil
}

func runApply(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	proposal, err := loadProposal(args[0])
	if err != nil {
		return err
	}

	manager, err := workspace.NewManager(workspaceDir)
	if err != nil {
		return err
	}
	store := patch.NewStore(manager)

	// Keep cached buffers tracking the files on disk while location runs;
	// external writes show up as drift and get reconciled at materialization.
	watcher, err := workspace.NewWatcher(manager)
	if err != nil {
		return err
	}
	if err := watcher.Start(ctx); err != nil {
		return err
	}
	defer watcher.Stop()

	key := patch.ProposalKey(uuid.NewString())
	store.Submit(key, proposal)
	if err := store.Wait(ctx, key); err != nil {
		return err
	}

	result, err := store.Materialize(ctx, key)
	if err != nil {
		return err
	}

	for _, file := range result.Files {
		fmt.Printf("--- %s (%d edit groups)\n", file.Path, len(file.Groups))
		if writeBranches {
			target := file.Buffer.Path()
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return fmt.Errorf("creating directory for %s: %w", file.Path, err)
			}
			if err := os.WriteFile(target, []byte(file.Buffer.Text()), 0644); err != nil {
				return fmt.Errorf("writing %s: %w", file.Path, err)
			}
			continue
		}
		fmt.Println(file.Buffer.Text())
	}
	for _, resErr := range result.Errors {
		fmt.Fprintf(os.Stderr, "edit %d failed: %s\n", resErr.EditIndex, resErr.Message)
	}
	if len(result.Errors) > 0 {
		return fmt.Errorf("%d edit(s) failed to resolve", len(result.Errors))
	}
	return nil
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&workspaceDir, "workspace", "w", ".", "Workspace root directory")
	applyCmd.Flags().BoolVar(&writeBranches, "write", false, "Write branch contents back to the files")
	rootCmd.AddCommand(applyCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
