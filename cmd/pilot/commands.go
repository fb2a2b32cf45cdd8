package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"codepilot/internal/agent"
	"codepilot/internal/index"
	"codepilot/internal/llm"
	"codepilot/internal/router"
	"codepilot/internal/store"
	"codepilot/internal/tools"
	"codepilot/internal/tools/codebase"
	"codepilot/internal/tools/file"
	"codepilot/internal/tools/shell"
)

// openIndex builds the workspace index, attaching the SQLite snapshot
// store when configured, and restores the persisted snapshot.
func openIndex(ctx context.Context) (*index.Index, func(), error) {
	var opts []index.Option
	closer := func() {}

	if cfg.Index.SnapshotPath != "" {
		path := cfg.Index.SnapshotPath
		if !filepath.IsAbs(path) {
			path = filepath.Join(workspace, path)
		}
		st, err := store.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open snapshot store: %w", err)
		}
		opts = append(opts, index.WithStore(st))
		closer = func() { _ = st.Close() }
	}

	ix := index.New(workspace, opts...)
	if err := ix.Load(ctx); err != nil {
		closer()
		return nil, nil, err
	}
	return ix, closer, nil
}

func indexOptions(force bool) index.Options {
	return index.Options{
		Extensions:     cfg.Extensions(),
		IgnorePatterns: cfg.IgnorePatterns(),
		Force:          force,
	}
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index the workspace",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext(cmd)
		defer cancel()

		ix, closeStore, err := openIndex(ctx)
		if err != nil {
			return err
		}
		defer closeStore()

		force, _ := cmd.Flags().GetBool("force")
		result, err := ix.IndexDirectory(ctx, indexOptions(force))
		if err != nil {
			return err
		}
		fmt.Printf("Indexed %d file(s), %d unchanged, %d skipped, %d removed\n",
			result.FilesIndexed, result.FilesUnchanged, result.FilesSkipped, result.FilesRemoved)
		fmt.Printf("%d chunks in %v\n", result.ChunksCreated, result.Duration.Round(time.Millisecond))
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the codebase index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext(cmd)
		defer cancel()

		ix, closeStore, err := openIndex(ctx)
		if err != nil {
			return err
		}
		defer closeStore()

		if ix.Stats().Files == 0 {
			if _, err := ix.IndexDirectory(ctx, indexOptions(false)); err != nil {
				return err
			}
		}

		mode, _ := cmd.Flags().GetString("mode")
		limit, _ := cmd.Flags().GetInt("limit")

		reg := tools.NewRegistry()
		if err := codebase.RegisterAll(reg, ix); err != nil {
			return err
		}
		result, err := reg.Execute(ctx, "search_code", map[string]any{
			"query": args[0],
			"mode":  mode,
			"limit": limit,
		})
		if err != nil {
			return err
		}
		fmt.Println(result.Output)
		return nil
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary [path]",
	Short: "Summarize the codebase or a single file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext(cmd)
		defer cancel()

		ix, closeStore, err := openIndex(ctx)
		if err != nil {
			return err
		}
		defer closeStore()

		if ix.Stats().Files == 0 {
			if _, err := ix.IndexDirectory(ctx, indexOptions(false)); err != nil {
				return err
			}
		}

		reg := tools.NewRegistry()
		if err := codebase.RegisterAll(reg, ix); err != nil {
			return err
		}

		var result *tools.Result
		if len(args) == 1 {
			path := args[0]
			if !filepath.IsAbs(path) {
				path = filepath.Join(workspace, path)
			}
			result, err = reg.Execute(ctx, "file_summary", map[string]any{"path": path})
		} else {
			result, err = reg.Execute(ctx, "codebase_summary", map[string]any{})
		}
		if err != nil {
			return err
		}
		fmt.Println(result.Output)
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop the index snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext(cmd)
		defer cancel()

		ix, closeStore, err := openIndex(ctx)
		if err != nil {
			return err
		}
		defer closeStore()

		if err := ix.Clear(ctx); err != nil {
			return err
		}
		fmt.Println("Index cleared.")
		return nil
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat [task]",
	Short: "Chat with the assistant",
	Long: `Chat runs the tool orchestration loop. With a task argument it
answers once and exits; without one it starts an interactive session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext(cmd)
		defer cancel()

		if err := cfg.Validate(); err != nil {
			return err
		}

		ix, closeStore, err := openIndex(ctx)
		if err != nil {
			return err
		}
		defer closeStore()

		if ix.Stats().Files == 0 {
			fmt.Println("Indexing workspace...")
			if _, err := ix.IndexDirectory(ctx, indexOptions(false)); err != nil {
				return err
			}
		}

		if cfg.Index.Watch {
			watcher, err := index.NewWatcher(ix, cfg.Extensions(), cfg.IgnorePatterns())
			if err != nil {
				return err
			}
			if err := watcher.Start(ctx); err != nil {
				return err
			}
			defer func() { _ = watcher.Stop() }()
		}

		loop := buildLoop(ix)

		contextFiles, _ := cmd.Flags().GetStringSlice("context")
		if len(args) == 1 {
			return runTurn(ctx, loop, args[0], contextFiles)
		}
		return runInteractive(ctx, loop, contextFiles)
	},
}

func buildLoop(ix *index.Index) *agent.Loop {
	reg := tools.NewRegistry()
	// Registration only fails on duplicates; the three sets are disjoint.
	_ = codebase.RegisterAll(reg, ix)
	_ = file.RegisterAll(reg)
	_ = shell.RegisterAll(reg)

	provider := llm.NewClient(llm.Config{
		BaseURL: cfg.Provider.BaseURL,
		APIKey:  cfg.Provider.APIKey,
		Timeout: cfg.ProviderTimeout(),
	})

	loopCfg := agent.Config{
		MaxRounds:      cfg.Loop.MaxRounds,
		MaxWorkers:     cfg.Loop.MaxWorkers,
		ToolTimeout:    cfg.ToolTimeout(),
		MaxHistory:     cfg.Loop.MaxHistory,
		ResultBudget:   cfg.Loop.ResultBudget,
		SystemPrompt:   systemPrompt(),
		Temperature:    cfg.Loop.Temperature,
		AdaptiveTuning: cfg.Loop.AdaptiveTuning,
	}
	return agent.NewLoop(provider, reg, router.New(cfg.Models), loopCfg)
}

func systemPrompt() string {
	if cfg.Loop.SystemPrompt != "" {
		return cfg.Loop.SystemPrompt
	}
	return "You are codepilot, a codebase-aware coding assistant. " +
		"Use the available tools to inspect and modify the workspace at " + workspace + ". " +
		"Prefer search_code and file_summary over guessing, and keep edits minimal."
}

func runTurn(ctx context.Context, loop *agent.Loop, task string, contextFiles []string) error {
	result, err := loop.Chat(ctx, task, contextFiles)
	if result != nil {
		printResult(result)
	}
	return err
}

func runInteractive(ctx context.Context, loop *agent.Loop, contextFiles []string) error {
	fmt.Println("codepilot interactive session. Type 'exit' to quit.")
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "exit" || line == "quit":
			return nil
		}

		if err := runTurn(ctx, loop, line, contextFiles); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func printResult(result *agent.ChatResult) {
	for _, inv := range result.Invocations {
		status := "ok"
		if inv.Error != "" {
			status = "failed: " + inv.Error
		}
		fmt.Printf("  [round %d] %s (%dms) %s\n", inv.Round, inv.Tool, inv.Duration, status)
	}
	if result.Content != "" {
		fmt.Println(result.Content)
	}
	fmt.Printf("(model=%s tier=%s rounds=%d stop=%s)\n", result.Model, result.Tier, result.Rounds, result.StopReason)
}

func init() {
	indexCmd.Flags().Bool("force", false, "re-index every file and drop entries for missing files")
	searchCmd.Flags().String("mode", "name", "search mode: name, content, import, call")
	searchCmd.Flags().Int("limit", 20, "maximum results")
	chatCmd.Flags().StringSlice("context", nil, "files to treat as task context for routing")
}
