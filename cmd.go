package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"gridplan/grid_world"
	"gridplan/reinforcement"
	"gridplan/render"
	"gridplan/server"
	"gridplan/server/cell_views"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// options are the root command's persistent flags, shared by every subcommand.
type options struct {
	configPath string
	emoji      bool
	noColor    bool
	debug      bool
}

// GetRootCommand builds the gridplan command and its subcommands.
func GetRootCommand() *cobra.Command {
	opts := &options{}
	rootCommand := &cobra.Command{
		Use:           "gridplan",
		Short:         "Plan shortest paths on a grid world by value iteration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCommand.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path of the yaml config; the reference 4x4 world when empty")
	rootCommand.PersistentFlags().BoolVar(&opts.emoji, "emoji", false, "Render the policy with emoji")
	rootCommand.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable console colors")
	rootCommand.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Log every sweep")
	// adding the subcommands here
	rootCommand.AddCommand(SolveCommand(opts))
	rootCommand.AddCommand(ServeCommand(opts))
	rootCommand.AddCommand(ChartCommand(opts))
	return rootCommand
}

func (opts *options) logger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if opts.debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (opts *options) symbols() render.Symbols {
	if opts.emoji {
		return render.EmojiSymbols
	}
	return render.TextSymbols
}

// plan is a loaded and validated problem.
type plan struct {
	config *reinforcement.PlannerConfig
	world  *grid_world.GridWorld
	params reinforcement.Params
}

func (opts *options) load() (*plan, error) {
	config := reinforcement.DefaultConfig()
	if opts.configPath != "" {
		var err error
		if config, err = reinforcement.FromYaml(opts.configPath); err != nil {
			return nil, err
		}
	}

	world, err := config.World()
	if err != nil {
		return nil, err
	}
	params, err := config.Params()
	if err != nil {
		return nil, err
	}
	return &plan{config: config, world: world, params: params}, nil
}

// sweepLogger returns a progress func logging each sweep at debug level.
func sweepLogger(logger *slog.Logger) reinforcement.ProgressFunc {
	return func(ctx context.Context, report reinforcement.SweepReport) {
		logger.DebugContext(ctx, "sweep",
			slog.Int("sweep", report.Sweep),
			slog.Float64("delta", report.Delta))
	}
}

func SolveCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "solve",
		Short: "Solve the grid world and print its policy and values",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}

func runSolve(ctx context.Context, opts *options, out, errOut io.Writer) error {
	logger := opts.logger(errOut)
	p, err := opts.load()
	if err != nil {
		return err
	}

	solveCtx, cancel, err := p.config.WithSolveDeadline(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	solution, err := reinforcement.Solve(solveCtx, p.world, p.params, sweepLogger(logger))
	if err != nil {
		if solution != nil {
			logger.Warn("solve stopped",
				slog.Int("sweeps", solution.Sweeps),
				slog.Float64("delta", solution.LastDelta()))
		}
		return err
	}
	logger.Info("converged",
		slog.Int("sweeps", solution.Sweeps),
		slog.Float64("gamma", p.params.Gamma),
		slog.Float64("theta", p.params.Theta))

	policy := reinforcement.ExtractPolicy(p.world, solution.Values)
	fmt.Fprintln(out, render.Colorize(p.world, policy, opts.symbols(), !opts.noColor))
	fmt.Fprintln(out)
	fmt.Fprintln(out, render.Values(p.world, solution.Values))
	return nil
}

func ServeCommand(opts *options) *cobra.Command {
	var addr string
	var sweepDelay time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Solve while serving live views of every sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runServe(ctx, opts, addr, sweepDelay, cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "The host address to serve on")
	cmd.Flags().DurationVar(&sweepDelay, "sweep-delay", time.Millisecond*250, "Pause between sweeps, so they can be watched")
	return cmd
}

// runServe serves until ctx is cancelled. The solve runs once alongside the server;
// its outcome is reported through the views and /status rather than ending the server.
func runServe(
	ctx context.Context,
	opts *options,
	addr string,
	sweepDelay time.Duration,
	errOut io.Writer,
) error {
	logger := opts.logger(errOut)
	p, err := opts.load()
	if err != nil {
		return err
	}

	group, groupCtx := errgroup.WithContext(ctx)
	solveCtx, cancel, err := p.config.WithSolveDeadline(groupCtx)
	if err != nil {
		return err
	}
	defer cancel()

	tracker := server.NewTracker(p.world)
	snapshots := make(chan cell_views.Snapshot)
	srv, err := server.NewServer(groupCtx, addr, tracker, snapshots, logger)
	if err != nil {
		return err
	}

	group.Go(func() error {
		return srv.Serve(groupCtx)
	})

	group.Go(func() error {
		logSweep := sweepLogger(logger)
		solution, solveErr := reinforcement.Solve(
			solveCtx,
			p.world,
			p.params,
			func(ctx context.Context, report reinforcement.SweepReport) {
				logSweep(ctx, report)
				snap := tracker.Observe(report)
				// Views only need the latest snapshot; drop this one if they are busy.
				select {
				case snapshots <- snap:
				default:
				}
				select {
				case <-time.After(sweepDelay):
				case <-ctx.Done():
				}
			})

		final := tracker.Finish(solution, solveErr)
		switch {
		case solveErr == nil:
			logger.Info("converged", slog.Int("sweeps", final.Sweep))
		case errors.Is(solveErr, context.Canceled) && groupCtx.Err() != nil:
			return nil
		default:
			logger.Warn("solve stopped", slog.Any("err", solveErr))
		}

		select {
		case snapshots <- final:
		case <-groupCtx.Done():
		}
		return nil
	})

	return group.Wait()
}

func ChartCommand(opts *options) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Solve and write an html chart of each sweep's delta",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChart(cmd.Context(), opts, out, cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "convergence.html", "Path of the html chart")
	return cmd
}

// runChart charts the solve even when it does not converge, then reports the solve error.
func runChart(ctx context.Context, opts *options, out string, errOut io.Writer) (err error) {
	logger := opts.logger(errOut)
	p, err := opts.load()
	if err != nil {
		return err
	}

	solveCtx, cancel, err := p.config.WithSolveDeadline(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	solution, solveErr := reinforcement.Solve(solveCtx, p.world, p.params, sweepLogger(logger))
	if solution == nil {
		return solveErr
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create chart: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("close chart: %w", closeErr)
		}
	}()

	if err = render.ConvergenceChart(f, solution, p.params.Theta); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	logger.Info("wrote chart", slog.String("path", out), slog.Int("sweeps", solution.Sweeps))
	return solveErr
}
