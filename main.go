package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/soppliger/auteur/internal/config"
	"github.com/soppliger/auteur/internal/cost"
	"github.com/soppliger/auteur/internal/defaults"
	"github.com/soppliger/auteur/internal/generate"
	"github.com/soppliger/auteur/internal/pipeline"
	"github.com/soppliger/auteur/internal/render"
	"github.com/soppliger/auteur/internal/retry"
	"github.com/soppliger/auteur/internal/server"
	"github.com/soppliger/auteur/internal/service"
	"github.com/soppliger/auteur/internal/telemetry"
	"github.com/soppliger/auteur/internal/tools"
	"github.com/soppliger/auteur/internal/volc"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "auteur",
		Short:         "Generate production blueprints for AI documentary series",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newGenerateCmd(), newCostCmd())
	return root
}

// setup 加载配置并初始化日志与链路追踪
func setup(ctx context.Context, requireCredential bool) (config.Config, func(), error) {
	load := config.Parse
	if requireCredential {
		load = config.Load
	}
	cfg, err := load()
	if err != nil {
		return config.Config{}, nil, err
	}
	logCloser, err := config.InitLogging(cfg)
	if err != nil {
		return config.Config{}, nil, err
	}
	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTelEndpoint)
	if err != nil {
		logCloser.Close()
		return config.Config{}, nil, fmt.Errorf("setup tracing: %w", err)
	}
	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logrus.WithError(err).Warn("tracing shutdown failed")
		}
		logCloser.Close()
	}
	return cfg, cleanup, nil
}

// newPipeline 组装 chat model → 生成客户端 → 流水线
func newPipeline(ctx context.Context, cfg config.Config) (*pipeline.Pipeline, error) {
	chat, err := volc.NewBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	client, err := generate.NewClient(ctx, chat)
	if err != nil {
		return nil, err
	}
	table, err := defaults.Load(cfg.DefaultsFile)
	if err != nil {
		return nil, err
	}
	return pipeline.New(client, pipeline.Options{
		Retrier: retry.New(retry.Policy{
			MaxRetries: cfg.MaxRetries,
			BaseDelay:  cfg.RetryBaseDelay,
			MaxDelay:   cfg.RetryMaxDelay,
			Timeout:    cfg.RequestTimeout,
		}),
		Defaults:           table,
		Fallbacks:          cfg.Fallbacks,
		OrchestratorPolicy: cfg.OrchestratorPolicy,
		CostPolicy:         cfg.CostPolicy,
	})
}

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, cleanup, err := setup(ctx, true)
			if err != nil {
				return err
			}
			defer cleanup()
			if addr != "" {
				cfg.Addr = addr
			}

			p, err := newPipeline(ctx, cfg)
			if err != nil {
				return err
			}
			reg, err := tools.NewRegistry(ctx, tools.NewBibleTool(p), tools.NewCostTool())
			if err != nil {
				return err
			}
			router := server.NewRouter(service.NewBlueprintService(p), reg)

			srv := &http.Server{
				Addr:    cfg.Addr,
				Handler: router,
			}

			// 在goroutine中启动服务器
			errCh := make(chan error, 1)
			go func() {
				logrus.WithField("addr", cfg.Addr).Info("server listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			// 等待中断信号
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errCh:
				return fmt.Errorf("server failed: %w", err)
			case <-quit:
			}
			logrus.Info("shutting down server")

			// 优雅关闭服务器
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server shutdown: %w", err)
			}
			logrus.Info("server stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default $AUTEUR_ADDR or :8080)")
	return cmd
}

func newGenerateCmd() *cobra.Command {
	var (
		req    pipeline.Request
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run the pipeline once and print the blueprint",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, cleanup, err := setup(ctx, true)
			if err != nil {
				return err
			}
			defer cleanup()
			if !cmd.Flags().Changed("runtime") {
				req.RuntimeMinutes = cfg.RuntimeMinutes
			}
			if !cmd.Flags().Changed("scenes") {
				req.SceneCount = cfg.SceneCount
			}

			p, err := newPipeline(ctx, cfg)
			if err != nil {
				return err
			}
			errOut := cmd.ErrOrStderr()
			bp, err := p.Run(ctx, req, pipeline.ReporterFunc(func(e pipeline.Event) {
				fmt.Fprintln(errOut, render.Progress(e))
			}))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(bp)
			}
			fmt.Fprintln(out, render.Blueprint(bp))
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Topic, "topic", "", "documentary topic")
	cmd.Flags().StringVar(&req.Style, "style", "", "visual style")
	cmd.Flags().IntVar(&req.RuntimeMinutes, "runtime", cost.DefaultRuntimeMinutes, "runtime in minutes")
	cmd.Flags().IntVar(&req.SceneCount, "scenes", cost.DefaultSceneCount, "estimated scene count")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the blueprint JSON document")
	_ = cmd.MarkFlagRequired("topic")
	_ = cmd.MarkFlagRequired("style")
	return cmd
}

func newCostCmd() *cobra.Command {
	var params cost.Params
	cmd := &cobra.Command{
		Use:   "cost",
		Short: "Print the cost table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Parse()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("runtime") {
				params.RuntimeMinutes = cfg.RuntimeMinutes
			}
			if !cmd.Flags().Changed("scenes") {
				params.SceneCount = cfg.SceneCount
			}
			if params.RuntimeMinutes <= 0 || params.SceneCount <= 0 {
				return fmt.Errorf("runtime and scenes must be positive")
			}
			fmt.Fprintln(cmd.OutOrStdout(), render.CostTable(cost.Estimate(params)))
			return nil
		},
	}
	cmd.Flags().IntVar(&params.RuntimeMinutes, "runtime", cost.DefaultRuntimeMinutes, "runtime in minutes")
	cmd.Flags().IntVar(&params.SceneCount, "scenes", cost.DefaultSceneCount, "estimated scene count")
	return cmd
}
