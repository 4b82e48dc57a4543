package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/stride-agent/stride/internal/audit"
	"github.com/stride-agent/stride/internal/compact"
	"github.com/stride-agent/stride/internal/config"
	"github.com/stride-agent/stride/internal/executor"
	"github.com/stride-agent/stride/internal/planner"
	"github.com/stride-agent/stride/internal/prompts"
	"github.com/stride-agent/stride/internal/providers"
	"github.com/stride-agent/stride/internal/session"
	"github.com/stride-agent/stride/internal/workspace"
)

var version = "dev"

type appFlags struct {
	Provider      string
	Model         string
	WorkDir       string
	LogLevel      string
	MaxIterations int
	NoPlan        bool
	NoAudit       bool
	Resume        bool
}

func main() {
	_ = godotenv.Load()

	flags := &appFlags{}
	var log zerolog.Logger

	app := &cli.Command{
		Name:    "stride",
		Usage:   "Run tasks with an LLM that plans, calls tools, and reports progress",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "provider",
				Usage:       "llm provider (openai, anthropic, kimi, lmstudio)",
				Sources:     cli.EnvVars("LLM_PROVIDER"),
				Destination: &flags.Provider,
			},
			&cli.StringFlag{
				Name:        "model",
				Usage:       "model name override",
				Destination: &flags.Model,
			},
			&cli.StringFlag{
				Name:        "workdir",
				Aliases:     []string{"C"},
				Usage:       "working directory for file tools",
				Destination: &flags.WorkDir,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error)",
				Sources:     cli.EnvVars("STRIDE_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.IntFlag{
				Name:        "max-iterations",
				Usage:       "iteration budget per run",
				Destination: &flags.MaxIterations,
			},
			&cli.BoolFlag{
				Name:        "no-plan",
				Usage:       "skip the planning phase",
				Destination: &flags.NoPlan,
			},
			&cli.BoolFlag{
				Name:        "no-audit",
				Usage:       "disable the sqlite run trail",
				Destination: &flags.NoAudit,
			},
			&cli.BoolFlag{
				Name:        "resume",
				Usage:       "restore the latest session for this directory",
				Destination: &flags.Resume,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			level, err := zerolog.ParseLevel(flags.LogLevel)
			if err != nil {
				return ctx, fmt.Errorf("invalid log level %q", flags.LogLevel)
			}
			log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
				Level(level).
				With().Timestamp().Logger()
			return ctx, nil
		},
		ArgsUsage: "[task]",
		Action: func(ctx context.Context, c *cli.Command) error {
			a, err := buildApp(ctx, flags, log)
			if err != nil {
				return err
			}
			defer a.Close()

			if c.Args().Len() > 0 {
				return a.RunOnce(ctx, c.Args().First())
			}
			return a.RunREPL(ctx)
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "stride: %v\n", err)
		os.Exit(1)
	}
}

// App wires the executor to its provider, tools, and audit trail for
// one CLI invocation.
type App struct {
	exec      *executor.PlanExecutor
	auditHook *audit.Hook
	audit     *audit.Store
	log       zerolog.Logger
	history   []executor.Message
	sessions  *session.Store
	sess      *session.Session
}

func buildApp(ctx context.Context, flags *appFlags, log zerolog.Logger) (*App, error) {
	mgr, err := config.NewManager()
	if err != nil {
		return nil, err
	}
	cfg, err := mgr.Load()
	if err != nil {
		return nil, err
	}
	config.ApplyEnv(cfg)
	if flags.Provider != "" {
		cfg.LLMProvider = flags.Provider
	}
	if flags.Model != "" {
		cfg.Model = flags.Model
	}
	if flags.MaxIterations > 0 {
		cfg.MaxIterations = int(flags.MaxIterations)
	}
	if flags.NoPlan {
		cfg.DisablePlan = true
	}

	client, err := providers.New(providers.Settings{
		Provider: cfg.LLMProvider,
		APIKey:   cfg.APIKey,
		Model:    cfg.Model,
		BaseURL:  cfg.BaseURL,
	})
	if err != nil {
		return nil, err
	}

	workDir := flags.WorkDir
	if workDir == "" {
		if workDir, err = os.Getwd(); err != nil {
			return nil, err
		}
	}
	gitInfo := workspace.DetectGit(ctx, workDir)
	projectType := workspace.DetectProjectType(workDir)

	tools := hostTools(workDir)
	tools.Register(executor.NewFinalResponseTool())

	systemPrompt, err := prompts.BuildSystemPrompt(prompts.SystemContext{
		ToolSummary:      tools.Summary(),
		WorkingDirectory: workDir,
		ProjectType:      string(projectType),
		IsGitRepo:        gitInfo.IsGit,
		GitBranch:        gitInfo.Branch,
	})
	if err != nil {
		return nil, err
	}

	app := &App{log: log}
	app.history = []executor.Message{{Role: executor.RoleSystem, Content: systemPrompt}}

	app.sessions = session.NewStore(filepath.Dir(mgr.Path()))
	if flags.Resume {
		sess, err := app.sessions.Latest(workDir)
		if err != nil {
			log.Warn().Err(err).Msg("could not load latest session")
		} else if sess != nil {
			app.sess = sess
			if len(sess.History) > 0 {
				app.history = sess.History
			}
			log.Info().Str("session", sess.ID).Str("title", sess.Title).Msg("resumed session")
		}
	}
	if app.sess == nil {
		app.sess = app.sessions.New(workDir, "")
	}

	hooks := []executor.Hook{executor.LoggerHook{L: log}}
	if !flags.NoAudit {
		auditPath := cfg.AuditPath
		if auditPath == "" {
			auditPath = filepath.Join(filepath.Dir(mgr.Path()), "audit.db")
			if err := os.MkdirAll(filepath.Dir(auditPath), 0o755); err != nil {
				return nil, err
			}
		}
		store, err := audit.NewStore(ctx, auditPath)
		if err != nil {
			log.Warn().Err(err).Msg("audit trail disabled")
		} else {
			app.audit = store
			app.auditHook = audit.NewHook(store, log)
			hooks = append(hooks, app.auditHook)
		}
	}

	retry := executor.DefaultRetryPolicy()
	execCfg := executor.Config{
		MaxIterations:    cfg.MaxIterations,
		WorkingDirectory: workDir,
		IsGitRepo:        gitInfo.IsGit,
		EnablePlanning:   !cfg.DisablePlan,
		Temperature:      cfg.Temperature,
		Retry:            &retry,
	}

	exec, err := executor.NewBuilder(client, tools).
		WithPlanner(planner.New(client, log)).
		WithCompactor(compact.NewSummarizer(client, log)).
		WithHooks(hooks...).
		WithLogger(log).
		WithContextWindow(executor.ContextWindowForModel(client.Model())).
		WithConfig(execCfg).
		Build()
	if err != nil {
		return nil, err
	}
	app.exec = exec
	if len(app.sess.Todos) > 0 {
		exec.SetTodos(app.sess.Todos)
	}
	return app, nil
}

func (a *App) Close() {
	a.saveSession()
	if a.audit != nil {
		a.audit.Close()
	}
}

func (a *App) saveSession() {
	if a.sess == nil || len(a.history) <= 1 {
		return
	}
	a.sess.History = a.history
	a.sess.Todos = a.exec.Todos()
	if a.sess.Title == "" {
		for _, msg := range a.history {
			if msg.Role == executor.RoleUser {
				a.sess.Title = firstLine(msg.Content)
				break
			}
		}
	}
	if err := a.sessions.Save(a.sess); err != nil {
		a.log.Warn().Err(err).Msg("could not save session")
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 80 {
		s = s[:80]
	}
	return s
}

// RunOnce executes a single task and prints the answer.
func (a *App) RunOnce(ctx context.Context, task string) error {
	result := a.runTask(ctx, task)
	if result.Err != nil {
		return result.Err
	}
	fmt.Println(result.Response)
	if !result.Success {
		a.Close()
		os.Exit(1)
	}
	return nil
}

func (a *App) runTask(ctx context.Context, task string) executor.ExecutionResult {
	if a.auditHook != nil {
		a.auditHook.StartRun(ctx, task)
	}

	result := a.exec.Execute(ctx, task, a.history)

	if a.auditHook != nil {
		a.auditHook.FinishRun(context.WithoutCancel(ctx), result)
	}
	if result.Err == nil {
		a.history = result.Messages
		if result.Response != "" {
			a.history = append(a.history, executor.Message{
				Role:    executor.RoleAssistant,
				Content: result.Response,
			})
		}
		if a.exec.ShouldCompact() {
			if compacted, err := a.exec.PerformCompact(ctx, a.history); err == nil {
				a.history = compacted
			}
		}
	}
	a.saveSession()
	return result
}
