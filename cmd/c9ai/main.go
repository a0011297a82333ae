package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hebbarp/c9ai/internal/appmap"
	"github.com/hebbarp/c9ai/internal/classify"
	"github.com/hebbarp/c9ai/internal/cloud"
	"github.com/hebbarp/c9ai/internal/config"
	"github.com/hebbarp/c9ai/internal/intent"
	"github.com/hebbarp/c9ai/internal/model"
	"github.com/hebbarp/c9ai/internal/platform"
	"github.com/hebbarp/c9ai/internal/promptlog"
	"github.com/hebbarp/c9ai/internal/repl"
	"github.com/hebbarp/c9ai/internal/router"
	"github.com/hebbarp/c9ai/internal/storage"
	"github.com/hebbarp/c9ai/internal/supervisor"
	"github.com/hebbarp/c9ai/internal/toolreg"
)

func main() {
	var (
		baseDir    string
		modelName  string
		endpoint   string
		localModel string
		noBanner   bool
	)
	flag.StringVar(&baseDir, "base", "", "Base directory override (default ~/.c9ai)")
	flag.StringVar(&modelName, "model", "", "Default model override (claude|gemini|local)")
	flag.StringVar(&endpoint, "endpoint", "", "OpenAI-compatible base URL of the local model server")
	flag.StringVar(&localModel, "local-model", "", "Model name to request from the local server")
	flag.BoolVar(&noBanner, "no-banner", false, "Skip the startup logo")
	flag.Parse()

	if err := run(baseDir, modelName, endpoint, localModel, noBanner, flag.Args()); err != nil {
		if errors.Is(err, router.ErrEmergency) {
			fmt.Fprintln(os.Stderr, "emergency exit")
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "c9ai: %v\n", err)
		os.Exit(1)
	}
}

func run(baseDir, modelName, endpoint, localModel string, noBanner bool, args []string) error {
	paths, err := config.ResolvePaths(baseDir)
	if err != nil {
		return err
	}
	cfg, err := config.Load(paths.ConfigFile)
	if err != nil {
		return err
	}
	if strings.TrimSpace(modelName) != "" {
		if !config.IsKnownModel(modelName) {
			return fmt.Errorf("unknown model %q (want one of %s)",
				modelName, strings.Join(config.KnownModels, ", "))
		}
		cfg.DefaultModel = strings.ToLower(strings.TrimSpace(modelName))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ops := platform.OpsFor(platform.Detect())
	runner := platform.NewExecRunner()

	apps, err := appmap.Load(paths.AppMapFile)
	if err != nil {
		return err
	}
	executor := intent.NewExecutor(ops, runner, apps)

	session := model.NewSession(model.Config{BaseURL: endpoint, Model: localModel})
	resolver := classify.NewResolver()
	sup := supervisor.New(session, resolver, supervisor.Options{CloudHint: "@" + cfg.DefaultModel})

	tools, err := toolreg.Load(paths.ToolsFile)
	if err != nil {
		return err
	}
	watcher := toolreg.NewWatcher(tools)
	if err := watcher.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "tool registry watcher disabled: %v\n", err)
	} else {
		go func() {
			for werr := range watcher.Errors() {
				fmt.Fprintf(os.Stderr, "tool registry reload: %v\n", werr)
			}
		}()
	}
	selector := toolreg.NewSelector(tools, session)

	var store storage.Store
	sessionID := ""
	if sqlStore, serr := storage.NewSQLiteStore(paths.SessionsDB); serr != nil {
		fmt.Fprintf(os.Stderr, "session history disabled: %v\n", serr)
	} else {
		defer sqlStore.Close()
		store = sqlStore
		cwd, _ := os.Getwd()
		sessionID = storage.NewSessionID()
		if cerr := sqlStore.CreateSession(storage.SessionMeta{
			ID: sessionID, Model: cfg.DefaultModel, CWD: cwd,
		}); cerr != nil {
			fmt.Fprintf(os.Stderr, "session history disabled: %v\n", cerr)
			store = nil
			sessionID = ""
		}
	}

	rtr := router.New(router.Options{
		Config:     &cfg,
		Paths:      paths,
		Ops:        ops,
		Runner:     runner,
		Executor:   executor,
		Supervisor: sup,
		Session:    session,
		Tools:      tools,
		Selector:   selector,
		Logger:     promptlog.NewLogger(paths.LogsDir),
		Store:      store,
		SessionID:  sessionID,
		Clouds: map[string]*cloud.CLI{
			"claude": cloud.NewCLI("claude", runner),
			"gemini": cloud.NewCLI("gemini", runner),
		},
	})

	// One-shot mode: the remaining args are a single input, no loop. An
	// explicit exit is a clean outcome here, not a failure.
	if len(args) > 0 {
		err := rtr.Route(ctx, strings.Join(args, " "), os.Stdout)
		if errors.Is(err, router.ErrExit) {
			return nil
		}
		return err
	}

	if !noBanner {
		fmt.Println(router.Banner())
		fmt.Printf("model: %s | type help for commands\n\n", cfg.DefaultModel)
	}

	input, inputErr := repl.NewLineInput(paths.HistoryFile)
	if inputErr != nil {
		fmt.Fprintf(os.Stderr, "line editor unavailable, fallback to basic input: %v\n", inputErr)
	}
	defer input.Close()

	loop := repl.New(input, rtr, os.Stdout)
	loop.SetPrompt(cfg.DefaultModel + "> ")
	err = loop.Run(ctx)
	switch {
	case err == nil, errors.Is(err, router.ErrExit), errors.Is(err, context.Canceled):
		fmt.Println("bye")
		return nil
	default:
		return err
	}
}
