package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nellis-lmt/paperload/internal/config"
	"github.com/nellis-lmt/paperload/internal/dispatcher"
	"github.com/nellis-lmt/paperload/internal/gate"
	"github.com/nellis-lmt/paperload/internal/handlers"
	"github.com/nellis-lmt/paperload/internal/inventory"
	"github.com/nellis-lmt/paperload/internal/logging"
	"github.com/nellis-lmt/paperload/internal/parser"
	"github.com/nellis-lmt/paperload/internal/session"
	"github.com/nellis-lmt/paperload/internal/storage"
	"github.com/nellis-lmt/paperload/internal/workflow"
	"github.com/spf13/viper"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentVersion string = "0.0.1"
	BuildDate      string = "unknown"

	AppName string = "paperload"
)

var SessionStartTime time.Time = time.Now()

// app is everything one invocation needs: logging, the working set and the
// command dispatcher.
type app struct {
	logs    *logging.SlogManager
	logFile *os.File
	ctl     *workflow.Controller
	events  *dispatcher.Dispatcher
}

func newApp(notify workflow.Notifier) (*app, error) {
	a := &app{logs: logging.NewSlogManager()}

	// load config
	cfgErr := config.Load(cfgDir)
	if logLevel != "" {
		viper.Set("logLevel", logLevel)
	}

	a.setupLogging()
	logger := a.logs.Logger()
	if cfgErr != nil {
		logger.Warn("Failed to load config, using defaults!", "error", cfgErr)
	} else {
		logger.Info("Loaded config", "dir", cfgDir)
	}

	storageCfg := config.GetStorageConfig()
	backend, err := storage.NewBackend(storageCfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	scope, err := gate.ParseScope(config.GetString("gate.scope"))
	if err != nil {
		a.Close()
		return nil, err
	}

	if err := os.MkdirAll(storageCfg.UnprocessedDir, 0755); err != nil {
		a.Close()
		return nil, fmt.Errorf("creating working directory: %w", err)
	}

	sess, err := session.Open(backend, gate.Policy{Scope: scope},
		inventory.NewPool(config.GetInventory()), storageCfg.UnprocessedDir, SessionStartTime)
	if err != nil {
		a.Close()
		return nil, err
	}
	logger.Info("Working file opened", "path", sess.Store.Path(), "storage", storageCfg.Type, "gate", scope)

	// Stamp every record with what the operator is working on
	a.logs.Attach(func() logging.WorkingSet {
		ws := logging.WorkingSet{
			File:      filepath.Base(sess.Store.Path()),
			Mission:   sess.MissionNumber(),
			Modifying: sess.Modifying(),
		}
		if held, ok := sess.Editing(); ok {
			ws.Editing = held.PlayerNumber
		}
		return ws
	})
	logger = a.logs.Logger()

	a.ctl = workflow.New(sess, workflow.Options{
		Export:       config.GetExportConfig(),
		ProcessedDir: storageCfg.ProcessedDir,
		Notifier:     notify,
		Logger:       logger,
		Now:          time.Now,
	})

	a.events, err = dispatcher.New(logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create dispatcher: %w", err)
	}

	handlers.NewService(handlers.Dependencies{
		Workflow:   a.ctl,
		Parser:     parser.NewParser(logger),
		LogManager: a.logs,
	}).Register(a.events)

	logger.Debug("Handlers registered", "commands", len(a.events.Commands()))
	return a, nil
}

// setupLogging opens the session log file. Without one, logs go to the console.
func (a *app) setupLogging() {
	level := viper.GetString("logLevel")
	logsDir := viper.GetString("logsDir")

	if err := os.MkdirAll(logsDir, 0755); err == nil {
		path := logging.LogFilePath(logsDir, AppName, SessionStartTime)
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err == nil {
			a.logFile = f
			a.logs.Setup(f, level)
			return
		}
	}
	a.logs.Setup(nil, level)
}

// Dispatch runs one operator command.
func (a *app) Dispatch(command string, args []string) (any, error) {
	return a.events.Dispatch(dispatcher.Event{Command: command, Args: args})
}

func (a *app) Close() {
	if a.logFile != nil {
		a.logFile.Close()
	}
}

func main() {
	Execute()
}
