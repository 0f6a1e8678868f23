// Package main provides the entry point for the desktop editor.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"facial-editor/internal/cli"
	"facial-editor/internal/config"
	"facial-editor/internal/logging"
	"facial-editor/internal/reload"
	"facial-editor/internal/session"
	"facial-editor/internal/version"
	"facial-editor/ui/mainwindow"
	"facial-editor/ui/prefs"
	edtheme "facial-editor/ui/theme"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/dialog"
)

const appID = "io.github.facial-editor"

func main() {
	cfg, err := config.Load(config.LoadOptions{EnvFiles: []string{".env"}})
	if err != nil {
		logging.NewLogger(os.Stderr, logging.ParseLevel("info")).Error("config", "err", err)
		os.Exit(1)
	}
	logger := logging.NewLogger(os.Stderr, logging.ParseLevel(cfg.LogLevel))
	log := slog.NewLogLogger(logger.Handler(), slog.LevelInfo)
	log.Printf("Starting facial-editor %s", version.String())

	opts, err := cli.ControllerOptions(cfg, logger)
	if err != nil {
		logger.Error("cannot start editor", "err", err)
		os.Exit(1)
	}
	ctrl := session.NewController(opts)

	fyneApp := app.NewWithID(appID)
	fyneApp.Settings().SetTheme(&edtheme.EditorTheme{})

	win := mainwindow.New(fyneApp, ctrl, prefs.Load(), cfg.Params, logger)

	if len(os.Args) > 1 {
		path := os.Args[1]
		if err := win.Open(path); err != nil {
			log.Printf("Failed to open %s: %v", path, err)
		}
	} else {
		win.RestoreLast()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupHotReload(ctx, win, logger)

	win.ShowAndRun()
}

// setupHotReload offers a restart when the binary is rebuilt and flushes
// preferences periodically.
func setupHotReload(ctx context.Context, win *mainwindow.MainWindow, logger *slog.Logger) {
	exe, err := reload.Executable()
	if err != nil {
		logger.Warn("hot reload disabled", "err", err)
		return
	}
	watcher := reload.New(logger, exe)
	watcher.OnChange(func(string) {
		fyne.Do(func() {
			dialog.ShowConfirm("New Version Available",
				"The application binary has been updated.\nRestart now?",
				func(restart bool) {
					if !restart {
						return
					}
					win.SavePreferences()
					if err := reload.Restart(exe); err != nil {
						logger.Error("restart failed", "err", err)
					}
				}, win.Window)
		})
	})
	go func() {
		if err := watcher.Run(ctx, 2*time.Second); err != nil {
			logger.Warn("hot reload stopped", "err", err)
		}
	}()

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fyne.Do(win.SavePreferencesIfChanged)
			}
		}
	}()
}
