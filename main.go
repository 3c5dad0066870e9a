package main

import (
	"embed"
	"log/slog"
	"os"

	"github.com/wailsapp/wails/v3/pkg/application"
	"github.com/wailsapp/wails/v3/pkg/events"
	"go.aimuz.me/voxlore/config"
	"go.aimuz.me/voxlore/internal/app"
	"go.aimuz.me/voxlore/internal/logging"
)

//go:embed all:frontend/dist
var assets embed.FS

//go:embed build/trayicon.png
var trayIconBytes []byte

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cfg, cfgErr := config.Load()
	if cfgErr != nil {
		cfg = config.Default()
	}

	logDir, err := logging.DefaultDir()
	if err != nil {
		logDir = ""
	}
	logger := logging.Setup(logging.Options{
		Debug:   cfg.DebugLogging,
		Console: os.Stderr,
		Dir:     logDir,
	})
	defer logger.Close()

	slog.Info("starting app", "version", version, "commit", commit, "date", date, "log", logger.Path())
	if cfgErr != nil {
		slog.Error("load config, using defaults", "error", cfgErr)
	}

	svc := app.New(version)

	wailsApp := application.New(application.Options{
		Name:        "Voxlore",
		Description: "Voice dictation",
		Services: []application.Service{
			application.NewService(svc),
		},
		Assets: application.AssetOptions{
			Handler: application.BundledAssetFileServer(assets),
		},
		Mac: application.MacOptions{
			// Tray app: keep running with every window closed.
			ApplicationShouldTerminateAfterLastWindowClosed: false,
		},
	})

	mainWindow := wailsApp.Window.NewWithOptions(application.WebviewWindowOptions{
		Name:   "main",
		Title:  "Voxlore",
		Width:  480,
		Height: 360,
		URL:    "/",
		Hidden: true,
		Mac: application.MacWindow{
			TitleBar:                application.MacTitleBarHiddenInsetUnified,
			InvisibleTitleBarHeight: 38,
		},
	})
	mainWindow.RegisterHook(events.Common.WindowClosing, func(e *application.WindowEvent) {
		e.Cancel()
		mainWindow.Hide()
	})

	previewWindow := wailsApp.Window.NewWithOptions(application.WebviewWindowOptions{
		Name:        "preview",
		Title:       "Voxlore Preview",
		Width:       520,
		Height:      240,
		URL:         "/#/preview",
		Hidden:      true,
		AlwaysOnTop: true,
	})
	previewWindow.RegisterHook(events.Common.WindowClosing, func(e *application.WindowEvent) {
		e.Cancel()
		svc.CancelPreview()
	})

	svc.Init(app.Options{
		Config:          cfg,
		SetDebugLogging: logger.SetDebug,
	})
	svc.SetEmitter(func(name string, data any) {
		wailsApp.Event.Emit(name, data)
	})
	svc.SetPreviewWindow(func(show bool) {
		if show {
			previewWindow.Show()
			previewWindow.Focus()
			return
		}
		previewWindow.Hide()
	})

	if err := svc.StartHotkey(); err != nil {
		slog.Error("start hotkey", "hotkey", cfg.Hotkey, "error", err)
	}

	systemTray := wailsApp.SystemTray.New()
	systemTray.SetIcon(trayIconBytes)

	trayMenu := wailsApp.NewMenu()
	trayMenu.Add("Show Voxlore").OnClick(func(ctx *application.Context) {
		mainWindow.Show()
		mainWindow.Focus()
	})
	trayMenu.Add("Start / Stop Dictation").OnClick(func(ctx *application.Context) {
		go toggleDictation(svc)
	})
	trayMenu.AddSeparator()
	trayMenu.Add("Quit").
		SetAccelerator("CmdOrCtrl+Q").
		OnClick(func(ctx *application.Context) {
			svc.Shutdown()
			wailsApp.Quit()
		})
	systemTray.SetMenu(trayMenu)

	if err := wailsApp.Run(); err != nil {
		slog.Error("run app", "error", err)
	}
}

func toggleDictation(svc *app.Service) {
	if svc.HotkeyState() == "idle" {
		if err := svc.StartRecording(); err != nil {
			slog.Error("start dictation from tray", "error", err)
		}
		return
	}
	if _, err := svc.StopRecording(); err != nil {
		slog.Error("stop dictation from tray", "error", err)
	}
}
