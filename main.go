package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"gridwalk/internal/app"
	"gridwalk/internal/game"
	"gridwalk/internal/logging"
	"gridwalk/internal/telemetry"

	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	ensureRuntimeCWD()
	log := logging.For("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := app.Load(ctx, "config.yaml", "")
	if err != nil {
		log.WithError(err).Fatal("failed to start")
	}
	defer rt.Close()
	cfg := rt.Config

	var hub *telemetry.Hub
	if cfg.Telemetry.Enabled {
		hub = telemetry.NewHub()
		server, err := telemetry.Listen(cfg.Telemetry.Addr, hub)
		if err != nil {
			log.WithError(err).Fatal("failed to start telemetry")
		}
		go func() {
			if err := server.Serve(ctx); err != nil {
				log.WithError(err).Error("telemetry server failed")
			}
		}()
		log.WithField("addr", server.Addr()).Info("telemetry listening")
	}

	// Set window properties from config
	ebiten.SetWindowSize(cfg.GetScreenWidth(), cfg.GetScreenHeight())
	ebiten.SetWindowTitle(cfg.Display.WindowTitle)
	if cfg.Display.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}
	ebiten.SetTPS(cfg.GetTPS())

	g := game.NewGame(cfg, rt.World, rt.Monitor, hub)
	if err := ebiten.RunGame(g); err != nil && err != ebiten.Termination {
		log.WithError(err).Error("viewer stopped")
	}
}

// ensureRuntimeCWD moves to the executable's directory when started elsewhere
func ensureRuntimeCWD() {
	if _, err := os.Stat("config.yaml"); err == nil {
		return
	}
	exe, err := os.Executable()
	if err != nil {
		return
	}
	_ = os.Chdir(filepath.Dir(exe))
}
