package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/framer/internal/app"
	"github.com/ayusman/framer/internal/capture"
	"github.com/ayusman/framer/internal/guidance"
	"github.com/ayusman/framer/internal/log"
	"github.com/ayusman/framer/internal/perception"
	"github.com/ayusman/framer/internal/server"
	"github.com/ayusman/framer/internal/store"
	"github.com/ayusman/framer/internal/tray"
)

var serveNoTray bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run live guidance from the camera",
	Long:  "Run the capture and guidance pipeline, serve the viewer and its API, and show the tray menu.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveNoTray, "no-tray", false, "Do not show the system tray menu")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	st, err := store.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if n, err := st.Sessions().EndAll(time.Now().UTC()); err != nil {
		log.Warn("closing stale sessions", "err", err)
	} else if n > 0 {
		log.Info("closed sessions left open by a previous run", "count", n)
	}

	style, params, err := cfg.GuidanceStyle()
	if err != nil {
		return err
	}

	camera := capture.DefaultConfig()
	camera.DeviceID = cfg.CameraID

	perc := perception.DefaultConfig()
	perc.MaxScanPixels = cfg.MaxScanPixels

	a, err := app.New(app.Config{
		Store:          st,
		CameraConfig:   camera,
		FrameInterval:  cfg.FrameInterval(),
		ShakeThreshold: cfg.ShakeThreshold,
		Style:          style,
		Params:         params,
		RestoreStyle:   cfg.RestoreStyle,
		Perception:     perc,
		SaliencyScript: cfg.SaliencyScript,
	})
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}
	defer a.Close()

	if err := a.Start(); err != nil {
		return fmt.Errorf("start pipeline: %w", err)
	}

	staticDir := cfg.StaticDir
	if staticDir == "" {
		staticDir = findWebDir()
	}
	if staticDir != "" {
		log.Info("serving static files", "dir", staticDir)
	}

	srv := server.New(server.Config{
		StaticDir: staticDir,
		Store:     st,
		Guidance:  a.Selector(),
		Frames:    a,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if cfg.Tray && !serveNoTray {
		runTray(ctx, a, stop)
	}

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		return nil
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
}

// runTray shows the tray menu until quit or ctx is done. It blocks.
func runTray(ctx context.Context, a *app.App, quit context.CancelFunc) {
	active, _ := a.Selector().ActiveStyle()
	t := tray.New(active)

	t.OnStyle(func(s guidance.Style) {
		_, params := a.Selector().ActiveStyle()
		if err := a.SetStyle(s, params); err != nil {
			log.Warn("tray style change", "style", s, "err", err)
		}
	})
	t.OnReset(a.Reset)
	t.OnViewer(func() {
		if err := openBrowser(viewerURL(cfg.Addr)); err != nil {
			log.Warn("opening viewer", "err", err)
		}
	})
	t.OnQuit(quit)

	updates, unsubscribe := a.Selector().Subscribe(8)
	defer unsubscribe()
	go t.Watch(updates)

	go func() {
		<-ctx.Done()
		t.Quit()
	}()

	t.Run()
}

func viewerURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(url string) error {
	name := "xdg-open"
	if runtime.GOOS == "darwin" {
		name = "open"
	}
	return exec.Command(name, url).Start()
}

// findWebDir searches for the viewer in common locations.
// It checks: "web", "../web", "../../web", and ~/.framer/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	dir := filepath.Join(home, ".framer", "web")
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir
	}
	return ""
}
