package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ItsNotGoodName/x-immersive/internal/api"
	"github.com/ItsNotGoodName/x-immersive/internal/app"
	"github.com/ItsNotGoodName/x-immersive/internal/asset"
	"github.com/ItsNotGoodName/x-immersive/internal/build"
	"github.com/ItsNotGoodName/x-immersive/internal/compositor"
	"github.com/ItsNotGoodName/x-immersive/internal/config"
	"github.com/ItsNotGoodName/x-immersive/internal/core"
	"github.com/ItsNotGoodName/x-immersive/internal/host"
	"github.com/ItsNotGoodName/x-immersive/internal/raster"
	"github.com/ItsNotGoodName/x-immersive/internal/relay"
	"github.com/ItsNotGoodName/x-immersive/pkg/sutureext"
	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/phsym/console-slog"
)

type Options struct {
	Debug  bool   `doc:"enable debug"`
	Host   string `doc:"host to listen on"`
	Port   int    `doc:"port to listen on" default:"8080"`
	Config string `doc:"config file" default:".x-immersive.yaml"`
}

func main() {
	godotenv.Load()

	cli := humacli.New(func(hooks humacli.Hooks, options *Options) {
		if options.Debug {
			InitLogger(slog.LevelDebug)
		} else {
			InitLogger(slog.LevelInfo)
		}

		OnServe(hooks, func(ctx context.Context) error {
			configFilePath, err := filepath.Abs(options.Config)
			if err != nil {
				return err
			}

			store, err := config.Open(configFilePath)
			if err != nil {
				return err
			}

			cfg, err := config.Normalize(store)
			if err != nil {
				return err
			}

			style, err := cfg.Style()
			if err != nil {
				return err
			}

			wait, err := cfg.Debounce()
			if err != nil {
				return err
			}

			var logo raster.LogoLoader = asset.None{}
			if cfg.Logo != "" {
				logoPath := cfg.Logo
				if !filepath.IsAbs(logoPath) {
					logoPath = filepath.Join(filepath.Dir(configFilePath), logoPath)
				}
				logo = asset.NewFile(logoPath)
			}

			hub := relay.NewHub()
			defer hub.Close()

			canvas := host.NewCanvas(cfg.Viewport)
			ctrl := app.New(canvas, compositor.New(canvas, raster.NewRenderer(logo)), hub, app.Options{
				ClientID: uuid.NewString(),
				Role:     cfg.Role,
				Local:    cfg.LocalUser,
				Viewport: cfg.Viewport,
				Style:    style,
				Topics:   cfg.Topics,
				Debounce: wait,
			})

			server := api.NewServer(core.Address(options.Host, options.Port), api.NewRouter(api.Handler{
				Controller: ctrl,
				Relay:      hub,
				Preview:    canvas,
			}))

			defer ctrl.Close()

			super := sutureext.NewSimple("root")
			sutureext.Add(super, ctrl)
			sutureext.Add(super, server)
			// Bind the local user to the first quadrant once the controller runs.
			sutureext.Add(super, sutureext.NewServiceFunc("app.Seed", func(ctx context.Context) error {
				if err := ctrl.Send(ctx, app.Seed{}); err != nil {
					return err
				}
				<-ctx.Done()
				return ctx.Err()
			}))

			slog.Info("Starting", "version", build.Current.String(), "config", configFilePath, "role", cfg.Role, "logo", cfg.Logo)

			return super.Serve(ctx)
		})
	})

	cli.Root().Version = build.Current.Version

	cli.Run()
}

func InitLogger(level slog.Level) {
	slog.SetDefault(slog.New(console.NewHandler(os.Stderr, &console.HandlerOptions{
		Level: level,
	})))
}

func OnServe(hooks humacli.Hooks, serveFn func(ctx context.Context) error) {
	stopC := make(chan struct{})
	hooks.OnStart(func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		errC := make(chan error, 1)

		go func() { errC <- serveFn(ctx) }()

		select {
		case <-stopC:
			cancel()
		case err := <-errC:
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Fatal(err)
			}
			return
		}

		<-errC
		<-stopC
	})
	hooks.OnStop(func() {
		stopC <- struct{}{}
		stopC <- struct{}{}
	})
}
