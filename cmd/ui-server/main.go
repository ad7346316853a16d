package main

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/nrednav/cuid2"

	"hearthcoin/internal/boot"
)

// Template renders the wallet shell and, in development, reloads the
// view files when they change on disk.
type Template struct {
	templates *template.Template
	watcher   *fsnotify.Watcher
}

func (t *Template) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return t.templates.ExecuteTemplate(w, name, data)
}

func (t *Template) Watch() {
	var err error

	t.watcher, err = fsnotify.NewWatcher()
	if err != nil {
		log.Fatalf("watcher: %+v", err)
	}

	go func() {
		for {
			select {
			case event, ok := <-t.watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Write) {
					log.Infof("modified file: %s", event.Name)
					t.templates = template.Must(template.ParseGlob("ui/views/*.html"))
				}
			case err, ok := <-t.watcher.Errors:
				if !ok {
					return
				}
				log.Errorf("watcher: %+v", err)
			}
		}
	}()

	err = t.watcher.Add("./ui/views")
	if err != nil {
		log.Fatalf("watcher: %+v", err)
	}
}

func (t *Template) Close() {
	if t.watcher != nil {
		t.watcher.Close()
	}
}

func NewTemplate() *Template {
	return &Template{
		templates: template.Must(template.ParseGlob("ui/views/*.html")),
	}
}

func main() {
	godotenv.Load()

	config, err := boot.Load()
	if err != nil {
		log.Fatalf("boot: %+v", err)
	}

	server := echo.New()
	server.HideBanner = true
	server.Use(middleware.BodyLimit("100M"))
	server.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string {
			return cuid2.Generate()
		},
	}))
	server.Use(echoprometheus.NewMiddleware("hearthcoin_ui"))
	server.Use(middleware.Recover())

	server.Logger.SetLevel(log.INFO)

	server.Static("/static", "ui/static")

	t := NewTemplate()
	defer t.Close()
	if config.IsDevelopment() {
		t.Watch()
	}
	server.Renderer = t

	server.GET("/", func(c echo.Context) error {
		return c.Render(http.StatusOK, "app.html", echo.Map{
			"APIPort": config.Server.Port,
		})
	})

	go func() {
		metrics := echo.New()
		metrics.HideBanner = true
		metrics.GET("/metrics", echoprometheus.NewHandler())
		if err := metrics.Start(fmt.Sprintf(":%d", config.Server.UIMetricsPort)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	go func() {
		if err := server.Start(fmt.Sprintf(":%d", config.Server.UIPort)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			server.Logger.Fatal("shutting down the server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		server.Logger.Fatal(err)
	}
}
