// Команда server - HTTP-сервер калькулятора
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/DipperMason/desk-calculator/internal/config"
	"github.com/DipperMason/desk-calculator/internal/layout"
	"github.com/DipperMason/desk-calculator/internal/store"
	"github.com/DipperMason/desk-calculator/server"
)

func main() {
	configFlag := flag.String("config", "", "YAML-файл конфигурации")
	addrFlag := flag.String("addr", "", "адрес сервера, например :8080")
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Ошибка конфигурации: %v\n", err)
	}
	if *addrFlag != "" {
		cfg.Addr = *addrFlag
	}

	var st *store.Store
	if cfg.DBPath != "" {
		st, err = store.Open(cfg.DBPath)
		if err != nil {
			log.Fatalf("Ошибка при открытии базы данных: %v\n", err)
		}
		defer st.Close()
	}

	l := layout.Default()
	if cfg.LayoutPath != "" {
		if l, err = layout.Load(cfg.LayoutPath); err != nil {
			log.Fatalf("Ошибка раскладки: %v\n", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	svc := server.New(st, cfg, l)
	if cfg.WatchLayout {
		go func() {
			err := layout.Watch(ctx, cfg.LayoutPath, func(l *layout.Layout) {
				log.Printf("Раскладка %s перечитана\n", cfg.LayoutPath)
				svc.SetLayout(l)
			}, func(err error) {
				log.Printf("Ошибка раскладки: %v\n", err)
			})
			if err != nil {
				log.Printf("Наблюдение за раскладкой остановлено: %v\n", err)
			}
		}()
	}

	srv := &http.Server{Addr: cfg.Addr, Handler: svc.Router()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("Сервер калькулятора слушает %s\n", cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Ошибка сервера: %v\n", err)
	}
}
