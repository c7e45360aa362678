// Команда calc - калькулятор в терминале или в отдельном окне (-gui)
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/DipperMason/desk-calculator/internal/agent"
	"github.com/DipperMason/desk-calculator/internal/config"
	"github.com/DipperMason/desk-calculator/internal/layout"
	"github.com/DipperMason/desk-calculator/internal/store"
	"github.com/DipperMason/desk-calculator/internal/ui"
	"github.com/DipperMason/desk-calculator/internal/ui/window"
	"github.com/google/uuid"
)

func main() {
	var (
		configFlag = flag.String("config", "", "YAML-файл конфигурации")
		layoutFlag = flag.String("layout", "", "файл раскладки (по умолчанию встроенная)")
		watchFlag  = flag.Bool("watch", false, "перечитывать раскладку при изменении файла")
		guiFlag    = flag.Bool("gui", false, "открыть окно вместо терминала")
		dbFlag     = flag.String("db", "", "сохранять ленту в базу SQLite")
		userFlag   = flag.String("user", os.Getenv("USER"), "имя пользователя в ленте")
		scriptFlag = flag.String("script", "", "выполнить строку клавиш, напечатать дисплей и выйти")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Ошибка конфигурации: %v\n", err)
	}
	if *layoutFlag != "" {
		cfg.LayoutPath = *layoutFlag
	}
	if *watchFlag {
		cfg.WatchLayout = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := []agent.Option{}
	if *dbFlag != "" {
		st, err := store.Open(*dbFlag)
		if err != nil {
			log.Fatalf("Ошибка при открытии базы данных: %v\n", err)
		}
		defer st.Close()

		session := uuid.NewString()
		opts = append(opts, agent.WithTape(func(e agent.Entry) {
			if _, err := st.SaveEntry(ctx, session, *userFlag, e); err != nil {
				log.Printf("Ошибка при записи данных в базу данных: %v\n", err)
			}
		}))
	}

	if *guiFlag {
		if err := runWindow(ctx, cfg, opts); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	term := ui.NewTerminal(os.Stdin, os.Stdout, opts...)
	if *scriptFlag != "" {
		msg := term.Exec(*scriptFlag)
		fmt.Println(term.Display())
		if msg != "" {
			fmt.Fprintln(os.Stderr, msg)
			os.Exit(1)
		}
		return
	}
	if err := term.Run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runWindow(ctx context.Context, cfg config.Config, opts []agent.Option) error {
	l := layout.Default()
	if cfg.LayoutPath != "" {
		var err error
		if l, err = layout.Load(cfg.LayoutPath); err != nil {
			return err
		}
	}

	w := window.New(l, opts...)
	if cfg.WatchLayout {
		go func() {
			err := layout.Watch(ctx, cfg.LayoutPath, func(l *layout.Layout) {
				log.Printf("Раскладка %s перечитана\n", cfg.LayoutPath)
				w.SetLayout(l)
			}, func(err error) {
				log.Printf("Ошибка раскладки: %v\n", err)
			})
			if err != nil {
				log.Printf("Наблюдение за раскладкой остановлено: %v\n", err)
			}
		}()
	}
	return window.Run(ctx, w)
}
