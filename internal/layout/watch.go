package layout

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DebounceDelay - пауза после последнего изменения файла перед перечитыванием
var DebounceDelay = 200 * time.Millisecond

// Watch следит за файлом раскладки и вызывает onChange с новой раскладкой.
// Ошибки разбора передаются в onError, прежняя раскладка остается в силе.
// Блокируется до отмены ctx.
func Watch(ctx context.Context, path string, onChange func(*Layout), onError func(error)) error {
	path, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("путь раскладки: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("создание наблюдателя: %w", err)
	}
	defer w.Close()

	// редакторы часто заменяют файл целиком, поэтому следим за каталогом
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("наблюдение за %s: %w", filepath.Dir(path), err)
	}

	reload := func() {
		l, err := Load(path)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(l)
	}

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(DebounceDelay, reload)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			if onError != nil {
				onError(err)
			}
		}
	}
}
