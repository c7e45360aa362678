// Package ui - текстовый интерфейс калькулятора
package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/DipperMason/desk-calculator/internal/agent"
	"github.com/gosuri/uilive"
	"github.com/mattn/go-isatty"
)

// Terminal читает строки клавиш и показывает дисплей калькулятора.
// На терминале строка дисплея перерисовывается на месте.
type Terminal struct {
	calc    *agent.Calculator
	in      io.Reader
	out     io.Writer
	live    *uilive.Writer
	display string
}

// NewTerminal создает интерфейс поверх in/out; opts передаются калькулятору
func NewTerminal(in io.Reader, out io.Writer, opts ...agent.Option) *Terminal {
	return newTerminal(in, out, isTerminal(out), opts...)
}

func newTerminal(in io.Reader, out io.Writer, live bool, opts ...agent.Option) *Terminal {
	t := &Terminal{in: in, out: out}
	if live {
		t.live = uilive.New()
		t.live.Out = out
	}
	t.calc = agent.New(append(opts, agent.WithDisplay(t))...)
	return t
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// SetDisplayText реализует agent.Display
func (t *Terminal) SetDisplayText(text string) {
	t.display = text
}

// Calculator возвращает калькулятор терминала
func (t *Terminal) Calculator() *agent.Calculator { return t.calc }

// Run обрабатывает строки до конца ввода, команды quit или отмены ctx
func (t *Terminal) Run(ctx context.Context) error {
	if t.live != nil {
		fmt.Fprintln(t.out, "Клавиши: 0-9 . + - * / = s (знак) c (сброс), quit - выход")
	}
	t.render("")

	if ctx.Err() != nil {
		return nil
	}
	lines, errc := readLines(ctx, t.in)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return <-errc
			}
			if ctx.Err() != nil {
				return nil
			}
			line = strings.TrimSpace(line)
			switch line {
			case "":
				continue
			case "quit", "exit", "q":
				return nil
			}
			t.render(t.Exec(line))
		}
	}
}

// readLines читает строки в отдельной горутине, чтобы Run не зависал
// в блокирующем чтении после отмены ctx
func readLines(ctx context.Context, in io.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				errc <- nil
				return
			}
		}
		errc <- scanner.Err()
	}()
	return lines, errc
}

// Exec применяет строку клавиш и возвращает сообщение об ошибке, если она была
func (t *Terminal) Exec(line string) string {
	events, err := agent.ParseKeys(line)
	if err != nil {
		return err.Error()
	}
	if err := t.calc.HandleAll(events); err != nil {
		return err.Error()
	}
	return ""
}

// Display возвращает последний показанный текст
func (t *Terminal) Display() string { return t.display }

func (t *Terminal) render(msg string) {
	text := t.display
	if text == "" {
		text = "0"
	}
	if t.live == nil {
		if msg != "" {
			fmt.Fprintf(t.out, "%s\t# %s\n", text, msg)
			return
		}
		fmt.Fprintln(t.out, text)
		return
	}

	fmt.Fprintf(t.live, "[ %20s ]\n", text)
	if msg != "" {
		fmt.Fprintf(t.live, "%s\n", msg)
	}
	t.live.Flush()
}
