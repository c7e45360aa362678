// Package window - настольное окно калькулятора на ebiten.
// Кнопки строятся по раскладке, клики и ввод с клавиатуры
// превращаются в события калькулятора.
package window

import (
	"context"
	"image/color"
	"strings"
	"sync"

	"github.com/DipperMason/desk-calculator/internal/agent"
	"github.com/DipperMason/desk-calculator/internal/layout"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	Width  = 320
	Height = 480

	// размер символа отладочного шрифта ebitenutil
	glyphW = 6
	glyphH = 16

	// сколько тиков подсвечивать нажатую кнопку
	flashTicks = 6
)

var (
	colorBackground = color.RGBA{0x20, 0x22, 0x26, 0xff}
	colorDisplay    = color.RGBA{0xd8, 0xe0, 0xc8, 0xff}
	colorDigit      = color.RGBA{0x4a, 0x4e, 0x56, 0xff}
	colorOperator   = color.RGBA{0xe0, 0x8a, 0x2c, 0xff}
	colorControl    = color.RGBA{0x7a, 0x7e, 0x86, 0xff}
	colorFlash      = color.RGBA{0xf0, 0xf0, 0xf0, 0xff}
)

// Window реализует ebiten.Game
type Window struct {
	mu     sync.Mutex
	ctx    context.Context
	layout *layout.Layout
	frame  layout.Frame
	// заголовок новой раскладки еще не передан окну
	titleChanged bool

	calc    *agent.Calculator
	text    string
	pressed string
	flash   int
}

func New(l *layout.Layout, opts ...agent.Option) *Window {
	w := &Window{}
	w.calc = agent.New(append(opts, agent.WithDisplay(w))...)
	w.SetLayout(l)
	return w
}

// SetLayout подменяет раскладку; безопасно вызывать из другой горутины
func (w *Window) SetLayout(l *layout.Layout) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.layout == nil || w.layout.Title != l.Title {
		w.titleChanged = true
	}
	w.layout = l
	w.frame = l.Grid(Width, Height)
}

// takeTitle возвращает заголовок, если он сменился с прошлого вызова
func (w *Window) takeTitle() (string, bool) {
	if !w.titleChanged {
		return "", false
	}
	w.titleChanged = false
	return w.layout.Title, true
}

func (w *Window) canceled() bool {
	return w.ctx != nil && w.ctx.Err() != nil
}

// SetDisplayText реализует agent.Display
func (w *Window) SetDisplayText(text string) {
	w.text = text
}

// Run открывает окно и блокируется до его закрытия или отмены ctx
func Run(ctx context.Context, w *Window) error {
	w.mu.Lock()
	w.ctx = ctx
	title, _ := w.takeTitle()
	w.mu.Unlock()

	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(Width, Height)
	ebiten.SetTPS(60)
	return ebiten.RunGame(w)
}

func (w *Window) Update() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.canceled() {
		return ebiten.Termination
	}
	if title, ok := w.takeTitle(); ok {
		ebiten.SetWindowTitle(title)
	}
	if w.flash > 0 {
		w.flash--
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		if b, ok := w.frame.HitTest(x, y); ok {
			if ev, err := b.Event(); err == nil {
				w.calc.Handle(ev)
				w.pressed, w.flash = b.ID, flashTicks
			}
		}
	}

	for _, r := range ebiten.AppendInputChars(nil) {
		if ev, err := agent.ParseKey(string(r)); err == nil {
			w.calc.Handle(ev)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) || inpututil.IsKeyJustPressed(ebiten.KeyNumpadEnter) {
		w.calc.Handle(agent.Equals())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		w.calc.Handle(agent.Clear())
	}
	return nil
}

func (w *Window) Draw(screen *ebiten.Image) {
	w.mu.Lock()
	defer w.mu.Unlock()

	screen.Fill(colorBackground)

	d := w.frame.Display
	fillRect(screen, d, colorDisplay)
	text := w.text
	if text == "" {
		text = "0"
	}
	ebitenutil.DebugPrintAt(screen, text, d.X+d.W-len(text)*glyphW-8, d.Y+(d.H-glyphH)/2)

	for _, p := range w.frame.Buttons {
		clr := buttonColor(p.Action)
		if p.ID == w.pressed && w.flash > 0 {
			clr = colorFlash
		}
		fillRect(screen, p.Rect, clr)
		label := asciiLabel(p.Label)
		ebitenutil.DebugPrintAt(screen, label, p.Rect.X+(p.Rect.W-len(label)*glyphW)/2, p.Rect.Y+(p.Rect.H-glyphH)/2)
	}
}

func (w *Window) Layout(outsideWidth, outsideHeight int) (int, int) {
	return Width, Height
}

func fillRect(dst *ebiten.Image, r layout.Rect, clr color.Color) {
	vector.DrawFilledRect(dst, float32(r.X), float32(r.Y), float32(r.W), float32(r.H), clr, false)
}

func buttonColor(a layout.Action) color.Color {
	switch a {
	case layout.ActionDigit, layout.ActionDot:
		return colorDigit
	case layout.ActionOperator, layout.ActionEquals:
		return colorOperator
	}
	return colorControl
}

// отладочный шрифт знает только ASCII
var labelReplacer = strings.NewReplacer("±", "+/-", "÷", "/", "×", "*", "−", "-")

func asciiLabel(s string) string {
	return labelReplacer.Replace(s)
}
