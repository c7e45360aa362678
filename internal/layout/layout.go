// Package layout загружает внешнее описание интерфейса калькулятора:
// дисплей и сетку кнопок с привязанными действиями.
package layout

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/DipperMason/desk-calculator/internal/agent"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

//go:embed builder.yaml
var defaultLayout []byte

// Action - что делает кнопка
type Action string

const (
	ActionDigit    Action = "digit"
	ActionOperator Action = "operator"
	ActionDot      Action = "dot"
	ActionSign     Action = "sign"
	ActionClear    Action = "clear"
	ActionEquals   Action = "equals"
)

// Button - одна кнопка раскладки
type Button struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Action Action `json:"action"`
	Op     string `json:"op,omitempty"`
	Row    int    `json:"row"`
	Col    int    `json:"col"`
	Span   int    `json:"span"`
}

// UnmarshalYAML допускает числа вместо строк: "label: 7", "row: '2'"
func (b *Button) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		ID     string      `yaml:"id"`
		Label  interface{} `yaml:"label"`
		Action string      `yaml:"action"`
		Op     interface{} `yaml:"op"`
		Row    interface{} `yaml:"row"`
		Col    interface{} `yaml:"col"`
		Span   interface{} `yaml:"span"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	var err error
	b.ID = raw.ID
	b.Action = Action(raw.Action)
	if b.Label, err = cast.ToStringE(raw.Label); err != nil {
		return fmt.Errorf("кнопка %s: label: %w", raw.ID, err)
	}
	if b.Op, err = cast.ToStringE(raw.Op); err != nil {
		return fmt.Errorf("кнопка %s: op: %w", raw.ID, err)
	}
	if b.Row, err = cast.ToIntE(raw.Row); err != nil {
		return fmt.Errorf("кнопка %s: row: %w", raw.ID, err)
	}
	if b.Col, err = cast.ToIntE(raw.Col); err != nil {
		return fmt.Errorf("кнопка %s: col: %w", raw.ID, err)
	}
	if b.Span, err = cast.ToIntE(raw.Span); err != nil {
		return fmt.Errorf("кнопка %s: span: %w", raw.ID, err)
	}
	return nil
}

// Event возвращает событие калькулятора для нажатия кнопки
func (b Button) Event() (agent.Event, error) {
	switch b.Action {
	case ActionDigit:
		return agent.Label(b.Label), nil
	case ActionOperator:
		sym := b.Op
		if sym == "" {
			sym = b.Label
		}
		op, err := agent.ParseOperator(sym)
		if err != nil {
			return agent.Event{}, fmt.Errorf("кнопка %s: %w", b.ID, err)
		}
		return agent.Operation(op), nil
	case ActionDot:
		return agent.Dot(), nil
	case ActionSign:
		return agent.Sign(), nil
	case ActionClear:
		return agent.Clear(), nil
	case ActionEquals:
		return agent.Equals(), nil
	}
	return agent.Event{}, fmt.Errorf("кнопка %s: неизвестное действие %q", b.ID, b.Action)
}

// Layout - описание окна калькулятора
type Layout struct {
	Title   string   `yaml:"title" json:"title"`
	Display string   `yaml:"display" json:"display"`
	Columns int      `yaml:"columns" json:"columns"`
	Buttons []Button `yaml:"buttons" json:"buttons"`
}

// Default возвращает встроенную раскладку
func Default() *Layout {
	l, err := Parse(defaultLayout)
	if err != nil {
		panic(fmt.Sprintf("встроенная раскладка: %v", err))
	}
	return l
}

// Load читает раскладку из файла
func Load(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение раскладки: %w", err)
	}
	l, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

// Parse разбирает и проверяет раскладку
func Parse(data []byte) (*Layout, error) {
	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("разбор раскладки: %w", err)
	}
	if l.Display == "" {
		l.Display = "textDisplay"
	}
	if l.Columns == 0 {
		l.Columns = 4
	}
	for i := range l.Buttons {
		if l.Buttons[i].Span == 0 {
			l.Buttons[i].Span = 1
		}
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

// Validate проверяет раскладку: уникальные id, известные действия,
// кнопки в пределах сетки без наложений и все десять цифр
func (l *Layout) Validate() error {
	if l.Columns <= 0 {
		return fmt.Errorf("число колонок должно быть положительным: %d", l.Columns)
	}

	ids := make(map[string]bool)
	cells := make(map[[2]int]string)
	digits := make(map[string]bool)
	for _, b := range l.Buttons {
		if b.ID == "" {
			return fmt.Errorf("кнопка без id (label %q)", b.Label)
		}
		if ids[b.ID] {
			return fmt.Errorf("повторяющийся id кнопки: %s", b.ID)
		}
		ids[b.ID] = true

		if _, err := b.Event(); err != nil {
			return err
		}
		if b.Action == ActionDigit {
			if b.Label == "" {
				return fmt.Errorf("кнопка %s: пустая надпись", b.ID)
			}
			digits[b.Label] = true
		}

		if b.Row < 0 || b.Col < 0 || b.Span < 1 || b.Col+b.Span > l.Columns {
			return fmt.Errorf("кнопка %s вне сетки: row %d col %d span %d", b.ID, b.Row, b.Col, b.Span)
		}
		for c := b.Col; c < b.Col+b.Span; c++ {
			cell := [2]int{b.Row, c}
			if other, ok := cells[cell]; ok {
				return fmt.Errorf("кнопки %s и %s занимают одну ячейку", other, b.ID)
			}
			cells[cell] = b.ID
		}
	}

	for d := 0; d <= 9; d++ {
		if !digits[fmt.Sprint(d)] {
			return fmt.Errorf("нет кнопки для цифры %d", d)
		}
	}
	return nil
}

// Lookup ищет кнопку по id
func (l *Layout) Lookup(id string) (Button, bool) {
	for _, b := range l.Buttons {
		if b.ID == id {
			return b, true
		}
	}
	return Button{}, false
}

// Rows возвращает число рядов кнопок
func (l *Layout) Rows() int {
	rows := 0
	for _, b := range l.Buttons {
		if b.Row+1 > rows {
			rows = b.Row + 1
		}
	}
	return rows
}
