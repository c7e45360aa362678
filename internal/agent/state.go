package agent

import (
	"fmt"
	"strings"
)

// Operator - арифметическая операция, ожидающая второго операнда
type Operator int

const (
	None Operator = iota
	Add
	Sub
	Mul
	Div
)

func (op Operator) String() string {
	switch op {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	case Div:
		return "/"
	}
	return ""
}

// ParseOperator разбирает обозначение операции: символ или имя кнопки
func ParseOperator(s string) (Operator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "+", "add", "sum", "plus":
		return Add, nil
	case "-", "sub", "min", "minus":
		return Sub, nil
	case "*", "x", "×", "mul", "times":
		return Mul, nil
	case "/", "÷", "div":
		return Div, nil
	}
	return None, fmt.Errorf("неизвестная операция: %q", s)
}

func (op Operator) MarshalText() ([]byte, error) {
	return []byte(op.String()), nil
}

func (op *Operator) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*op = None
		return nil
	}
	v, err := ParseOperator(string(b))
	if err != nil {
		return err
	}
	*op = v
	return nil
}

// DisplayMode - что делать с дисплеем при следующем нажатии цифры
type DisplayMode int

const (
	KeepAppending DisplayMode = iota
	ClearOnNextDigit
)

func (m DisplayMode) MarshalText() ([]byte, error) {
	if m == ClearOnNextDigit {
		return []byte("clear_on_next_digit"), nil
	}
	return []byte("keep_appending"), nil
}

// State - регистры калькулятора. Нулевое значение готово к работе.
type State struct {
	Accumulator float64     `json:"accumulator"`
	Operand     float64     `json:"operand"`
	Operator    Operator    `json:"operator"`
	Mode        DisplayMode `json:"mode"`
}

// Step описывает результат одного нажатия операции
type Step struct {
	Left     float64
	Right    float64
	Op       Operator
	Result   float64
	Combined bool
	Err      error
}

// PressLabel дописывает надпись кнопки к дисплею
func (s *State) PressLabel(text, label string) string {
	if s.Mode == ClearOnNextDigit {
		text = ""
		s.Mode = KeepAppending
	}
	return text + label
}

func (s *State) PressDot(text string) string {
	if HasDecimalPoint(text) {
		return text
	}
	if IsEmpty(text) {
		return "0."
	}
	return text + "."
}

// PressSign меняет знак. Если "-" есть где угодно в строке, снимается первый символ.
func (s *State) PressSign(text string) string {
	if IsEmpty(text) {
		return text
	}
	if HasNegativeSign(text) {
		return StripLeadingChar(text)
	}
	return "-" + text
}

func (s *State) PressClear() string {
	*s = State{}
	return ""
}

// PressOperator запоминает операцию и, если первый операнд уже есть, выполняет ее.
// Ошибки не фатальны: дисплей показывает ErrorDisplay, аккумулятор не меняется.
func (s *State) PressOperator(text string, op Operator) (string, error) {
	out, step := s.apply(text, op)
	return out, step.Err
}

// PressEquals повторяет последнюю операцию с текущим содержимым дисплея
func (s *State) PressEquals(text string) (string, error) {
	return s.PressOperator(text, s.Operator)
}

func (s *State) apply(text string, op Operator) (string, Step) {
	s.Operator = op
	step := Step{Op: op, Left: s.Accumulator}

	value, err := ParseNumber(text)
	if err != nil {
		step.Err = err
		s.Mode = ClearOnNextDigit
		return ErrorDisplay, step
	}

	// ноль в аккумуляторе означает "первый операнд еще не задан"
	if s.Accumulator == 0 {
		s.Accumulator = value
		s.Mode = KeepAppending
		step.Result = value
		return "", step
	}

	s.Operand = value
	step.Right = value
	result := s.Accumulator
	switch op {
	case Add:
		result += value
	case Sub:
		result -= value
	case Mul:
		result *= value
	case Div:
		if value == 0 {
			step.Err = fmt.Errorf("%w: %s / 0", ErrDivisionByZero, FormatResult(s.Accumulator))
			s.Mode = ClearOnNextDigit
			return ErrorDisplay, step
		}
		result /= value
	}
	if !isFinite(result) {
		step.Err = fmt.Errorf("%w: %s %s %s", ErrOverflow, FormatResult(s.Accumulator), op, FormatResult(value))
		s.Mode = ClearOnNextDigit
		return ErrorDisplay, step
	}

	s.Accumulator = result
	s.Mode = ClearOnNextDigit
	step.Result = result
	step.Combined = op != None
	return FormatResult(result), step
}

// FormatResult форматирует число с двумя знаками после точки
func FormatResult(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
