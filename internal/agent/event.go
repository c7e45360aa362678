package agent

import (
	"fmt"
	"strings"

	"github.com/google/shlex"
)

// EventKind - вид события от интерфейса
type EventKind int

const (
	LabelPressed EventKind = iota
	OperatorPressed
	DotPressed
	SignPressed
	ClearPressed
	EqualsPressed
)

func (k EventKind) String() string {
	switch k {
	case LabelPressed:
		return "label"
	case OperatorPressed:
		return "operator"
	case DotPressed:
		return "dot"
	case SignPressed:
		return "sign"
	case ClearPressed:
		return "clear"
	case EqualsPressed:
		return "equals"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event - нажатие кнопки калькулятора
type Event struct {
	Kind  EventKind
	Label string
	Op    Operator
}

func Label(text string) Event     { return Event{Kind: LabelPressed, Label: text} }
func Operation(op Operator) Event { return Event{Kind: OperatorPressed, Op: op} }
func Dot() Event                  { return Event{Kind: DotPressed} }
func Sign() Event                 { return Event{Kind: SignPressed} }
func Clear() Event                { return Event{Kind: ClearPressed} }
func Equals() Event               { return Event{Kind: EqualsPressed} }

// ParseKey переводит одну клавишу в событие
func ParseKey(key string) (Event, error) {
	k := strings.ToLower(strings.TrimSpace(key))
	switch k {
	case "":
		return Event{}, fmt.Errorf("пустая клавиша")
	case ".", ",", "dot":
		return Dot(), nil
	case "±", "+/-", "neg", "sign", "s":
		return Sign(), nil
	case "c", "ac", "clear", "esc":
		return Clear(), nil
	case "=", "enter", "eq":
		return Equals(), nil
	}
	if len(k) == 1 && k[0] >= '0' && k[0] <= '9' {
		return Label(k), nil
	}
	if op, err := ParseOperator(k); err == nil {
		return Operation(op), nil
	}
	return Event{}, fmt.Errorf("неизвестная клавиша: %q", key)
}

// ParseKeys разбирает строку клавиш, например "12 + 3.5 =".
// Числа раскладываются на отдельные нажатия цифр и точки.
func ParseKeys(line string) ([]Event, error) {
	tokens, err := shlex.Split(line)
	if err != nil {
		return nil, fmt.Errorf("разбор строки клавиш: %w", err)
	}

	var events []Event
	for _, tok := range tokens {
		if isNumberToken(tok) {
			for _, r := range tok {
				if r == '.' {
					events = append(events, Dot())
				} else {
					events = append(events, Label(string(r)))
				}
			}
			continue
		}
		ev, err := ParseKey(tok)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

func isNumberToken(tok string) bool {
	if len(tok) < 2 {
		return false
	}
	for _, r := range tok {
		if (r < '0' || r > '9') && r != '.' {
			return false
		}
	}
	return true
}
