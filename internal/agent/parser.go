package agent

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidCharacter - в строке дисплея встретился недопустимый символ
	ErrInvalidCharacter = errors.New("недопустимый символ")
	// ErrDivisionByZero - второй операнд деления равен нулю
	ErrDivisionByZero = errors.New("деление на ноль")
	// ErrOverflow - число не помещается в float64
	ErrOverflow = errors.New("переполнение")
)

// FractionMode определяет, как масштабируются цифры после точки
type FractionMode int

const (
	// FractionPerDigit делит накопленное значение на 10^N, где N - число цифр после точки
	FractionPerDigit FractionMode = iota
	// FractionOnce делит накопленное значение на 10 один раз, сколько бы цифр ни было после точки
	FractionOnce
)

// DefaultFractionMode используется ParseNumber и машиной состояний.
// "12.5" -> 12.5, "1.25" -> 1.25.
const DefaultFractionMode = FractionPerDigit

// ParseNumber переводит текст дисплея в число
func ParseNumber(text string) (float64, error) {
	return ParseNumberMode(text, DefaultFractionMode)
}

// ParseNumberMode переводит текст дисплея в число с заданным режимом дробной части.
// Все цифры, в том числе после точки, копятся слева направо как value*10+digit,
// масштабирование выполняется один раз в конце. Пустая строка (или один "-") дает 0.
func ParseNumberMode(text string, mode FractionMode) (float64, error) {
	negative := false
	if len(text) > 0 && text[0] == '-' {
		negative = true
		text = text[1:]
	}

	value := 0.0
	seenPoint := false
	fractionDigits := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c >= '0' && c <= '9':
			value = value*10 + float64(c-'0')
			if seenPoint {
				fractionDigits++
			}
		case c == '.' && !seenPoint:
			seenPoint = true
		default:
			return 0, fmt.Errorf("%w %q в позиции %d", ErrInvalidCharacter, c, i)
		}
	}

	if fractionDigits > 0 {
		switch mode {
		case FractionOnce:
			value /= 10
		default:
			value /= math.Pow(10, float64(fractionDigits))
		}
	}
	if !isFinite(value) {
		return 0, fmt.Errorf("%w: %d цифр", ErrOverflow, len(text))
	}

	if negative {
		return -value, nil
	}
	return value, nil
}

func isFinite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}
