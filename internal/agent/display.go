package agent

import "strings"

// ErrorDisplay выводится вместо результата при ошибке вычисления
const ErrorDisplay = "ERROR"

// Display принимает новый текст дисплея
type Display interface {
	SetDisplayText(text string)
}

// DisplayFunc позволяет использовать обычную функцию как Display
type DisplayFunc func(text string)

func (f DisplayFunc) SetDisplayText(text string) { f(text) }

func IsEmpty(text string) bool {
	return len(text) == 0
}

func HasDecimalPoint(text string) bool {
	return strings.Contains(text, ".")
}

// HasNegativeSign ищет "-" во всей строке, а не только в первом символе
func HasNegativeSign(text string) bool {
	return strings.Contains(text, "-")
}

// StripLeadingChar убирает первый символ (байт) строки
func StripLeadingChar(text string) string {
	if len(text) == 0 {
		return text
	}
	return text[1:]
}
