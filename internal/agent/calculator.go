package agent

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/Knetic/govaluate"
	"github.com/shopspring/decimal"
)

// CalculatorAgent представляет агента калькулятора
type CalculatorAgent struct{}

// Calculate выполняет математические вычисления
func (a *CalculatorAgent) Calculate(expression string) (float64, error) {
	expr, err := govaluate.NewEvaluableExpression(expression)
	if err != nil {
		return 0, err
	}
	result, err := expr.Evaluate(nil)
	if err != nil {
		return 0, err
	}
	if resFloat, ok := result.(float64); ok {
		return resFloat, nil
	}
	return 0, errors.New("результат не является числом")
}

// Entry - запись ленты: одно выполненное действие калькулятора
type Entry struct {
	Left    float64  `json:"left"`
	Op      Operator `json:"op"`
	Right   float64  `json:"right"`
	Result  float64  `json:"result"`
	Display string   `json:"display"`
}

// Expression возвращает действие в виде выражения, например "(2) + (3)"
func (e Entry) Expression() string {
	return fmt.Sprintf("(%s) %s (%s)", formatOperand(e.Left), e.Op, formatOperand(e.Right))
}

func formatOperand(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Verify пересчитывает запись ленты независимым вычислителем
// и сравнивает результат с точностью до двух знаков
func (a *CalculatorAgent) Verify(e Entry) (bool, error) {
	if e.Op == None {
		return false, fmt.Errorf("в записи нет операции")
	}
	for _, v := range []float64{e.Left, e.Right, e.Result} {
		if !isFinite(v) {
			return false, fmt.Errorf("%w: %v в записи %s", ErrOverflow, v, e.Expression())
		}
	}
	res, err := a.Calculate(e.Expression())
	if err != nil {
		return false, fmt.Errorf("пересчет %s: %w", e.Expression(), err)
	}
	if !isFinite(res) {
		return false, fmt.Errorf("%w: пересчет %s дал %v", ErrOverflow, e.Expression(), res)
	}
	return RoundResult(res).Equal(RoundResult(e.Result)), nil
}

// RoundResult округляет значение так же, как его показывает дисплей
func RoundResult(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}
