package agent

import "log"

// Calculator связывает регистры, буфер дисплея и внешний дисплей.
// Не потокобезопасен: события должны приходить из одного цикла обработки.
type Calculator struct {
	state   State
	text    string
	display Display
	onEntry func(Entry)
	logger  *log.Logger
}

// Option настраивает Calculator
type Option func(*Calculator)

// WithDisplay задает приемник команд SetDisplayText
func WithDisplay(d Display) Option {
	return func(c *Calculator) { c.display = d }
}

// WithTape вызывает fn после каждого успешного вычисления
func WithTape(fn func(Entry)) Option {
	return func(c *Calculator) { c.onEntry = fn }
}

// WithLogger задает журнал для ошибок вычислений
func WithLogger(l *log.Logger) Option {
	return func(c *Calculator) { c.logger = l }
}

func New(opts ...Option) *Calculator {
	c := &Calculator{logger: log.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Text возвращает текущий текст дисплея
func (c *Calculator) Text() string { return c.text }

// State возвращает копию регистров
func (c *Calculator) State() State { return c.state }

// Handle применяет событие и возвращает ошибку вычисления, если она была.
// Ошибка уже отражена на дисплее, вызывающему достаточно ее залогировать.
func (c *Calculator) Handle(ev Event) error {
	var err error
	switch ev.Kind {
	case LabelPressed:
		c.set(c.state.PressLabel(c.text, ev.Label))
	case DotPressed:
		c.set(c.state.PressDot(c.text))
	case SignPressed:
		c.set(c.state.PressSign(c.text))
	case ClearPressed:
		c.set(c.state.PressClear())
	case OperatorPressed:
		err = c.operate(ev.Op)
	case EqualsPressed:
		err = c.operate(c.state.Operator)
	}
	if err != nil && c.logger != nil {
		c.logger.Printf("Ошибка вычисления: %v\n", err)
	}
	return err
}

// HandleAll применяет события по порядку и возвращает последнюю ошибку
func (c *Calculator) HandleAll(events []Event) error {
	var last error
	for _, ev := range events {
		if err := c.Handle(ev); err != nil {
			last = err
		}
	}
	return last
}

func (c *Calculator) operate(op Operator) error {
	out, step := c.state.apply(c.text, op)
	c.set(out)
	if step.Combined && c.onEntry != nil {
		c.onEntry(Entry{
			Left:    step.Left,
			Op:      step.Op,
			Right:   step.Right,
			Result:  step.Result,
			Display: out,
		})
	}
	return step.Err
}

func (c *Calculator) set(text string) {
	c.text = text
	if c.display != nil {
		c.display.SetDisplayText(text)
	}
}
