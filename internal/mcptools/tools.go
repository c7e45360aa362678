// Package mcptools публикует калькулятор как набор MCP-инструментов
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/DipperMason/desk-calculator/internal/agent"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Calculator - общий калькулятор всех вызовов инструментов
type Calculator struct {
	mu     sync.Mutex
	calc   *agent.Calculator
	agent  *agent.CalculatorAgent
	tape   []agent.Entry
	logger *log.Logger
}

func NewCalculator(opts ...agent.Option) *Calculator {
	c := &Calculator{agent: &agent.CalculatorAgent{}, logger: log.Default()}
	c.calc = agent.New(append(opts, agent.WithTape(func(e agent.Entry) {
		c.tape = append(c.tape, e)
	}))...)
	return c
}

// SetLogger заменяет журнал ошибок перепроверки
func (c *Calculator) SetLogger(l *log.Logger) { c.logger = l }

// Result - ответ инструментов press_keys, clear и display
type Result struct {
	Display string      `json:"display"`
	State   agent.State `json:"state"`
	Error   string      `json:"error,omitempty"`
}

// Press применяет строку клавиш
func (c *Calculator) Press(keys string) (Result, error) {
	events, err := agent.ParseKeys(keys)
	if err != nil {
		return Result{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result(c.calc.HandleAll(events)), nil
}

func (c *Calculator) Clear() Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tape = nil
	return c.result(c.calc.Handle(agent.Clear()))
}

func (c *Calculator) Current() Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result(nil)
}

// Tape возвращает копию ленты с момента последнего сброса
func (c *Calculator) Tape() []agent.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]agent.Entry(nil), c.tape...)
}

func (c *Calculator) result(err error) Result {
	r := Result{Display: c.calc.Text(), State: c.calc.State()}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// Register добавляет инструменты калькулятора на MCP-сервер
func Register(s *server.MCPServer, c *Calculator) {
	s.AddTool(mcp.NewTool("press_keys",
		mcp.WithDescription("Press calculator keys in order, e.g. \"12 + 3.5 =\". Keys: digits, . + - * / =, s (toggle sign), c (clear)"),
		mcp.WithString("keys",
			mcp.Required(),
			mcp.Description("Space separated keys; numbers expand to one press per digit"),
		),
	), pressHandler(c))

	s.AddTool(mcp.NewTool("clear",
		mcp.WithDescription("Reset the calculator display and registers"),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(c.Clear())
	})

	s.AddTool(mcp.NewTool("display",
		mcp.WithDescription("Show the current display text and registers"),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(c.Current())
	})

	s.AddTool(mcp.NewTool("check_expression",
		mcp.WithDescription("Evaluate an arithmetic expression independently of the calculator registers"),
		mcp.WithString("expression",
			mcp.Required(),
			mcp.Description("Expression such as (2 + 3) * 4"),
		),
	), checkHandler(c))

	s.AddTool(mcp.NewTool("tape",
		mcp.WithDescription("List computations since the last clear, each re-checked by an independent evaluator"),
	), tapeHandler(c))
}

func pressHandler(c *Calculator) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		keys, ok := request.GetArguments()["keys"].(string)
		if !ok {
			return mcp.NewToolResultError("keys is required"), nil
		}
		res, err := c.Press(keys)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(res)
	}
}

func checkHandler(c *Calculator) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		expr, ok := request.GetArguments()["expression"].(string)
		if !ok {
			return mcp.NewToolResultError("expression is required"), nil
		}
		v, err := c.agent.Calculate(expr)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Error evaluating expression: %v", err)), nil
		}
		return mcp.NewToolResultText(agent.FormatResult(v)), nil
	}
}

// TapeItem - запись ленты с результатом перепроверки
type TapeItem struct {
	agent.Entry
	Expression string `json:"expression"`
	Verified   bool   `json:"verified"`
}

func tapeHandler(c *Calculator) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		items := []TapeItem{}
		for i, e := range c.Tape() {
			ok, err := c.agent.Verify(e)
			if err != nil {
				c.logger.Printf("Ошибка перепроверки записи %d: %v\n", i+1, err)
			}
			items = append(items, TapeItem{Entry: e, Expression: e.Expression(), Verified: ok})
		}
		return jsonResult(items)
	}
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("кодирование ответа: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
