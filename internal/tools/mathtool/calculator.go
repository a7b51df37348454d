// Package mathtool evaluates arithmetic expressions for executor agents.
package mathtool

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/haasonsaas/workforce/internal/agent"
)

// Tool is a calculator over a recursive-descent arithmetic parser. Results
// are formatted to six decimal places with trailing zeros trimmed; parse and
// domain errors come back as {"error": ...} payloads.
type Tool struct{}

// NewTool creates a calculator tool.
func NewTool() *Tool {
	return &Tool{}
}

func (t *Tool) Name() string {
	return "calculator"
}

func (t *Tool) Description() string {
	return "Evaluate a mathematical expression with +, -, *, /, %, ^, parentheses, " +
		"and the functions sqrt, abs, log, ln, exp, sin, cos, tan."
}

func (t *Tool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"expression": {
				"type": "string",
				"description": "The mathematical expression to evaluate"
			}
		},
		"required": ["expression"]
	}`)
}

func (t *Tool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var args struct {
		Expression string `json:"expression"`
	}
	if err := json.Unmarshal(params, &args); err != nil {
		return errorResult("invalid parameters: " + err.Error()), nil
	}

	value, err := Evaluate(args.Expression)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return errorResult("result is not a finite number"), nil
	}

	payload, _ := json.Marshal(map[string]string{"result": formatResult(value)})
	return &agent.ToolResult{Content: string(payload)}, nil
}

func errorResult(msg string) *agent.ToolResult {
	payload, _ := json.Marshal(map[string]string{"error": msg})
	return &agent.ToolResult{Content: string(payload), IsError: true}
}

// formatResult renders with six decimal places, trimming trailing zeros and
// a dangling decimal point.
func formatResult(v float64) string {
	s := strconv.FormatFloat(v, 'f', 6, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}

// Evaluate parses and evaluates an arithmetic expression.
func Evaluate(expression string) (float64, error) {
	p := &parser{input: expression}
	p.skipSpace()
	value, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if p.pos < len(p.input) {
		return 0, fmt.Errorf("unexpected character %q at position %d", p.input[p.pos], p.pos)
	}
	return value, nil
}

// parser is a recursive-descent evaluator with standard precedence:
// additive < multiplicative < unary < power, power right-associative.
type parser struct {
	input string
	pos   int
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t' || p.input[p.pos] == '\n') {
		p.pos++
	}
}

func (p *parser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *parser) parseExpr() (float64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		switch p.peek() {
		case '+':
			p.pos++
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			left += right
		case '-':
			p.pos++
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			left -= right
		default:
			return left, nil
		}
	}
}

func (p *parser) parseTerm() (float64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		switch p.peek() {
		case '*':
			p.pos++
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			left *= right
		case '/':
			p.pos++
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left /= right
		case '%':
			p.pos++
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, fmt.Errorf("modulo by zero")
			}
			left = math.Mod(left, right)
		default:
			return left, nil
		}
	}
}

func (p *parser) parseUnary() (float64, error) {
	p.skipSpace()
	switch p.peek() {
	case '-':
		p.pos++
		value, err := p.parseUnary()
		return -value, err
	case '+':
		p.pos++
		return p.parseUnary()
	}
	return p.parsePower()
}

func (p *parser) parsePower() (float64, error) {
	base, err := p.parseAtom()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if p.peek() == '^' {
		p.pos++
		// Right-associative: 2^3^2 == 2^(3^2).
		exponent, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		return math.Pow(base, exponent), nil
	}
	return base, nil
}

func (p *parser) parseAtom() (float64, error) {
	p.skipSpace()
	c := p.peek()

	if c == '(' {
		p.pos++
		value, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		p.skipSpace()
		if p.peek() != ')' {
			return 0, fmt.Errorf("missing closing parenthesis at position %d", p.pos)
		}
		p.pos++
		return value, nil
	}

	if c >= '0' && c <= '9' || c == '.' {
		return p.parseNumber()
	}

	if isAlpha(c) {
		return p.parseFunction()
	}

	return 0, fmt.Errorf("unexpected character at position %d", p.pos)
}

func (p *parser) parseNumber() (float64, error) {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c >= '0' && c <= '9' || c == '.' || c == 'e' || c == 'E' {
			p.pos++
			continue
		}
		// Exponent sign.
		if (c == '+' || c == '-') && p.pos > start &&
			(p.input[p.pos-1] == 'e' || p.input[p.pos-1] == 'E') {
			p.pos++
			continue
		}
		break
	}
	value, err := strconv.ParseFloat(p.input[start:p.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", p.input[start:p.pos])
	}
	return value, nil
}

func (p *parser) parseFunction() (float64, error) {
	start := p.pos
	for p.pos < len(p.input) && isAlpha(p.input[p.pos]) {
		p.pos++
	}
	name := strings.ToLower(p.input[start:p.pos])

	// Constants have no argument list.
	switch name {
	case "pi":
		return math.Pi, nil
	case "e":
		return math.E, nil
	}

	p.skipSpace()
	if p.peek() != '(' {
		return 0, fmt.Errorf("unknown identifier %q", name)
	}
	p.pos++
	arg, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if p.peek() != ')' {
		return 0, fmt.Errorf("missing closing parenthesis for %s", name)
	}
	p.pos++

	switch name {
	case "sqrt":
		if arg < 0 {
			return 0, fmt.Errorf("sqrt of negative number")
		}
		return math.Sqrt(arg), nil
	case "abs":
		return math.Abs(arg), nil
	case "log":
		if arg <= 0 {
			return 0, fmt.Errorf("log of non-positive number")
		}
		return math.Log10(arg), nil
	case "ln":
		if arg <= 0 {
			return 0, fmt.Errorf("ln of non-positive number")
		}
		return math.Log(arg), nil
	case "exp":
		return math.Exp(arg), nil
	case "sin":
		return math.Sin(arg), nil
	case "cos":
		return math.Cos(arg), nil
	case "tan":
		return math.Tan(arg), nil
	default:
		return 0, fmt.Errorf("unknown function %q", name)
	}
}

func isAlpha(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
