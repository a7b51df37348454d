package mathtool

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		expr string
		want float64
	}{
		{"2+3", 5},
		{"2 + 3 * 4", 14},
		{"(2 + 3) * 4", 20},
		{"10 / 4", 2.5},
		{"10 % 3", 1},
		{"-5 + 3", -2},
		{"--4", 4},
		{"2^10", 1024},
		{"2^3^2", 512},
		{"2 ^ -1", 0.5},
		{"sqrt(16)", 4},
		{"abs(-3.5)", 3.5},
		{"log(1000)", 3},
		{"ln(e)", 1},
		{"exp(0)", 1},
		{"sin(0)", 0},
		{"cos(0)", 1},
		{"pi", math.Pi},
		{"2 * pi", 2 * math.Pi},
		{"1.5e2 + 1", 151},
	}

	for _, tt := range tests {
		got, err := Evaluate(tt.expr)
		if err != nil {
			t.Errorf("Evaluate(%q): %v", tt.expr, err)
			continue
		}
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Evaluate(%q) = %v, want %v", tt.expr, got, tt.want)
		}
	}
}

func TestEvaluateErrors(t *testing.T) {
	exprs := []string{
		"",
		"2 +",
		"1 / 0",
		"5 % 0",
		"sqrt(-1)",
		"log(0)",
		"ln(-2)",
		"(2 + 3",
		"2 + foo",
		"nope(3)",
		"2 3",
	}

	for _, expr := range exprs {
		if got, err := Evaluate(expr); err == nil {
			t.Errorf("Evaluate(%q) = %v, want error", expr, got)
		}
	}
}

func TestFormatResult(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{5, "5"},
		{2.5, "2.5"},
		{1.0 / 3.0, "0.333333"},
		{-2, "-2"},
		{0, "0"},
	}

	for _, tt := range tests {
		if got := formatResult(tt.value); got != tt.want {
			t.Errorf("formatResult(%v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestExecute(t *testing.T) {
	tool := NewTool()

	result, err := tool.Execute(context.Background(), json.RawMessage(`{"expression":"6*7"}`))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %s", result.Content)
	}
	var payload map[string]string
	if err := json.Unmarshal([]byte(result.Content), &payload); err != nil {
		t.Fatalf("payload not JSON: %v", err)
	}
	if payload["result"] != "42" {
		t.Errorf("result = %q, want 42", payload["result"])
	}

	result, err = tool.Execute(context.Background(), json.RawMessage(`{"expression":"1/0"}`))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !result.IsError || !strings.Contains(result.Content, "division by zero") {
		t.Errorf("error result = %+v", result)
	}
}
