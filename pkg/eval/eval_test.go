package eval

import (
	"errors"
	"testing"
	"time"

	"github.com/leapstack-labs/leapapp/pkg/core"
	"github.com/leapstack-labs/leapapp/pkg/parser"
)

func mustParse(t *testing.T, input string) core.Expr {
	t.Helper()
	expr, err := parser.ParseExpression(input)
	if err != nil {
		t.Fatalf("ParseExpression(%q): %v", input, err)
	}
	return expr
}

func evalString(t *testing.T, input string, ctx Context) (any, error) {
	t.Helper()
	return Evaluate(mustParse(t, input), ctx)
}

func mustEval(t *testing.T, input string, ctx Context) any {
	t.Helper()
	val, err := evalString(t, input, ctx)
	if err != nil {
		t.Fatalf("Evaluate(%q): %v", input, err)
	}
	return val
}

func TestEvaluateLiterals(t *testing.T) {
	tests := []struct {
		input string
		want  any
	}{
		{"42", int64(42)},
		{"3.5", 3.5},
		{`"hello"`, "hello"},
		{"true", true},
		{"false", false},
		{"null", nil},
	}

	for _, tt := range tests {
		got := mustEval(t, tt.input, nil)
		if got != tt.want {
			t.Errorf("Evaluate(%q) = %v (%T), want %v (%T)", tt.input, got, got, tt.want, tt.want)
		}
	}
}

func TestEvaluateFieldRef(t *testing.T) {
	ctx := Context{
		"score": int64(85),
		"self": map[string]any{
			"signatory": map[string]any{
				"aml_status": "clear",
			},
		},
	}

	if got := mustEval(t, "score", ctx); got != int64(85) {
		t.Errorf("score = %v, want 85", got)
	}
	if got := mustEval(t, "self->signatory->aml_status", ctx); got != "clear" {
		t.Errorf("self->signatory->aml_status = %v, want clear", got)
	}
}

func TestEvaluateFieldRefMissingSegmentsAreNull(t *testing.T) {
	ctx := Context{"self": map[string]any{"signatory": nil}}

	tests := []string{
		"missing",
		"self->missing",
		"self->signatory->aml_status",
	}
	for _, input := range tests {
		if got := mustEval(t, input, ctx); got != nil {
			t.Errorf("Evaluate(%q) = %v, want nil", input, got)
		}
	}

	// a missing path compares as null, it never errors
	if got := mustEval(t, "self->signatory->aml_status == null", ctx); got != true {
		t.Errorf("missing path == null = %v, want true", got)
	}
}

func TestEvaluateArithmetic(t *testing.T) {
	tests := []struct {
		input string
		want  any
	}{
		{"2 + 3", int64(5)},
		{"2 + 3 * 4", int64(14)},
		{"(2 + 3) * 4", int64(20)},
		{"10 - 4", int64(6)},
		{"10 / 4", 2.5},
		{"10 / 5", int64(2)},
		{"10 % 3", int64(1)},
		{"1.5 + 2", 3.5},
		{"-5 + 2", int64(-3)},
		{`"a" + "b"`, "ab"},
	}

	for _, tt := range tests {
		got := mustEval(t, tt.input, nil)
		if got != tt.want {
			t.Errorf("Evaluate(%q) = %v (%T), want %v (%T)", tt.input, got, got, tt.want, tt.want)
		}
	}
}

func TestEvaluateDivisionByZero(t *testing.T) {
	for _, input := range []string{"1 / 0", "1 % 0"} {
		_, err := evalString(t, input, nil)
		var ee *EvalError
		if !errors.As(err, &ee) || ee.Kind != ErrDivisionByZero {
			t.Errorf("Evaluate(%q): got %v, want ErrDivisionByZero", input, err)
		}
	}
}

func TestEvaluateNullPropagation(t *testing.T) {
	ctx := Context{"x": nil}

	// arithmetic with a null operand yields null
	for _, input := range []string{"x + 1", "1 + x", "x * 2", "x - 1", "-x"} {
		if got := mustEval(t, input, ctx); got != nil {
			t.Errorf("Evaluate(%q) = %v, want nil", input, got)
		}
	}

	// ordered comparison with a null operand yields false
	for _, input := range []string{"x < 1", "x > 1", "x <= 1", "1 >= x"} {
		if got := mustEval(t, input, ctx); got != false {
			t.Errorf("Evaluate(%q) = %v, want false", input, got)
		}
	}

	// equality treats null as a first-class value
	if got := mustEval(t, "x == null", ctx); got != true {
		t.Errorf("x == null = %v, want true", got)
	}
	if got := mustEval(t, "x != null", ctx); got != false {
		t.Errorf("x != null = %v, want false", got)
	}
}

func TestEvaluateEqualityOnRecords(t *testing.T) {
	// Field paths can resolve to whole nested records; equality on those
	// must stay total instead of panicking on uncomparable types.
	ctx := Context{
		"self": map[string]any{
			"a":    map[string]any{"x": int64(1)},
			"b":    map[string]any{"x": int64(1)},
			"tags": []any{"kyc"},
		},
	}

	tests := []struct {
		input string
		want  bool
	}{
		{"self->a == self->b", false},
		{"self->a != self->b", true},
		{"self->a == self->tags", false},
		{"self->tags == self->tags", false},
	}

	for _, tt := range tests {
		if got := mustEval(t, tt.input, ctx); got != tt.want {
			t.Errorf("Evaluate(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestEvaluateComparison(t *testing.T) {
	ctx := Context{"score": int64(85)}

	tests := []struct {
		input string
		want  bool
	}{
		{"score >= 70", true},
		{"score > 85", false},
		{"score <= 85", true},
		{"score == 85", true},
		{"score != 85", false},
		{`"apple" < "banana"`, true},
		{"2 == 2.0", true},
	}

	for _, tt := range tests {
		if got := mustEval(t, tt.input, ctx); got != tt.want {
			t.Errorf("Evaluate(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestEvaluateShortCircuit(t *testing.T) {
	ctx := Context{"name": "ada", "empty": "", "limit": int64(0)}

	// and/or return the deciding operand's value, not a coerced boolean
	tests := []struct {
		input string
		want  any
	}{
		{`empty or "fallback"`, "fallback"},
		{`name or "fallback"`, "ada"},
		{`name and limit`, int64(0)},
		{`empty and name`, ""},
		{`null or name`, "ada"},
	}

	for _, tt := range tests {
		if got := mustEval(t, tt.input, ctx); got != tt.want {
			t.Errorf("Evaluate(%q) = %v (%T), want %v", tt.input, got, got, tt.want)
		}
	}

	// the right side is never evaluated once the left decides
	if got := mustEval(t, "false and (1 / 0 == 0)", nil); got != false {
		t.Errorf("short-circuit and = %v, want false", got)
	}
	if got := mustEval(t, "true or (1 / 0 == 0)", nil); got != true {
		t.Errorf("short-circuit or = %v, want true", got)
	}
}

func TestEvaluateNot(t *testing.T) {
	ctx := Context{"flag": false, "name": "ada"}

	tests := []struct {
		input string
		want  bool
	}{
		{"not flag", true},
		{"not name", false},
		{"not null", true},
		{"not 0", true},
		{`not ""`, true},
	}

	for _, tt := range tests {
		if got := mustEval(t, tt.input, ctx); got != tt.want {
			t.Errorf("Evaluate(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestEvaluateIn(t *testing.T) {
	ctx := Context{"status": "active"}

	tests := []struct {
		input string
		want  bool
	}{
		{`status in ("active", "pending")`, true},
		{`status in ("closed", "archived")`, false},
		{`status not in ("closed", "archived")`, true},
		{"2 in (1, 2, 3)", true},
	}

	for _, tt := range tests {
		if got := mustEval(t, tt.input, ctx); got != tt.want {
			t.Errorf("Evaluate(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestEvaluateIf(t *testing.T) {
	tests := []struct {
		input string
		ctx   Context
		want  any
	}{
		{`if score >= 90 then "gold" else "standard"`, Context{"score": int64(95)}, "gold"},
		{`if score >= 90 then "gold" else "standard"`, Context{"score": int64(50)}, "standard"},
		{`if score >= 90 then "gold" elif score >= 70 then "silver" else "bronze"`, Context{"score": int64(75)}, "silver"},
		{`if score >= 90 then "gold" elif score >= 70 then "silver" else "bronze"`, Context{"score": int64(10)}, "bronze"},
	}

	for _, tt := range tests {
		if got := mustEval(t, tt.input, tt.ctx); got != tt.want {
			t.Errorf("Evaluate(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestEvaluateDateArithmetic(t *testing.T) {
	fixed := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	ev := &Evaluator{Now: func() time.Time { return fixed }}

	deadline := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)
	ctx := Context{"deadline": deadline}

	got, err := ev.Evaluate(mustParse(t, "deadline + 7d"), ctx)
	if err != nil {
		t.Fatalf("deadline + 7d: %v", err)
	}
	want := deadline.AddDate(0, 0, 7)
	if !got.(time.Time).Equal(want) {
		t.Errorf("deadline + 7d = %v, want %v", got, want)
	}

	// duration + date commutes
	got, err = ev.Evaluate(mustParse(t, "7d + deadline"), ctx)
	if err != nil {
		t.Fatalf("7d + deadline: %v", err)
	}
	if !got.(time.Time).Equal(want) {
		t.Errorf("7d + deadline = %v, want %v", got, want)
	}

	// date - date yields a duration
	got, err = ev.Evaluate(mustParse(t, "deadline - today()"), ctx)
	if err != nil {
		t.Fatalf("deadline - today(): %v", err)
	}
	if got.(time.Duration) != 5*24*time.Hour {
		t.Errorf("deadline - today() = %v, want 120h", got)
	}

	// durations compare
	got, err = ev.Evaluate(mustParse(t, "deadline - today() < 7d"), ctx)
	if err != nil {
		t.Fatalf("duration compare: %v", err)
	}
	if got != true {
		t.Errorf("deadline - today() < 7d = %v, want true", got)
	}
}

func TestEvaluateDateFunctions(t *testing.T) {
	fixed := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	ev := &Evaluator{Now: func() time.Time { return fixed }}

	ctx := Context{
		"due":    time.Date(2024, 6, 25, 0, 0, 0, 0, time.UTC),
		"opened": time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		input string
		want  any
	}{
		{"days_until(due)", int64(10)},
		{"days_since(opened)", int64(14)},
		{"days_until(opened)", int64(-14)},
		{"days_until(null)", nil},
	}

	for _, tt := range tests {
		got, err := ev.Evaluate(mustParse(t, tt.input), ctx)
		if err != nil {
			t.Fatalf("Evaluate(%q): %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("Evaluate(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}

	got, err := ev.Evaluate(mustParse(t, "today()"), nil)
	if err != nil {
		t.Fatalf("today(): %v", err)
	}
	if !got.(time.Time).Equal(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("today() = %v, want midnight of the fixed clock", got)
	}
}

func TestEvaluateBuiltins(t *testing.T) {
	ctx := Context{"name": "ada", "nick": nil}

	tests := []struct {
		input string
		want  any
	}{
		{`concat("hello ", name)`, "hello ada"},
		{`concat(name, nick, "!")`, "ada!"},
		{`len("hello")`, int64(5)},
		{"len(null)", nil},
		{"abs(-4)", int64(4)},
		{"abs(-4.5)", 4.5},
		{"min(3, 1, 2)", int64(1)},
		{"max(3, 1, 2)", int64(3)},
		{"round(2.6)", int64(3)},
		{"round(2.446, 2)", 2.45},
		{"coalesce(nick, name)", "ada"},
		{`coalesce(null, null, "x")`, "x"},
		{"coalesce(null, null)", nil},
	}

	for _, tt := range tests {
		got := mustEval(t, tt.input, ctx)
		if got != tt.want {
			t.Errorf("Evaluate(%q) = %v (%T), want %v", tt.input, got, got, tt.want)
		}
	}
}

func TestEvaluateUnknownFunction(t *testing.T) {
	expr := &core.FuncCall{Name: "system", Args: nil}
	_, err := Evaluate(expr, nil)
	var ee *EvalError
	if !errors.As(err, &ee) || ee.Kind != ErrUnknownFunction {
		t.Fatalf("unknown function: got %v, want ErrUnknownFunction", err)
	}
}

func TestEvaluateBadOperand(t *testing.T) {
	_, err := evalString(t, `"text" * 2`, nil)
	var ee *EvalError
	if !errors.As(err, &ee) || ee.Kind != ErrBadOperand {
		t.Fatalf("string * int: got %v, want ErrBadOperand", err)
	}
}

func TestEvaluateDeterminism(t *testing.T) {
	ctx := Context{"score": int64(85), "status": "active"}
	expr := mustParse(t, `score >= 70 and status in ("active", "pending")`)

	first, err := Evaluate(expr, ctx)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		got, err := Evaluate(expr, ctx)
		if err != nil {
			t.Fatal(err)
		}
		if got != first {
			t.Fatalf("evaluation not deterministic: %v vs %v", got, first)
		}
	}
}
