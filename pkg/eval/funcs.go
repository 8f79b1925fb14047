package eval

import (
	"math"
	"strings"
	"time"

	"github.com/leapstack-labs/leapapp/pkg/core"
)

// evalCall dispatches a function call against the closed builtin set. Names
// outside the set are rejected here even when the text validator was
// bypassed, so the evaluator is a sandbox in its own right.
func (e *Evaluator) evalCall(n *core.FuncCall, ctx Context) (any, error) {
	args := make([]any, len(n.Args))
	for i, arg := range n.Args {
		val, err := e.Evaluate(arg, ctx)
		if err != nil {
			return nil, err
		}
		args[i] = val
	}

	switch n.Name {
	case "today":
		if err := arity(n.Name, args, 0); err != nil {
			return nil, err
		}
		y, m, d := e.now().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil

	case "now":
		if err := arity(n.Name, args, 0); err != nil {
			return nil, err
		}
		return e.now(), nil

	case "days_until":
		if err := arity(n.Name, args, 1); err != nil {
			return nil, err
		}
		return e.dayDelta(args[0], false)

	case "days_since":
		if err := arity(n.Name, args, 1); err != nil {
			return nil, err
		}
		return e.dayDelta(args[0], true)

	case "concat":
		var b strings.Builder
		for _, arg := range args {
			if arg == nil {
				continue
			}
			b.WriteString(stringify(arg))
		}
		return b.String(), nil

	case "len":
		if err := arity(n.Name, args, 1); err != nil {
			return nil, err
		}
		return builtinLen(args[0])

	case "abs":
		if err := arity(n.Name, args, 1); err != nil {
			return nil, err
		}
		if args[0] == nil {
			return nil, nil
		}
		f, ok := toFloat(args[0])
		if !ok {
			return nil, evalErrorf(ErrBadOperand, "abs: operand must be numeric, got %s", formatValue(args[0]))
		}
		return numberResult(math.Abs(f), isIntegral(args[0])), nil

	case "min":
		return builtinMinMax(n.Name, args, func(a, b float64) bool { return a < b })

	case "max":
		return builtinMinMax(n.Name, args, func(a, b float64) bool { return a > b })

	case "round":
		return builtinRound(args)

	case "coalesce":
		for _, arg := range args {
			if arg != nil {
				return arg, nil
			}
		}
		return nil, nil

	case "list":
		// Internal constructor produced by parsing enum defaults and in-list
		// candidates; passes its arguments through as a value list.
		return args, nil

	default:
		return nil, evalErrorf(ErrUnknownFunction, "unknown function %q", n.Name)
	}
}

func (e *Evaluator) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// dayDelta computes whole days between today and a date, in either
// direction. A nil argument yields nil.
func (e *Evaluator) dayDelta(arg any, since bool) (any, error) {
	if arg == nil {
		return nil, nil
	}
	t, ok := toTime(arg)
	if !ok {
		return nil, evalErrorf(ErrBadOperand, "expected a date, got %s", formatValue(arg))
	}

	y, m, d := e.now().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	ty, tm, td := t.Date()
	target := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)

	days := int64(target.Sub(today).Hours() / 24)
	if since {
		return -days, nil
	}
	return days, nil
}

func builtinLen(arg any) (any, error) {
	switch v := arg.(type) {
	case nil:
		return nil, nil
	case string:
		return int64(len(v)), nil
	case []any:
		return int64(len(v)), nil
	default:
		return nil, evalErrorf(ErrBadOperand, "len: operand must be a string or list, got %s", formatValue(arg))
	}
}

func builtinMinMax(name string, args []any, better func(a, b float64) bool) (any, error) {
	if len(args) == 0 {
		return nil, evalErrorf(ErrBadOperand, "%s: at least one argument required", name)
	}

	var (
		best     float64
		have     bool
		integral = true
	)
	for _, arg := range args {
		if arg == nil {
			continue
		}
		f, ok := toFloat(arg)
		if !ok {
			return nil, evalErrorf(ErrBadOperand, "%s: operands must be numeric, got %s", name, formatValue(arg))
		}
		if !isIntegral(arg) {
			integral = false
		}
		if !have || better(f, best) {
			best = f
			have = true
		}
	}
	if !have {
		return nil, nil
	}
	return numberResult(best, integral), nil
}

func builtinRound(args []any) (any, error) {
	if len(args) != 1 && len(args) != 2 {
		return nil, evalErrorf(ErrBadOperand, "round: expected 1 or 2 arguments, got %d", len(args))
	}
	if args[0] == nil {
		return nil, nil
	}
	f, ok := toFloat(args[0])
	if !ok {
		return nil, evalErrorf(ErrBadOperand, "round: operand must be numeric, got %s", formatValue(args[0]))
	}

	digits := int64(0)
	if len(args) == 2 {
		if args[1] == nil {
			return nil, nil
		}
		d, ok := toFloat(args[1])
		if !ok || !isIntegral(args[1]) {
			return nil, evalErrorf(ErrBadOperand, "round: digits must be an integer, got %s", formatValue(args[1]))
		}
		digits = int64(d)
	}

	if digits == 0 {
		return int64(math.Round(f)), nil
	}
	scale := math.Pow(10, float64(digits))
	return math.Round(f*scale) / scale, nil
}

func arity(name string, args []any, want int) error {
	if len(args) != want {
		return evalErrorf(ErrBadOperand, "%s: expected %d arguments, got %d", name, want, len(args))
	}
	return nil
}
