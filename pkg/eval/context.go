package eval

// Context is the nested key-value structure a guard or invariant is
// evaluated against: the record(s) in scope, as a map of maps. Evaluation
// never mutates a context.
type Context map[string]any

// Attributed is implemented by context values that expose named attributes
// without being plain maps. FieldRef resolution falls back to it when a path
// segment lands on a non-map value.
type Attributed interface {
	Attr(name string) (any, bool)
}

// lookup resolves one path segment against a value. Missing segments return
// (nil, false); resolution never errors.
func lookup(v any, name string) (any, bool) {
	switch val := v.(type) {
	case Context:
		out, ok := val[name]
		return out, ok
	case map[string]any:
		out, ok := val[name]
		return out, ok
	case Attributed:
		return val.Attr(name)
	default:
		return nil, false
	}
}

// resolvePath walks an ordered field path through the context. Any missing
// segment short-circuits the entire path to nil.
func resolvePath(ctx Context, path []string) any {
	var current any = ctx
	for _, seg := range path {
		next, ok := lookup(current, seg)
		if !ok {
			return nil
		}
		current = next
	}
	return current
}
