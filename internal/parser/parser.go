// Package parser turns .leap source files into core.Module values. It owns
// the line-oriented structural grammar (module headers, entity blocks, state
// machines, declarations); embedded expressions are handed to pkg/parser.
package parser

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/leapstack-labs/leapapp/pkg/core"
)

// Structural line patterns
var (
	modulePattern = regexp.MustCompile(`^module\s+([a-z_][a-z0-9_]*)$`)
	identPattern  = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)
	usesPattern   = regexp.MustCompile(`^uses\s+(.+)$`)
	entityPattern = regexp.MustCompile(`^entity\s+([A-Z][A-Za-z0-9_]*)(?:\s+"([^"]*)")?\s*:$`)
	// draft -> review: requires applicant_name
	transitionPattern = regexp.MustCompile(`^(\*|[a-z_][a-z0-9_]*)\s*->\s*([a-z_][a-z0-9_]*)\s*(:\s*(.*))?$`)
	servicePattern    = regexp.MustCompile(`^service\s+([A-Z][A-Za-z0-9_]*)$`)
	modelPattern      = regexp.MustCompile(`^model\s+([a-z_][a-z0-9_.-]*)(?:\s+provider\s+"([^"]*)")?$`)
	intentPattern     = regexp.MustCompile(`^intent\s+([a-z_][a-z0-9_]*)(?:\s+model\s+([a-z_][a-z0-9_.-]*))?$`)
	termPattern       = regexp.MustCompile(`^term\s+([a-z_][a-z0-9_]*)\s+"([^"]*)"$`)
	fieldPattern      = regexp.MustCompile(`^([a-z_][a-z0-9_]*)\s*:\s*(.+)$`)
	autoPattern       = regexp.MustCompile(`^auto\s+after\s+(\d+)\s*(d|h|w|min|m|y)(\s+or\s+manual)?$`)
	rolePattern       = regexp.MustCompile(`^role\s*\(\s*([a-z_][a-z0-9_]*)\s*\)$`)
	ratePattern       = regexp.MustCompile(`^rate_limit\s+([a-z_][a-z0-9_.-]*)\s+(\d+)$`)
)

// ParseFile parses a single .leap source file.
func ParseFile(path string) (*core.Module, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return ParseContent(path, string(content))
}

// ParseContent parses .leap source text. The returned module is populated as
// far as parsing got; the error joins every structural error found, so
// callers report them all at once.
func ParseContent(path, content string) (*core.Module, error) {
	fp := &fileParser{path: path}
	fp.split(content)

	mod := &core.Module{FilePath: path, Fragment: &core.Fragment{}}
	fp.parseModule(mod)

	return mod, errors.Join(fp.errs...)
}

// srcLine is one significant source line: comments stripped, blanks dropped.
type srcLine struct {
	num    int
	indent int
	text   string
}

type fileParser struct {
	path  string
	lines []srcLine
	pos   int
	errs  []error
}

func (p *fileParser) errorf(line int, format string, args ...any) {
	p.errs = append(p.errs, &Error{File: p.path, Line: line, Msg: fmt.Sprintf(format, args...)})
}

// split breaks content into significant lines with their indentation.
func (p *fileParser) split(content string) {
	scanner := bufio.NewScanner(strings.NewReader(content))
	num := 0
	for scanner.Scan() {
		num++
		raw := stripComment(scanner.Text())
		text := strings.TrimSpace(raw)
		if text == "" {
			continue
		}
		p.lines = append(p.lines, srcLine{
			num:    num,
			indent: indentWidth(raw),
			text:   text,
		})
	}
}

// stripComment removes a # comment, leaving # inside quoted strings alone.
func stripComment(line string) string {
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '#':
			return line[:i]
		}
	}
	return line
}

// indentWidth counts leading whitespace, a tab counting as 4 spaces.
func indentWidth(line string) int {
	w := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case ' ':
			w++
		case '\t':
			w += 4
		default:
			return w
		}
	}
	return w
}

func (p *fileParser) peek() (srcLine, bool) {
	if p.pos >= len(p.lines) {
		return srcLine{}, false
	}
	return p.lines[p.pos], true
}

func (p *fileParser) next() (srcLine, bool) {
	ln, ok := p.peek()
	if ok {
		p.pos++
	}
	return ln, ok
}

// block collects the lines indented deeper than parent, consuming them.
func (p *fileParser) block(parent srcLine) []srcLine {
	var body []srcLine
	for {
		ln, ok := p.peek()
		if !ok || ln.indent <= parent.indent {
			return body
		}
		p.pos++
		body = append(body, ln)
	}
}

// skipBlock discards a malformed declaration's body.
func (p *fileParser) skipBlock(parent srcLine) {
	p.block(parent)
}

// parseModule parses the whole file: a mandatory module header, then
// top-level declarations.
func (p *fileParser) parseModule(mod *core.Module) {
	ln, ok := p.next()
	if !ok {
		p.errorf(1, "empty file: expected module declaration")
		return
	}
	m := modulePattern.FindStringSubmatch(ln.text)
	if m == nil {
		p.errorf(ln.num, "expected module declaration, got %q", ln.text)
		return
	}
	mod.Name = m[1]

	for {
		ln, ok := p.next()
		if !ok {
			return
		}
		if ln.indent != 0 {
			p.errorf(ln.num, "unexpected indentation at top level: %q", ln.text)
			continue
		}
		p.parseTopLevel(mod, ln)
	}
}

func (p *fileParser) parseTopLevel(mod *core.Module, ln srcLine) {
	switch {
	case usesPattern.MatchString(ln.text):
		m := usesPattern.FindStringSubmatch(ln.text)
		for _, name := range strings.Split(m[1], ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if !identPattern.MatchString(name) {
				p.errorf(ln.num, "invalid module name %q in uses", name)
				continue
			}
			mod.Uses = append(mod.Uses, name)
		}

	case entityPattern.MatchString(ln.text):
		m := entityPattern.FindStringSubmatch(ln.text)
		ent := &core.Entity{Name: m[1], Title: m[2]}
		p.parseEntity(ent, ln, p.block(ln))
		mod.Fragment.Entities = append(mod.Fragment.Entities, ent)

	case servicePattern.MatchString(ln.text):
		m := servicePattern.FindStringSubmatch(ln.text)
		mod.Fragment.Services = append(mod.Fragment.Services, &core.Service{Name: m[1]})

	case modelPattern.MatchString(ln.text):
		m := modelPattern.FindStringSubmatch(ln.text)
		mod.Fragment.LLMModels = append(mod.Fragment.LLMModels, &core.LLMModel{Name: m[1], Provider: m[2]})

	case intentPattern.MatchString(ln.text):
		m := intentPattern.FindStringSubmatch(ln.text)
		mod.Fragment.LLMIntents = append(mod.Fragment.LLMIntents, &core.LLMIntent{Name: m[1], Model: m[2]})

	case ln.text == "llm config:":
		p.parseLLMConfig(mod, p.block(ln))

	case termPattern.MatchString(ln.text):
		m := termPattern.FindStringSubmatch(ln.text)
		mod.Fragment.Vocabulary = append(mod.Fragment.Vocabulary, &core.VocabularyTerm{Name: m[1], Definition: m[2]})

	case modulePattern.MatchString(ln.text):
		p.errorf(ln.num, "duplicate module declaration")

	default:
		p.errorf(ln.num, "unrecognized declaration: %q", ln.text)
		p.skipBlock(ln)
	}
}
