package parser

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapapp/pkg/core"
)

// parseLLMConfig parses an `llm config:` block.
//
//	llm config:
//	    default_model gpt4
//	    rate_limit gpt4 100
func (p *fileParser) parseLLMConfig(mod *core.Module, body []srcLine) {
	if mod.Fragment.LLMConfig != nil {
		if len(body) > 0 {
			p.errorf(body[0].num, "module %s declares llm config twice", mod.Name)
		}
		return
	}
	cfg := &core.LLMConfig{}
	mod.Fragment.LLMConfig = cfg

	for _, ln := range body {
		if name, ok := strings.CutPrefix(ln.text, "default_model "); ok {
			name = strings.TrimSpace(name)
			if cfg.DefaultModel != "" {
				p.errorf(ln.num, "default_model declared twice")
				continue
			}
			cfg.DefaultModel = name
			continue
		}

		if rm := ratePattern.FindStringSubmatch(ln.text); rm != nil {
			limit, err := strconv.ParseInt(rm[2], 10, 64)
			if err != nil {
				p.errorf(ln.num, "invalid rate limit %q", rm[2])
				continue
			}
			if cfg.RateLimits == nil {
				cfg.RateLimits = make(map[string]int64)
			}
			if _, dup := cfg.RateLimits[rm[1]]; dup {
				p.errorf(ln.num, "rate_limit for %s declared twice", rm[1])
				continue
			}
			cfg.RateLimits[rm[1]] = limit
			continue
		}

		p.errorf(ln.num, "unrecognized llm config entry: %q", ln.text)
	}
}
