// Package modgraph builds the directed graph of module `uses` declarations
// and answers ordering questions about it: topological order, dependency
// levels, cycle reporting, and change impact.
package modgraph

import (
	"fmt"
	"sort"

	"github.com/leapstack-labs/leapapp/pkg/core"
)

// Graph is the module dependency graph. An edge runs from a used module to
// the module that uses it.
type Graph struct {
	modules    map[string]*core.Module
	dependents map[string][]string // used -> users
	deps       map[string][]string // user -> used
}

// Build constructs the graph from parsed modules. A `uses` naming an unknown
// module is reported, not fatal: the graph still contains every known edge.
func Build(modules []*core.Module) (*Graph, []string) {
	g := &Graph{
		modules:    make(map[string]*core.Module),
		dependents: make(map[string][]string),
		deps:       make(map[string][]string),
	}

	var problems []string
	for _, mod := range modules {
		g.modules[mod.Name] = mod
	}
	for _, mod := range modules {
		for _, used := range mod.Uses {
			if _, ok := g.modules[used]; !ok {
				problems = append(problems, fmt.Sprintf(
					"module %q uses unknown module %q", mod.Name, used))
				continue
			}
			if used == mod.Name {
				problems = append(problems, fmt.Sprintf(
					"module %q uses itself", mod.Name))
				continue
			}
			g.addEdge(used, mod.Name)
		}
	}
	return g, problems
}

func (g *Graph) addEdge(used, user string) {
	if !contains(g.dependents[used], user) {
		g.dependents[used] = append(g.dependents[used], user)
	}
	if !contains(g.deps[user], used) {
		g.deps[user] = append(g.deps[user], used)
	}
}

// Module returns a module by name.
func (g *Graph) Module(name string) (*core.Module, bool) {
	mod, ok := g.modules[name]
	return mod, ok
}

// Names returns all module names in sorted order.
func (g *Graph) Names() []string {
	names := make([]string, 0, len(g.modules))
	for name := range g.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dependencies returns the modules a module uses.
func (g *Graph) Dependencies(name string) []string {
	return g.deps[name]
}

// Dependents returns the modules that use a module.
func (g *Graph) Dependents(name string) []string {
	return g.dependents[name]
}

// HasCycle reports whether the uses graph contains a cycle, with a path
// through it for the diagnostic.
func (g *Graph) HasCycle() (bool, []string) {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	cameFrom := make(map[string]string)

	var cycle []string

	var dfs func(name string) bool
	dfs = func(name string) bool {
		visited[name] = true
		onStack[name] = true

		for _, user := range g.dependents[name] {
			if !visited[user] {
				cameFrom[user] = name
				if dfs(user) {
					return true
				}
			} else if onStack[user] {
				cycle = []string{user}
				for curr := name; curr != user; curr = cameFrom[curr] {
					cycle = append([]string{curr}, cycle...)
				}
				cycle = append([]string{user}, cycle...)
				return true
			}
		}

		onStack[name] = false
		return false
	}

	for _, name := range g.Names() {
		if !visited[name] {
			if dfs(name) {
				return true, cycle
			}
		}
	}
	return false, nil
}

// TopoOrder returns modules with every dependency before its users. Ties
// break alphabetically so the order is stable run to run.
func (g *Graph) TopoOrder() ([]*core.Module, error) {
	if cyclic, cycle := g.HasCycle(); cyclic {
		return nil, fmt.Errorf("module cycle detected: %v", cycle)
	}

	visited := make(map[string]bool)
	var order []*core.Module

	var visit func(name string)
	visit = func(name string) {
		if visited[name] {
			return
		}
		visited[name] = true
		deps := append([]string(nil), g.deps[name]...)
		sort.Strings(deps)
		for _, dep := range deps {
			visit(dep)
		}
		order = append(order, g.modules[name])
	}

	for _, name := range g.Names() {
		visit(name)
	}
	return order, nil
}

// Levels groups module names by dependency depth: level 0 uses nothing,
// level N uses only modules at lower levels.
func (g *Graph) Levels() ([][]string, error) {
	if cyclic, cycle := g.HasCycle(); cyclic {
		return nil, fmt.Errorf("module cycle detected: %v", cycle)
	}

	assigned := make(map[string]int)
	var levelOf func(name string) int
	levelOf = func(name string) int {
		if lvl, ok := assigned[name]; ok {
			return lvl
		}
		lvl := 0
		for _, dep := range g.deps[name] {
			if d := levelOf(dep) + 1; d > lvl {
				lvl = d
			}
		}
		assigned[name] = lvl
		return lvl
	}

	max := 0
	for name := range g.modules {
		if lvl := levelOf(name); lvl > max {
			max = lvl
		}
	}

	levels := make([][]string, max+1)
	for name, lvl := range assigned {
		levels[lvl] = append(levels[lvl], name)
	}
	for i := range levels {
		sort.Strings(levels[i])
	}
	return levels, nil
}

// Affected returns the given modules plus every module that transitively
// uses one of them, for recompile-on-change.
func (g *Graph) Affected(changed []string) []string {
	affected := make(map[string]bool)

	var mark func(name string)
	mark = func(name string) {
		if affected[name] {
			return
		}
		affected[name] = true
		for _, user := range g.dependents[name] {
			mark(user)
		}
	}

	for _, name := range changed {
		if _, ok := g.modules[name]; ok {
			mark(name)
		}
	}

	result := make([]string, 0, len(affected))
	for name := range affected {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// Roots returns modules that use nothing.
func (g *Graph) Roots() []string {
	var roots []string
	for name := range g.modules {
		if len(g.deps[name]) == 0 {
			roots = append(roots, name)
		}
	}
	sort.Strings(roots)
	return roots
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
