// Package depscan infers the implicit dependencies of a code selection:
// types the selection names, injected services, methods it calls on typed
// receivers, and constants it reads. Each inferred name is planned with a
// resolution strategy so the resolver knows whether to read a known file,
// consult the symbol table, or fall back to semantic search.
//
// Detection is shape-based over the raw selection text, not a parse. The
// detectors are deliberately permissive; a fixed skip list filters the
// language and framework noise they drag in.
package depscan

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hargabyte/lens/internal/symbols"
)

// Kind classifies what a planned dependency is.
type Kind string

const (
	KindType       Kind = "type"
	KindService    Kind = "service"
	KindFunction   Kind = "function"
	KindMethodCall Kind = "method-call"
	KindConstant   Kind = "constant"
)

// Strategy selects how a dependency will be resolved.
type Strategy string

const (
	// StrategyReadFile reads the dependency's known file directly.
	StrategyReadFile Strategy = "read-file"
	// StrategySymbolLookup slices the declaration range recorded in the
	// symbol table.
	StrategySymbolLookup Strategy = "symbol-lookup"
	// StrategySemanticSearch queries the semantic index.
	StrategySemanticSearch Strategy = "semantic-search"
)

// Dependency is one planned lookup. Created during planning and not mutated
// afterwards.
type Dependency struct {
	Name      string   `yaml:"name" json:"name"`
	Kind      Kind     `yaml:"kind" json:"kind"`
	Query     string   `yaml:"query" json:"query"`
	Receiver  string   `yaml:"receiver,omitempty" json:"receiver,omitempty"`
	KnownPath string   `yaml:"known_path,omitempty" json:"known_path,omitempty"`
	Strategy  Strategy `yaml:"strategy" json:"strategy"`
}

// Planner scans selection text and plans dependency lookups.
type Planner struct {
	table   symbols.Table
	imports map[string]string // imported name -> resolved path
}

// New creates a Planner. table may be nil when no symbol table is available;
// imports maps names imported by the current file to their resolved paths.
func New(table symbols.Table, imports map[string]string) *Planner {
	if imports == nil {
		imports = map[string]string{}
	}
	return &Planner{table: table, imports: imports}
}

// Shape detectors, run over the whole selection text.
var (
	// Capitalized identifier in a type position: after a colon, comma,
	// closing paren, or whitespace.
	typePattern = regexp.MustCompile(`(?:^|[:,)\s])\s*([A-Z][A-Za-z0-9_]*)`)

	// Arguments of an injection-style decorator.
	injectPattern = regexp.MustCompile(`@[Ii]nject(?:able)?\(([^)]*)\)`)

	// receiver.method( call sites.
	methodCallPattern = regexp.MustCompile(`\b([a-zA-Z_][A-Za-z0-9_]*)\.([a-zA-Z_][A-Za-z0-9_]*)\(`)

	// All-uppercase identifiers of length >= 4.
	constantPattern = regexp.MustCompile(`\b([A-Z][A-Z0-9_]{3,})\b`)

	identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Receiver type annotation scans, one best-effort pattern per supported
// source language family, applied to the enclosing file's full text.
var receiverAnnotationTemplates = []string{
	// TypeScript / Python style: name: Type
	`%s\s*:\s*([A-Z][A-Za-z0-9_]*)`,
	// Go style: name *Type or name Type
	`%s\s+\*?([A-Z][A-Za-z0-9_]*)`,
	// Assignment from a constructor: name = Type( or name = new Type(
	`%s\s*=\s*(?:new\s+)?([A-Z][A-Za-z0-9_]*)\s*\(`,
}

// skipList filters common language and framework noise. Names on this list
// never become dependencies regardless of which detector matched them.
var skipList = map[string]bool{
	// primitives and builtins
	"String": true, "Number": true, "Boolean": true, "Object": true,
	"Array": true, "Function": true, "Symbol": true, "BigInt": true,
	"Promise": true, "Partial": true, "Record": true, "Readonly": true,
	"Required": true, "Pick": true, "Omit": true, "Exclude": true,
	"Map": true, "Set": true, "WeakMap": true, "WeakSet": true,
	"Date": true, "RegExp": true, "Error": true, "Math": true, "JSON": true,
	"Infinity": true, "NaN": true,
	// common framework noise
	"Component": true, "Injectable": true, "Inject": true, "Module": true,
	"Input": true, "Output": true, "Observable": true, "Subject": true,
	"React": true, "Props": true, "State": true,
	// common constant-shaped noise
	"TODO": true, "FIXME": true, "NOTE": true, "HACK": true, "XXX": true,
	"NULL": true, "TRUE": true, "FALSE": true, "HTTP": true, "HTTPS": true,
	"JSON_": true, "UTF8": true,
	// common receivers that are not services
	"this": true, "self": true, "console": true, "window": true,
	"document": true, "process": true, "super": true,
}

const minNameLength = 3

// Plan scans the selection and returns deduplicated, strategy-assigned
// dependencies. fileText is the enclosing file's full text when available;
// it is only used to resolve receiver types for method calls. Planning
// groups by phase (types, services, method calls, constants) and does not
// otherwise prioritize within a phase.
func (p *Planner) Plan(selection, fileText string) []Dependency {
	var deps []Dependency
	planned := make(map[string]bool)

	add := func(dep Dependency) {
		if planned[dep.Name] {
			return
		}
		planned[dep.Name] = true
		p.assignStrategy(&dep)
		deps = append(deps, dep)
	}

	// Phase 1: types in type positions. All-caps names are left for the
	// constant detector.
	for _, m := range typePattern.FindAllStringSubmatch(selection, -1) {
		name := m[1]
		if !accept(name) || isConstantShaped(name) {
			continue
		}
		add(Dependency{
			Name:  name,
			Kind:  KindType,
			Query: fmt.Sprintf("definition of type %s", name),
		})
	}

	// Phase 2: injected services.
	for _, m := range injectPattern.FindAllStringSubmatch(selection, -1) {
		for _, arg := range strings.Split(m[1], ",") {
			name := strings.TrimSpace(arg)
			if !identPattern.MatchString(name) || !accept(name) {
				continue
			}
			add(Dependency{
				Name:  name,
				Kind:  KindService,
				Query: fmt.Sprintf("implementation of service %s", name),
			})
		}
	}

	// Phase 3: method calls on typed receivers.
	for _, m := range methodCallPattern.FindAllStringSubmatch(selection, -1) {
		receiver, method := m[1], m[2]
		if skipList[receiver] || len(method) < minNameLength {
			continue
		}
		receiverType := resolveReceiverType(receiver, fileText)
		name := receiver + "." + method
		if planned[name] {
			continue
		}
		planned[name] = true
		dep := Dependency{
			Name:     name,
			Kind:     KindMethodCall,
			Receiver: receiverType,
			Query:    fmt.Sprintf("method %s", method),
		}
		if receiverType != "" {
			dep.Query = fmt.Sprintf("method %s of %s", method, receiverType)
		}
		p.assignMethodStrategy(&dep, method)
		deps = append(deps, dep)
	}

	// Phase 4: constants.
	for _, m := range constantPattern.FindAllStringSubmatch(selection, -1) {
		name := m[1]
		if !accept(name) {
			continue
		}
		add(Dependency{
			Name:  name,
			Kind:  KindConstant,
			Query: fmt.Sprintf("definition of constant %s", name),
		})
	}

	return deps
}

// accept filters names through the skip list and minimum length.
func accept(name string) bool {
	return len(name) >= minNameLength && !skipList[name]
}

// isConstantShaped reports whether a name looks like an all-caps constant.
func isConstantShaped(name string) bool {
	return len(name) >= 4 && name == strings.ToUpper(name)
}

// assignStrategy picks the resolution strategy for a name-addressed
// dependency: a direct read when the name is import-backed, a symbol-table
// lookup when a declaration matches, semantic search otherwise.
func (p *Planner) assignStrategy(dep *Dependency) {
	if path, ok := p.imports[dep.Name]; ok {
		dep.KnownPath = path
		dep.Strategy = StrategyReadFile
		return
	}
	if p.tableHas(dep.Name) {
		dep.Strategy = StrategySymbolLookup
		return
	}
	dep.Strategy = StrategySemanticSearch
}

// assignMethodStrategy is assignStrategy for method calls: the receiver
// type, not the call name, is what imports and the symbol table know about.
func (p *Planner) assignMethodStrategy(dep *Dependency, method string) {
	if dep.Receiver != "" {
		if path, ok := p.imports[dep.Receiver]; ok {
			dep.KnownPath = path
			dep.Strategy = StrategyReadFile
			return
		}
		if p.tableHas(dep.Receiver) {
			dep.Strategy = StrategySymbolLookup
			return
		}
	}
	if p.tableHas(method) {
		dep.Strategy = StrategySymbolLookup
		return
	}
	dep.Strategy = StrategySemanticSearch
}

func (p *Planner) tableHas(name string) bool {
	if p.table == nil {
		return false
	}
	decls, err := p.table.Lookup(name)
	return err == nil && len(decls) > 0
}

// resolveReceiverType scans the enclosing file for a declared type of the
// receiver variable. Best-effort: returns "" when no annotation matches.
func resolveReceiverType(receiver, fileText string) string {
	if fileText == "" {
		return ""
	}
	quoted := regexp.QuoteMeta(receiver)
	for _, tmpl := range receiverAnnotationTemplates {
		pattern, err := regexp.Compile(fmt.Sprintf(tmpl, quoted))
		if err != nil {
			continue
		}
		if m := pattern.FindStringSubmatch(fileText); m != nil {
			return m[1]
		}
	}
	return ""
}
