package builtins

import (
	"fmt"
	"sort"
)

type Kind int

const (
	Function Kind = iota
	Constant
)

func (k Kind) String() string {
	switch k {
	case Function:
		return "function"
	case Constant:
		return "constant"
	default:
		panic(fmt.Sprintf("Kind.String(): received illegal builtin kind: %d", k))
	}
}

// Builtin is a name that is always bound in generated programs.
type Builtin struct {
	Name string
	Kind Kind
	// Python is the text emitted for a reference to the builtin.
	Python string
}

// Registry is an immutable set of builtins. The zero value is empty.
type Registry struct {
	byName map[string]Builtin
}

// NewRegistry builds a registry. It panics on duplicate names.
func NewRegistry(list ...Builtin) *Registry {
	r := &Registry{byName: make(map[string]Builtin, len(list))}
	for _, b := range list {
		if _, dup := r.byName[b.Name]; dup {
			panic(fmt.Sprintf("builtins: duplicate builtin %q", b.Name))
		}
		if b.Python == "" {
			b.Python = b.Name
		}
		r.byName[b.Name] = b
	}

	return r
}

func fn(name string) Builtin {
	return Builtin{Name: name, Kind: Function, Python: name}
}

// Default returns the standard Sona builtins: the runtime's functions plus
// the PI and E constants, which are emitted as literals.
func Default() *Registry {
	return NewRegistry(
		fn("print"),
		fn("len"),
		fn("str"),
		fn("int"),
		fn("float"),
		fn("bool"),
		fn("type"),
		fn("range"),
		Builtin{Name: "PI", Kind: Constant, Python: "3.141592653589793"},
		Builtin{Name: "E", Kind: Constant, Python: "2.718281828459045"},
	)
}

func (r *Registry) Lookup(name string) (Builtin, bool) {
	if r == nil {
		return Builtin{}, false
	}
	b, ok := r.byName[name]
	return b, ok
}

func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// With returns a new registry holding r's builtins plus extra.
func (r *Registry) With(extra ...Builtin) *Registry {
	list := make([]Builtin, 0, r.Len()+len(extra))
	for _, name := range r.Names() {
		list = append(list, r.byName[name])
	}

	return NewRegistry(append(list, extra...)...)
}

// Names returns the builtin names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.byName)
}
