package filter

import (
	"github.com/samber/lo"

	"github.com/s0up4200/tracescene/tracemoe"
)

// Apply returns the results matched by f, keeping their order.
// A nil filter matches everything.
func Apply(f Filter, results []tracemoe.SearchResult) []tracemoe.SearchResult {
	if f == nil {
		return results
	}
	return lo.Filter(results, func(result tracemoe.SearchResult, _ int) bool {
		return f.Evaluate(result)
	})
}

// CompileFilter compiles an expression with a one-off, uncached compiler
func CompileFilter(expression string) (CompiledFilter, error) {
	return NewExprCompiler(WithCache(0)).Compile(expression)
}
