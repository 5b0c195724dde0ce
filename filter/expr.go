package filter

import (
	"fmt"
	"maps"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/samber/lo"

	"github.com/s0up4200/tracescene/tracemoe"
)

const defaultCacheSize = 100

// exprFilter implements CompiledFilter using the expr language
type exprFilter struct {
	expression  string
	program     *vm.Program
	customFuncs map[string]any
}

// ExprCompilerOption configures an expr compiler
type ExprCompilerOption func(*exprCompiler)

// WithCache enables filter caching with the specified size. A size of 0 disables it.
func WithCache(size int) ExprCompilerOption {
	return func(c *exprCompiler) {
		if size > 0 {
			c.cache = newLRUCache[string, CompiledFilter](size)
		} else {
			c.cache = nil
		}
	}
}

// WithCustomFunctions adds custom helper functions
func WithCustomFunctions(funcs map[string]any) ExprCompilerOption {
	return func(c *exprCompiler) {
		maps.Copy(c.customFuncs, funcs)
	}
}

// NewExprCompiler creates a new expr-based filter compiler
func NewExprCompiler(opts ...ExprCompilerOption) CachingCompiler {
	c := &exprCompiler{
		customFuncs: make(map[string]any),
		cache:       newLRUCache[string, CompiledFilter](defaultCacheSize),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// exprCompiler implements Compiler for expr-based filters
type exprCompiler struct {
	customFuncs map[string]any
	cache       *lruCache[string, CompiledFilter]
}

// Compile compiles an expression into an executable filter
func (c *exprCompiler) Compile(expression string) (CompiledFilter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
		}
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(expression); ok {
			return cached, nil
		}
	}

	// The zero result gives the checker every variable and helper with its type.
	program, err := expr.Compile(expression,
		expr.Env(createEnvironment(tracemoe.SearchResult{}, c.customFuncs)),
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	filter := &exprFilter{
		expression:  expression,
		program:     program,
		customFuncs: c.customFuncs,
	}

	if c.cache != nil {
		c.cache.Put(expression, filter)
	}

	return filter, nil
}

// Clear removes all cached filters
func (c *exprCompiler) Clear() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// Size returns the number of cached filters
func (c *exprCompiler) Size() int {
	if c.cache != nil {
		return c.cache.Size()
	}
	return 0
}

// Evaluate evaluates the filter against a result. Results that fail to
// evaluate do not match.
func (f *exprFilter) Evaluate(result tracemoe.SearchResult) bool {
	matched, err := f.Match(result)
	return err == nil && matched
}

// Match evaluates the filter against a result
func (f *exprFilter) Match(result tracemoe.SearchResult) (bool, error) {
	out, err := expr.Run(f.program, createEnvironment(result, f.customFuncs))
	if err != nil {
		return false, &EvaluationError{
			Expression: f.expression,
			Filename:   result.Filename,
			Reason:     "failed to run expression",
			Err:        err,
		}
	}

	matched, ok := out.(bool)
	if !ok {
		return false, &EvaluationError{
			Expression: f.expression,
			Filename:   result.Filename,
			Reason:     fmt.Sprintf("expected bool result, got %T", out),
		}
	}
	return matched, nil
}

// Expression returns the original expression
func (f *exprFilter) Expression() string {
	return f.expression
}

// addHelperFunctions adds the result independent helpers. contains, startsWith and
// endsWith are expr operators, so the case-insensitive variants use other names.
func addHelperFunctions(env map[string]any) {
	env["containsFold"] = func(str, substr string) bool {
		return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
	}
	env["hasPrefix"] = func(str, prefix string) bool {
		return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
	}
	env["hasSuffix"] = func(str, suffix string) bool {
		return strings.HasSuffix(strings.ToLower(str), strings.ToLower(suffix))
	}
	env["lower"] = strings.ToLower
	env["upper"] = strings.ToUpper
}

// createEnvironment creates the environment a filter is compiled and run against
func createEnvironment(result tracemoe.SearchResult, customFuncs map[string]any) map[string]any {
	env := make(map[string]any, 32)

	addHelperFunctions(env)
	maps.Copy(env, customFuncs)

	info := result.AnilistInfo
	title := info.Title.OrEmpty()
	synonyms := info.Synonyms.OrElse([]string{})

	episode := ""
	if ep, ok := result.Episode.Get(); ok {
		episode = ep.String()
	}

	env["episodeIs"] = createEpisodeIsFunc(result.Episode.OrEmpty(), result.Episode.IsPresent())
	env["hasSynonym"] = createHasSynonymFunc(synonyms)
	env["titleMatches"] = createTitleMatchesFunc(title, synonyms)

	env["Similarity"] = result.SimilarityPercentage
	env["Filename"] = result.Filename
	env["Episode"] = episode
	env["HasEpisode"] = result.Episode.IsPresent()
	env["From"] = result.FromTimestamp
	env["To"] = result.ToTimestamp
	env["AnilistID"] = info.ID
	env["MalID"] = info.MalID.OrEmpty()
	env["Title"] = title.RomajiTitle
	env["EnglishTitle"] = title.EnglishTitle.OrEmpty()
	env["NativeTitle"] = title.NativeTitle.OrEmpty()
	env["Synonyms"] = synonyms
	env["IsAdult"] = info.IsNSFWAnime.OrEmpty()

	return env
}

func createEpisodeIsFunc(episode tracemoe.Episode, present bool) func(float64) bool {
	return func(n float64) bool {
		return present && episode.Contains(n)
	}
}

func createHasSynonymFunc(synonyms []string) func(string) bool {
	return func(name string) bool {
		return lo.ContainsBy(synonyms, func(s string) bool {
			return strings.EqualFold(s, name)
		})
	}
}

func createTitleMatchesFunc(title tracemoe.AnilistTitle, synonyms []string) func(string) bool {
	candidates := lo.Compact(append([]string{
		title.RomajiTitle,
		title.EnglishTitle.OrEmpty(),
		title.NativeTitle.OrEmpty(),
	}, synonyms...))
	lowered := lo.Map(candidates, func(s string, _ int) string {
		return strings.ToLower(s)
	})

	return func(query string) bool {
		query = strings.ToLower(query)
		return lo.SomeBy(lowered, func(s string) bool {
			return strings.Contains(s, query)
		})
	}
}
