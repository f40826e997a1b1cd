// Package dialect defines the per-dialect grammar tables consulted by the
// lexer, parser and emitter.
//
// A Dialect is pure data: identifier quoting, keyword and function synonyms,
// row-limit spelling, and the set of supported features. Dialects are
// registered once at init time and the registry is never mutated afterwards,
// so translations running in parallel share them without locking.
package dialect

import (
	"fmt"
	"sort"
	"strings"
)

// Feature identifies a capability that not all dialects support.
type Feature int

const (
	FeatureRecursiveCTE Feature = iota
	FeatureMergeStatement
	FeatureLateralJoin
	FeatureFullOuterJoin
	FeatureWindowFunctions
	FeatureWindowFrameRange
	FeatureIntersectExcept
	FeatureBooleanLiterals
	FeatureReturningClause
	FeatureDollarQuoting
	FeatureLimitPercent
	FeatureLimitWithTies
	FeatureStringAgg

	featureCount
)

var featureNames = map[Feature]string{
	FeatureRecursiveCTE:     "RECURSIVE_CTE",
	FeatureMergeStatement:   "MERGE_STATEMENT",
	FeatureLateralJoin:      "LATERAL_JOIN",
	FeatureFullOuterJoin:    "FULL_OUTER_JOIN",
	FeatureWindowFunctions:  "WINDOW_FUNCTIONS",
	FeatureWindowFrameRange: "WINDOW_FRAME_RANGE",
	FeatureIntersectExcept:  "INTERSECT_EXCEPT",
	FeatureBooleanLiterals:  "BOOLEAN_LITERALS",
	FeatureReturningClause:  "RETURNING_CLAUSE",
	FeatureDollarQuoting:    "DOLLAR_QUOTING",
	FeatureLimitPercent:     "LIMIT_PERCENT",
	FeatureLimitWithTies:    "LIMIT_WITH_TIES",
	FeatureStringAgg:        "STRING_AGG",
}

func (f Feature) String() string {
	if name, ok := featureNames[f]; ok {
		return name
	}
	return fmt.Sprintf("FEATURE(%d)", int(f))
}

// ParseFeature parses a feature name as it appears in config files.
func ParseFeature(s string) (Feature, error) {
	want := strings.ToUpper(strings.TrimSpace(s))
	for f, name := range featureNames {
		if name == want {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown feature: %s", s)
}

// Features returns all defined feature tags in declaration order.
func Features() []Feature {
	fs := make([]Feature, 0, featureCount)
	for f := Feature(0); f < featureCount; f++ {
		fs = append(fs, f)
	}
	return fs
}

// RowLimitStyle selects how a dialect spells row limiting.
type RowLimitStyle int

const (
	RowLimitLimit RowLimitStyle = iota // LIMIT n OFFSET m
	RowLimitFetch                      // OFFSET m ROWS FETCH FIRST n ROWS ONLY
	RowLimitTop                        // SELECT TOP n ...
)

// PlaceholderStyle selects how parameter placeholders are rendered.
type PlaceholderStyle int

const (
	PlaceholderQuestion PlaceholderStyle = iota // ?
	PlaceholderDollar                           // $1, $2, ...
	PlaceholderColon                            // :1, :2, ...
)

// ConcatStyle selects how string concatenation is rendered.
type ConcatStyle int

const (
	ConcatPipes ConcatStyle = iota // a || b
	ConcatPlus                     // a + b
	ConcatFunc                     // CONCAT(a, b)
)

// QuotePair is a pair of identifier quoting delimiters, e.g. [ and ].
type QuotePair struct {
	Open  byte
	Close byte
}

// Dialect is a named SQL variant. All fields are read-only after Register.
type Dialect struct {
	Name    string
	Aliases []string

	// Lexical rules. The lexer consults only these fields; keyword
	// spelling differences are handled by the parser and emitter.
	IdentQuotes         []QuotePair // accepted delimiters; first is used for emission
	DoubleQuotedStrings bool        // "..." is a string literal, not an identifier
	DollarQuoting       bool        // $$...$$ opaque bodies
	HashComments        bool        // # starts a line comment

	// Surface grammar.
	RowLimit         RowLimitStyle
	Placeholder      PlaceholderStyle
	ConcatStyle      ConcatStyle
	RecursiveKeyword bool // WITH RECURSIVE spelling is used for recursive CTEs

	// StringAggFunc is the dialect's aggregate string concatenation
	// function. The canonical AST spells it LISTAGG.
	StringAggFunc string

	// Feature availability.
	Features map[Feature]bool

	// Functions maps canonical function names to this dialect's spelling.
	// Canonical names absent from the map emit unchanged.
	Functions map[string]string

	// Synonyms maps additional dialect spellings to canonical names,
	// beyond the reverse of Functions (e.g. both ISNULL and NVL fold
	// into COALESCE).
	Synonyms map[string]string

	// NiladicFunctions maps canonical function names to keywords emitted
	// without a parameter list (e.g. NOW -> CURRENT_TIMESTAMP on Oracle).
	NiladicFunctions map[string]string

	// canonical is the derived spelling -> canonical lookup, built once
	// when the dialect is registered or cloned.
	canonical map[string]string
}

// Supports reports whether the dialect supports a feature.
func (d *Dialect) Supports(f Feature) bool {
	return d.Features[f]
}

// FunctionSpelling returns the dialect spelling for a canonical function
// name, or the canonical name itself when the dialect has no override.
func (d *Dialect) FunctionSpelling(canonical string) string {
	if s, ok := d.Functions[canonical]; ok {
		return s
	}
	return canonical
}

// NiladicSpelling returns the keyword rendered without parentheses for a
// canonical function, if the dialect has one.
func (d *Dialect) NiladicSpelling(canonical string) (string, bool) {
	s, ok := d.NiladicFunctions[canonical]
	return s, ok
}

// CanonicalFunction folds a dialect function spelling into its canonical
// name. Unknown spellings are returned upper-cased and otherwise unchanged.
func (d *Dialect) CanonicalFunction(spelling string) string {
	up := strings.ToUpper(spelling)
	if c, ok := d.canonical[up]; ok {
		return c
	}
	return up
}

// IdentQuote returns the closing delimiter when b opens a quoted
// identifier in this dialect.
func (d *Dialect) IdentQuote(b byte) (QuotePair, bool) {
	for _, q := range d.IdentQuotes {
		if q.Open == b {
			return q, true
		}
	}
	return QuotePair{}, false
}

// Clone returns a deep copy suitable for applying configuration overrides.
// The registered dialect is never mutated.
func (d *Dialect) Clone() *Dialect {
	c := *d
	c.IdentQuotes = append([]QuotePair(nil), d.IdentQuotes...)
	c.Aliases = append([]string(nil), d.Aliases...)
	c.Features = make(map[Feature]bool, len(d.Features))
	for k, v := range d.Features {
		c.Features[k] = v
	}
	c.Functions = make(map[string]string, len(d.Functions))
	for k, v := range d.Functions {
		c.Functions[k] = v
	}
	c.Synonyms = make(map[string]string, len(d.Synonyms))
	for k, v := range d.Synonyms {
		c.Synonyms[k] = v
	}
	c.NiladicFunctions = make(map[string]string, len(d.NiladicFunctions))
	for k, v := range d.NiladicFunctions {
		c.NiladicFunctions[k] = v
	}
	c.Freeze()
	return &c
}

// Freeze rebuilds the derived spelling -> canonical table. Register calls
// this; it must be called again after mutating a clone's Functions or
// Synonyms maps.
func (d *Dialect) Freeze() {
	d.canonical = make(map[string]string, len(d.Functions)+len(d.Synonyms)+1)
	for canon, spelling := range d.Functions {
		d.canonical[strings.ToUpper(spelling)] = strings.ToUpper(canon)
	}
	for spelling, canon := range d.Synonyms {
		d.canonical[strings.ToUpper(spelling)] = strings.ToUpper(canon)
	}
	if d.StringAggFunc != "" {
		d.canonical[strings.ToUpper(d.StringAggFunc)] = "LISTAGG"
	}
}

// Registry of built-in dialects. Written only from init functions.

var registry = make(map[string]*Dialect)

// Register adds a dialect to the registry. It panics on duplicate names;
// it is intended to be called from init functions only.
func Register(d *Dialect) {
	d.Freeze()
	names := append([]string{d.Name}, d.Aliases...)
	for _, n := range names {
		key := strings.ToLower(n)
		if _, dup := registry[key]; dup {
			panic("dialect: duplicate registration of " + key)
		}
		registry[key] = d
	}
}

// Lookup returns the dialect registered under name (or an alias).
func Lookup(name string) (*Dialect, error) {
	if d, ok := registry[strings.ToLower(strings.TrimSpace(name))]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("unknown dialect: %s", name)
}

// Names returns the primary names of all registered dialects, sorted.
func Names() []string {
	seen := make(map[string]bool)
	var names []string
	for _, d := range registry {
		if !seen[d.Name] {
			seen[d.Name] = true
			names = append(names, d.Name)
		}
	}
	sort.Strings(names)
	return names
}
