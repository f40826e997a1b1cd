// Package translate is the pipeline tying the pieces together: split,
// parse, check, emit. It is the API the command line tool and the watch
// mode sit on.
package translate

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/transqlate/transqlate/pkg/compat"
	"github.com/transqlate/transqlate/pkg/dialect"
	"github.com/transqlate/transqlate/pkg/directive"
	"github.com/transqlate/transqlate/pkg/emit"
	"github.com/transqlate/transqlate/pkg/errors"
	"github.com/transqlate/transqlate/pkg/lexer"
	"github.com/transqlate/transqlate/pkg/log"
	"github.com/transqlate/transqlate/pkg/parser"
)

// DefaultWorkers is the batch parallelism used when Options.Workers is 0.
const DefaultWorkers = 4

// Options configures a Translator.
type Options struct {
	Source *dialect.Dialect
	Target *dialect.Dialect
	Policy emit.Policy

	// Workers bounds batch parallelism. Zero selects DefaultWorkers.
	Workers int

	// Logger receives per-statement diagnostics. Nil selects the default.
	Logger *log.Logger
}

// Result is the outcome for one statement. Exactly one of Output and Err
// is meaningful; a skipped statement carries its input as Output.
type Result struct {
	Index    int
	Input    string
	Output   string
	Skipped  bool
	Warnings []parser.Warning
	Features []dialect.Feature
	Err      error
}

// Summary aggregates a batch run.
type Summary struct {
	Total      int
	Translated int
	Skipped    int
	Failed     int
	Elapsed    time.Duration
}

// Translator translates statements between two fixed dialects. It is safe
// for concurrent use; emitters are created per call.
type Translator struct {
	opts Options
	log  *log.Logger
}

// New validates opts and returns a Translator.
func New(opts Options) (*Translator, error) {
	if opts.Source == nil || opts.Target == nil {
		return nil, errors.New(errors.ErrCodeConfigValidation, "source and target dialects are required").Err()
	}
	if opts.Workers < 0 {
		return nil, errors.Newf(errors.ErrCodeConfigValidation, "workers must not be negative: %d", opts.Workers).Err()
	}
	if opts.Workers == 0 {
		opts.Workers = DefaultWorkers
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Translator{opts: opts, log: logger}, nil
}

// Statement translates a single statement's text, honoring any leading
// directive comments. The error, if any, is also recorded in the Result so
// batch callers can keep going.
func (t *Translator) Statement(input string) Result {
	res := Result{Input: input}

	dirs, body := directive.Extract(input)
	if dirs.Skip() {
		res.Skipped = true
		res.Output = body
		t.log.Translate().Debug("statement skipped by directive")
		return res
	}
	policy := t.opts.Policy
	if override := dirs.Policy(); override != "" {
		p, err := emit.ParsePolicy(override)
		if err != nil {
			res.Err = err
			return res
		}
		policy = p
	}

	stmt, warnings, err := parser.Parse(body, t.opts.Source)
	if err != nil {
		res.Err = wrapParseError(err)
		t.log.Translate().Error("parse failed", res.Err)
		return res
	}
	res.Warnings = warnings
	res.Features = compat.RequiredFeatures(stmt)

	out, err := emit.New(t.opts.Target, policy).Emit(stmt)
	if err != nil {
		res.Err = err
		t.log.Translate().Error("emit failed", err)
		return res
	}
	res.Output = out
	t.log.Translate().Debug("statement translated",
		"source", t.opts.Source.Name,
		"target", t.opts.Target.Name,
		"features", len(res.Features))
	return res
}

// Batch splits input into statements and translates them concurrently.
// Results come back in input order; per-statement failures are recorded in
// their Result and do not stop the batch. The returned error is non-nil
// only for input-level failures and context cancellation.
func (t *Translator) Batch(ctx context.Context, input string) ([]Result, Summary, error) {
	start := time.Now()

	stmts, err := lexer.SplitStatements(input, t.opts.Source)
	if err != nil {
		return nil, Summary{}, wrapParseError(err)
	}
	results := make([]Result, len(stmts))

	jobs := make(chan int)
	var wg sync.WaitGroup
	workers := t.opts.Workers
	if workers > len(stmts) {
		workers = len(stmts)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = t.Statement(stmts[i])
				results[i].Index = i
			}
		}()
	}

	cancelled := false
dispatch:
	for i := range stmts {
		select {
		case <-ctx.Done():
			cancelled = true
			break dispatch
		default:
		}
		select {
		case jobs <- i:
		case <-ctx.Done():
			cancelled = true
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	sum := Summary{Total: len(stmts), Elapsed: time.Since(start)}
	for i := range results {
		results[i].Index = i
		switch {
		case results[i].Skipped:
			sum.Skipped++
		case results[i].Err != nil:
			sum.Failed++
		case results[i].Output != "":
			sum.Translated++
		}
	}
	t.log.Performance().Debug("batch finished",
		"statements", sum.Total,
		"failed", sum.Failed,
		"elapsed_ms", sum.Elapsed.Milliseconds())

	if cancelled {
		return results, sum, errors.Wrap(ctx.Err(), errors.ErrCodeTranslateCancelled, "batch cancelled").Err()
	}
	return results, sum, nil
}

// wrapParseError maps lexer and parser failures onto their error codes.
func wrapParseError(err error) error {
	var lerr *lexer.Error
	if errors.As(err, &lerr) {
		code := errors.ErrCodeLexIllegalToken
		switch {
		case strings.Contains(lerr.Reason, "unterminated string"):
			code = errors.ErrCodeLexUnterminatedString
		case strings.Contains(lerr.Reason, "unterminated block comment"):
			code = errors.ErrCodeLexUnterminatedComment
		case strings.Contains(lerr.Reason, "unterminated dollar"):
			code = errors.ErrCodeLexUnterminatedBody
		}
		return errors.Wrap(err, code, "lexical error").
			WithField("line", lerr.Pos.Line).
			WithField("column", lerr.Pos.Column).
			Err()
	}
	var perr *parser.Error
	if errors.As(err, &perr) {
		code := errors.ErrCodeParseUnexpectedToken
		switch perr.Kind {
		case parser.KindInvalidClause:
			code = errors.ErrCodeParseInvalidClause
		case parser.KindUnsupportedStatement:
			code = errors.ErrCodeParseUnsupportedStatement
		case parser.KindBadLiteral:
			code = errors.ErrCodeParseBadLiteral
		}
		return errors.Wrap(err, code, "syntax error").
			WithField("line", perr.Pos.Line).
			WithField("column", perr.Pos.Column).
			Err()
	}
	return errors.Wrap(err, errors.ErrCodeTranslateFailed, "translation failed").Err()
}
