// Package shell implements the line parser, FD table, builtins, and
// pipe/redirection executor described in spec.md §4.8, transliterated
// from the reference tree's shell/parser.c, shell/parser_redir.c,
// shell/fd_table.c, shell/builtins_basic.c, shell/builtins_fs.c, and
// shell/exec_pipeline.c.
package shell

import (
	"strings"

	"github.com/alecthomas/participle"
	"github.com/alecthomas/participle/lexer"
	"github.com/alecthomas/participle/lexer/ebnf"

	"tinykernel/internal/kconfig"
	"tinykernel/internal/kerr"
)

// RedirMode names the optional trailing redirection on a parsed line.
type RedirMode int

const (
	RedirNone RedirMode = iota
	RedirTrunc
	RedirAppend
)

// SimpleCommand is one bare word sequence: a command name plus arguments.
type SimpleCommand struct {
	Argv []string
}

// ParseResult is the full grammar result: `simple (| simple)? (> WORD | >> WORD)?`.
type ParseResult struct {
	Left      SimpleCommand
	Right     SimpleCommand
	HasPipe   bool
	RedirMode RedirMode
	RedirPath string
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t'
}

// ParseLine tokenizes line into whitespace-separated words, ignoring any
// `|`/`>` special characters (the plain tokenizer parser.c implements,
// used by terminal-session-style callers that don't need redirection).
func ParseLine(line string) []string {
	var argv []string
	i := 0
	for i < len(line) {
		for i < len(line) && isSpace(line[i]) {
			i++
		}
		if i >= len(line) {
			break
		}
		if len(argv) >= kconfig.ShellArgvCap {
			break
		}
		start := i
		for i < len(line) && !isSpace(line[i]) {
			i++
		}
		argv = append(argv, line[start:i])
	}
	return argv
}

// lexerDef and commandParser implement the same `simple (| simple)?
// (> WORD | >> WORD)?` grammar parser_redir.c's hand-rolled tokenizer
// used to express, built the way actions/parse.go builds its own command
// lexer/parser: an EBNF lexer definition compiled once in init() and fed
// to a participle.Parser over a struct grammar, instead of a
// byte-at-a-time state machine with manual pending-token lookahead.
var lexerDef lexer.Definition
var commandParser *participle.Parser

func init() {
	lexerDef = lexer.Must(ebnf.New(`
    Quoted = "\"" { "\u0000"…"\uffff" -"\"" -"\\" | "\\" any } "\"" .
    RedirAppend = ">" ">" .
    RedirTrunc = ">" .
    Pipe = "|" .
    Whitespace = " " | "\t" .
    Word = word { word } .

    any = "\u0000"…"\uffff" .
    word = "\u0021"…"\uffff" -"|" -">" -"\"" .
`))

	commandParser = participle.MustBuild(
		&commandGrammar{},
		participle.Lexer(lexerDef),
		participle.Unquote("Quoted"),
		participle.Elide("Whitespace"),
	)
}

// simpleWords is one bare word sequence as participle sees it: zero or
// more Word/Quoted tokens.
type simpleWords struct {
	Argv []string `(@Word | @Quoted)*`
}

// pipeClause is the optional `| simple` tail of the grammar.
type pipeClause struct {
	Right simpleWords `"|" @@`
}

// redirClause is the optional `(> WORD | >> WORD)` tail of the grammar.
// Mode captures whichever literal matched, so the caller can tell a
// truncate from an append apart without a second field.
type redirClause struct {
	Mode string `@(">>" | ">")`
	Path string `@Word | @Quoted`
}

// commandGrammar is the full line grammar participle parses into.
type commandGrammar struct {
	Left  simpleWords  `@@`
	Pipe  *pipeClause  `(@@)?`
	Redir *redirClause `(@@)?`
}

// ParseWithRedirection parses line into the full grammar, failing with
// kerr.ErrParse on a pipe with an empty side, a missing redirection path,
// multiple redirections, an empty line, or an argv past
// kconfig.ShellArgvCap.
func ParseWithRedirection(line string) (ParseResult, error) {
	var out ParseResult

	g := &commandGrammar{}
	if err := commandParser.ParseString(line, g); err != nil {
		return out, kerr.ErrParse
	}

	out.Left.Argv = g.Left.Argv
	if len(out.Left.Argv) == 0 || len(out.Left.Argv) > kconfig.ShellArgvCap {
		return out, kerr.ErrParse
	}

	if g.Pipe != nil {
		out.HasPipe = true
		out.Right.Argv = g.Pipe.Right.Argv
		if len(out.Right.Argv) == 0 || len(out.Right.Argv) > kconfig.ShellArgvCap {
			return out, kerr.ErrParse
		}
	}

	if g.Redir != nil {
		if g.Redir.Mode == ">>" {
			out.RedirMode = RedirAppend
		} else {
			out.RedirMode = RedirTrunc
		}
		out.RedirPath = g.Redir.Path
	}

	return out, nil
}

// fallbackText rebuilds the original argv as a single space-joined
// string, used for the unknown-command echo fallback.
func fallbackText(argv []string) string {
	return strings.Join(argv, " ")
}
