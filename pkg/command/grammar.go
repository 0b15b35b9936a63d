// Package command turns text lines into history engine operations and renders
// their results.
//
// One command per line:
//
//	DECLARE h     -> OK
//	REMOVE h      -> OK
//	VALID h       -> YES | NO
//	ENERGY h n    -> OK
//	ENERGY h      -> n   (ERROR when h has no energy)
//	EQUAL h1 h2   -> OK
//
// Tokens are separated by exactly one space. Failures print ERROR on the
// error stream.
package command

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"

	"github.com/dan-solli/qhistory/pkg/history"
)

// ErrSyntax is returned for lines that do not form a valid command.
var ErrSyntax = errors.New("syntax error")

// commandLine is the raw shape of a line before keyword-specific checks.
type commandLine struct {
	Keyword string   `parser:"@Keyword"`
	Args    []string `parser:"( Space @Digits )*"`
}

// Whitespace is a real token: doubled, leading or trailing spaces fail to parse.
var lineLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Keyword", Pattern: `[A-Z]+`},
	{Name: "Digits", Pattern: `[0-9]+`},
	{Name: "Space", Pattern: ` `},
})

var lineParser = participle.MustBuild[commandLine](
	participle.Lexer(lineLexer),
)

// Parse turns a single line (without its trailing newline) into a Command.
func Parse(line string) (Command, error) {
	raw, err := lineParser.ParseString("", line)
	if err != nil {
		return Command{}, errors.Wrap(ErrSyntax, err.Error())
	}

	cmd := Command{Args: raw.Args}
	switch raw.Keyword {
	case "DECLARE":
		cmd.Op = OpDeclare
	case "REMOVE":
		cmd.Op = OpRemove
	case "VALID":
		cmd.Op = OpValid
	case "ENERGY":
		cmd.Op = OpEnergyGet
		if len(raw.Args) == 2 {
			cmd.Op = OpEnergySet
		}
	case "EQUAL":
		cmd.Op = OpEqual
	default:
		return Command{}, errors.Wrapf(ErrSyntax, "unknown keyword %q", raw.Keyword)
	}

	if len(raw.Args) != cmd.Op.arity() {
		return Command{}, errors.Wrapf(ErrSyntax, "%s takes %d argument(s), got %d",
			raw.Keyword, cmd.Op.arity(), len(raw.Args))
	}

	if cmd.A, err = history.ParseHistory(raw.Args[0]); err != nil {
		return Command{}, errors.Wrapf(err, "argument %q", raw.Args[0])
	}

	switch cmd.Op {
	case OpEqual:
		if cmd.B, err = history.ParseHistory(raw.Args[1]); err != nil {
			return Command{}, errors.Wrapf(err, "argument %q", raw.Args[1])
		}
	case OpEnergySet:
		if cmd.Value, err = history.ParseEnergy(raw.Args[1]); err != nil {
			return Command{}, errors.Wrapf(err, "argument %q", raw.Args[1])
		}
	}

	return cmd, nil
}
