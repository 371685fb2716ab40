package parser

import (
	"fmt"

	"github.com/nanoc-lang/nanoc/internal/token"
)

// ParseError is raised by the parser on a missing token, an unexpected
// token, or an identifier that exceeds the 32-byte name limit. It
// always carries the location of the offending token, per spec §7.
// Message is a literal, substring-stable string (e.g. "expected ';'
// after return value") so downstream tooling can match on it.
type ParseError struct {
	Message  string
	Location token.Position
}

func (e ParseError) Error() string {
	return fmt.Sprintf("Parse error [%s]: %s", e.Location, e.Message)
}

// errExpectedAfter builds "expected '<lexeme>' after <context>" at at.
func errExpectedAfter(lexeme, context string, at token.Token) ParseError {
	return ParseError{
		Message:  fmt.Sprintf("expected '%s' after %s", lexeme, context),
		Location: at.Location,
	}
}

// errExpected builds "expected '<lexeme>'" at at.
func errExpected(lexeme string, at token.Token) ParseError {
	return ParseError{
		Message:  fmt.Sprintf("expected '%s'", lexeme),
		Location: at.Location,
	}
}

// errExpectedExpression builds the literal "expected expression" message.
func errExpectedExpression(at token.Token) ParseError {
	return ParseError{
		Message:  "expected expression",
		Location: at.Location,
	}
}

// errIdentifierTooLong flags a name longer than the 32-byte limit.
func errIdentifierTooLong(name string, at token.Token) ParseError {
	return ParseError{
		Message:  fmt.Sprintf("identifier %q exceeds 32 bytes", name),
		Location: at.Location,
	}
}
