package decision

import (
	"strconv"
	"strings"

	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

// Condition grammar accepted by the validator and emitted by the compiler:
//
//	condition  = term { "and" term }
//	term       = comparator number | "in" "(" literal { "," literal } ")"
//	comparator = "<" | "<=" | ">" | ">=" | "=" | "!="
//	literal    = quoted string | number
//
// Every term is a unary test against the document's single input
// expression; the input itself never appears in the condition text.

// Token codes
const (
	whitespaceCode = iota
	comparatorCode
	numberCode
	stringCode
	inCode
	andCode
	openParenCode
	closeParenCode
	commaCode
)

// Token definitions
var (
	whitespaceToken = parsly.NewToken(whitespaceCode, "Whitespace", matcher.NewWhiteSpace())
	comparatorToken = parsly.NewToken(comparatorCode, "Comparator", &comparatorMatcher{})
	numberToken     = parsly.NewToken(numberCode, "Number", &numberMatcher{})
	stringToken     = parsly.NewToken(stringCode, "String", &stringMatcher{})
	inToken         = parsly.NewToken(inCode, "in", &keywordMatcher{word: "in"})
	andToken        = parsly.NewToken(andCode, "and", &keywordMatcher{word: "and"})
	openParenToken  = parsly.NewToken(openParenCode, "(", matcher.NewByte('('))
	closeParenToken = parsly.NewToken(closeParenCode, ")", matcher.NewByte(')'))
	commaToken      = parsly.NewToken(commaCode, ",", matcher.NewByte(','))
)

// comparatorMatcher matches <, <=, >, >=, = and !=.
type comparatorMatcher struct{}

func (m *comparatorMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize

	if pos >= size {
		return 0
	}
	switch input[pos] {
	case '<', '>':
		if pos+1 < size && input[pos+1] == '=' {
			return 2
		}
		return 1
	case '=':
		return 1
	case '!':
		if pos+1 < size && input[pos+1] == '=' {
			return 2
		}
		return 0
	}
	return 0
}

// numberMatcher matches an optionally signed decimal number.
type numberMatcher struct{}

func (m *numberMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize

	if pos >= size {
		return 0
	}

	matched := 0
	if input[pos] == '-' {
		matched = 1
	}

	digits := 0
	for i := pos + matched; i < size && isDigit(input[i]); i++ {
		digits++
	}
	if digits == 0 {
		return 0
	}
	matched += digits

	// optional fraction
	if pos+matched < size && input[pos+matched] == '.' {
		fraction := 0
		for i := pos + matched + 1; i < size && isDigit(input[i]); i++ {
			fraction++
		}
		if fraction == 0 {
			return 0
		}
		matched += 1 + fraction
	}
	return matched
}

// stringMatcher matches a double-quoted literal with backslash escapes.
type stringMatcher struct{}

func (m *stringMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize

	if pos >= size || input[pos] != '"' {
		return 0
	}
	for i := pos + 1; i < size; i++ {
		switch input[i] {
		case '\\':
			i++
		case '"':
			return i - pos + 1
		}
	}
	return 0
}

// keywordMatcher matches a lowercase keyword at a word boundary.
type keywordMatcher struct {
	word string
}

func (m *keywordMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize

	n := len(m.word)
	if pos+n > size {
		return 0
	}
	for i := 0; i < n; i++ {
		if input[pos+i] != m.word[i] {
			return 0
		}
	}
	// must not continue as an identifier
	if pos+n < size && isIdentChar(input[pos+n]) {
		return 0
	}
	return n
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || isDigit(c) || c == '_'
}

// ── AST ───────────────────────────────────────────────────────────────────────

// Term is one parsed unary test.
type Term interface {
	// Canonical returns a whitespace-normalized rendering used for
	// duplicate detection under the UNIQUE hit policy.
	Canonical() string
}

// Comparison is a "comparator number" term.
type Comparison struct {
	Operator string
	Value    float64
}

// Canonical implements Term.
func (c Comparison) Canonical() string {
	return c.Operator + " " + strconv.FormatFloat(c.Value, 'f', -1, 64)
}

// Membership is an "in(...)" term.
type Membership struct {
	Values []string
}

// Canonical implements Term.
func (m Membership) Canonical() string {
	quoted := make([]string, 0, len(m.Values))
	for _, v := range m.Values {
		quoted = append(quoted, quoteLiteral(v))
	}
	return "in(" + strings.Join(quoted, ", ") + ")"
}

// Expression is a conjunction of one or more terms.
type Expression struct {
	Terms []Term
}

// Canonical returns the normalized rendering of the whole condition.
func (e Expression) Canonical() string {
	parts := make([]string, 0, len(e.Terms))
	for _, t := range e.Terms {
		parts = append(parts, t.Canonical())
	}
	return strings.Join(parts, " and ")
}

// ── Parser ────────────────────────────────────────────────────────────────────

// ParseCondition parses a non-default row condition. It returns a syntax
// error for anything outside the grammar, including trailing input.
func ParseCondition(text string) (*Expression, error) {
	cursor := parsly.NewCursor("", []byte(text), 0)
	expr := &Expression{}

	for {
		term, err := parseTerm(cursor)
		if err != nil {
			return nil, err
		}
		expr.Terms = append(expr.Terms, term)

		matched := cursor.MatchAfterOptional(whitespaceToken, andToken)
		if matched.Code != andToken.Code {
			break
		}
	}

	// reject trailing input
	cursor.MatchOne(whitespaceToken)
	if cursor.Pos < cursor.InputSize {
		return nil, cursor.NewError(andToken)
	}
	return expr, nil
}

func parseTerm(cursor *parsly.Cursor) (Term, error) {
	matched := cursor.MatchAfterOptional(whitespaceToken, comparatorToken, inToken)
	switch matched.Code {
	case comparatorToken.Code:
		operator := matched.Text(cursor)
		matched = cursor.MatchAfterOptional(whitespaceToken, numberToken)
		if matched.Code != numberToken.Code {
			return nil, cursor.NewError(numberToken)
		}
		value, err := strconv.ParseFloat(matched.Text(cursor), 64)
		if err != nil {
			return nil, err
		}
		return Comparison{Operator: operator, Value: value}, nil

	case inToken.Code:
		return parseMembership(cursor)

	default:
		return nil, cursor.NewError(comparatorToken, inToken)
	}
}

func parseMembership(cursor *parsly.Cursor) (Term, error) {
	matched := cursor.MatchAfterOptional(whitespaceToken, openParenToken)
	if matched.Code != openParenToken.Code {
		return nil, cursor.NewError(openParenToken)
	}

	var values []string
	for {
		matched = cursor.MatchAfterOptional(whitespaceToken, stringToken, numberToken)
		switch matched.Code {
		case stringToken.Code:
			value, err := unquoteLiteral(matched.Text(cursor))
			if err != nil {
				return nil, err
			}
			values = append(values, value)
		case numberToken.Code:
			values = append(values, matched.Text(cursor))
		default:
			return nil, cursor.NewError(stringToken, numberToken)
		}

		matched = cursor.MatchAfterOptional(whitespaceToken, commaToken, closeParenToken)
		switch matched.Code {
		case commaToken.Code:
			continue
		case closeParenToken.Code:
			return Membership{Values: values}, nil
		default:
			return nil, cursor.NewError(commaToken, closeParenToken)
		}
	}
}

func unquoteLiteral(quoted string) (string, error) {
	body := quoted[1 : len(quoted)-1]
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && i+1 < len(body) {
			i++
		}
		b.WriteByte(body[i])
	}
	return b.String(), nil
}
