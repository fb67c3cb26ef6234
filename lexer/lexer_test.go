package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lykia-rs/lykiadb/token"
)

func types(t *testing.T, input string) []token.Type {
	t.Helper()
	items, err := Scan(input)
	require.NoError(t, err)
	out := make([]token.Type, 0, len(items))
	for _, item := range items {
		out = append(out, item.Type)
	}
	return out
}

func TestScanSymbols(t *testing.T) {
	tests := []struct {
		input    string
		expected []token.Type
	}{
		{"", []token.Type{token.Eof}},
		{"( )", []token.Type{token.LeftParen, token.RightParen, token.Eof}},
		{"{};,.", []token.Type{token.LeftBrace, token.RightBrace, token.Semicolon, token.Comma, token.Dot, token.Eof}},
		{"+-*/", []token.Type{token.Plus, token.Minus, token.Star, token.Slash, token.Eof}},
		{"[ ]", []token.Type{token.LeftBracket, token.RightBracket, token.Eof}},
		{"! != = == < <= > >=", []token.Type{
			token.Bang, token.BangEqual, token.Equal, token.EqualEqual,
			token.Less, token.LessEqual, token.Greater, token.GreaterEqual, token.Eof,
		}},
		{"&& || :: :", []token.Type{token.LogicalAnd, token.LogicalOr, token.DoubleColon, token.Colon, token.Eof}},
	}
	for _, test := range tests {
		require.Equal(t, test.expected, types(t, test.input), "input: %q", test.input)
	}
}

func TestScanNumbers(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"0", 0},
		{"123", 123},
		{"123.456", 123.456},
		{"1e2", 100},
		{"1E2", 100},
		{"1e-2", 0.01},
		{"2.5e+3", 2500},
	}
	for _, test := range tests {
		items, err := Scan(test.input)
		require.NoError(t, err, "input: %q", test.input)
		require.Len(t, items, 2)
		require.Equal(t, token.Num, items[0].Type)
		require.Equal(t, test.expected, items[0].NumVal, "input: %q", test.input)
	}
}

func TestScanMalformedNumbers(t *testing.T) {
	for _, input := range []string{"1e", "1e+", "1.2e-"} {
		_, err := Scan(input)
		require.True(t, ErrMalformedNumberLiteral.Is(err), "input: %q", input)
	}
}

func TestScanStrings(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`"hello"`, "hello"},
		{`'hello'`, "hello"},
		{"`hello`", "hello"},
		{`"it's"`, "it's"},
		{`""`, ""},
	}
	for _, test := range tests {
		items, err := Scan(test.input)
		require.NoError(t, err, "input: %q", test.input)
		require.Equal(t, token.Str, items[0].Type)
		require.Equal(t, test.expected, items[0].Text, "input: %q", test.input)
	}
}

func TestScanUnterminatedString(t *testing.T) {
	_, err := Scan(`"hello`)
	require.True(t, ErrUnterminatedString.Is(err))
}

func TestScanUnexpectedCharacter(t *testing.T) {
	for _, input := range []string{"^", "~", "#", "&", "|"} {
		_, err := Scan(input)
		require.True(t, ErrUnexpectedCharacter.Is(err), "input: %q", input)
	}
}

func TestScanKeywords(t *testing.T) {
	items, err := Scan("var if else function while for loop break continue return true false undefined")
	require.NoError(t, err)
	expected := []token.Type{
		token.Var, token.If, token.Else, token.Fun, token.While, token.For,
		token.Loop, token.Break, token.Continue, token.Return,
		token.True, token.False, token.Undefined, token.Eof,
	}
	require.Len(t, items, len(expected))
	for i, item := range items {
		require.Equal(t, expected[i], item.Type)
	}
}

func TestGeneralKeywordsAreCaseSensitive(t *testing.T) {
	items, err := Scan("Var VAR vAr")
	require.NoError(t, err)
	for _, item := range items[:3] {
		require.Equal(t, token.Identifier, item.Type, "lexeme: %q", item.Lexeme)
	}
}

func TestSQLKeywordsAreCaseInsensitive(t *testing.T) {
	for _, input := range []string{"SELECT", "select", "Select", "sElEcT"} {
		items, err := Scan(input)
		require.NoError(t, err)
		require.Equal(t, token.Select, items[0].Type, "input: %q", input)
	}
}

func TestScanIdentifiers(t *testing.T) {
	items, err := Scan("users $total _x a1")
	require.NoError(t, err)
	require.Equal(t, token.Identifier, items[0].Type)
	require.False(t, items[0].Dollar)
	require.Equal(t, "users", items[0].Text)
	require.Equal(t, token.Identifier, items[1].Type)
	require.True(t, items[1].Dollar)
	require.Equal(t, "$total", items[1].Text)
	require.Equal(t, "_x", items[2].Text)
	require.Equal(t, "a1", items[3].Text)
}

func TestEscapedIdentifier(t *testing.T) {
	// a backslash forces identifier classification even for keywords
	items, err := Scan(`\for`)
	require.NoError(t, err)
	require.Equal(t, token.Identifier, items[0].Type)
	require.Equal(t, "for", items[0].Text)
	require.Equal(t, `\for`, items[0].Lexeme)

	// the escape strip only applies to a leading backslash; a '$'-prefixed
	// name keeps its backslash in the literal text
	items, err = Scan(`$\for`)
	require.NoError(t, err)
	require.Equal(t, token.Identifier, items[0].Type)
	require.Equal(t, `$\for`, items[0].Text)
	require.True(t, items[0].Dollar)
}

func TestEmbeddedBackslashIsPreserved(t *testing.T) {
	items, err := Scan(`a\b`)
	require.NoError(t, err)
	require.Equal(t, token.Identifier, items[0].Type)
	require.Equal(t, `a\b`, items[0].Text)
	require.Equal(t, `a\b`, items[0].Lexeme)

	// only the leading escape backslash is dropped
	items, err = Scan(`\a\b`)
	require.NoError(t, err)
	require.Equal(t, `a\b`, items[0].Text)
}

func TestDotCoercesIdentifier(t *testing.T) {
	// after '.', a keyword scans as a plain identifier
	items, err := Scan("users.select")
	require.NoError(t, err)
	require.Equal(t, token.Identifier, items[0].Type)
	require.Equal(t, token.Dot, items[1].Type)
	require.Equal(t, token.Identifier, items[2].Type)
	require.Equal(t, "select", items[2].Text)
}

func TestLineComments(t *testing.T) {
	items, err := Scan("1 // comment\n2")
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.Equal(t, token.Num, items[0].Type)
	require.Equal(t, token.Num, items[1].Type)
	require.Equal(t, 1, items[1].Span.Line)
}

func TestSpans(t *testing.T) {
	items, err := Scan(`var $x = "ab";`)
	require.NoError(t, err)
	require.Equal(t, token.Span{Start: 0, End: 3}, items[0].Span)
	require.Equal(t, token.Span{Start: 4, End: 6}, items[1].Span)
	require.Equal(t, token.Span{Start: 7, End: 8}, items[2].Span)
	// a string's span includes its quotes
	require.Equal(t, token.Span{Start: 9, End: 13}, items[3].Span)
	require.Equal(t, token.Span{Start: 13, End: 14}, items[4].Span)
}

func TestEofSpan(t *testing.T) {
	items, err := Scan("")
	require.NoError(t, err)
	require.Equal(t, token.Eof, items[0].Type)
	require.Equal(t, 0, items[0].Span.Start)

	items, err = Scan("ab")
	require.NoError(t, err)
	require.Equal(t, 3, items[1].Span.Start)
}

func TestMixedStatement(t *testing.T) {
	require.Equal(t, []token.Type{
		token.Select, token.Star, token.From, token.Identifier,
		token.Where, token.Identifier, token.Equal, token.Num,
		token.Semicolon, token.Eof,
	}, types(t, "SELECT * from users where id = 1;"))
}

func FuzzScan(f *testing.F) {
	f.Add("var $x = 1;")
	f.Add("SELECT * FROM users WHERE age BETWEEN 18 AND 30;")
	f.Add(`"unterminated`)
	f.Add("1e")
	f.Add(`$\for`)
	f.Fuzz(func(t *testing.T, input string) {
		items, err := Scan(input)
		if err != nil {
			return
		}
		if len(items) == 0 {
			t.Fatal("scan returned no tokens")
		}
		if items[len(items)-1].Type != token.Eof {
			t.Fatal("token stream does not end in EOF")
		}
	})
}
