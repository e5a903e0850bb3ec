package block

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	// --- Arrange ---
	text := "Title\n<%* let x = 5 %>Value: <% x %>\n"

	// --- Act ---
	blocks, err := Extract(text)

	// --- Assert ---
	require.NoError(t, err)
	want := []TemplateBlock{
		{
			ID: 0, MatchText: "<%* let x = 5 %>", Command: "let x = 5", IsExecution: true,
			OriginalStart: 6, OriginalEnd: 22, Line: 2, Column: 1, CommandLine: 2, CommandColumn: 5,
		},
		{
			ID: 1, MatchText: "<% x %>", Command: "x",
			OriginalStart: 29, OriginalEnd: 36, Line: 2, Column: 24, CommandLine: 2, CommandColumn: 27,
		},
	}
	if diff := cmp.Diff(want, blocks); diff != "" {
		t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_TrimMarkers(t *testing.T) {
	tests := []struct {
		tag       string
		left      Trim
		right     Trim
		execution bool
		command   string
	}{
		{"<% a %>", TrimNone, TrimNone, false, "a"},
		{"<%- a -%>", TrimNewline, TrimNewline, false, "a"},
		{"<%_ a _%>", TrimWhitespace, TrimWhitespace, false, "a"},
		{"<%* a -%>", TrimNone, TrimNewline, true, "a"},
		{"<%-* a _%>", TrimNewline, TrimWhitespace, true, "a"},
		{"<%_* tR += 'x' %>", TrimWhitespace, TrimNone, true, "tR += 'x'"},
	}
	for _, tc := range tests {
		t.Run(tc.tag, func(t *testing.T) {
			blocks, err := Extract(tc.tag)
			require.NoError(t, err)
			require.Len(t, blocks, 1)
			b := blocks[0]
			assert.Equal(t, tc.left, b.LeftTrim)
			assert.Equal(t, tc.right, b.RightTrim)
			assert.Equal(t, tc.execution, b.IsExecution)
			assert.Equal(t, tc.command, b.Command)
		})
	}
}

func TestExtract_CloseTagInsideString(t *testing.T) {
	blocks, err := Extract(`<%* tR += "50%> done" %>after`)

	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, `tR += "50%> done"`, blocks[0].Command)
}

func TestExtract_Comments(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		commands []string
	}{
		{
			name:     "apostrophe in a line comment",
			text:     "<%*\n// it's done\ntR += 'x'\n%>A<% y %>",
			commands: []string{"// it's done\ntR += 'x'", "y"},
		},
		{
			name:     "backtick in a line comment",
			text:     "<%* // it`s fine\nlet a = 1 %>B<% a %>",
			commands: []string{"// it`s fine\nlet a = 1", "a"},
		},
		{
			name:     "close tag ends a trailing comment",
			text:     "<%* let b = 2 // two %>C<% b %>",
			commands: []string{"let b = 2 // two", "b"},
		},
		{
			name:     "quote in a block comment",
			text:     "<%* /* don't */ let c = 3 %>D<% c %>",
			commands: []string{"/* don't */ let c = 3", "c"},
		},
		{
			name:     "slashes inside a string",
			text:     `<% "http://x" %>E<% z %>`,
			commands: []string{`"http://x"`, "z"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// --- Act ---
			blocks, err := Extract(tc.text)

			// --- Assert ---
			require.NoError(t, err)
			var got []string
			for _, b := range blocks {
				got = append(got, b.Command)
			}
			if diff := cmp.Diff(tc.commands, got); diff != "" {
				t.Errorf("commands mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtract_Errors(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		line   int
		column int
	}{
		{"unclosed", "ok\n  <% x", 2, 3},
		{"nested", "<% a <% b %>", 1, 6},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Extract(tc.text)

			var se *SyntaxError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tc.line, se.Line)
			assert.Equal(t, tc.column, se.Column)
		})
	}
}

func TestExtract_NoBlocks(t *testing.T) {
	blocks, err := Extract("plain markdown, 100% text")

	require.NoError(t, err)
	assert.Empty(t, blocks)
}

func TestLayout(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "no trimming",
			text: "a\n<% x %>\nb",
			want: []string{"a\n", "\nb"},
		},
		{
			name: "newline trim strips one newline",
			text: "a\n\n<%- x -%>\n\nb",
			want: []string{"a\n", "\nb"},
		},
		{
			name: "whitespace trim strips all",
			text: "a \n\t<%_ x _%> \n b",
			want: []string{"a", "b"},
		},
		{
			name: "crlf",
			text: "a\r\n<%* x -%>\r\nb",
			want: []string{"a\r\n", "b"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			blocks, err := Extract(tc.text)
			require.NoError(t, err)

			assert.Equal(t, tc.want, Layout(tc.text, blocks))
		})
	}
}

func TestAssemble(t *testing.T) {
	text := "Sum: <% s %>!"
	blocks, err := Extract(text)
	require.NoError(t, err)

	out := Assemble(Layout(text, blocks), []string{"15"})

	assert.Equal(t, "Sum: 15!", out)
}

func TestLocate(t *testing.T) {
	blocks, err := Extract("intro\n<%*\n  let a = 1;\n  oops %>")
	require.NoError(t, err)
	b := blocks[0]

	line, col := b.Locate(2, 3)

	assert.Equal(t, 3, b.CommandLine)
	assert.Equal(t, 3, b.CommandColumn)
	assert.Equal(t, 4, line)
	assert.Equal(t, 3, col)
}
