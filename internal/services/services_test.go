package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTemplateContext_Paths(t *testing.T) {
	tests := []struct {
		name       string
		tc         TemplateContext
		wantTitle  string
		wantFolder string
	}{
		{
			name:       "nested note",
			tc:         TemplateContext{FileName: "Daily.md", FilePath: "notes/2024/Daily.md"},
			wantTitle:  "Daily",
			wantFolder: "notes/2024",
		},
		{
			name:       "root note",
			tc:         TemplateContext{FileName: "README.md", FilePath: "README.md"},
			wantTitle:  "README",
			wantFolder: "",
		},
		{
			name:      "dotted title",
			tc:        TemplateContext{FileName: "v1.2 notes.md"},
			wantTitle: "v1.2 notes",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.wantTitle, tc.tc.Title())
			assert.Equal(t, tc.wantFolder, tc.tc.Folder())
		})
	}
}

func TestTemplateContext_ClockIsStable(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	tc := TemplateContext{Now: fixed}

	clock := tc.Clock()

	assert.Equal(t, fixed, clock())
	assert.Equal(t, clock(), clock())

	unset := (&TemplateContext{}).Clock()
	first := unset()
	time.Sleep(time.Millisecond)
	assert.Equal(t, first, unset())
}
