package generator

import "testing"

func TestUnmarshalCompletion(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		title   string
	}{
		{
			name:  "bare object",
			raw:   `{"title":"Roof Repair in Austin"}`,
			title: "Roof Repair in Austin",
		},
		{
			name:  "wrapped in prose",
			raw:   "Sure, here is the content:\n{\"title\":\"Deck Builds\"}\nLet me know!",
			title: "Deck Builds",
		},
		{
			name:  "markdown fenced",
			raw:   "```json\n{\"title\":\"Kitchen Remodel\"}\n```",
			title: "Kitchen Remodel",
		},
		{
			name:    "no object",
			raw:     "I could not generate anything.",
			wantErr: true,
		},
		{
			name:    "malformed object",
			raw:     `{"title": }`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var content GeneratedContent
			err := unmarshalCompletion(tt.raw, &content)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unmarshalCompletion error: %v", err)
			}
			if content.Title != tt.title {
				t.Fatalf("Title = %q, want %q", content.Title, tt.title)
			}
		})
	}
}
