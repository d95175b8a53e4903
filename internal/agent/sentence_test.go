package agent

import "testing"

func TestSentence(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{
			name:     "single sentence passes through",
			text:     "今天深圳有雨，出门记得带伞。",
			expected: "今天深圳有雨，出门记得带伞。",
		},
		{
			name:     "cut after first terminator",
			text:     "建议带伞。今天降雨概率90%，湿度也很高。",
			expected: "建议带伞。",
		},
		{
			name:     "exclamation terminates",
			text:     "你好！很高兴见到你。",
			expected: "你好！",
		},
		{
			name:     "question mark terminates",
			text:     "要带伞吗？建议带上。",
			expected: "要带伞吗？",
		},
		{
			name:     "ascii sentence",
			text:     "Take an umbrella. It is going to rain.",
			expected: "Take an umbrella.",
		},
		{
			name:     "open sentence gets a cjk terminator",
			text:     "今天深圳有雨建议带伞",
			expected: "今天深圳有雨建议带伞。",
		},
		{
			name:     "open ascii sentence gets a period",
			text:     "Bring an umbrella",
			expected: "Bring an umbrella.",
		},
		{
			name:     "newlines collapse before cutting",
			text:     "建议\n带伞。\n另外注意防风。",
			expected: "建议 带伞。",
		},
		{
			name:     "decimal point is not a terminator",
			text:     "现在气温25.5度，建议带伞。",
			expected: "现在气温25.5度，建议带伞。",
		},
		{
			name:     "empty input",
			text:     "",
			expected: "",
		},
		{
			name:     "whitespace only",
			text:     "  \n\t ",
			expected: "",
		},
		{
			name:     "leading whitespace trimmed",
			text:     "  带伞。",
			expected: "带伞。",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sentence(tt.text); got != tt.expected {
				t.Errorf("Sentence(%q) = %q, want %q", tt.text, got, tt.expected)
			}
		})
	}
}
