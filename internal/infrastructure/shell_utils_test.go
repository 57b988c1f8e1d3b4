package infrastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShellEscape(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple path",
			input:    "/tmp/simple/path.mp4",
			expected: "/tmp/simple/path.mp4",
		},
		{
			name:     "path with spaces",
			input:    "/tmp/My Videos/clip.mp4",
			expected: "'/tmp/My Videos/clip.mp4'",
		},
		{
			name:     "path with single quote",
			input:    "/tmp/it's a test.jpg",
			expected: `'/tmp/it'"'"'s a test.jpg'`,
		},
		{
			name:     "path with dollar sign",
			input:    "/tmp/$HOME-lookalike.png",
			expected: "'/tmp/$HOME-lookalike.png'",
		},
		{
			name:     "path with parentheses",
			input:    "/tmp/photo (1).webp",
			expected: "'/tmp/photo (1).webp'",
		},
		{
			name:     "path with ampersand",
			input:    "/tmp/tom&jerry.gif",
			expected: "'/tmp/tom&jerry.gif'",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "''",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ShellEscape(tt.input))
		})
	}
}

func TestShellEscapeCommand(t *testing.T) {
	tests := []struct {
		name     string
		binary   string
		args     []string
		expected string
	}{
		{
			name:     "simple command",
			binary:   "ffmpeg",
			args:     []string{"-y", "-i", "/tmp/in.mp4", "/tmp/out.webm"},
			expected: "ffmpeg -y -i /tmp/in.mp4 /tmp/out.webm",
		},
		{
			name:     "input with spaces",
			binary:   "magick",
			args:     []string{"/tmp/My Photo.jpg", "/tmp/work/My Photo.webp"},
			expected: "magick '/tmp/My Photo.jpg' '/tmp/work/My Photo.webp'",
		},
		{
			name:     "binary path with space",
			binary:   "/opt/my tools/soffice",
			args:     []string{"--headless", "--convert-to", "pdf"},
			expected: "'/opt/my tools/soffice' --headless --convert-to pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ShellEscapeCommand(tt.binary, tt.args...))
		})
	}
}

func TestIsShellSpecialChar(t *testing.T) {
	specialChars := " \t'\"$`\\!*?[](){}|;<>&~#%\n\r"
	for _, c := range specialChars {
		assert.True(t, isShellSpecialChar(c), "Expected '%c' to be a special char", c)
	}

	normalChars := "abcABC123_-./:@=+"
	for _, c := range normalChars {
		assert.False(t, isShellSpecialChar(c), "Expected '%c' to NOT be a special char", c)
	}
}
