package infrastructure

import "strings"

// shellSpecials are the characters that force quoting. The escaped form is
// only ever printed into conversion logs; exec.Command never sees it.
const shellSpecials = " \t'\"$`\\!*?[](){}|;<>&~#%\n\r"

// ShellEscape renders s so the logged command line can be pasted back into
// a shell. Plain strings pass through untouched; anything else is
// single-quoted, with embedded single quotes spliced as '"'"'.
func ShellEscape(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, shellSpecials) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// ShellEscapeCommand renders a full command line for the conversion log
func ShellEscapeCommand(binary string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, ShellEscape(binary))
	for _, arg := range args {
		parts = append(parts, ShellEscape(arg))
	}
	return strings.Join(parts, " ")
}

func isShellSpecialChar(c rune) bool {
	return strings.ContainsRune(shellSpecials, c)
}
