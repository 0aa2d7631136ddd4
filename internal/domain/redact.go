package domain

import "strings"

const MaskedValue = "********"

// IsSensitiveCommand reports whether command feeds a credential-looking debconf answer.
func IsSensitiveCommand(command string) bool {
	if !strings.Contains(command, "debconf-set-selections") {
		return false
	}
	lc := strings.ToLower(command)
	return strings.Contains(lc, "password") ||
		strings.Contains(lc, "secret") ||
		strings.Contains(lc, "token")
}

// RedactCommand returns command with its debconf answer masked when it is sensitive.
func RedactCommand(command string) string {
	if IsSensitiveCommand(command) {
		return "echo " + MaskedValue + " | debconf-set-selections"
	}
	return command
}
