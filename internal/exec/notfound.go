package exec

import "regexp"

// commandNotFoundPatterns match the "command not found" wording of common
// shells. They only count together with exit code 127.
var commandNotFoundPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)bash: (\S+): command not found`),
	regexp.MustCompile(`(?i)zsh: command not found: (\S+)`),
	regexp.MustCompile(`(?i)sh: \d+: (\S+): not found`),
	regexp.MustCompile(`(?i)-bash: (\S+): No such file or directory`),
	regexp.MustCompile(`(?i)(\S+): not found`),
	regexp.MustCompile(`(?i)(\S+): command not found`),
}

// IsCommandNotFound reports whether a remote shell failed to find the
// executable, returning its name when stderr reveals it.
func IsCommandNotFound(stderr string, exitCode int) (string, bool) {
	if exitCode != 127 {
		return "", false
	}
	for _, pattern := range commandNotFoundPatterns {
		if m := pattern.FindStringSubmatch(stderr); len(m) > 1 {
			return m[1], true
		}
	}
	return "", true
}
