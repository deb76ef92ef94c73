package git

import (
	"os"
	"path/filepath"
	"strings"
)

// ReadRemoteURL reads .git/config under dir without spawning git. A missing
// config file means "no remote" and yields "".
func ReadRemoteURL(dir, hostPrefix string) string {
	data, err := os.ReadFile(filepath.Join(dir, ".git", "config"))
	if err != nil {
		return ""
	}
	return ParseRemoteURL(strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n"), hostPrefix)
}

// ParseRemoteURL finds the first [remote ...] section in the lines of a git
// config file and returns its url when it starts with hostPrefix.
func ParseRemoteURL(lines []string, hostPrefix string) string {
	for i, line := range lines {
		if !strings.HasPrefix(strings.TrimSpace(line), "[remote") {
			continue
		}
		for _, next := range lines[i+1:] {
			next = strings.TrimSpace(next)
			if strings.HasPrefix(next, "[") {
				return ""
			}
			key, value, ok := strings.Cut(next, "=")
			if !ok || strings.TrimSpace(key) != "url" {
				continue
			}
			url := strings.TrimSpace(value)
			if hostPrefix != "" && strings.HasPrefix(url, hostPrefix) {
				return url
			}
			return ""
		}
		return ""
	}
	return ""
}
