package launch

import (
	"path/filepath"
	"regexp"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`%([A-Za-z0-9_]+)%`)

// ExpandPlaceholders replaces %NAME% tokens in value with paths[NAME]. Names
// match case-insensitively. Unknown tokens are left as they are.
func ExpandPlaceholders(value string, paths map[string]string) string {
	if len(paths) == 0 || !strings.Contains(value, "%") {
		return value
	}
	lookup := make(map[string]string, len(paths))
	for name, path := range paths {
		lookup[strings.ToUpper(strings.Trim(name, "%"))] = path
	}
	return placeholderPattern.ReplaceAllStringFunc(value, func(token string) string {
		name := strings.ToUpper(strings.Trim(token, "%"))
		if path, ok := lookup[name]; ok {
			return filepath.FromSlash(path)
		}
		return token
	})
}

// Unresolved returns the placeholder tokens left in value.
func Unresolved(value string) []string {
	return placeholderPattern.FindAllString(value, -1)
}
