package config

import (
	"os"
	"regexp"
)

// envRefPattern matches both `${{ env.NAME }}` and `${NAME}` process-env
// references (§4.9: "env (string-valued, expanded from process env via
// ${{ env.NAME }}/${NAME})").
var envRefPattern = regexp.MustCompile(`\$\{\{\s*env\.([A-Za-z_][A-Za-z0-9_]*)\s*\}\}|\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv substitutes every ${{ env.NAME }} / ${NAME} reference in s with
// the process environment's value for NAME (empty string if unset).
func expandEnv(s string) string {
	return envRefPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := envRefPattern.FindStringSubmatch(match)
		name := groups[1]
		if name == "" {
			name = groups[2]
		}
		return os.Getenv(name)
	})
}

// expandEnvMap returns a new map with every value of m expanded; m itself
// is left unchanged.
func expandEnvMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = expandEnv(v)
	}
	return out
}
