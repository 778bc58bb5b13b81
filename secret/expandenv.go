package secret

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

var bracedVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandEnvStrict expands environment variables in s and fails when a
// braced reference names a variable that is not set.
//
//   - `${VAR}` and `$VAR` expand to the variable's value.
//   - A `${VAR}` whose variable is unset is an error; credentials
//     must not silently collapse to the empty string.
//   - `$$` escapes a literal dollar sign.
func ExpandEnvStrict(s string) (string, error) {
	const literalDollar = "\x00literal-dollar\x00"
	s = strings.ReplaceAll(s, "$$", literalDollar)

	var missing []string
	seen := make(map[string]bool)
	for _, match := range bracedVarPattern.FindAllStringSubmatch(s, -1) {
		name := match[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		if _, ok := os.LookupEnv(name); !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return "", fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	s = os.ExpandEnv(s)
	return strings.ReplaceAll(s, literalDollar, "$"), nil
}
