package question

import (
	"fmt"
	"strings"
)

var boolWords = map[string]bool{
	"true": true, "1": true, "sim": true, "yes": true, "s": true, "y": true, "verdadeiro": true,
	"false": false, "0": false, "não": false, "nao": false, "no": false, "n": false, "falso": false,
}

// ParseBool reads a yes/no cell in English or Portuguese, case-insensitively.
func ParseBool(raw string) (bool, error) {
	v, ok := boolWords[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return false, fmt.Errorf("invalid boolean %q; use true/false, sim/não, yes/no, 1/0", raw)
	}
	return v, nil
}
