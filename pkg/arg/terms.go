package arg

import (
	"fmt"
	"strings"
)

func HandleTerms(args []string) (string, error) {
	terms := strings.TrimSpace(strings.Join(args, " "))
	if terms == "" {
		return "", fmt.Errorf(
			"error: No search terms given. Try again",
		)
	}
	return terms, nil
}
