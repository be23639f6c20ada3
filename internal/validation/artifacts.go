package validation

import (
	"context"
	"fmt"

	"github.com/lex00/calc-api-go/internal/artifact"
)

// CheckArtifacts reports the locations that do not exist in store. Errors
// from the store other than "not found" abort the check.
func CheckArtifacts(ctx context.Context, store artifact.Store, locations []string) ([]string, error) {
	var missing []string
	seen := make(map[string]bool)

	for _, location := range locations {
		if location == "" || seen[location] {
			continue
		}
		seen[location] = true

		ok, err := store.Exists(ctx, location)
		if err != nil {
			return nil, fmt.Errorf("checking %s: %w", location, err)
		}
		if !ok {
			missing = append(missing, location)
		}
	}
	return missing, nil
}
