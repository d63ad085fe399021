package utils

import (
	"fmt"
	"strings"

	"coverage-route-server/graph"
	"coverage-route-server/models"
)

func ParseTogglePolicy(input string) (graph.TogglePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "", "no_toggle", "none":
		return graph.NoToggle, nil
	case "keep_largest", "largest":
		return graph.KeepLargest, nil
	case "keep_from_node", "from_node":
		return graph.KeepFromNode, nil
	case "keep_all", "all":
		return graph.KeepAll, nil
	default:
		return graph.NoToggle, fmt.Errorf("unknown toggle policy %q", input)
	}
}

func ParseStoreDriver(input string) models.StoreDriver {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "sqlite", "sqlite3":
		return models.SQLiteDriver
	case "postgres", "postgresql", "pg":
		return models.PostgresDriver
	default:
		return models.FileDriver
	}
}

// ComponentName names the n-th component of a split graph
func ComponentName(base string, n int) string {
	return fmt.Sprintf("%s-%d", base, n)
}
