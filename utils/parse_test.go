package utils

import (
	"testing"

	"coverage-route-server/graph"
	"coverage-route-server/models"
)

func TestParseTogglePolicy(t *testing.T) {
	tests := []struct {
		input   string
		want    graph.TogglePolicy
		wantErr bool
	}{
		{"", graph.NoToggle, false},
		{"keep_largest", graph.KeepLargest, false},
		{" KEEP_FROM_NODE ", graph.KeepFromNode, false},
		{"keep_all", graph.KeepAll, false},
		{"sometimes", graph.NoToggle, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTogglePolicy(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTogglePolicy(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseStoreDriver(t *testing.T) {
	tests := map[string]models.StoreDriver{
		"sqlite":   models.SQLiteDriver,
		"Postgres": models.PostgresDriver,
		"file":     models.FileDriver,
		"":         models.FileDriver,
	}
	for input, want := range tests {
		if got := ParseStoreDriver(input); got != want {
			t.Errorf("ParseStoreDriver(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestComponentName(t *testing.T) {
	if got := ComponentName("north", 2); got != "north-2" {
		t.Errorf("got %q, want %q", got, "north-2")
	}
}
