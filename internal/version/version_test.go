// ABOUTME: Tests for version constants
// ABOUTME: Ensures version information is properly defined
package version

import (
	"strings"
	"testing"
)

func TestIdentityDefined(t *testing.T) {
	fields := map[string]string{
		"Version":      Version,
		"Product":      Product,
		"Manufacturer": Manufacturer,
	}

	placeholders := []string{"TODO", "FIXME", "XXX", "placeholder"}

	for name, value := range fields {
		if value == "" {
			t.Errorf("%s should not be empty", name)
		}
		if len(value) > 100 {
			t.Errorf("%s is unreasonably long", name)
		}
		for _, p := range placeholders {
			if value == p {
				t.Errorf("%s should not be placeholder value: %s", name, p)
			}
		}
	}
}

func TestString(t *testing.T) {
	s := String()
	if !strings.HasPrefix(s, Product+" ") {
		t.Errorf("expected banner to start with product name, got %q", s)
	}
	if !strings.Contains(s, Version) {
		t.Errorf("expected banner to contain version, got %q", s)
	}
}
