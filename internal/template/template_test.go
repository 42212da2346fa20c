package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	vars := map[string]string{
		"client_name":      "Sam",
		"service_name":     "Haircut",
		"appointment_date": "5/1/2025",
	}

	got := Render("Hi {client_name}, your {service_name} is on {appointment_date}.", vars)
	assert.Equal(t, "Hi Sam, your Haircut is on 5/1/2025.", got)
}

func TestRenderUnknownPlaceholderLeftVerbatim(t *testing.T) {
	got := Render("Hello {unused}, welcome {client_name}!", map[string]string{
		"client_name": "Sam",
	})
	assert.Equal(t, "Hello {unused}, welcome Sam!", got)
}

func TestRenderNoRecursiveSubstitution(t *testing.T) {
	// A value containing a placeholder token must come through literally.
	vars := map[string]string{
		"client_name":  "{service_name}",
		"service_name": "Haircut",
	}
	got := Render("Hi {client_name}", vars)
	assert.Equal(t, "Hi {service_name}", got)
}

func TestRenderEdgeCases(t *testing.T) {
	vars := map[string]string{"a": "x"}

	assert.Equal(t, "", Render("", vars))
	assert.Equal(t, "no placeholders", Render("no placeholders", vars))
	assert.Equal(t, "x x", Render("{a} {a}", vars))
	assert.Equal(t, "unterminated {a", Render("unterminated {a", vars))
	assert.Equal(t, "{} stays", Render("{} stays", vars))
	assert.Equal(t, "x{b}x", Render("{a}{b}{a}", vars))
}
