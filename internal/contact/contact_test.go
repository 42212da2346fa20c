package contact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "sam@example.com", NormalizeEmail("  Sam@Example.COM "))
	assert.Equal(t, "", NormalizeEmail("   "))
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "5551234567", NormalizePhone("+1 (555) 123-4567"))
	assert.Equal(t, "5551234567", NormalizePhone("5551234567"))
	assert.Equal(t, "5551234567", NormalizePhone("15551234567"))
	assert.Equal(t, "12345", NormalizePhone("1-23-45"))
	assert.Equal(t, "", NormalizePhone("ext."))
}

func TestSharedContactCollapses(t *testing.T) {
	// Two accounts entered the same number differently.
	assert.Equal(t, NormalizePhone("(555) 123-4567"), NormalizePhone("+1 555.123.4567"))
}
