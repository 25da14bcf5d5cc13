package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEntityName(t *testing.T) {
	assert.NoError(t, ValidateEntityName("название", "Лендинг для ООО Ромашка"))
	assert.Error(t, ValidateEntityName("название", ""))
	assert.Error(t, ValidateEntityName("название", "   "))
	assert.Error(t, ValidateEntityName("название", strings.Repeat("а", MaxNameLength+1)))
}

func TestValidateLength_CountsRunes(t *testing.T) {
	// Кириллица: 5 рун, но 10 байт.
	assert.NoError(t, ValidateLength("поле", "этапы", 1, 5))
	assert.Error(t, ValidateLength("поле", "этапы", 6, 0))
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("manager@example.com"))
	assert.NoError(t, ValidateEmail("  Manager@Example.Com  "))
	assert.Error(t, ValidateEmail(""))
	assert.Error(t, ValidateEmail("не почта"))
	assert.Error(t, ValidateEmail("manager@"))
}

func TestValidateHexColor(t *testing.T) {
	assert.NoError(t, ValidateHexColor("fg_color", "#fff"))
	assert.NoError(t, ValidateHexColor("fg_color", "#1A2b3C"))
	assert.Error(t, ValidateHexColor("fg_color", "fff"))
	assert.Error(t, ValidateHexColor("fg_color", "#12345"))
	assert.Error(t, ValidateHexColor("fg_color", "red"))
}

func TestValidateSequence(t *testing.T) {
	assert.NoError(t, ValidateSequence(1))
	assert.Error(t, ValidateSequence(0))
	assert.Error(t, ValidateSequence(-3))
}
