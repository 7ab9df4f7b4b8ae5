package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLanguageName(t *testing.T) {
	assert.Equal(t, "English", LanguageName("en"))
	assert.Equal(t, "Spanish", LanguageName("es"))

	// Unknown codes fall back to the code itself.
	assert.Equal(t, "xx", LanguageName("xx"))
}

func TestKnownLanguage(t *testing.T) {
	assert.True(t, KnownLanguage("fr"))
	assert.False(t, KnownLanguage("xx"))
}

func TestLanguagesSortedByCode(t *testing.T) {
	langs := Languages()
	assert.NotEmpty(t, langs)
	for i := 1; i < len(langs); i++ {
		assert.Less(t, langs[i-1].Code, langs[i].Code)
	}
}
