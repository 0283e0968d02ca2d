package db

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/portfolio-generator/internal/types"
)

func TestSourceConversions(t *testing.T) {
	sources := []types.FactSource{types.SourceGitHub, types.SourceResume}
	assert.Equal(t, []string{"github", "resume"}, sourceStrings(sources))
	assert.Equal(t, sources, factSources([]string{"github", "resume"}))
	assert.Empty(t, sourceStrings(nil))
}

func TestNonNil(t *testing.T) {
	assert.NotNil(t, nonNil(nil))
	assert.Equal(t, []string{"a"}, nonNil([]string{"a"}))
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationFiles.ReadDir("migrations")
	assert.NoError(t, err)
	assert.NotEmpty(t, entries)
}

func TestDeref(t *testing.T) {
	s := "x"
	assert.Equal(t, "x", deref(&s))
	assert.Equal(t, "", deref(nil))
}
