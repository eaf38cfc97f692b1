package validator

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidator_FirstErrorWins(t *testing.T) {
	v := New()
	assert.True(t, v.Valid())

	v.Check(false, "name", "must be provided")
	v.Check(false, "name", "must be short")
	v.Check(true, "page", "never recorded")

	assert.False(t, v.Valid())
	assert.Equal(t, map[string]string{"name": "must be provided"}, v.Errors)
}

func TestIn(t *testing.T) {
	assert.True(t, In("b", "a", "b", "c"))
	assert.False(t, In("d", "a", "b", "c"))
	assert.True(t, In(3, 1, 2, 3))
	assert.False(t, In("x"))
}

func TestMatches(t *testing.T) {
	rx := regexp.MustCompile(`^\d+[ab]?$`)
	assert.True(t, Matches("5a", rx))
	assert.False(t, Matches("zone5", rx))
}
