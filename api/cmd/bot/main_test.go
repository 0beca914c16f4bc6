package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeDSNSummary(t *testing.T) {
	assert.Equal(t, "host=db port=5432 db=vibeshift user=app",
		safeDSNSummary("postgres://app:secret@db:5432/vibeshift?sslmode=disable"))
	assert.Equal(t, "host=db db=vibeshift user=",
		safeDSNSummary("postgres://db/vibeshift"))
	assert.NotContains(t, safeDSNSummary("postgres://app:secret@db:5432/x"), "secret")
}
