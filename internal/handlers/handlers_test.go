package handlers

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/lifeskills-engine/pkg/content"
)

func builtinCatalog(t *testing.T) *content.Catalog {
	t.Helper()
	c, err := content.Builtin()
	require.NoError(t, err)
	return c
}
