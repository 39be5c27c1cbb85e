package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	up, err := Render("1_init.up.sql", MigrateData{InitialBalance: 12})
	require.NoError(t, err)
	assert.Contains(t, up, "`amount`     BIGINT      NOT NULL DEFAULT 12,")
	assert.NotContains(t, up, "{{")

	down, err := Render("1_init.down.sql", MigrateData{})
	require.NoError(t, err)
	assert.Contains(t, down, "DROP TABLE")

	_, err = Render("9_missing.up.sql", MigrateData{})
	assert.Error(t, err)
}
