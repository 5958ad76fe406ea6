package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-patrol-api/internal/models"
	"github.com/noah-isme/sma-patrol-api/pkg/sheet"
)

func TestAccountRepositoryCreateAndList(t *testing.T) {
	store := sheet.NewMemoryStore()
	repo := NewAccountRepository(store, "accounts")
	ctx := context.Background()

	accounts, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, accounts)

	require.NoError(t, repo.EnsureTable(ctx))
	require.NoError(t, repo.Create(ctx, models.Account{Account: "t01", Password: "pw", RoleRaw: "導師", Name: "林老師", Scope: "ClassA"}))
	require.NoError(t, store.AppendRows(ctx, "accounts", [][]string{{"", "pw", "導師"}}))

	accounts, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "ClassA", accounts[0].Scope)
	assert.Equal(t, "pw", accounts[0].Password)
}
