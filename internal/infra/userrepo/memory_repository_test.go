package userrepo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/doctor-faq/internal/domain/faq"
)

func TestMemoryRepository_FindByIDs(t *testing.T) {
	repo := NewMemoryRepository(faq.User{ID: "u1", Name: "Asha"})
	repo.Upsert(faq.User{ID: "u2", Name: "Ben"})

	users, err := repo.FindByIDs(context.Background(), []string{"u2", "ghost", "u1"})
	require.NoError(t, err)
	require.Equal(t, []faq.User{{ID: "u2", Name: "Ben"}, {ID: "u1", Name: "Asha"}}, users)
}
