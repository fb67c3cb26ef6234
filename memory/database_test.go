package memory

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lykia-rs/lykiadb/value"
)

func TestInsertAndCollection(t *testing.T) {
	db := New()
	require.Empty(t, db.Collection("", "users"))

	db.Seed("", "users",
		map[string]value.Value{"id": value.Num(1)},
		map[string]value.Value{"id": value.Num(2)},
	)
	docs := db.Collection("", "users")
	require.Len(t, docs, 2)
	v, ok := docs[0].Get("id")
	require.True(t, ok)
	require.Equal(t, value.Num(1), v)
}

func TestNamespacesAreIsolated(t *testing.T) {
	db := New()
	db.Seed("a", "users", map[string]value.Value{"id": value.Num(1)})
	db.Seed("b", "users", map[string]value.Value{"id": value.Num(2)})
	require.Len(t, db.Collection("a", "users"), 1)
	require.Len(t, db.Collection("b", "users"), 1)
	require.Empty(t, db.Collection("", "users"))
}

func TestReplace(t *testing.T) {
	db := New()
	db.Seed("", "users", map[string]value.Value{"id": value.Num(1)})
	db.Replace("", "users", nil)
	require.Empty(t, db.Collection("", "users"))

	// replace may create a collection
	db.Replace("", "fresh", []*value.Object{value.NewObject()})
	require.Len(t, db.Collection("", "fresh"), 1)
}
