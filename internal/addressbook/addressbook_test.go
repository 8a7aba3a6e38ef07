package addressbook

import (
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/0xkanth/evmload/pkg/models"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "addresses.db")
	store, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_PutAndGet(t *testing.T) {
	store := openTemp(t)

	entry := models.AddressBookEntry{
		Label:          "token",
		Address:        common.HexToAddress("0x1"),
		TxHash:         common.HexToHash("0x2"),
		DeployedAtUnix: 1700000000000,
	}
	require.NoError(t, store.Put(entry))

	got, err := store.Get("token")
	require.NoError(t, err)
	require.Equal(t, entry.Address, got.Address)
	require.Equal(t, entry.TxHash, got.TxHash)
}

func TestStore_GetMissingLabel(t *testing.T) {
	store := openTemp(t)

	_, err := store.Get("nonexistent")
	require.Error(t, err)
}

func TestStore_PutRequiresLabel(t *testing.T) {
	store := openTemp(t)

	err := store.Put(models.AddressBookEntry{Address: common.HexToAddress("0x1")})
	require.Error(t, err)
}

func TestStore_ResolveAddress_LiteralPassesThrough(t *testing.T) {
	store := openTemp(t)

	resolved, err := store.ResolveAddress("0xabc")
	require.NoError(t, err)
	require.Equal(t, "0xabc", resolved)
}

func TestStore_ResolveAddress_LabelReference(t *testing.T) {
	store := openTemp(t)

	addr := common.HexToAddress("0x1234")
	require.NoError(t, store.Put(models.AddressBookEntry{Label: "token", Address: addr}))

	resolved, err := store.ResolveAddress("@token")
	require.NoError(t, err)
	require.Equal(t, addr.Hex(), resolved)
}

func TestStore_ResolveAddress_UnknownLabel(t *testing.T) {
	store := openTemp(t)

	_, err := store.ResolveAddress("@missing")
	require.Error(t, err)
}
