package persistence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mikekulinski/coordination/pkg/zxid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogManager_NotADirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := NewLogManager(file)
	assert.Error(t, err)

	_, err = NewLogManager(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestLogManager_AppendThenRead(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLogManager(dir + "/")
	require.NoError(t, err)
	assert.Equal(t, dir, l.Path())

	txns := []*Txn{
		{Zxid: zxid.NewZXID(0, 1), Type: TxnCreate, Path: "/zoo", Data: []byte("animals"), Mode: 0},
		{Zxid: zxid.NewZXID(0, 2), Type: TxnCreate, Path: "/zoo/giraffe_0000000000", Mode: 3},
		{Zxid: zxid.NewZXID(0, 3), Type: TxnSetData, Path: "/zoo", Data: []byte{}},
		{Zxid: zxid.NewZXID(1, 1), Type: TxnDelete, Path: "/zoo/giraffe_0000000000"},
	}
	for _, txn := range txns {
		require.NoError(t, l.Append(txn))
	}
	assert.Equal(t, zxid.NewZXID(1, 1), l.LastZxid)

	// Appending an old zxid is rejected.
	err = l.Append(&Txn{Zxid: zxid.NewZXID(0, 2), Type: TxnDelete, Path: "/zoo"})
	assert.Error(t, err)

	// Stray files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("hi"), 0o644))

	read, err := ReadLog(dir)
	require.NoError(t, err)
	assert.Equal(t, txns, read)

	// A new manager resumes after the last zxid on disk.
	reopened, err := NewLogManager(dir)
	require.NoError(t, err)
	assert.Equal(t, zxid.NewZXID(1, 1), reopened.LastZxid)
}

func TestTxn_UnmarshalCorrupt(t *testing.T) {
	txn := &Txn{Zxid: 1, Type: TxnCreate, Path: "/zoo", Data: []byte("data")}
	b := txn.Marshal()

	var decoded Txn
	assert.Error(t, decoded.Unmarshal(b[:len(b)-2]))
}

func TestTxnType_String(t *testing.T) {
	assert.Equal(t, "create", TxnCreate.String())
	assert.Equal(t, "delete", TxnDelete.String())
	assert.Equal(t, "setData", TxnSetData.String())
	assert.Equal(t, "TxnType(9)", TxnType(9).String())
}
