package catalog

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

var errDiskRead = errors.New("disk read failed")

// faultyStore fails every Get of one key.
type faultyStore struct {
	kvStore
	bad []byte
}

func (st *faultyStore) NewTxn(update bool) kvTxn {
	return faultyTxn{st.kvStore.NewTxn(update), st.bad}
}

type faultyTxn struct {
	kvTxn
	bad []byte
}

func (tx faultyTxn) Get(key []byte) ([]byte, error) {
	if bytes.Equal(key, tx.bad) {
		return nil, errDiskRead
	}
	return tx.kvTxn.Get(key)
}

func TestDropReadError(t *testing.T) {
	kv, err := openBadgerStore(Opts{})
	require.NoError(t, err)
	cat := newCatalog(kv, Opts{Engine: EngineBadger})
	defer cat.Close()

	_, err = cat.NewDiagramWithID("alpha")
	require.NoError(t, err)

	cat.kv = &faultyStore{kvStore: kv, bad: nameKey("alpha")}
	err = cat.Drop("alpha")
	require.ErrorIs(t, err, errDiskRead)
	require.NotErrorIs(t, err, ErrDiagramNotFound)

	// nothing was deleted
	cat.kv = kv
	d, err := cat.OpenDiagram("alpha")
	require.NoError(t, err)
	n, err := d.NumVertices()
	require.NoError(t, err)
	require.Zero(t, n)
}
