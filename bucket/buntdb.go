package bucket

import (
	"context"
	"strings"

	"github.com/tidwall/buntdb"

	"github.com/messif/metrickernel/mcmn"
)

// BuntStore is the default/local Store backend: an embedded ordered
// key-value store, matching the teacher's own preference for an
// embedded store over a network round trip when one is available
// (buntdb://:memory: or buntdb:///path/to/file.db).
type BuntStore struct {
	db *buntdb.DB
}

func OpenBunt(path string) (*BuntStore, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, mcmn.Wrap(err, "bucket: open buntdb")
	}
	return &BuntStore{db: db}, nil
}

func (b *BuntStore) Get(ctx context.Context, locator string) ([]byte, error) {
	var out []byte
	err := b.db.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(locator)
		if err != nil {
			return err
		}
		out = []byte(v)
		return nil
	})
	if err == buntdb.ErrNotFound {
		return nil, mcmn.NewErrInvalidArgument("bucket: no such object %q", locator)
	}
	if err != nil {
		return nil, mcmn.Wrap(err, "bucket: get")
	}
	return out, nil
}

func (b *BuntStore) Put(ctx context.Context, locator string, data []byte) error {
	err := b.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(locator, string(data), nil)
		return err
	})
	return mcmn.Wrap(err, "bucket: put")
}

func (b *BuntStore) Delete(ctx context.Context, locator string) error {
	err := b.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(locator)
		if err == buntdb.ErrNotFound {
			return nil
		}
		return err
	})
	return mcmn.Wrap(err, "bucket: delete")
}

func (b *BuntStore) List(ctx context.Context, prefix string) ([]string, error) {
	var out []string
	err := b.db.View(func(tx *buntdb.Tx) error {
		return tx.Ascend("", func(key, _ string) bool {
			if strings.HasPrefix(key, prefix) {
				out = append(out, key)
			}
			return true
		})
	})
	return out, mcmn.Wrap(err, "bucket: list")
}

func (b *BuntStore) Close() error { return b.db.Close() }
