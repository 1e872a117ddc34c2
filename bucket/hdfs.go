package bucket

import (
	"context"
	"io"
	"os"
	"path"
	"strings"

	"github.com/colinmarc/hdfs/v2"

	"github.com/messif/metrickernel/mcmn"
)

// HDFSStore backs a Store with an HDFS namenode, rooted under a fixed
// directory prefix so every locator maps onto a single absolute path.
type HDFSStore struct {
	client *hdfs.Client
	root   string
}

func OpenHDFS(namenode, root string) (*HDFSStore, error) {
	client, err := hdfs.New(namenode)
	if err != nil {
		return nil, mcmn.Wrap(err, "bucket: connect hdfs")
	}
	return &HDFSStore{client: client, root: root}, nil
}

func (h *HDFSStore) fullPath(locator string) string { return path.Join(h.root, locator) }

func (h *HDFSStore) Get(ctx context.Context, locator string) ([]byte, error) {
	r, err := h.client.Open(h.fullPath(locator))
	if err != nil {
		return nil, mcmn.Wrap(err, "bucket: hdfs open")
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, mcmn.Wrap(err, "bucket: hdfs read")
	}
	return data, nil
}

func (h *HDFSStore) Put(ctx context.Context, locator string, data []byte) error {
	full := h.fullPath(locator)
	if err := h.client.MkdirAll(path.Dir(full), 0o755); err != nil {
		return mcmn.Wrap(err, "bucket: hdfs mkdir")
	}
	_ = h.client.Remove(full) // best-effort: CreateFile fails if the path already exists
	w, err := h.client.Create(full)
	if err != nil {
		return mcmn.Wrap(err, "bucket: hdfs create")
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return mcmn.Wrap(err, "bucket: hdfs write")
	}
	return mcmn.Wrap(w.Close(), "bucket: hdfs close")
}

func (h *HDFSStore) Delete(ctx context.Context, locator string) error {
	err := h.client.Remove(h.fullPath(locator))
	if os.IsNotExist(err) {
		return nil
	}
	return mcmn.Wrap(err, "bucket: hdfs delete")
}

func (h *HDFSStore) List(ctx context.Context, prefix string) ([]string, error) {
	entries, err := h.client.ReadDir(h.root)
	if err != nil {
		return nil, mcmn.Wrap(err, "bucket: hdfs readdir")
	}
	var out []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), prefix) {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

func (h *HDFSStore) Close() error { return h.client.Close() }
