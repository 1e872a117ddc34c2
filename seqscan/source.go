// Package seqscan implements the sequential-scan algorithm (spec §4.8):
// a linear object source plus single- and batch-query evaluation. It
// registers itself with algorithm.Algorithm's dispatch map the same way
// every concrete algorithm does, and is the kernel's reference
// implementation; its Source is also what the end-to-end text round-trip
// scenario reads objects back through.
package seqscan

import (
	"bufio"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/karrick/godirwalk"

	"github.com/messif/metrickernel/mcmn"
	"github.com/messif/metrickernel/object"
)

// Source is a restartable, ordered stream of objects read from the text
// format of spec §6 — either a single file or a directory of *.msf files
// concatenated in lexical order.
type Source struct {
	paths  []string
	metric object.Metric

	fileIdx int
	r       *bufio.Reader
	f       *os.File
}

// NewFileSource wraps a single text file.
func NewFileSource(path string, m object.Metric) *Source {
	return &Source{paths: []string{path}, metric: m}
}

// NewDirSource walks dir collecting *.msf files in lexical order via
// godirwalk, then concatenates them logically into one stream (spec §4.8
// "directory ingestion").
func NewDirSource(dir string, m object.Metric) (*Source, error) {
	var files []string
	err := godirwalk.Walk(dir, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				return nil
			}
			if strings.HasSuffix(path, ".msf") {
				files = append(files, path)
			}
			return nil
		},
		Unsorted: true,
	})
	if err != nil {
		return nil, mcmn.Wrap(err, "seqscan: walk "+dir)
	}
	sort.Strings(files)
	return &Source{paths: files, metric: m}, nil
}

// Seek(0) rewinds the source to its first object; no other offset is
// supported (spec §4.8 restart semantics).
func (s *Source) Seek(offset int) error {
	if offset != 0 {
		return mcmn.NewErrInvalidArgument("seqscan: only Seek(0) is supported")
	}
	s.close()
	s.fileIdx = 0
	return nil
}

func (s *Source) close() {
	if s.f != nil {
		s.f.Close()
		s.f = nil
		s.r = nil
	}
}

func (s *Source) Close() error {
	s.close()
	return nil
}

func (s *Source) ensureOpen() error {
	for s.r == nil {
		if s.fileIdx >= len(s.paths) {
			return io.EOF
		}
		f, err := os.Open(s.paths[s.fileIdx])
		if err != nil {
			return mcmn.Wrap(err, "seqscan: open "+s.paths[s.fileIdx])
		}
		s.f = f
		s.r = bufio.NewReader(f)
		return nil
	}
	return nil
}

// Next reads and returns the next object in the stream, or io.EOF once
// every file has been exhausted.
func (s *Source) Next() (object.LocalObject, error) {
	for {
		if err := s.ensureOpen(); err != nil {
			return nil, err
		}
		obj, err := object.DecodeText(s.r, s.metric)
		if err == io.EOF {
			s.close()
			s.fileIdx++
			continue
		}
		return obj, err
	}
}
