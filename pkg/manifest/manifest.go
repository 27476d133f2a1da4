// Package manifest records what an extraction produced: every file below the
// destination with its size and a content identifier.
//
// File identifiers are CIDv1 with the raw codec over a sha2-256 multihash of
// the file contents. The manifest root is a CIDv1 with the dag-json codec
// over the encoded entry list, so two trees with the same contents share a
// root.
//
// Example usage:
//
//	m, err := manifest.NewBuilder("/tmp/out").
//	    WithProgress(func(completed, total int64, file string) {
//	        fmt.Printf("%d/%d %s\n", completed, total, file)
//	    }).
//	    Build(ctx)
package manifest

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/ipfs/boxo/files"
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multicodec"
	"github.com/multiformats/go-multihash"
)

// Entry is one path of the tree, relative to the root and slash separated.
type Entry struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
	Cid  string `json:"cid,omitempty"`
	Dir  bool   `json:"dir,omitempty"`
	Link string `json:"link,omitempty"`
}

// Manifest is the content listing of a directory tree.
type Manifest struct {
	Version int     `json:"version"`
	Root    string  `json:"root"`
	Size    int64   `json:"size"`
	Entries []Entry `json:"entries"`
}

// Files returns the regular file entries keyed by path.
func (m *Manifest) Files() map[string]Entry {
	out := make(map[string]Entry, len(m.Entries))
	for _, e := range m.Entries {
		if !e.Dir && e.Link == "" {
			out[e.Path] = e
		}
	}
	return out
}

// Lookup finds the entry for path.
func (m *Manifest) Lookup(path string) (Entry, bool) {
	i := sort.Search(len(m.Entries), func(i int) bool { return m.Entries[i].Path >= path })
	if i < len(m.Entries) && m.Entries[i].Path == path {
		return m.Entries[i], true
	}
	return Entry{}, false
}

type Builder struct {
	path          string
	includeHidden bool
	progress      ProgressFunc
	rootBuilder   cid.Builder
}

func NewBuilder(path string) *Builder {
	return &Builder{
		path:          filepath.Clean(path),
		includeHidden: true,
		rootBuilder: cid.V1Builder{
			Codec:    uint64(multicodec.DagJson),
			MhType:   uint64(multicodec.Sha2_256),
			MhLength: -1,
		},
	}
}

// WithProgress sets a callback receiving (completed, total, currentFile).
func (b *Builder) WithProgress(fn ProgressFunc) *Builder {
	b.progress = fn
	return b
}

// WithHidden controls whether dot files are listed. They are by default.
func (b *Builder) WithHidden(include bool) *Builder {
	b.includeHidden = include
	return b
}

// Build walks a directory and hashes every file in it.
func Build(ctx context.Context, dir string) (*Manifest, error) {
	return NewBuilder(dir).Build(ctx)
}

func (b *Builder) Build(ctx context.Context) (*Manifest, error) {
	stat, err := os.Stat(b.path)
	if err != nil {
		return nil, &BuildError{Path: b.path, Op: "stat", Err: err}
	}
	if !stat.IsDir() {
		return nil, &BuildError{Path: b.path, Op: "stat", Err: ErrNotDirectory}
	}

	node, err := files.NewSerialFile(b.path, b.includeHidden, stat)
	if err != nil {
		return nil, &BuildError{Path: b.path, Op: "open", Err: err}
	}
	defer node.Close()

	total, err := node.Size()
	if err != nil {
		return nil, &BuildError{Path: b.path, Op: "size", Err: err}
	}
	tracker := newProgressTracker(total, b.progress)

	m := &Manifest{Version: Version, Entries: make([]Entry, 0)}
	err = files.Walk(node, func(fpath string, nd files.Node) error {
		if ctx.Err() != nil {
			return ErrInterrupted
		}
		if fpath == "" {
			return nil
		}

		entry, err := b.entry(fpath, nd, tracker)
		if err != nil {
			return &BuildError{Path: fpath, Op: "hash", Err: err}
		}
		m.Entries = append(m.Entries, entry)
		m.Size += entry.Size
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(m.Entries, func(i, j int) bool { return m.Entries[i].Path < m.Entries[j].Path })
	root, err := b.root(m.Entries)
	if err != nil {
		return nil, err
	}
	m.Root = root
	return m, nil
}

func (b *Builder) entry(fpath string, nd files.Node, tracker *progressTracker) (Entry, error) {
	switch n := nd.(type) {
	case files.Directory:
		return Entry{Path: fpath, Dir: true}, nil
	case *files.Symlink:
		return Entry{Path: fpath, Link: n.Target}, nil
	case files.File:
		defer n.Close()
		size, err := n.Size()
		if err != nil {
			return Entry{}, err
		}
		c, err := fileCid(&countingReader{r: n, name: fpath, tracker: tracker})
		if err != nil {
			return Entry{}, err
		}
		return Entry{Path: fpath, Size: size, Cid: c.String()}, nil
	default:
		return Entry{}, ErrInvalidNodeType
	}
}

func (b *Builder) root(entries []Entry) (string, error) {
	data, err := json.Marshal(entries)
	if err != nil {
		return "", err
	}
	c, err := b.rootBuilder.Sum(data)
	if err != nil {
		return "", err
	}
	return c.String(), nil
}

func fileCid(r io.Reader) (cid.Cid, error) {
	mh, err := multihash.SumStream(bufio.NewReaderSize(r, hashBufferSize), multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(uint64(multicodec.Raw), mh), nil
}
