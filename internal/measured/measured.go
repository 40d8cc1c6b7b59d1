// Package measured provides empirical Hi-C contact matrices for
// comparison against predictions.
package measured

// #region imports
import (
	"errors"
	"fmt"
	"strings"

	"github.com/sbinet/npyio/npz"
	"gonum.org/v1/gonum/mat"

	"hiceval/internal/tile"
)

// #endregion

// #region source

// ErrMissing reports that no measured matrix exists for a window.
var ErrMissing = errors.New("measured: no matrix for window")

// Source provides the measured contact matrix for a window.
type Source interface {
	Matrix(w tile.Window) (*mat.Dense, error)
}

// #endregion source

// #region memory

// Memory is an in-memory Source keyed by window region string.
// Used in tests and for small curated matrix sets.
type Memory map[string]*mat.Dense

// Matrix returns the stored matrix or ErrMissing.
func (m Memory) Matrix(w tile.Window) (*mat.Dense, error) {
	d, ok := m[w.String()]
	if !ok {
		return nil, ErrMissing
	}
	return d, nil
}

// #endregion memory

// #region npz

// NPZ reads measured matrices from a numpy .npz archive whose entries
// are named by window region ("chr8:0-1000000", with or without the
// .npy suffix the archive format appends), each holding one square
// float matrix.
type NPZ struct {
	r    *npz.Reader
	keys map[string]string // region -> archive entry name
}

// OpenNPZ opens an archive and indexes its entries by region.
func OpenNPZ(path string) (*NPZ, error) {
	r, err := npz.Open(path)
	if err != nil {
		return nil, fmt.Errorf("measured: open %s: %w", path, err)
	}
	keys := make(map[string]string)
	for _, name := range r.Keys() {
		keys[strings.TrimSuffix(name, ".npy")] = name
	}
	return &NPZ{r: r, keys: keys}, nil
}

// Matrix loads the window's matrix from the archive.
func (n *NPZ) Matrix(w tile.Window) (*mat.Dense, error) {
	name, ok := n.keys[w.String()]
	if !ok {
		return nil, ErrMissing
	}
	var m mat.Dense
	if err := n.r.Read(name, &m); err != nil {
		return nil, fmt.Errorf("measured: read %s: %w", name, err)
	}
	return &m, nil
}

// Windows lists the regions the archive holds matrices for.
func (n *NPZ) Windows() []string {
	out := make([]string, 0, len(n.keys))
	for region := range n.keys {
		out = append(out, region)
	}
	return out
}

// Close closes the underlying archive.
func (n *NPZ) Close() error {
	return n.r.Close()
}

// #endregion npz
