package query

import (
	"fmt"
	"sync"

	"github.com/arloliu/oceanq/errs"
	"github.com/arloliu/oceanq/geom"
)

// Dataset describes the fixed geometry and file layout of one ocean
// dataset: how many faces it has, each face's spatial dimensions, how many
// time steps share one physical file, and how file names are formed.
//
// A Dataset is a plain value; capability varies by data, not by type.
// Custom datasets register through RegisterDataset and are found by name
// with LookupDataset.
type Dataset struct {
	// Name keys the dataset in the registry.
	Name string
	// NameFormat builds file identifiers with fmt verbs for face, depth,
	// time-block begin, and time-block end, in that order.
	NameFormat string
	// TimeGroup is the number of consecutive time steps stored per file.
	TimeGroup int
	// FaceDims holds each face's spatial dimensions (X, Y); the Z
	// component is unused and conventionally 1. A file's full volume is
	// (X, Y, TimeGroup).
	FaceDims []geom.V3
	// Rotated marks faces stored transposed, so a query's X/Y
	// downsampling factors swap when addressing them.
	Rotated []bool
	// NumDepths is the number of depth levels.
	NumDepths int
}

// NumFaces returns the number of faces in the dataset.
func (d *Dataset) NumFaces() int {
	return len(d.FaceDims)
}

// IsRotated reports whether a face is stored transposed.
func (d *Dataset) IsRotated(face int) bool {
	return face >= 0 && face < len(d.Rotated) && d.Rotated[face]
}

// FileName builds the identifier of the file holding one
// (face, depth, time) sample, validating every coordinate against the
// dataset geometry first.
func (d *Dataset) FileName(face, depth, time int) (string, error) {
	if face < 0 || face >= d.NumFaces() {
		return "", fmt.Errorf("%w: face %d of %d", errs.ErrInvalidRange, face, d.NumFaces())
	}
	if depth < 0 || depth >= d.NumDepths {
		return "", fmt.Errorf("%w: depth %d of %d", errs.ErrInvalidRange, depth, d.NumDepths)
	}
	if time < 0 {
		return "", fmt.Errorf("%w: time %d", errs.ErrInvalidRange, time)
	}

	begin := (time / d.TimeGroup) * d.TimeGroup

	return fmt.Sprintf(d.NameFormat, face, depth, begin, begin+d.TimeGroup), nil
}

// llcN is the base grid size of the LLC2160 simulation.
const llcN = 2160

// LLC2160 returns the descriptor of the llc2160 ocean dataset: five
// cubed-sphere faces (two lat-lon faces of N x 3N, the polar cap of N x N,
// and two transposed lat-lon faces of 3N x N), 90 depth levels, and 1024
// time steps per file.
func LLC2160() Dataset {
	return Dataset{
		Name:       "llc2160",
		NameFormat: "llc2160/u-face-%d-depth-%d-time-%d-%d.obk",
		TimeGroup:  1024,
		FaceDims: []geom.V3{
			{X: llcN, Y: 3 * llcN, Z: 1},
			{X: llcN, Y: 3 * llcN, Z: 1},
			{X: llcN, Y: llcN, Z: 1},
			{X: 3 * llcN, Y: llcN, Z: 1},
			{X: 3 * llcN, Y: llcN, Z: 1},
		},
		Rotated:   []bool{false, false, false, true, true},
		NumDepths: 90,
	}
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Dataset{}
)

func init() {
	RegisterDataset(LLC2160())
}

// RegisterDataset adds or replaces a dataset descriptor in the registry.
func RegisterDataset(d Dataset) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[d.Name] = d
}

// LookupDataset finds a registered dataset by name.
func LookupDataset(name string) (Dataset, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if d, ok := registry[name]; ok {
		return d, nil
	}

	return Dataset{}, fmt.Errorf("%w: %q", errs.ErrUnknownDataset, name)
}
