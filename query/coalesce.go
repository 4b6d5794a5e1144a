package query

import (
	"sort"

	"github.com/arloliu/oceanq/geom"
)

// group is a set of queries served by one covering decode of one file.
type group struct {
	file         string
	downsampling geom.V3
	accuracy     float64
	// extent is the axis-wise union of the member extents; unused when
	// whole is set.
	extent geom.Extent
	// whole is set when any member requested the whole volume, forcing
	// the covering decode to do the same.
	whole bool
	// members holds the original query indices, preserving submission
	// order within the group. Every query index appears in exactly one
	// group, so concurrent scatters never write the same output slot.
	members []int
}

// params returns the covering decode parameters for the group.
func (g *group) params() DecodeParams {
	p := DecodeParams{Downsampling: g.downsampling, Accuracy: g.accuracy}
	if !g.whole {
		p.Extent = g.extent
	}

	return p
}

func lessDownsampling(a, b geom.V3) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}

	return a.Z < b.Z
}

// coalesce partitions queries into groups keyed by (file, downsampling).
//
// Queries are stable-sorted by key and maximal runs of equal keys become
// one group each, so N queries against the same file at the same
// resolution cost a single decode whose extent is the union of all N
// requests. Queries that target one file at different downsampling factors
// form separate groups: their snapped grids live on different lattices and
// cannot share a covering buffer. The group accuracy is the most demanding
// (smallest) member accuracy, so no member is silently under-served.
func coalesce(queries []Query) []group {
	order := make([]int, len(queries))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		qa, qb := &queries[order[a]], &queries[order[b]]
		if qa.File != qb.File {
			return qa.File < qb.File
		}

		return lessDownsampling(qa.Downsampling, qb.Downsampling)
	})

	var groups []group
	for _, qi := range order {
		q := &queries[qi]
		if n := len(groups); n > 0 {
			g := &groups[n-1]
			if g.file == q.File && g.downsampling == q.Downsampling {
				g.members = append(g.members, qi)
				g.accuracy = min(g.accuracy, q.Accuracy)
				if q.Extent.IsEmpty() {
					g.whole = true
				} else {
					g.extent = geom.Union(g.extent, q.Extent)
				}

				continue
			}
		}
		groups = append(groups, group{
			file:         q.File,
			downsampling: q.Downsampling,
			accuracy:     q.Accuracy,
			extent:       q.Extent,
			whole:        q.Extent.IsEmpty(),
			members:      []int{qi},
		})
	}

	return groups
}
