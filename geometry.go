/*
Copyright © 2020 the VectorEdit authors.
This file is part of VectorEdit.

VectorEdit is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

VectorEdit is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with VectorEdit.  If not, see <http://www.gnu.org/licenses/>.
*/

package vectoredit

import (
	"github.com/ctessum/geom"
)

// geometryChildren returns the parts of a composite geometry. Multi*
// geometries are treated as collections of their parts so that each
// part is editable on its own.
func geometryChildren(g geom.Geom) ([]geom.Geom, bool) {
	switch t := g.(type) {
	case geom.GeometryCollection:
		return t, true
	case geom.MultiPoint:
		children := make([]geom.Geom, len(t))
		for i, p := range t {
			children[i] = p
		}
		return children, true
	case geom.MultiLineString:
		children := make([]geom.Geom, len(t))
		for i, l := range t {
			children[i] = l
		}
		return children, true
	case geom.MultiPolygon:
		children := make([]geom.Geom, len(t))
		for i, p := range t {
			children[i] = p
		}
		return children, true
	}
	return nil, false
}

// ringClosed reports whether a polygon ring duplicates its first
// vertex as its last one.
func ringClosed(ring []geom.Point) bool {
	return len(ring) > 0 && ring[0] == ring[len(ring)-1]
}

// OverlayPointCount returns the number of overlay handle slots that
// editing g produces: one per editable vertex plus one per segment
// midpoint. Lines with N vertices have 2N-1 slots. Polygon rings have
// two slots per stored vertex, minus two if the ring stores a
// duplicate closing vertex; the ring's wrap-around segment always
// gets a midpoint slot. Geometry types that cannot be edited have
// zero slots.
func OverlayPointCount(g geom.Geom) int {
	switch t := g.(type) {
	case geom.Point:
		return 1
	case geom.LineString:
		if len(t) == 0 {
			return 0
		}
		return 2*len(t) - 1
	case geom.Polygon:
		n := 0
		for _, ring := range t {
			n += 2 * len(ring)
			if ringClosed(ring) {
				n -= 2
			}
		}
		return n
	}
	if children, ok := geometryChildren(g); ok {
		n := 0
		for _, child := range children {
			n += OverlayPointCount(child)
		}
		return n
	}
	return 0
}

// NormalizeGeometry rewrites Multi* geometries as GeometryCollections,
// recursively, so loaded data uses only the editable geometry types.
// Point, LineString and Polygon values pass through unchanged, as do
// types with no editable equivalent.
func NormalizeGeometry(g geom.Geom) geom.Geom {
	switch g.(type) {
	case geom.Point, geom.LineString, geom.Polygon:
		return g
	}
	if children, ok := geometryChildren(g); ok {
		out := make(geom.GeometryCollection, len(children))
		for i, child := range children {
			out[i] = NormalizeGeometry(child)
		}
		return out
	}
	return g
}

// copyPoints returns a fresh copy of a vertex slice. Mutations always
// operate on copies; input geometry trees are never modified.
func copyPoints(src []geom.Point) []geom.Point {
	out := make([]geom.Point, len(src))
	copy(out, src)
	return out
}

// insertPoint returns a copy of src with p inserted before index i.
func insertPoint(src []geom.Point, i int, p geom.Point) []geom.Point {
	out := make([]geom.Point, 0, len(src)+1)
	out = append(out, src[:i]...)
	out = append(out, p)
	return append(out, src[i:]...)
}

// removePoint returns a copy of src without the vertex at index i.
func removePoint(src []geom.Point, i int) []geom.Point {
	out := make([]geom.Point, 0, len(src)-1)
	out = append(out, src[:i]...)
	return append(out, src[i+1:]...)
}
