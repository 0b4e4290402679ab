/*
Copyright © 2021 the VectorEdit authors.
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

// updateGeometryPoint returns a copy of g with the handle at the
// given flat index moved to pos. Even local indices move an existing
// vertex. Odd ones insert a new vertex after the midpoint's leading
// vertex and splice two fresh handles into the overlay list so that
// the dragged handle object lands on the flat index of the new
// vertex; the full rebuild that follows every edit fixes up
// positions and flags. offset accumulates the handle count of
// geometries already scanned. The input geometry is never modified.
// Caller must hold l.mu.
func (l *EditableLayer) updateGeometryPoint(g geom.Geom, offset *int, index int, pos geom.Point) geom.Geom {
	if index < *offset {
		return g
	}
	points := 0
	switch t := g.(type) {
	case geom.Point:
		points = 1
		if index-*offset < points {
			g = pos
		}
	case geom.LineString:
		points = 2*len(t) - 1
		if len(t) == 0 {
			points = 0
		}
		local := index - *offset
		if local < points {
			pointIndex := local / 2
			if local%2 == 0 {
				poses := copyPoints(t)
				poses[pointIndex] = pos
				g = geom.LineString(poses)
			} else {
				poses := insertPoint(t, pointIndex+1, pos)
				g = geom.LineString(poses)
				l.overlayPoints.insert(index+1, l.makeOverlayPoint(pos, true, -1))
				l.overlayPoints.insert(index, l.makeOverlayPoint(pos, false, -1))
			}
		}
	case geom.Polygon:
		for n := 0; n < len(t); n++ {
			ring := t[n]
			closed := ringClosed(ring)
			*offset += points
			points = 2 * len(ring)
			if closed {
				points -= 2
			}
			local := index - *offset
			if local < points {
				out := make(geom.Polygon, len(t))
				copy(out, t)
				pointIndex := local / 2
				if local%2 == 0 {
					newRing := copyPoints(ring)
					newRing[pointIndex] = pos
					if closed && local == 0 {
						newRing[len(newRing)-1] = newRing[0]
					}
					out[n] = newRing
				} else {
					out[n] = insertPoint(ring, pointIndex+1, pos)
					l.overlayPoints.insert(index+1, l.makeOverlayPoint(pos, true, -1))
					l.overlayPoints.insert(index, l.makeOverlayPoint(pos, false, -1))
				}
				g = out
				break
			}
		}
	default:
		if children, ok := geometryChildren(g); ok {
			out := make(geom.GeometryCollection, len(children))
			for i, child := range children {
				out[i] = l.updateGeometryPoint(child, offset, index, pos)
			}
			return out
		}
	}
	*offset += points
	return g
}

// removeGeometryPoint returns a copy of g without the vertex at the
// given flat index, removing the vertex's handle and one adjacent
// midpoint handle from the overlay list. Midpoint indices are
// ignored. A point, a line reduced below two vertices, or an outer
// ring reduced below a triangle deletes the whole geometry, reported
// as a nil return; inner rings reduced below a triangle are dropped
// from their polygon. The input geometry is never modified. Caller
// must hold l.mu.
func (l *EditableLayer) removeGeometryPoint(g geom.Geom, offset *int, index int) geom.Geom {
	if index < *offset {
		return g
	}
	points := 0
	switch t := g.(type) {
	case geom.Point:
		points = 1
		if index-*offset < points {
			g = nil
		}
	case geom.LineString:
		points = 2*len(t) - 1
		if len(t) == 0 {
			points = 0
		}
		local := index - *offset
		if local < points && local%2 == 0 {
			if len(t) > 2 {
				pointIndex := local / 2
				g = geom.LineString(removePoint(t, pointIndex))
				l.overlayPoints.remove(index)
				if pointIndex > 0 {
					l.overlayPoints.remove(index - 1)
				} else {
					l.overlayPoints.remove(index)
				}
			} else {
				g = nil
			}
		}
	case geom.Polygon:
		for n := 0; n < len(t); n++ {
			ring := t[n]
			closed := ringClosed(ring)
			*offset += points
			points = 2 * len(ring)
			if closed {
				points -= 2
			}
			local := index - *offset
			if local < points {
				if local%2 == 0 {
					pointIndex := local / 2
					switch {
					case points > 6:
						newRing := removePoint(ring, pointIndex)
						if closed && local == 0 {
							newRing[len(newRing)-1] = newRing[0]
						}
						out := make(geom.Polygon, len(t))
						copy(out, t)
						out[n] = newRing
						l.overlayPoints.remove(index + 1)
						l.overlayPoints.remove(index)
						g = out
					case n > 0:
						out := make(geom.Polygon, 0, len(t)-1)
						out = append(out, t[:n]...)
						out = append(out, t[n+1:]...)
						g = out
					default:
						g = nil
					}
				}
				break
			}
		}
	default:
		if children, ok := geometryChildren(g); ok {
			out := make(geom.GeometryCollection, 0, len(children))
			for _, child := range children {
				if cg := l.removeGeometryPoint(child, offset, index); cg != nil {
					out = append(out, cg)
				}
			}
			if len(out) == 0 {
				return nil
			}
			return out
		}
	}
	*offset += points
	return g
}

// translateGeometry moves every vertex of g by the surface
// translation carrying from to to, both in data source coordinates.
// On a globe this is a rotation, so shapes keep their size and do
// not shear when dragged across latitudes.
func translateGeometry(g geom.Geom, surface ProjectionSurface, proj Projection, from, to geom.Point) geom.Geom {
	wf := surface.CalculatePosition(proj.ToInternal(from))
	wt := surface.CalculatePosition(proj.ToInternal(to))
	return transformGeometry(g, surface, proj, surface.CalculateTranslation(wf, wt, 1))
}

// transformGeometry applies a world-space transform to every vertex
// of g, returning a new geometry.
func transformGeometry(g geom.Geom, surface ProjectionSurface, proj Projection, t Transform) geom.Geom {
	mapPoint := func(p geom.Point) geom.Point {
		w := t.Apply(surface.CalculatePosition(proj.ToInternal(p)))
		return proj.FromInternal(surface.CalculateMapPos(w))
	}
	switch tg := g.(type) {
	case geom.Point:
		return mapPoint(tg)
	case geom.LineString:
		out := make([]geom.Point, len(tg))
		for i, p := range tg {
			out[i] = mapPoint(p)
		}
		return geom.LineString(out)
	case geom.Polygon:
		out := make(geom.Polygon, len(tg))
		for i, ring := range tg {
			newRing := make([]geom.Point, len(ring))
			for j, p := range ring {
				newRing[j] = mapPoint(p)
			}
			out[i] = newRing
		}
		return out
	default:
		if children, ok := geometryChildren(g); ok {
			out := make(geom.GeometryCollection, len(children))
			for i, child := range children {
				out[i] = transformGeometry(child, surface, proj, t)
			}
			return out
		}
	}
	return g
}
