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

import "fmt"

// overlayList is the ordered list of overlay handle points. The list
// order is significant: position i in the list is flat index i in the
// geometry's pre-order handle traversal, so the geometry mutators
// splice this list in lockstep with vertex inserts and removals.
type overlayList []*OverlayPoint

func (l *overlayList) len() int {
	return len(*l)
}

// insert places p at position i, shifting later handles up.
func (l *overlayList) insert(i int, p *OverlayPoint) {
	(*l) = append((*l), nil)
	copy((*l)[i+1:], (*l)[i:])
	(*l)[i] = p
}

// remove deletes the handle at position i, shifting later handles
// down.
func (l *overlayList) remove(i int) {
	copy((*l)[i:], (*l)[i+1:])
	(*l)[len(*l)-1] = nil
	(*l) = (*l)[:len(*l)-1]
}

// index returns the position of p and whether it is in the list.
// Handles are matched by pointer identity.
func (l *overlayList) index(p *OverlayPoint) (int, bool) {
	for i, q := range *l {
		if q == p {
			return i, true
		}
	}
	return -1, false
}

// array returns the handles as a plain slice.
func (l *overlayList) array() []*OverlayPoint {
	o := make([]*OverlayPoint, len(*l))
	copy(o, *l)
	return o
}

func (l *overlayList) String() string {
	s := ""
	for i, p := range *l {
		if i != 0 {
			s += "\n"
		}
		s += fmt.Sprint(p)
	}
	return s
}
