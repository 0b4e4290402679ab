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

package editutil

import (
	"fmt"
	"io"

	"github.com/spatialkit/vectoredit"
)

// Handles loads the elements in shapesPath and prints, for each one,
// the flat index, kind, and position of every overlay handle the
// element gets when selected for editing. Handle positions are in the
// projCode spatial reference.
func Handles(w io.Writer, shapesPath, projCode string) error {
	ds, elements, err := LoadShapes(shapesPath, projCode)
	if err != nil {
		return err
	}
	policy, err := newScriptPolicy(ds, PolicySpec{}, nil)
	if err != nil {
		return err
	}
	view, err := new(ViewSpec).viewState()
	if err != nil {
		return err
	}
	mapView := vectoredit.NewMapView()
	mapView.SetViewState(view)

	layer := vectoredit.NewEditableLayer(ds)
	layer.SetEditListener(policy)
	layer.Attach(mapView)
	defer layer.Detach()

	for i, e := range elements {
		layer.SetSelectedElement(e)
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "element %d\n", e.ID())
		for j, p := range layer.OverlayPoints() {
			fmt.Fprintf(w, "%4d  %s\n", j, p)
		}
	}
	return nil
}
