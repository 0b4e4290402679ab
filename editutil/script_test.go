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
	"reflect"
	"strings"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/spatialkit/vectoredit"
)

func TestDecodeScript(t *testing.T) {
	const doc = `
[view]
surface = "spherical"
camera = [0.0, 0.0, 5.0]
focus = [0.0, 0.0, 1.0]
up = [0.0, 1.0, 0.0]
width = 1024
height = 768
fov = 60.0

[select]
id = 3

[policy]
result = "modify"
end = "stop"
expr = "mode == 'vertex'"

[[gesture]]
action = "down"
x = 512.0
y = 384.0

[[gesture]]
action = "up"
x = 520.0
y = 380.0
`
	s, err := DecodeScript(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	want := &ReplayScript{
		View: ViewSpec{
			Surface: "spherical",
			Camera:  []float64{0, 0, 5},
			Focus:   []float64{0, 0, 1},
			Up:      []float64{0, 1, 0},
			Width:   1024,
			Height:  768,
			FOV:     60,
		},
		Select: SelectSpec{ID: 3},
		Policy: PolicySpec{Result: "modify", End: "stop", Expr: "mode == 'vertex'"},
		Gestures: []GestureSpec{
			{Action: "down", X: 512, Y: 384},
			{Action: "up", X: 520, Y: 380},
		},
	}
	if !reflect.DeepEqual(s, want) {
		t.Errorf("have %#v, want %#v", s, want)
	}
}

func TestDecodeScriptError(t *testing.T) {
	if _, err := DecodeScript(strings.NewReader("[view\n")); err == nil {
		t.Error("decoding a malformed script should fail but it does not.")
	}
}

func TestViewSpecDefaults(t *testing.T) {
	s, err := DecodeScript(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	view, err := s.View.viewState()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := view.Surface().(*vectoredit.PlanarSurface); !ok {
		t.Errorf("default surface is %T, want *vectoredit.PlanarSurface", view.Surface())
	}
	if have, want := view.CameraPos(), (r3.Vector{Z: 10}); have != want {
		t.Errorf("camera: have %v, want %v", have, want)
	}
	if have, want := view.FocusPos(), (r3.Vector{}); have != want {
		t.Errorf("focus: have %v, want %v", have, want)
	}
	if view.Width() != 800 || view.Height() != 600 {
		t.Errorf("screen: have %dx%d, want 800x600", view.Width(), view.Height())
	}
	if view.FOVY() != 90 {
		t.Errorf("fov: have %g, want 90", view.FOVY())
	}
}

func TestViewSpecSpherical(t *testing.T) {
	v := ViewSpec{Surface: "spherical", Camera: []float64{0, 0, 5}}
	view, err := v.viewState()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := view.Surface().(*vectoredit.SphericalSurface); !ok {
		t.Errorf("surface is %T, want *vectoredit.SphericalSurface", view.Surface())
	}
	if have, want := view.CameraPos(), (r3.Vector{Z: 5}); have != want {
		t.Errorf("camera: have %v, want %v", have, want)
	}
}

func TestViewSpecErrors(t *testing.T) {
	if _, err := (&ViewSpec{Surface: "conical"}).viewState(); err == nil {
		t.Error("an unknown surface name should fail but it does not.")
	}
	_, err := (&ViewSpec{Camera: []float64{1, 2}}).viewState()
	if err == nil {
		t.Fatal("a 2-coordinate camera should fail but it does not.")
	}
	if !strings.Contains(err.Error(), "view camera") {
		t.Errorf("error %q should name the view camera but it does not.", err)
	}
}

func TestParseDragResult(t *testing.T) {
	tests := []struct {
		in   string
		want vectoredit.DragResult
	}{
		{"ignore", vectoredit.DragResultIgnore},
		{"stop", vectoredit.DragResultStop},
		{"modify", vectoredit.DragResultModify},
		{"delete", vectoredit.DragResultDelete},
	}
	for _, test := range tests {
		have, err := parseDragResult(test.in)
		if err != nil {
			t.Fatal(err)
		}
		if have != test.want {
			t.Errorf("%s: have %v, want %v", test.in, have, test.want)
		}
	}
	if _, err := parseDragResult("explode"); err == nil {
		t.Error("an invalid result name should fail but it does not.")
	}
}

func TestParseTouchAction(t *testing.T) {
	tests := []struct {
		in   string
		want vectoredit.TouchAction
	}{
		{"down", vectoredit.TouchActionDown},
		{"move", vectoredit.TouchActionMove},
		{"up", vectoredit.TouchActionUp},
	}
	for _, test := range tests {
		have, err := parseTouchAction(test.in)
		if err != nil {
			t.Fatal(err)
		}
		if have != test.want {
			t.Errorf("%s: have %v, want %v", test.in, have, test.want)
		}
	}
	if _, err := parseTouchAction("hover"); err == nil {
		t.Error("an invalid action name should fail but it does not.")
	}
}
