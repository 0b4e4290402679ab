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

	"github.com/BurntSushi/toml"
	"github.com/golang/geo/r3"
	"github.com/spatialkit/vectoredit"
)

// A ReplayScript describes a scripted editing session: the view the
// gestures happen in, which element to select, the edit policy, and
// the gesture sequence itself. Scripts are written in TOML:
//
//	[view]
//	surface = "planar"
//	camera = [0.0, 0.0, 10.0]
//
//	[select]
//	index = 0
//
//	[policy]
//	result = "modify"
//
//	[[gesture]]
//	action = "down"
//	x = 340.0
//	y = 360.0
type ReplayScript struct {
	View     ViewSpec
	Select   SelectSpec
	Policy   PolicySpec
	Gestures []GestureSpec `toml:"gesture"`
}

// A ViewSpec describes the camera the gestures are replayed in.
// Zero-valued fields fall back to a planar surface viewed from
// (0, 0, 10) looking at the origin with +y up, an 800x600 pixel
// screen, and a 90 degree vertical field of view.
type ViewSpec struct {
	// Surface names the projection surface, "planar" or "spherical".
	Surface string
	// Camera, Focus, and Up are world coordinate triples.
	Camera []float64
	Focus  []float64
	Up     []float64
	// Width and Height are the screen size in pixels.
	Width  int
	Height int
	// FOV is the vertical field of view in degrees.
	FOV float64
}

// A SelectSpec says which element to select before replaying. ID
// refers to the identifier the data source assigned on load, which is
// 1-based file order; when ID is zero, Index picks the element by
// 0-based file order instead.
type SelectSpec struct {
	ID    int64
	Index int
}

// A PolicySpec describes the edit policy mediating the replayed
// gestures. Result is the default drag result; Start, Move, and End
// override it per drag phase. Expr, when set, is evaluated for every
// drag callback with the variables mode, action, x, y, screenX, and
// screenY bound, and must yield a result name or a boolean, where
// false means ignore.
type PolicySpec struct {
	Result string
	Start  string
	Move   string
	End    string
	Expr   string
}

// A GestureSpec is one touch event: an action ("down", "move", or
// "up") and a screen position in pixels.
type GestureSpec struct {
	Action string
	X      float64
	Y      float64
}

// DecodeScript reads a TOML replay script.
func DecodeScript(r io.Reader) (*ReplayScript, error) {
	s := new(ReplayScript)
	if _, err := toml.NewDecoder(r).Decode(s); err != nil {
		return nil, fmt.Errorf("vectoredit: problem reading gesture script: %v", err)
	}
	return s, nil
}

// viewState builds the view the script's gestures are replayed in.
func (v *ViewSpec) viewState() (*vectoredit.ViewState, error) {
	var surface vectoredit.ProjectionSurface
	switch v.Surface {
	case "", "planar":
		surface = vectoredit.NewPlanarSurface()
	case "spherical":
		surface = vectoredit.NewSphericalSurface()
	default:
		return nil, fmt.Errorf("vectoredit: invalid projection surface %q", v.Surface)
	}
	camera, err := vec3("view camera", v.Camera, r3.Vector{Z: 10})
	if err != nil {
		return nil, err
	}
	focus, err := vec3("view focus", v.Focus, r3.Vector{})
	if err != nil {
		return nil, err
	}
	up, err := vec3("view up", v.Up, r3.Vector{Y: 1})
	if err != nil {
		return nil, err
	}
	width, height := v.Width, v.Height
	if width == 0 {
		width = 800
	}
	if height == 0 {
		height = 600
	}
	fov := v.FOV
	if fov == 0 {
		fov = 90
	}
	return vectoredit.NewViewState(surface, camera, focus, up, width, height, fov), nil
}

func vec3(name string, v []float64, def r3.Vector) (r3.Vector, error) {
	switch len(v) {
	case 0:
		return def, nil
	case 3:
		return r3.Vector{X: v[0], Y: v[1], Z: v[2]}, nil
	}
	return r3.Vector{}, fmt.Errorf("vectoredit: %s needs 3 coordinates but has %d", name, len(v))
}

func parseDragResult(s string) (vectoredit.DragResult, error) {
	switch s {
	case "ignore":
		return vectoredit.DragResultIgnore, nil
	case "stop":
		return vectoredit.DragResultStop, nil
	case "modify":
		return vectoredit.DragResultModify, nil
	case "delete":
		return vectoredit.DragResultDelete, nil
	}
	return 0, fmt.Errorf("vectoredit: invalid drag result %q", s)
}

func parseTouchAction(s string) (vectoredit.TouchAction, error) {
	switch s {
	case "down":
		return vectoredit.TouchActionDown, nil
	case "move":
		return vectoredit.TouchActionMove, nil
	case "up":
		return vectoredit.TouchActionUp, nil
	}
	return 0, fmt.Errorf("vectoredit: invalid touch action %q", s)
}
