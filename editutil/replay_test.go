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
	"bytes"
	"io"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/carto"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/spatialkit/vectoredit"
)

// The default script view looks straight down at the origin of a
// planar surface from height 10 through an 800x600 screen with a 90
// degree vertical field of view, so screen x = 400 + 30*wx and
// screen y = 300 - 30*wy for a point at internal coordinates
// (wx, wy). EPSG:3857 internal coordinates are meters divided by
// EarthRadius, which the fixtures below scale back out.

// replaySquare is a square of side 4*EarthRadius centered on the
// origin, counterclockwise with a closing point.
func replaySquare() geom.Polygon {
	const r = vectoredit.EarthRadius
	return geom.Polygon{{
		{X: -2 * r, Y: -2 * r},
		{X: 2 * r, Y: -2 * r},
		{X: 2 * r, Y: 2 * r},
		{X: -2 * r, Y: 2 * r},
		{X: -2 * r, Y: -2 * r},
	}}
}

func writeShapesFile(t *testing.T, path string, geoms ...geom.Geom) {
	t.Helper()
	ds := vectoredit.NewDataSource(vectoredit.NewEPSG3857())
	elements := make([]*vectoredit.Element, len(geoms))
	for i, g := range geoms {
		elements[i] = vectoredit.NewElement(g)
	}
	if err := ds.AddAll(elements); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := WriteShapes(f, ds, "EPSG:3857"); err != nil {
		t.Fatal(err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func readShapesFrom(t *testing.T, r io.Reader) ([]geom.Geom, []float64) {
	t.Helper()
	gj, err := carto.LoadGeoJSON(r)
	if err != nil {
		t.Fatal(err)
	}
	geoms, err := gj.GetGeometry()
	if err != nil {
		t.Fatal(err)
	}
	return geoms, gj.GetProperty("id")
}

func readShapesFile(t *testing.T, path string) ([]geom.Geom, []float64) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	return readShapesFrom(t, f)
}

func pointNear(a, b geom.Point, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol
}

func pathNear(a, b []geom.Point, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !pointNear(a[i], b[i], tol) {
			return false
		}
	}
	return true
}

func geomNear(a, b geom.Geom, tol float64) bool {
	switch aa := a.(type) {
	case geom.Point:
		bb, ok := b.(geom.Point)
		return ok && pointNear(aa, bb, tol)
	case geom.LineString:
		bb, ok := b.(geom.LineString)
		return ok && pathNear(aa, bb, tol)
	case geom.Polygon:
		bb, ok := b.(geom.Polygon)
		if !ok || len(aa) != len(bb) {
			return false
		}
		for i := range aa {
			if !pathNear(aa[i], bb[i], tol) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

// replayTol absorbs the rounding that screen unprojection introduces,
// which is relative to EarthRadius-scale coordinates.
const replayTol = 1e-5

func TestReplayVertexDrag(t *testing.T) {
	dir := t.TempDir()
	shapesPath := filepath.Join(dir, "shapes.geojson")
	writeShapesFile(t, shapesPath, replaySquare())
	scriptPath := filepath.Join(dir, "script.toml")
	writeFile(t, scriptPath, `
[policy]
result = "modify"

[[gesture]]
action = "down"
x = 460.0
y = 360.0

[[gesture]]
action = "move"
x = 490.0
y = 330.0

[[gesture]]
action = "up"
x = 490.0
y = 330.0
`)
	outPath := filepath.Join(dir, "out.geojson")

	if err := Replay(io.Discard, scriptPath, shapesPath, outPath, "EPSG:3857", -1, 8, nil, true); err != nil {
		t.Fatal(err)
	}

	geoms, ids := readShapesFile(t, outPath)
	if len(geoms) != 1 {
		t.Fatalf("have %d features, want 1", len(geoms))
	}
	if ids[0] != 1 {
		t.Errorf("feature ID: have %g, want 1", ids[0])
	}
	const r = vectoredit.EarthRadius
	want := geom.Polygon{{
		{X: -2 * r, Y: -2 * r},
		{X: 3 * r, Y: -r},
		{X: 2 * r, Y: 2 * r},
		{X: -2 * r, Y: 2 * r},
		{X: -2 * r, Y: -2 * r},
	}}
	if !geomNear(geoms[0], want, replayTol) {
		t.Errorf("have %#v, want %#v", geoms[0], want)
	}
}

func TestReplayDeleteElement(t *testing.T) {
	const r = vectoredit.EarthRadius
	dir := t.TempDir()
	shapesPath := filepath.Join(dir, "shapes.geojson")
	writeShapesFile(t, shapesPath, replaySquare(), geom.Point{X: 6 * r, Y: 6 * r})
	scriptPath := filepath.Join(dir, "script.toml")
	writeFile(t, scriptPath, `
[policy]
start = "delete"

[[gesture]]
action = "down"
x = 415.0
y = 285.0
`)
	outPath := filepath.Join(dir, "out.geojson")

	if err := Replay(io.Discard, scriptPath, shapesPath, outPath, "EPSG:3857", -1, 8, nil, true); err != nil {
		t.Fatal(err)
	}

	geoms, ids := readShapesFile(t, outPath)
	if len(geoms) != 1 {
		t.Fatalf("have %d features after delete, want 1", len(geoms))
	}
	if ids[0] != 2 {
		t.Errorf("surviving feature ID: have %g, want 2", ids[0])
	}
	if !geomNear(geoms[0], geom.Point{X: 6 * r, Y: 6 * r}, replayTol) {
		t.Errorf("surviving feature moved: have %#v", geoms[0])
	}
}

func TestReplayElementDragExpression(t *testing.T) {
	dir := t.TempDir()
	shapesPath := filepath.Join(dir, "shapes.geojson")
	writeShapesFile(t, shapesPath, replaySquare())
	scriptPath := filepath.Join(dir, "script.toml")
	writeFile(t, scriptPath, `
[policy]
expr = "mode == 'element'"

[[gesture]]
action = "down"
x = 415.0
y = 285.0

[[gesture]]
action = "move"
x = 445.0
y = 255.0

[[gesture]]
action = "up"
x = 445.0
y = 255.0
`)
	outPath := filepath.Join(dir, "out.geojson")

	if err := Replay(io.Discard, scriptPath, shapesPath, outPath, "EPSG:3857", -1, 8, nil, true); err != nil {
		t.Fatal(err)
	}

	geoms, _ := readShapesFile(t, outPath)
	if len(geoms) != 1 {
		t.Fatalf("have %d features, want 1", len(geoms))
	}
	const r = vectoredit.EarthRadius
	want := geom.Polygon{{
		{X: -r, Y: -r},
		{X: 3 * r, Y: -r},
		{X: 3 * r, Y: 3 * r},
		{X: -r, Y: 3 * r},
		{X: -r, Y: -r},
	}}
	if !geomNear(geoms[0], want, replayTol) {
		t.Errorf("have %#v, want %#v", geoms[0], want)
	}
}

func TestReplayResultOverrides(t *testing.T) {
	dir := t.TempDir()
	shapesPath := filepath.Join(dir, "shapes.geojson")
	writeShapesFile(t, shapesPath, replaySquare())
	scriptPath := filepath.Join(dir, "script.toml")
	writeFile(t, scriptPath, `
[[gesture]]
action = "down"
x = 460.0
y = 360.0
`)
	outPath := filepath.Join(dir, "out.geojson")

	err := Replay(io.Discard, scriptPath, shapesPath, outPath, "EPSG:3857", -1, 8, []string{"delete"}, true)
	if err != nil {
		t.Fatal(err)
	}

	geoms, _ := readShapesFile(t, outPath)
	if len(geoms) != 1 {
		t.Fatalf("have %d features, want 1", len(geoms))
	}
	const r = vectoredit.EarthRadius
	want := geom.Polygon{{
		{X: -2 * r, Y: -2 * r},
		{X: 2 * r, Y: 2 * r},
		{X: -2 * r, Y: 2 * r},
		{X: -2 * r, Y: -2 * r},
	}}
	if !geomNear(geoms[0], want, replayTol) {
		t.Errorf("have %#v, want %#v", geoms[0], want)
	}
}

func TestReplaySelectByID(t *testing.T) {
	const r = vectoredit.EarthRadius
	dir := t.TempDir()
	shapesPath := filepath.Join(dir, "shapes.geojson")
	writeShapesFile(t, shapesPath, replaySquare(), geom.Point{X: 6 * r, Y: 6 * r})
	scriptPath := filepath.Join(dir, "script.toml")
	writeFile(t, scriptPath, `
[select]
id = 2

[[gesture]]
action = "down"
x = 580.0
y = 120.0

[[gesture]]
action = "move"
x = 610.0
y = 90.0

[[gesture]]
action = "up"
x = 610.0
y = 90.0
`)
	outPath := filepath.Join(dir, "out.geojson")

	if err := Replay(io.Discard, scriptPath, shapesPath, outPath, "EPSG:3857", -1, 8, nil, true); err != nil {
		t.Fatal(err)
	}

	geoms, ids := readShapesFile(t, outPath)
	if len(geoms) != 2 {
		t.Fatalf("have %d features, want 2", len(geoms))
	}
	if !geomNear(geoms[0], replaySquare(), replayTol) {
		t.Errorf("unselected square moved: have %#v", geoms[0])
	}
	if ids[1] != 2 {
		t.Errorf("feature ID: have %g, want 2", ids[1])
	}
	if !geomNear(geoms[1], geom.Point{X: 7 * r, Y: 7 * r}, replayTol) {
		t.Errorf("have %#v, want the point at (%g, %g)", geoms[1], 7*r, 7*r)
	}
}

func TestReplaySelectOverride(t *testing.T) {
	const r = vectoredit.EarthRadius
	dir := t.TempDir()
	shapesPath := filepath.Join(dir, "shapes.geojson")
	writeShapesFile(t, shapesPath, replaySquare(), geom.Point{X: 6 * r, Y: 6 * r})
	scriptPath := filepath.Join(dir, "script.toml")
	// The script drags the point element, but the command line
	// forces selection of the square, so the gestures miss.
	writeFile(t, scriptPath, `
[select]
id = 2

[[gesture]]
action = "down"
x = 580.0
y = 120.0
`)

	var buf bytes.Buffer
	if err := Replay(&buf, scriptPath, shapesPath, "", "EPSG:3857", 0, 8, nil, false); err != nil {
		t.Fatal(err)
	}

	geoms, _ := readShapesFrom(t, &buf)
	if len(geoms) != 2 {
		t.Fatalf("have %d features, want 2", len(geoms))
	}
	if !geomNear(geoms[0], replaySquare(), replayTol) {
		t.Errorf("square moved: have %#v", geoms[0])
	}
	if !geomNear(geoms[1], geom.Point{X: 6 * r, Y: 6 * r}, replayTol) {
		t.Errorf("point moved: have %#v", geoms[1])
	}
}

func TestReplayStrict(t *testing.T) {
	dir := t.TempDir()
	shapesPath := filepath.Join(dir, "shapes.geojson")
	writeShapesFile(t, shapesPath, replaySquare())
	scriptPath := filepath.Join(dir, "script.toml")
	writeFile(t, scriptPath, `
[[gesture]]
action = "down"
x = 700.0
y = 100.0
`)

	err := Replay(io.Discard, scriptPath, shapesPath, "", "EPSG:3857", -1, 8, nil, true)
	if err == nil {
		t.Fatal("a missed gesture under strict should fail but it does not.")
	}
	if !strings.Contains(err.Error(), "not consumed") {
		t.Errorf("error %q should say the gesture was not consumed but it does not.", err)
	}

	var buf bytes.Buffer
	if err := Replay(&buf, scriptPath, shapesPath, "", "EPSG:3857", -1, 8, nil, false); err != nil {
		t.Fatal(err)
	}
	geoms, _ := readShapesFrom(t, &buf)
	if len(geoms) != 1 || !geomNear(geoms[0], replaySquare(), replayTol) {
		t.Errorf("missed gesture changed the shapes: have %#v", geoms)
	}
}

func TestReplayErrors(t *testing.T) {
	dir := t.TempDir()
	shapesPath := filepath.Join(dir, "shapes.geojson")
	writeShapesFile(t, shapesPath, replaySquare())
	scriptPath := filepath.Join(dir, "script.toml")
	writeFile(t, scriptPath, "[[gesture]]\naction = \"down\"\nx = 400.0\ny = 300.0\n")

	err := Replay(io.Discard, filepath.Join(dir, "absent.toml"), shapesPath, "", "EPSG:3857", -1, 8, nil, false)
	if err == nil || !strings.Contains(err.Error(), "gesture script") {
		t.Errorf("missing script: have %v", err)
	}

	err = Replay(io.Discard, scriptPath, filepath.Join(dir, "absent.geojson"), "", "EPSG:3857", -1, 8, nil, false)
	if err == nil || !strings.Contains(err.Error(), "shapes file") {
		t.Errorf("missing shapes: have %v", err)
	}

	err = Replay(io.Discard, scriptPath, shapesPath, "", "bogus", -1, 8, nil, false)
	if err == nil {
		t.Error("an invalid projection should fail but it does not.")
	}

	err = Replay(io.Discard, scriptPath, shapesPath, "", "EPSG:3857", 4, 8, nil, false)
	if err == nil || !strings.Contains(err.Error(), "no element at index 4") {
		t.Errorf("out of range selection: have %v", err)
	}

	badAction := filepath.Join(dir, "bad.toml")
	writeFile(t, badAction, "[[gesture]]\naction = \"hover\"\nx = 1.0\ny = 1.0\n")
	err = Replay(io.Discard, badAction, shapesPath, "", "EPSG:3857", -1, 8, nil, false)
	if err == nil || !strings.Contains(err.Error(), "invalid touch action") {
		t.Errorf("invalid action: have %v", err)
	}
}

func TestWriteShapesGeometryCollection(t *testing.T) {
	ds := vectoredit.NewDataSource(vectoredit.NewEPSG3857())
	gc := geom.GeometryCollection{
		geom.Point{X: 1, Y: 2},
		geom.LineString{{X: 0, Y: 0}, {X: 3, Y: 4}},
	}
	if err := ds.Add(vectoredit.NewElement(gc)); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := WriteShapes(&buf, ds, "EPSG:3857"); err != nil {
		t.Fatal(err)
	}

	geoms, ids := readShapesFrom(t, &buf)
	if len(geoms) != 2 {
		t.Fatalf("have %d features, want 2", len(geoms))
	}
	if ids[0] != 1 || ids[1] != 1 {
		t.Errorf("feature IDs: have %v, want both 1", ids)
	}
	if !reflect.DeepEqual(geoms[0], gc[0]) {
		t.Errorf("have %#v, want %#v", geoms[0], gc[0])
	}
	if !reflect.DeepEqual(geoms[1], gc[1]) {
		t.Errorf("have %#v, want %#v", geoms[1], gc[1])
	}
}

func TestLoadShapesShapefile(t *testing.T) {
	const r = vectoredit.EarthRadius
	dir := t.TempDir()
	path := filepath.Join(dir, "shapes.shp")

	type row struct {
		geom.Polygon
		Name string
	}
	enc, err := shp.NewEncoder(path, row{})
	if err != nil {
		t.Fatal(err)
	}
	second := geom.Polygon{{
		{X: 3 * r, Y: 3 * r},
		{X: 5 * r, Y: 3 * r},
		{X: 5 * r, Y: 5 * r},
		{X: 3 * r, Y: 5 * r},
		{X: 3 * r, Y: 3 * r},
	}}
	if err := enc.Encode(row{replaySquare(), "first"}); err != nil {
		t.Fatal(err)
	}
	if err := enc.Encode(row{second, "second"}); err != nil {
		t.Fatal(err)
	}
	enc.Close()

	ds, elements, err := LoadShapes(path, "EPSG:3857")
	if err != nil {
		t.Fatal(err)
	}
	if len(elements) != 2 {
		t.Fatalf("have %d elements, want 2", len(elements))
	}
	if n := len(ds.All()); n != 2 {
		t.Fatalf("data source holds %d elements, want 2", n)
	}
	if !reflect.DeepEqual(elements[0].Geometry(), replaySquare()) {
		t.Errorf("have %#v, want %#v", elements[0].Geometry(), replaySquare())
	}
	if !reflect.DeepEqual(elements[1].Geometry(), second) {
		t.Errorf("have %#v, want %#v", elements[1].Geometry(), second)
	}
	if elements[0].ID() != 1 || elements[1].ID() != 2 {
		t.Errorf("element IDs: have %d, %d, want 1, 2", elements[0].ID(), elements[1].ID())
	}
}
