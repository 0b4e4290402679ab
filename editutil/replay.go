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
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/carto"
	"github.com/ctessum/geom/encoding/geojson"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/proj"
	"github.com/sirupsen/logrus"
	"github.com/spatialkit/vectoredit"
)

// webMercatorProj4 is the proj4 definition matching EPSG:3857.
const webMercatorProj4 = "+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 " +
	"+lon_0=0.0 +x_0=0.0 +y_0=0 +k=1.0 +units=m +nadgrids=@null +no_defs"

// Replay loads the elements in shapesPath, selects one, feeds the
// gestures in scriptPath through an editing layer mediated by the
// script's policy, and writes the edited elements as GeoJSON to
// outPath, or to w when outPath is empty. selectIndex overrides the
// script's element choice when it is not negative, tolerancePx is the
// hit test tolerance around element bodies, resultOverrides replaces
// the policy with a fixed drag result sequence, and strict makes
// unconsumed gestures an error.
func Replay(w io.Writer, scriptPath, shapesPath, outPath, projCode string, selectIndex int, tolerancePx float64, resultOverrides []string, strict bool) error {
	f, err := os.Open(scriptPath)
	if err != nil {
		return fmt.Errorf("vectoredit: problem opening gesture script: %w", err)
	}
	script, err := DecodeScript(f)
	f.Close()
	if err != nil {
		return err
	}

	ds, elements, err := LoadShapes(shapesPath, projCode)
	if err != nil {
		return err
	}
	view, err := script.View.viewState()
	if err != nil {
		return err
	}
	mapView := vectoredit.NewMapView()
	mapView.SetViewState(view)

	layer := vectoredit.NewEditableLayer(ds)
	layer.Shapes().SetHitTolerance(tolerancePx)
	policy, err := newScriptPolicy(ds, script.Policy, resultOverrides)
	if err != nil {
		return err
	}
	layer.SetEditListener(policy)
	layer.Attach(mapView)
	defer layer.Detach()

	selected, err := scriptSelection(ds, elements, script.Select, selectIndex)
	if err != nil {
		return err
	}
	layer.SetSelectedElement(selected)

	for i, gesture := range script.Gestures {
		action, err := parseTouchAction(gesture.Action)
		if err != nil {
			return fmt.Errorf("vectoredit: replay gesture %d: %w", i, err)
		}
		consumed := layer.OnTouchEvent(action, vectoredit.ScreenPos{X: gesture.X, Y: gesture.Y})
		logrus.WithFields(logrus.Fields{
			"gesture":  i,
			"action":   gesture.Action,
			"x":        gesture.X,
			"y":        gesture.Y,
			"consumed": consumed,
		}).Info("replay gesture")
		if strict && !consumed {
			return fmt.Errorf("vectoredit: replay gesture %d: %s at (%g, %g) was not consumed",
				i, gesture.Action, gesture.X, gesture.Y)
		}
	}
	if err := policy.Err(); err != nil {
		return err
	}
	modified, deleted := policy.counts()
	logrus.WithFields(logrus.Fields{
		"gestures": len(script.Gestures),
		"modified": modified,
		"deleted":  deleted,
		"redraws":  mapView.Redraws(),
	}).Info("replay finished")

	out := w
	if outPath != "" {
		outFile, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("vectoredit: problem creating output file: %w", err)
		}
		defer outFile.Close()
		out = outFile
	}
	return WriteShapes(out, ds, projCode)
}

// scriptSelection picks the element to select, preferring the
// command line's index override over the script's select block.
func scriptSelection(ds *vectoredit.DataSource, elements []*vectoredit.Element, spec SelectSpec, override int) (*vectoredit.Element, error) {
	if override >= 0 {
		if override >= len(elements) {
			return nil, fmt.Errorf("vectoredit: replay: no element at index %d", override)
		}
		return elements[override], nil
	}
	if spec.ID != 0 {
		e := ds.ByID(spec.ID)
		if e == nil {
			return nil, fmt.Errorf("vectoredit: replay: no element with ID %d", spec.ID)
		}
		return e, nil
	}
	if spec.Index < 0 || spec.Index >= len(elements) {
		return nil, fmt.Errorf("vectoredit: replay: no element at index %d", spec.Index)
	}
	return elements[spec.Index], nil
}

// LoadShapes reads the file at filename into a new data source whose
// coordinates are in the spatial reference projCode names. Files
// ending in '.shp' are read as shapefiles; anything else is read as
// GeoJSON. The returned elements are in file order.
func LoadShapes(filename, projCode string) (*vectoredit.DataSource, []*vectoredit.Element, error) {
	projection, err := dataProjection(projCode)
	if err != nil {
		return nil, nil, err
	}
	var geoms []geom.Geom
	if strings.ToLower(filepath.Ext(filename)) == ".shp" {
		geoms, err = loadShapefile(filename, projCode)
	} else {
		geoms, err = loadGeoJSON(filename)
	}
	if err != nil {
		return nil, nil, err
	}
	ds := vectoredit.NewDataSource(projection)
	elements := make([]*vectoredit.Element, len(geoms))
	for i, g := range geoms {
		elements[i] = vectoredit.NewElement(vectoredit.NormalizeGeometry(g))
	}
	if err := ds.AddAll(elements); err != nil {
		return nil, nil, err
	}
	return ds, elements, nil
}

// dataProjection maps the spatial reference name to the data source
// projection handling it.
func dataProjection(code string) (vectoredit.Projection, error) {
	switch code {
	case "", "EPSG:3857":
		return vectoredit.NewEPSG3857(), nil
	case "EPSG:4326":
		return vectoredit.NewEPSG4326(), nil
	}
	return vectoredit.NewProjectionFromProj4(code)
}

// proj4String gives the proj4 definition of the spatial reference
// named by code.
func proj4String(code string) string {
	switch code {
	case "", "EPSG:3857":
		return webMercatorProj4
	case "EPSG:4326":
		return "+proj=longlat +datum=WGS84 +no_defs"
	}
	return code
}

func loadGeoJSON(filename string) ([]geom.Geom, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("vectoredit: problem opening shapes file: %w", err)
	}
	defer f.Close()
	gj, err := carto.LoadGeoJSON(f)
	if err != nil {
		return nil, fmt.Errorf("vectoredit: problem reading shapes file %s: %w", filename, err)
	}
	geoms, err := gj.GetGeometry()
	if err != nil {
		return nil, fmt.Errorf("vectoredit: problem decoding shapes file %s: %w", filename, err)
	}
	return geoms, nil
}

// loadShapefile decodes every row of a shapefile, reprojecting into
// the projCode spatial reference when the file carries one of its
// own. A shapefile without a usable spatial reference is taken to be
// in projCode coordinates already.
func loadShapefile(filename, projCode string) ([]geom.Geom, error) {
	d, err := shp.NewDecoder(filename)
	if err != nil {
		return nil, fmt.Errorf("vectoredit: problem opening shapefile %s: %w", filename, err)
	}
	defer d.Close()

	var trans proj.Transformer
	if fileSR, err := d.SR(); err != nil {
		logrus.WithError(err).Debug("shapefile spatial reference unavailable; using coordinates as is")
	} else {
		target, err := proj.Parse(proj4String(projCode))
		if err != nil {
			return nil, fmt.Errorf("vectoredit: problem parsing projection %q: %w", projCode, err)
		}
		if trans, err = fileSR.NewTransform(target); err != nil {
			return nil, fmt.Errorf("vectoredit: problem reprojecting shapefile %s: %w", filename, err)
		}
	}

	var geoms []geom.Geom
	for {
		g, _, more := d.DecodeRowFields()
		if !more {
			break
		}
		if trans != nil {
			if g, err = g.Transform(trans); err != nil {
				return nil, fmt.Errorf("vectoredit: problem reprojecting shapefile %s: %w", filename, err)
			}
		}
		geoms = append(geoms, g)
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("vectoredit: problem reading shapefile %s: %w", filename, err)
	}
	return geoms, nil
}

// WriteShapes writes the data source's elements to w as a GeoJSON
// feature collection, one feature per element carrying the element ID
// in its properties. Geometry collections become one feature per
// member, all sharing the element's ID.
func WriteShapes(w io.Writer, ds *vectoredit.DataSource, projCode string) error {
	if projCode == "" {
		projCode = "EPSG:3857"
	}
	out := new(carto.GeoJSON)
	out.Type = "FeatureCollection"
	out.CRS = carto.Crs{Type: "name", Properties: carto.CrsProps{Name: projCode}}
	for _, e := range ds.All() {
		for _, g := range featureGeoms(e.Geometry()) {
			gg, err := geojson.ToGeoJSON(g)
			if err != nil {
				return fmt.Errorf("vectoredit: problem encoding element %d: %w", e.ID(), err)
			}
			out.Features = append(out.Features, &carto.GeoJSONfeature{
				Type:       "Feature",
				Geometry:   gg,
				Properties: map[string]float64{"id": float64(e.ID())},
			})
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("vectoredit: problem writing GeoJSON: %w", err)
	}
	return nil
}

// featureGeoms flattens geometry collections into their members;
// anything else passes through unchanged.
func featureGeoms(g geom.Geom) []geom.Geom {
	gc, ok := g.(geom.GeometryCollection)
	if !ok {
		return []geom.Geom{g}
	}
	var out []geom.Geom
	for _, child := range gc {
		out = append(out, featureGeoms(child)...)
	}
	return out
}
