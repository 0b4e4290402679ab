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
	"fmt"
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
)

// EarthRadius is the WGS84 spherical Earth radius [m] assumed by the
// Web-Mercator projections.
const EarthRadius = 6378137.0

// maxMercatorLat bounds latitudes so that the Mercator y coordinate
// stays finite.
const maxMercatorLat = 85.051128779806

// A Projection converts positions between data source coordinates and
// the layer's internal coordinate system. Internal coordinates are
// radian-scaled spherical-Mercator values: x grows east over [-π, π]
// and y is the Mercator latitude.
type Projection interface {
	// ToInternal converts a position from data source coordinates to
	// internal coordinates.
	ToInternal(geom.Point) geom.Point

	// FromInternal converts a position from internal coordinates back
	// to data source coordinates.
	FromInternal(geom.Point) geom.Point

	// Name returns an identifier for the projection.
	Name() string
}

// EPSG3857 is the Web-Mercator projection with data source
// coordinates in meters.
type EPSG3857 struct{}

// NewEPSG3857 creates a Web-Mercator projection.
func NewEPSG3857() *EPSG3857 { return &EPSG3857{} }

func (p *EPSG3857) ToInternal(pos geom.Point) geom.Point {
	return geom.Point{X: pos.X / EarthRadius, Y: pos.Y / EarthRadius}
}

func (p *EPSG3857) FromInternal(pos geom.Point) geom.Point {
	return geom.Point{X: pos.X * EarthRadius, Y: pos.Y * EarthRadius}
}

func (p *EPSG3857) Name() string { return "EPSG:3857" }

// EPSG4326 is the WGS84 projection with data source coordinates in
// longitude and latitude degrees.
type EPSG4326 struct{}

// NewEPSG4326 creates a WGS84 longitude-latitude projection.
func NewEPSG4326() *EPSG4326 { return &EPSG4326{} }

func (p *EPSG4326) ToInternal(pos geom.Point) geom.Point {
	return lonLatToInternal(pos.X, pos.Y)
}

func (p *EPSG4326) FromInternal(pos geom.Point) geom.Point {
	lon, lat := internalToLonLat(pos)
	return geom.Point{X: lon, Y: lat}
}

func (p *EPSG4326) Name() string { return "EPSG:4326" }

func lonLatToInternal(lon, lat float64) geom.Point {
	lat = math.Max(-maxMercatorLat, math.Min(maxMercatorLat, lat))
	return geom.Point{
		X: lon * math.Pi / 180,
		Y: math.Log(math.Tan(math.Pi/4 + lat*math.Pi/360)),
	}
}

func internalToLonLat(pos geom.Point) (lon, lat float64) {
	lon = pos.X * 180 / math.Pi
	lat = (2*math.Atan(math.Exp(pos.Y)) - math.Pi/2) * 180 / math.Pi
	return lon, lat
}

// Proj4Projection adapts an arbitrary proj4-defined spatial reference
// to the internal coordinate system by bridging through WGS84
// longitude-latitude. Positions that cannot be transformed map to NaN
// coordinates, which the editing pipeline treats as "abort, event not
// consumed".
type Proj4Projection struct {
	name       string
	toLonLat   proj.Transformer
	fromLonLat proj.Transformer
}

// NewProjectionFromProj4 creates a projection for data sources whose
// coordinates are expressed in the spatial reference described by the
// proj4 string code.
func NewProjectionFromProj4(code string) (*Proj4Projection, error) {
	sr, err := proj.Parse(code)
	if err != nil {
		return nil, fmt.Errorf("vectoredit: while parsing projection %q: %w", code, err)
	}
	longLat, err := proj.Parse("+proj=longlat")
	if err != nil {
		return nil, fmt.Errorf("vectoredit: while parsing longlat projection: %w", err)
	}
	to, err := sr.NewTransform(longLat)
	if err != nil {
		return nil, fmt.Errorf("vectoredit: while creating transform from %q: %w", code, err)
	}
	from, err := longLat.NewTransform(sr)
	if err != nil {
		return nil, fmt.Errorf("vectoredit: while creating transform to %q: %w", code, err)
	}
	return &Proj4Projection{name: code, toLonLat: to, fromLonLat: from}, nil
}

func (p *Proj4Projection) ToInternal(pos geom.Point) geom.Point {
	lon, lat, err := p.toLonLat(pos.X, pos.Y)
	if err != nil {
		return geom.Point{X: math.NaN(), Y: math.NaN()}
	}
	return lonLatToInternal(lon, lat)
}

func (p *Proj4Projection) FromInternal(pos geom.Point) geom.Point {
	lon, lat := internalToLonLat(pos)
	x, y, err := p.fromLonLat(lon, lat)
	if err != nil {
		return geom.Point{X: math.NaN(), Y: math.NaN()}
	}
	return geom.Point{X: x, Y: y}
}

func (p *Proj4Projection) Name() string { return p.name }
