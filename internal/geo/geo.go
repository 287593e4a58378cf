package geo

import (
	"fmt"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"

	"github.com/skywatch-bcn/planeview/pkg/core"
)

// GEO POINTS
// Stored positions are always 3857 so that SQLite, which has no spatial awareness,
// can hold them as plain WKB and distances in metres can be read straight off the
// coordinates. Altitude travels in Z unchanged.

var to3857 = wgs84.EPSG().Transform(4326, 3857)

// Coords3857From4326 projects a longitude/latitude pair to a web mercator point
// carrying alt as its Z value.
func Coords3857From4326(longitude, latitude, alt float64) (geom.Point, error) {
	x, y, _ := to3857(longitude, latitude, 0)
	pt, err := geom.NewPoint(
		geom.Coordinates{
			XY:   geom.XY{X: x, Y: y},
			Z:    alt,
			Type: geom.DimXYZ,
		},
	)
	if err != nil {
		return geom.NewEmptyPoint(geom.DimXYZ), fmt.Errorf("invalid position %f,%f: %w", latitude, longitude, err)
	}
	return pt, nil
}

// PointFromPosition projects a receiver position to 3857.
func PointFromPosition(p core.Position3D) (geom.Point, error) {
	return Coords3857From4326(p.Lon, p.Lat, p.Alt)
}

// PositionFromPoint reads back the projected coordinates of a stored point.
// The result is in 3857 metres, not degrees.
func PositionFromPoint(p geom.Point) (core.Position3D, bool) {
	c, ok := p.Coordinates()
	if !ok {
		return core.Position3D{}, false
	}
	return core.Position3D{Lon: c.X, Lat: c.Y, Alt: c.Z}, true
}
