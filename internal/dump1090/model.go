package dump1090

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/skywatch-bcn/planeview/pkg/core"
)

// Report is the receiver's aircraft.json document.
type Report struct {
	Now      float64    `json:"now"`
	Messages uint64     `json:"messages"`
	Aircraft []Aircraft `json:"aircraft"`
}

// Aircraft is one entry of a Report. Position fields are absent until the
// receiver has decoded a fix.
type Aircraft struct {
	Hex               string   `json:"hex"`
	Flight            *string  `json:"flight,omitempty"`
	Squawk            *string  `json:"squawk,omitempty"`
	Lat               *float64 `json:"lat,omitempty"`
	Lon               *float64 `json:"lon,omitempty"`
	GroundSpeed       *float64 `json:"gs,omitempty"`
	Track             *float64 `json:"track,omitempty"`
	Category          *string  `json:"category,omitempty"`
	GeometricAltitude *float64 `json:"alt_geom,omitempty"`
	BarometerAltitude Altitude `json:"alt_baro"`
}

// Altitude is a barometric altitude in feet. The receiver reports either a
// number or the string "ground".
type Altitude struct {
	Feet   float64
	Ground bool
	Valid  bool
}

func (a *Altitude) UnmarshalJSON(data []byte) error {
	*a = Altitude{}
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s != "ground" {
			return fmt.Errorf("unexpected altitude %q", s)
		}
		a.Ground, a.Valid = true, true
		return nil
	}
	if err := json.Unmarshal(data, &a.Feet); err != nil {
		return fmt.Errorf("unexpected altitude %s", data)
	}
	a.Valid = true
	return nil
}

func (a Altitude) MarshalJSON() ([]byte, error) {
	switch {
	case !a.Valid:
		return []byte("null"), nil
	case a.Ground:
		return []byte(`"ground"`), nil
	default:
		return json.Marshal(a.Feet)
	}
}

// ICAO returns the trimmed transponder address.
func (a Aircraft) ICAO() string {
	return strings.TrimSpace(a.Hex)
}

// Callsign returns the trimmed flight identifier, empty when not yet received.
func (a Aircraft) Callsign() string {
	if a.Flight == nil {
		return ""
	}
	return strings.TrimSpace(*a.Flight)
}

// Position returns the aircraft's position when latitude, longitude and
// altitude are all known. An aircraft on the ground sits at altitude zero.
func (a Aircraft) Position() (core.Position3D, bool) {
	if a.Lat == nil || a.Lon == nil || !a.BarometerAltitude.Valid {
		return core.Position3D{}, false
	}
	return core.Position3D{Lon: *a.Lon, Lat: *a.Lat, Alt: a.BarometerAltitude.Feet}, true
}

// Observed converts the entry into an observation sample, keeping missing
// fields missing.
func (a Aircraft) Observed() core.ObservedAircraft {
	o := core.ObservedAircraft{ICAO: a.ICAO(), Lat: a.Lat, Lon: a.Lon}
	if a.BarometerAltitude.Valid {
		alt := a.BarometerAltitude.Feet
		o.Alt = &alt
		o.OnGround = a.BarometerAltitude.Ground
	}
	return o
}
