package model

import (
	"database/sql"
	"encoding/json"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"

	"github.com/skywatch-bcn/planeview/internal/geo"
	"github.com/skywatch-bcn/planeview/pkg/core"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// LocalTimeLayout is the wall clock format kept next to each observation.
const LocalTimeLayout = "2006-01-02 15:04:05"

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Observation{},
	&AircraftPosition{},
}

// Observation is one poll of the receiver.
// Lats, Lons and Alts keep the receiver's order, with null for missing values.
type Observation struct {
	ID            uint               `json:"id" gorm:"primarykey;autoIncrement;"`
	Time          time.Time          `json:"time" gorm:"index:idx_observation_time"`
	LocalTime     string             `json:"localTime" gorm:"size:19"` // Wall clock in the configured timezone
	AircraftCount int                `json:"aircraftCount"`
	Lats          datatypes.JSON     `json:"lats"`
	Lons          datatypes.JSON     `json:"lons"`
	Alts          datatypes.JSON     `json:"alts"`
	Positions     []AircraftPosition `json:"positions" gorm:"foreignKey:ObservationID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (*Observation) TableName() string {
	return "observations"
}

// AircraftPosition is a located aircraft inside an Observation.
// Position is web mercator (3857) with the barometric altitude as Z.
type AircraftPosition struct {
	ID            uint            `json:"id" gorm:"primarykey;autoIncrement;"`
	ObservationID uint            `json:"observationId" gorm:"index:idx_position_observation_id"`
	Time          time.Time       `json:"time"`
	ICAO          string          `json:"icao" gorm:"size:6;index:idx_position_icao"`
	Position      geom.Point      `json:"position"`
	Altitude      sql.NullFloat64 `json:"altitude"`
	OnGround      bool            `json:"onGround" gorm:"default:false"`
}

func (*AircraftPosition) TableName() string {
	return "aircraft_positions"
}

// FromObservation converts a recorded poll into its database rows.
// Aircraft without a usable latitude and longitude appear in the lists only.
func FromObservation(o core.Observation, loc *time.Location) Observation {
	if loc == nil {
		loc = time.UTC
	}

	lats := make([]*float64, 0, len(o.Aircraft))
	lons := make([]*float64, 0, len(o.Aircraft))
	alts := make([]any, 0, len(o.Aircraft))
	var positions []AircraftPosition

	for _, a := range o.Aircraft {
		lats = append(lats, a.Lat)
		lons = append(lons, a.Lon)
		switch {
		case a.OnGround:
			alts = append(alts, "ground")
		case a.Alt != nil:
			alts = append(alts, *a.Alt)
		default:
			alts = append(alts, nil)
		}

		if a.Lat == nil || a.Lon == nil {
			continue
		}
		p := core.Position3D{Lon: *a.Lon, Lat: *a.Lat}
		var altitude sql.NullFloat64
		if a.Alt != nil {
			p.Alt = *a.Alt
			altitude = sql.NullFloat64{Float64: *a.Alt, Valid: true}
		}
		point, err := geo.PointFromPosition(p)
		if err != nil {
			continue
		}
		positions = append(positions, AircraftPosition{
			Time:     o.Time,
			ICAO:     a.ICAO,
			Position: point,
			Altitude: altitude,
			OnGround: a.OnGround,
		})
	}

	return Observation{
		Time:          o.Time,
		LocalTime:     o.Time.In(loc).Format(LocalTimeLayout),
		AircraftCount: len(o.Aircraft),
		Lats:          toJSON(lats),
		Lons:          toJSON(lons),
		Alts:          toJSON(alts),
		Positions:     positions,
	}
}

func toJSON(v any) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(data)
}
