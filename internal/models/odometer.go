package models

import "time"

// Location is an optional GPS fix attached to an odometer reading.
type Location struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lon float64 `bson:"lon" json:"lon"`
}

// OdometerReading is a kilometer update for a vehicle, published over MQTT on
// vehicles/{id}/odometer. Readings never move a vehicle's km backwards.
type OdometerReading struct {
	VehicleID int64     `bson:"vehicle_id" json:"vehicle_id"`
	Km        float64   `bson:"km" json:"km"`
	Location  *Location `bson:"location,omitempty" json:"location,omitempty"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}
