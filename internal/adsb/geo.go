package adsb

import "math"

// EarthRadiusKm is the mean Earth radius used for great-circle math
const EarthRadiusKm = 6371.0

// HaversineKm calculates the great-circle distance in kilometers between
// two lat/lon points.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180.0

	lat1Rad := lat1 * rad
	lat2Rad := lat2 * rad
	dlat := (lat2 - lat1) * rad
	dlon := (lon2 - lon1) * rad

	a := math.Pow(math.Sin(dlat/2), 2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Pow(math.Sin(dlon/2), 2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// Bearing calculates the initial bearing in degrees from point 1 to point 2.
// Returns a value between 0 and 360 (0 = North, 90 = East) and false when
// the points coincide and no direction exists.
func Bearing(lat1, lon1, lat2, lon2 float64) (float64, bool) {
	if lat1 == lat2 && lon1 == lon2 {
		return 0, false
	}

	rad := math.Pi / 180.0
	lat1Rad := lat1 * rad
	lat2Rad := lat2 * rad
	dlon := (lon2 - lon1) * rad

	y := math.Sin(dlon) * math.Cos(lat2Rad)
	x := math.Cos(lat1Rad)*math.Sin(lat2Rad) -
		math.Sin(lat1Rad)*math.Cos(lat2Rad)*math.Cos(dlon)
	bearing := math.Atan2(y, x) * 180.0 / math.Pi

	return math.Mod(bearing+360.0, 360.0), true
}

// AngleDiff returns the absolute angular distance between two bearings,
// folded into [0, 180].
func AngleDiff(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360.0)
	if d > 180.0 {
		d = 360.0 - d
	}
	return d
}
