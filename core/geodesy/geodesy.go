// Package geodesy has great-circle and solar position helpers.
package geodesy

import (
	"math"
	"time"

	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// EarthRadiusKM is the mean Earth radius used for all distances.
const EarthRadiusKM = 6371.0

// axialTilt is the obliquity of the ecliptic in degrees.
const axialTilt = 23.44

// Haversine returns the great-circle distance in kilometers between two
// latitude/longitude pairs given in degrees.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := toRadians(lat1)
	phi2 := toRadians(lat2)
	dPhi := toRadians(lat2 - lat1)
	dLambda := toRadians(lng2 - lng1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	a = math.Min(1, math.Max(0, a))
	return 2 * EarthRadiusKM * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Distance returns the great-circle distance in kilometers between two orb points.
func Distance(a, b orb.Point) float64 {
	return Haversine(a.Lat(), a.Lon(), b.Lat(), b.Lon())
}

// RingLength returns the length of a ring in kilometers, closing it if needed.
func RingLength(r orb.Ring) float64 {
	if len(r) < 2 {
		return 0
	}
	total := 0.0
	for i := 1; i < len(r); i++ {
		total += Distance(r[i-1], r[i])
	}
	if !r.Closed() {
		total += Distance(r[len(r)-1], r[0])
	}
	return total
}

// Bearing returns the initial bearing from one point to another, in [0, 360) degrees.
func Bearing(from, to orb.Point) float64 {
	b := math.Mod(geo.Bearing(from, to)+360, 360)
	if b >= 360 {
		b = 0
	}
	return b
}

// Declination returns the solar declination in degrees for the given instant.
func Declination(t time.Time) float64 {
	dayOfYear := float64(t.UTC().YearDay())
	return -axialTilt * math.Cos(2*math.Pi/365*(dayOfYear+10))
}

// equationOfTime returns the difference between apparent and mean solar time in minutes.
func equationOfTime(t time.Time) float64 {
	b := 2 * math.Pi * (float64(t.UTC().YearDay()) - 81) / 364
	return 9.87*math.Sin(2*b) - 7.53*math.Cos(b) - 1.5*math.Sin(b)
}

// Subsolar returns the point on Earth where the sun is at the zenith.
func Subsolar(t time.Time) (lat, lng float64) {
	u := t.UTC()
	hours := float64(u.Hour()) + float64(u.Minute())/60 + float64(u.Second())/3600
	lng = -15 * (hours - 12 + equationOfTime(u)/60)
	lng = math.Mod(lng+540, 360) - 180
	return Declination(u), lng
}

// UnitVector projects a latitude/longitude onto the unit sphere.
func UnitVector(lat, lng float64) [3]float64 {
	p := s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lng))
	return [3]float64{p.X, p.Y, p.Z}
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
