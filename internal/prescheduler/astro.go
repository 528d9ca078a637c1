package prescheduler

import (
	"math"
	"time"
)

// Low-precision positional astronomy, good to a fraction of a degree.
// That is plenty for deciding visibility windows sampled at one-minute
// resolution.

const degToRad = math.Pi / 180.0

// j2000 is the standard epoch 2000 January 1.5 TT.
var j2000 = time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)

// daysSinceJ2000 returns the elapsed days, fractional.
func daysSinceJ2000(t time.Time) float64 {
	return t.Sub(j2000).Seconds() / 86400.0
}

// localSiderealDeg returns the local sidereal time in degrees for an
// east-positive longitude.
func localSiderealDeg(t time.Time, longitude float64) float64 {
	d := daysSinceJ2000(t)
	gmst := 280.46061837 + 360.98564736629*d
	return wrapDeg(gmst + longitude)
}

// altitudeDeg computes the altitude of a target at (ra, dec) degrees as
// seen from (latitude, longitude) at time t.
func altitudeDeg(t time.Time, ra, dec, latitude, longitude float64) float64 {
	hourAngle := (localSiderealDeg(t, longitude) - ra) * degToRad
	latRad := latitude * degToRad
	decRad := dec * degToRad

	sinAlt := math.Sin(latRad)*math.Sin(decRad) +
		math.Cos(latRad)*math.Cos(decRad)*math.Cos(hourAngle)
	return math.Asin(clamp(sinAlt, -1, 1)) / degToRad
}

// sunAltitudeDeg computes the Sun's altitude using the low-precision
// solar position formulas (mean longitude and anomaly, ecliptic
// coordinates, equatorial conversion).
func sunAltitudeDeg(t time.Time, latitude, longitude float64) float64 {
	d := daysSinceJ2000(t)

	meanLongitude := wrapDeg(280.460 + 0.9856474*d)
	meanAnomaly := wrapDeg(357.528+0.9856003*d) * degToRad

	eclipticLongitude := (meanLongitude +
		1.915*math.Sin(meanAnomaly) +
		0.020*math.Sin(2*meanAnomaly)) * degToRad
	obliquity := (23.439 - 0.0000004*d) * degToRad

	ra := math.Atan2(math.Cos(obliquity)*math.Sin(eclipticLongitude), math.Cos(eclipticLongitude)) / degToRad
	dec := math.Asin(math.Sin(obliquity)*math.Sin(eclipticLongitude)) / degToRad

	return altitudeDeg(t, wrapDeg(ra), dec, latitude, longitude)
}

func wrapDeg(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
