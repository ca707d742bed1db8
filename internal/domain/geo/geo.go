package geo

import "math"

// KMPerDegree is the flat-earth scale used for crossover distance checks.
const KMPerDegree = 111.0

// PlanarDistanceKM returns the approximate distance in km between two points given in degrees.
// Latitude is scaled by KMPerDegree, longitude additionally by cos of the mean latitude.
func PlanarDistanceKM(lat1, lon1, lat2, lon2 float64) float64 {
	dy := (lat1 - lat2) * KMPerDegree
	dx := (lon1 - lon2) * KMPerDegree * math.Cos((lat1/2+lat2/2)*math.Pi/180)
	return math.Sqrt(dy*dy + dx*dx)
}

// AlignLon shifts lon by multiples of 360 until it lies within 180 degrees of ref.
func AlignLon(lon, ref float64) float64 {
	if math.IsInf(lon, 0) || math.IsInf(ref, 0) {
		return lon
	}
	for lon-ref > 180 {
		lon -= 360
	}
	for lon-ref < -180 {
		lon += 360
	}
	return lon
}

// NormalizeLon360 maps lon into [0, 360).
func NormalizeLon360(lon float64) float64 {
	lon = math.Mod(lon, 360)
	if lon < 0 {
		lon += 360
	}
	if lon >= 360 {
		lon = 0
	}
	return lon
}

// NormalizeLon180 maps lon into [-180, 180).
func NormalizeLon180(lon float64) float64 {
	lon = NormalizeLon360(lon)
	if lon >= 180 {
		lon -= 360
	}
	return lon
}

// ValidateCoordinates checks that latitude is in [-90,90] and longitude in [-180,360).
func ValidateCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon < 360
}
