package domain

import "math"

const earthRadiusMiles = 3958.8

// Haversine returns the great-circle distance between two points in miles.
func Haversine(a, b GeoPoint) float64 {
	lat1 := a.Lat * math.Pi / 180
	lon1 := a.Lon * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	lon2 := b.Lon * math.Pi / 180

	dlat := lat2 - lat1
	dlon := lon2 - lon1

	h := math.Pow(math.Sin(dlat/2), 2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dlon/2), 2)

	return earthRadiusMiles * 2 * math.Asin(math.Sqrt(h))
}

// PointAtDistance walks along a polyline until targetMiles have been
// traveled and returns the interpolated point. If the target exceeds the
// polyline length the last point is returned.
func PointAtDistance(coords []GeoPoint, targetMiles float64) GeoPoint {
	if len(coords) == 0 {
		return GeoPoint{}
	}

	accumulated := 0.0
	for i := 1; i < len(coords); i++ {
		prev, cur := coords[i-1], coords[i]
		segment := Haversine(prev, cur)

		if accumulated+segment >= targetMiles {
			fraction := 0.0
			if segment > 0 {
				fraction = (targetMiles - accumulated) / segment
			}
			return GeoPoint{
				Lat: prev.Lat + fraction*(cur.Lat-prev.Lat),
				Lon: prev.Lon + fraction*(cur.Lon-prev.Lon),
			}
		}
		accumulated += segment
	}

	return coords[len(coords)-1]
}
