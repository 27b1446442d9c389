package cats

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Box es un rectángulo alineado a los ejes en espacio lon/lat.
//
// Ojo: los puntos se escriben "longitud,latitud" (al revés que Google Maps).
// Un box invertido (esquina superior derecha menor que la inferior izquierda)
// no es un error: simplemente no contiene nada.
type Box struct {
	MinLon, MinLat float64 // esquina inferior izquierda
	MaxLon, MaxLat float64 // esquina superior derecha
}

// ParseBox arma el box desde los query params topRight y bottomLeft.
func ParseBox(topRight, bottomLeft string) (Box, error) {
	maxLon, maxLat, err := parseLonLat("topRight", topRight)
	if err != nil {
		return Box{}, err
	}
	minLon, minLat, err := parseLonLat("bottomLeft", bottomLeft)
	if err != nil {
		return Box{}, err
	}
	return Box{MinLon: minLon, MinLat: minLat, MaxLon: maxLon, MaxLat: maxLat}, nil
}

// Contains incluye los bordes.
func (b Box) Contains(l Location) bool {
	lon, lat := l.Lon(), l.Lat()
	return lon >= b.MinLon && lon <= b.MaxLon &&
		lat >= b.MinLat && lat <= b.MaxLat
}

// ParsePoint lee un punto "longitud,latitud" y valida el rango.
// name identifica el campo en los mensajes de error.
func ParsePoint(name, s string) (Location, error) {
	lon, lat, err := parseLonLat(name, s)
	if err != nil {
		return Location{}, err
	}
	if !inRange(lon, lat) {
		return Location{}, fmt.Errorf("%s out of range", name)
	}
	return NewPoint(lon, lat), nil
}

// parseLonLat solo acepta números finitos: NaN e Inf no se pueden serializar a JSON.
func parseLonLat(name, s string) (float64, float64, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%s must be \"longitude,latitude\"", name)
	}
	lon, err := parseFinite(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%s longitude is not a number", name)
	}
	lat, err := parseFinite(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%s latitude is not a number", name)
	}
	return lon, lat, nil
}

var errNotFinite = errors.New("not a finite number")

func parseFinite(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if !isFinite(f) {
		return 0, errNotFinite
	}
	return f, nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// inRange es falso para NaN: todas las comparaciones fallan.
func inRange(lon, lat float64) bool {
	return lon >= -180 && lon <= 180 && lat >= -90 && lat <= 90
}

func validLocation(l Location) error {
	if l.Type != PointType {
		return fmt.Errorf("location type must be %q", PointType)
	}
	if !inRange(l.Lon(), l.Lat()) {
		return errors.New("location coordinates out of range")
	}
	return nil
}
