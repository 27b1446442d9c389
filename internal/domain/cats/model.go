package cats

import "time"

// PointType es el único tipo de geometría soportado (GeoJSON Point).
const PointType = "Point"

// Location guarda las coordenadas como [longitud, latitud], en ese orden.
type Location struct {
	Type        string
	Coordinates [2]float64
}

func NewPoint(lon, lat float64) Location {
	return Location{Type: PointType, Coordinates: [2]float64{lon, lat}}
}

func (l Location) Lon() float64 { return l.Coordinates[0] }
func (l Location) Lat() float64 { return l.Coordinates[1] }

// Cat es el registro de una mascota geolocalizada.
type Cat struct {
	ID      string
	OwnerID string

	Name     string
	Weight   float64
	Filename string

	Birthdate time.Time // solo fecha, UTC medianoche
	Location  Location

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Owner es el subconjunto seguro del dueño que se expone junto al gato.
type Owner struct {
	ID       string
	UserName string
	Email    string
}

// Detail es un gato con su dueño expandido.
type Detail struct {
	Cat
	Owner Owner
}

// Patch es un update parcial. nil = no tocar.
type Patch struct {
	Name      *string
	Weight    *float64
	Filename  *string
	Birthdate *time.Time
	Location  *Location
	OwnerID   *string // solo lo setea la ruta admin
	UpdatedAt time.Time
}

// Apply aplica el patch sobre c. Lo usan los stores en memoria.
func (p Patch) Apply(c Cat) Cat {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Weight != nil {
		c.Weight = *p.Weight
	}
	if p.Filename != nil {
		c.Filename = *p.Filename
	}
	if p.Birthdate != nil {
		c.Birthdate = *p.Birthdate
	}
	if p.Location != nil {
		c.Location = *p.Location
	}
	if p.OwnerID != nil {
		c.OwnerID = *p.OwnerID
	}
	if !p.UpdatedAt.IsZero() {
		c.UpdatedAt = p.UpdatedAt
	}
	return c
}
