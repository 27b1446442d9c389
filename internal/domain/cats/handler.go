package cats

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"pet-registry/internal/middleware"
	"pet-registry/internal/platform/apperr"
	"pet-registry/internal/platform/respond"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta /cats. uploads es el middleware que resuelve archivo y coordenadas
// para el alta.
func RegisterRoutes(r chi.Router, svc *Service, uploads func(http.Handler) http.Handler) {
	r.Route("/cats", func(cr chi.Router) {
		cr.Get("/", listCatsHandler(svc))
		cr.With(uploads).Post("/", createCatHandler(svc))

		// Gatos del usuario actual
		cr.Get("/user", listMyCatsHandler(svc))

		// Búsqueda por área (longitud,latitud)
		cr.Get("/area", listCatsInAreaHandler(svc))

		// Admin: cualquier gato, puede cambiar el dueño
		cr.Put("/admin/{catID}", updateCatAsAdminHandler(svc))
		cr.Delete("/admin/{catID}", deleteCatAsAdminHandler(svc))

		cr.Get("/{catID}", getCatHandler(svc))
		cr.Put("/{catID}", updateCatHandler(svc))
		cr.Delete("/{catID}", deleteCatHandler(svc))
	})
}

// updateCatRequest: punteros para update parcial.
// owner solo se respeta en la ruta admin.
type updateCatRequest struct {
	Name      *string          `json:"cat_name"`
	Weight    *numericText     `json:"weight" swaggertype:"number"`
	Birthdate *string          `json:"birthdate"` // YYYY-MM-DD
	Filename  *string          `json:"filename"`
	Location  *locationPayload `json:"location"`
	Owner     *string          `json:"owner"`
}

type locationPayload struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"` // [longitud, latitud]
}

// numericText acepta número o string; la conversión la hace el service.
type numericText string

func (n *numericText) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*n = numericText(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return errors.New("weight must be a number")
	}
	*n = numericText(num.String())
	return nil
}

// catResponse es un gato con el dueño expandido.
type catResponse struct {
	ID        string           `json:"id"`
	Name      string           `json:"cat_name"`
	Weight    float64          `json:"weight"`
	Owner     ownerResponse    `json:"owner"`
	Filename  string           `json:"filename"`
	Birthdate string           `json:"birthdate"`
	Location  locationResponse `json:"location"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// ownerResponse nunca incluye password ni role.
type ownerResponse struct {
	ID       string `json:"id"`
	UserName string `json:"user_name,omitempty"`
	Email    string `json:"email,omitempty"`
}

type locationResponse struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// catMessageResponse es el sobre de las mutaciones.
type catMessageResponse struct {
	Message string      `json:"message"`
	Data    catResponse `json:"data"`
}

// listCatsHandler godoc
// @Summary Listar gatos
// @Description Devuelve todos los gatos con el dueño expandido (id, user_name, email).
// @Tags cats
// @Produce json
// @Success 200 {array} catResponse
// @Failure 500 {object} respond.ErrorBody
// @Router /cats [get]
func listCatsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context())
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, r, http.StatusOK, toCatResponses(items))
	}
}

// listMyCatsHandler godoc
// @Summary Listar mis gatos
// @Description Gatos del usuario autenticado. Lista vacía si no tiene ninguno.
// @Tags cats
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Success 200 {array} catResponse
// @Failure 401 {object} respond.ErrorBody
// @Router /cats/user [get]
func listMyCatsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListByOwner(r.Context(), middleware.GetPrincipal(r.Context()))
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, r, http.StatusOK, toCatResponses(items))
	}
}

// listCatsInAreaHandler godoc
// @Summary Gatos dentro de un área
// @Description Esquinas en formato `longitud,latitud` (primero longitud, al revés que Google Maps). Un área invertida devuelve lista vacía.
// @Tags cats
// @Produce json
// @Param topRight query string true "Esquina superior derecha, p.ej. 24.95,60.20"
// @Param bottomLeft query string true "Esquina inferior izquierda, p.ej. 24.90,60.15"
// @Success 200 {array} catResponse
// @Failure 400 {object} respond.ErrorBody
// @Router /cats/area [get]
func listCatsInAreaHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		items, err := svc.ListWithinBox(r.Context(), q.Get("topRight"), q.Get("bottomLeft"))
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, r, http.StatusOK, toCatResponses(items))
	}
}

// getCatHandler godoc
// @Summary Obtener gato
// @Tags cats
// @Produce json
// @Param catID path string true "ID del gato"
// @Success 200 {object} catResponse
// @Failure 404 {object} respond.ErrorBody
// @Router /cats/{catID} [get]
func getCatHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := svc.Get(r.Context(), chi.URLParam(r, "catID"))
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, r, http.StatusOK, toCatResponse(d))
	}
}

// createCatHandler godoc
// @Summary Crear gato
// @Description Form multipart con la foto en `cat`. El usuario autenticado queda como dueño. `coordinates` es opcional (`longitud,latitud`); si falta se usa la ubicación por defecto.
// @Tags cats
// @Accept mpfd
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param cat formData file true "Foto del gato"
// @Param cat_name formData string true "Nombre"
// @Param weight formData number true "Peso"
// @Param birthdate formData string true "Fecha de nacimiento YYYY-MM-DD"
// @Param coordinates formData string false "longitud,latitud"
// @Success 200 {object} catMessageResponse
// @Failure 400 {object} respond.ErrorBody
// @Failure 401 {object} respond.ErrorBody
// @Router /cats [post]
func createCatHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in := CreateInput{
			Name:      r.FormValue("cat_name"),
			Weight:    r.FormValue("weight"),
			Birthdate: r.FormValue("birthdate"),
		}
		if up, ok := middleware.GetUpload(r.Context()); ok {
			loc := NewPoint(up.Lon, up.Lat)
			in.Filename = up.Filename
			in.Location = &loc
		}

		d, err := svc.Create(r.Context(), middleware.GetPrincipal(r.Context()), in)
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		respond.JSON(w, r, http.StatusOK, catMessageResponse{
			Message: "Cat added",
			Data:    toCatResponse(d),
		})
	}
}

// updateCatHandler godoc
// @Summary Modificar gato (dueño)
// @Description Solo el dueño. El campo owner se ignora. Si el gato no existe o es de otro usuario responde 404.
// @Tags cats
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param catID path string true "ID del gato"
// @Param payload body updateCatRequest true "Campos a modificar"
// @Success 200 {object} catMessageResponse
// @Failure 400 {object} respond.ErrorBody
// @Failure 401 {object} respond.ErrorBody
// @Failure 404 {object} respond.ErrorBody
// @Router /cats/{catID} [put]
func updateCatHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, err := decodeUpdate(r)
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		d, err := svc.UpdateAsOwner(r.Context(), middleware.GetPrincipal(r.Context()), chi.URLParam(r, "catID"), in)
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		respond.JSON(w, r, http.StatusOK, catMessageResponse{
			Message: "Cat modified by owner",
			Data:    toCatResponse(d),
		})
	}
}

// deleteCatHandler godoc
// @Summary Borrar gato (dueño)
// @Tags cats
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param catID path string true "ID del gato"
// @Success 200 {object} catMessageResponse
// @Failure 401 {object} respond.ErrorBody
// @Failure 404 {object} respond.ErrorBody
// @Router /cats/{catID} [delete]
func deleteCatHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := svc.DeleteAsOwner(r.Context(), middleware.GetPrincipal(r.Context()), chi.URLParam(r, "catID"))
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		respond.JSON(w, r, http.StatusOK, catMessageResponse{
			Message: "cat deleted by owner",
			Data:    toCatResponse(d),
		})
	}
}

// updateCatAsAdminHandler godoc
// @Summary Modificar gato (admin)
// @Description Solo admin. Puede cambiar cualquier campo, incluido owner.
// @Tags cats
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param X-Debug-User-Role header string false "Solo en modo dev, rol (admin|user)"
// @Param Authorization header string false "Bearer token en producción"
// @Param catID path string true "ID del gato"
// @Param payload body updateCatRequest true "Campos a modificar"
// @Success 200 {object} catMessageResponse
// @Failure 400 {object} respond.ErrorBody
// @Failure 401 {object} respond.ErrorBody
// @Failure 403 {object} respond.ErrorBody
// @Failure 404 {object} respond.ErrorBody
// @Router /cats/admin/{catID} [put]
func updateCatAsAdminHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, err := decodeUpdate(r)
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		d, err := svc.UpdateAsAdmin(r.Context(), middleware.GetPrincipal(r.Context()), chi.URLParam(r, "catID"), in)
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		respond.JSON(w, r, http.StatusOK, catMessageResponse{
			Message: "Cat modified by admin",
			Data:    toCatResponse(d),
		})
	}
}

// deleteCatAsAdminHandler godoc
// @Summary Borrar gato (admin)
// @Tags cats
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param X-Debug-User-Role header string false "Solo en modo dev, rol (admin|user)"
// @Param Authorization header string false "Bearer token en producción"
// @Param catID path string true "ID del gato"
// @Success 200 {object} catMessageResponse
// @Failure 401 {object} respond.ErrorBody
// @Failure 403 {object} respond.ErrorBody
// @Failure 404 {object} respond.ErrorBody
// @Router /cats/admin/{catID} [delete]
func deleteCatAsAdminHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := svc.DeleteAsAdmin(r.Context(), middleware.GetPrincipal(r.Context()), chi.URLParam(r, "catID"))
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		respond.JSON(w, r, http.StatusOK, catMessageResponse{
			Message: "cat deleted by admin",
			Data:    toCatResponse(d),
		})
	}
}

func decodeUpdate(r *http.Request) (UpdateInput, error) {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req updateCatRequest
	if err := dec.Decode(&req); err != nil {
		return UpdateInput{}, apperr.Validation("invalid json: " + err.Error())
	}

	in := UpdateInput{
		Name:      req.Name,
		Birthdate: req.Birthdate,
		Filename:  req.Filename,
		OwnerID:   req.Owner,
	}
	if req.Weight != nil {
		w := string(*req.Weight)
		in.Weight = &w
	}
	if req.Location != nil {
		if len(req.Location.Coordinates) != 2 {
			return UpdateInput{}, apperr.Validation("location coordinates must be [longitude, latitude]")
		}
		in.Location = &Location{
			Type:        req.Location.Type,
			Coordinates: [2]float64{req.Location.Coordinates[0], req.Location.Coordinates[1]},
		}
	}
	return in, nil
}

func toCatResponses(items []Detail) []catResponse {
	out := make([]catResponse, 0, len(items))
	for _, d := range items {
		out = append(out, toCatResponse(d))
	}
	return out
}

func toCatResponse(d Detail) catResponse {
	return catResponse{
		ID:     d.ID,
		Name:   d.Name,
		Weight: d.Weight,
		Owner: ownerResponse{
			ID:       d.Owner.ID,
			UserName: d.Owner.UserName,
			Email:    d.Owner.Email,
		},
		Filename:  d.Filename,
		Birthdate: d.Birthdate.Format(dateLayout),
		Location: locationResponse{
			Type:        d.Location.Type,
			Coordinates: d.Location.Coordinates,
		},
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}
