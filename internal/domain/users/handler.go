package users

import (
	"encoding/json"
	"net/http"

	"pet-registry/internal/middleware"
	"pet-registry/internal/platform/apperr"
	"pet-registry/internal/platform/respond"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/users", func(ur chi.Router) {
		ur.Get("/", listUsersHandler(svc))
		ur.Post("/", registerUserHandler(svc))

		// Usuario actual (según el principal del request)
		ur.Put("/", updateCurrentUserHandler(svc))
		ur.Delete("/", deleteCurrentUserHandler(svc))
		ur.Get("/token", checkSessionHandler(svc))

		ur.Get("/{userID}", getUserHandler(svc))
	})
}

// registerUserRequest es el cuerpo del registro. role se acepta pero se ignora.
type registerUserRequest struct {
	UserName string `json:"user_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// updateUserRequest: punteros para update parcial. No existe campo role.
type updateUserRequest struct {
	UserName *string `json:"user_name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// userResponse es la vista pública de un usuario (sin password ni role).
type userResponse struct {
	ID       string `json:"id"`
	UserName string `json:"user_name"`
	Email    string `json:"email"`
}

// userMessageResponse es el sobre de las mutaciones de usuario.
type userMessageResponse struct {
	Message string       `json:"message"`
	Data    userResponse `json:"data"`
}

// listUsersHandler godoc
// @Summary Listar usuarios
// @Description Devuelve todos los usuarios sin password ni role.
// @Tags users
// @Produce json
// @Success 200 {array} userResponse
// @Failure 500 {object} respond.ErrorBody
// @Router /users [get]
func listUsersHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context())
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		out := make([]userResponse, 0, len(items))
		for _, u := range items {
			out = append(out, toUserResponse(u))
		}
		respond.JSON(w, r, http.StatusOK, out)
	}
}

// getUserHandler godoc
// @Summary Obtener usuario
// @Tags users
// @Produce json
// @Param userID path string true "ID del usuario"
// @Success 200 {object} userResponse
// @Failure 404 {object} respond.ErrorBody
// @Router /users/{userID} [get]
func getUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := svc.Get(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, r, http.StatusOK, toUserResponse(u))
	}
}

// registerUserHandler godoc
// @Summary Registrar usuario
// @Description Crea un usuario. El rol siempre queda en `user` aunque el body mande otro.
// @Tags users
// @Accept json
// @Produce json
// @Param payload body registerUserRequest true "Datos del usuario"
// @Success 200 {object} userMessageResponse
// @Failure 400 {object} respond.ErrorBody
// @Router /users [post]
func registerUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.Error(w, r, apperr.Validation("invalid json"))
			return
		}

		u, err := svc.Register(r.Context(), RegisterInput{
			UserName: req.UserName,
			Email:    req.Email,
			Password: req.Password,
			Role:     req.Role,
		})
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		respond.JSON(w, r, http.StatusOK, userMessageResponse{
			Message: "User added",
			Data:    toUserResponse(u),
		})
	}
}

// updateCurrentUserHandler godoc
// @Summary Actualizar usuario actual
// @Description Actualiza nombre, email o password del usuario autenticado. Campos desconocidos (p.ej. role) se rechazan.
// @Tags users
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body updateUserRequest true "Campos a modificar"
// @Success 200 {object} userMessageResponse
// @Failure 400 {object} respond.ErrorBody
// @Failure 401 {object} respond.ErrorBody
// @Failure 404 {object} respond.ErrorBody
// @Router /users [put]
func updateCurrentUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()

		var req updateUserRequest
		if err := dec.Decode(&req); err != nil {
			respond.Error(w, r, apperr.Validation("invalid json: "+err.Error()))
			return
		}

		u, err := svc.UpdateCurrent(r.Context(), middleware.GetPrincipal(r.Context()), UpdateInput{
			UserName: req.UserName,
			Email:    req.Email,
			Password: req.Password,
		})
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		respond.JSON(w, r, http.StatusOK, userMessageResponse{
			Message: "User updated",
			Data:    toUserResponse(u),
		})
	}
}

// deleteCurrentUserHandler godoc
// @Summary Borrar usuario actual
// @Tags users
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Success 200 {object} userMessageResponse
// @Failure 401 {object} respond.ErrorBody
// @Failure 404 {object} respond.ErrorBody
// @Router /users [delete]
func deleteCurrentUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := svc.DeleteCurrent(r.Context(), middleware.GetPrincipal(r.Context()))
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		respond.JSON(w, r, http.StatusOK, userMessageResponse{
			Message: "User deleted",
			Data:    toUserResponse(u),
		})
	}
}

// checkSessionHandler godoc
// @Summary Verificar sesión
// @Description Devuelve el usuario del token sin consultar la base. 204 si no hay usuario resuelto.
// @Tags users
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Success 200 {object} userResponse
// @Success 204 "sin sesión"
// @Router /users/token [get]
func checkSessionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := svc.CheckSession(middleware.GetPrincipal(r.Context()))
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		respond.JSON(w, r, http.StatusOK, toUserResponse(u))
	}
}

func toUserResponse(u Public) userResponse {
	return userResponse{
		ID:       u.ID,
		UserName: u.UserName,
		Email:    u.Email,
	}
}
