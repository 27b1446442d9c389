package middleware

import (
	"bufio"
	"context"
	"errors"
	"mime"
	"net/http"
	"strings"

	"pet-registry/internal/platform/apperr"
	"pet-registry/internal/platform/logger"
	"pet-registry/internal/platform/respond"
	"pet-registry/internal/ports/uploads"

	chimw "github.com/go-chi/chi/v5/middleware"
)

const uploadKey ctxKey = "upload"

const defaultMaxUploadBytes = 10 << 20

// Upload es lo que los colaboradores de subida y geolocalización dejan resuelto.
// Coordenadas en orden longitud, latitud.
type Upload struct {
	Filename string
	Lon      float64
	Lat      float64
}

type UploadOptions struct {
	Store uploads.Store

	// Campo del form con el archivo (default "cat").
	Field string
	// Límite del form completo (default 10MB).
	MaxBytes int64

	// ParseCoordinates lee el campo "coordinates" ("longitud,latitud").
	// Sin parser el campo se ignora y se usa la ubicación por defecto.
	ParseCoordinates func(raw string) (lon, lat float64, err error)

	// Ubicación usada si el form no trae "coordinates".
	DefaultLon float64
	DefaultLat float64
}

// Uploads procesa un form multipart: guarda la imagen y resuelve las coordenadas.
// Va después de AuthContext. Si el request no es multipart o no trae archivo, sigue sin adjuntar nada y
// la operación reporta los campos faltantes. Si la operación responde con error,
// el archivo guardado se borra.
func Uploads(opts UploadOptions) func(http.Handler) http.Handler {
	field := strings.TrimSpace(opts.Field)
	if field == "" {
		field = "cat"
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
			// Sin principal no se guarda nada; la operación responde 401.
			if mediaType != "multipart/form-data" || opts.Store == nil || GetPrincipal(r.Context()) == nil {
				next.ServeHTTP(w, r)
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			if err := r.ParseMultipartForm(maxBytes); err != nil {
				respond.Error(w, r, apperr.Validation("invalid multipart form"))
				return
			}

			file, header, err := r.FormFile(field)
			if err != nil {
				if errors.Is(err, http.ErrMissingFile) {
					next.ServeHTTP(w, r)
					return
				}
				respond.Error(w, r, apperr.Validation("invalid file"))
				return
			}
			defer file.Close()

			lon, lat := opts.DefaultLon, opts.DefaultLat
			if raw := strings.TrimSpace(r.FormValue("coordinates")); raw != "" && opts.ParseCoordinates != nil {
				lon, lat, err = opts.ParseCoordinates(raw)
				if err != nil {
					respond.Error(w, r, apperr.Validation(err.Error()))
					return
				}
			}

			br := bufio.NewReader(file)
			head, _ := br.Peek(512)
			if !strings.HasPrefix(http.DetectContentType(head), "image/") {
				respond.Error(w, r, apperr.Validation("file must be an image"))
				return
			}

			name, err := opts.Store.Save(r.Context(), header.Filename, br)
			if err != nil {
				respond.Error(w, r, apperr.Store(err))
				return
			}

			up := Upload{Filename: name, Lon: lon, Lat: lat}
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(WithUpload(r.Context(), up)))

			if ww.Status() >= http.StatusBadRequest {
				discard(context.WithoutCancel(r.Context()), opts.Store, name)
			}
		})
	}
}

func WithUpload(ctx context.Context, up Upload) context.Context {
	return context.WithValue(ctx, uploadKey, up)
}

func GetUpload(ctx context.Context) (Upload, bool) {
	up, ok := ctx.Value(uploadKey).(Upload)
	return up, ok
}

// discard borra un archivo que quedó sin gato. Un fallo solo se loguea.
func discard(ctx context.Context, store uploads.Store, name string) {
	if err := store.Delete(ctx, name); err != nil {
		logger.FromContext(ctx).Warn("orphan upload not removed", map[string]any{
			"filename": name,
			"err":      err,
		})
	}
}
