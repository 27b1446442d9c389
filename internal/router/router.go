package router

import (
	"net/http"

	_ "pet-registry/docs"

	"pet-registry/internal/adapters/password/bcrypt"
	mem "pet-registry/internal/adapters/storage/memory"
	"pet-registry/internal/domain/cats"
	"pet-registry/internal/domain/users"
	"pet-registry/internal/middleware"
	"pet-registry/internal/platform/logger"
	"pet-registry/internal/platform/metrics"
	"pet-registry/internal/ports/auth"
	"pet-registry/internal/ports/uploads"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const APIPrefix = "/api/v1"

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcionales: si no vienen, in-memory.
	CatsRepo  cats.Repository
	UsersRepo users.Repository

	// Default bcrypt.
	Hasher users.PasswordHasher

	// Sin store las altas multipart no resuelven archivo y fallan por validación.
	Uploads    uploads.Store
	DefaultLon float64
	DefaultLat float64

	Logger logger.Logger
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(metrics.HTTPMiddleware)
	r.Use(middleware.Recover)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	catRepo := opts.CatsRepo
	if catRepo == nil {
		catRepo = mem.NewCatRepo()
	}
	userRepo := opts.UsersRepo
	if userRepo == nil {
		userRepo = mem.NewUserRepo()
	}
	hasher := opts.Hasher
	if hasher == nil {
		hasher = bcrypt.NewHasher(0)
	}

	// Services por módulo
	usersSvc := users.NewService(userRepo, hasher)
	catsSvc := cats.NewService(catRepo, ownerDirectory{users: usersSvc})

	upload := middleware.Uploads(middleware.UploadOptions{
		Store:            opts.Uploads,
		ParseCoordinates: parseCoordinates,
		DefaultLon:       opts.DefaultLon,
		DefaultLat:       opts.DefaultLat,
	})

	// Rutas por módulo
	r.Route(APIPrefix, func(api chi.Router) {
		cats.RegisterRoutes(api, catsSvc, upload)
		users.RegisterRoutes(api, usersSvc)
	})

	return otelhttp.NewHandler(r, "pet-registry")
}
