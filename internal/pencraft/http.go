// Пакет pencraft предоставляет HTTP API приложения для написания и публикации статей.
// Он объединяет хранилище статей, загрузку изображений, серверные сессии редактора и подготовку статей к чтению.
//
// Основные возможности:
//   - CRUD статей, списки по категориям и тегам, поиск и статистика.
//   - Загрузка изображений и обложек.
//   - Сессии редактирования с командами, вставкой, автосохранением и потоком событий через вебсокет.
//   - Подготовленные к чтению статьи и выгрузка в Markdown.
//   - Периодическая очистка неиспользуемых изображений и простаивающих сессий.
package pencraft

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aisa-it/pencraft/internal/pencraft/autosave"
	"github.com/aisa-it/pencraft/internal/pencraft/config"
	"github.com/aisa-it/pencraft/internal/pencraft/cronmanager"
	"github.com/aisa-it/pencraft/internal/pencraft/dao"
	filestorage "github.com/aisa-it/pencraft/internal/pencraft/file-storage"
	"github.com/aisa-it/pencraft/internal/pencraft/maintenance"
	"github.com/aisa-it/pencraft/internal/pencraft/publish"
	"github.com/aisa-it/pencraft/internal/pencraft/sessions"
	"github.com/aisa-it/pencraft/internal/pencraft/uploads"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const (
	// uploadBodyLimit запас над размером изображения на поля multipart формы.
	uploadBodyLimit = "6M"
	bodyLimit       = "2M"
)

type Services struct {
	db       *gorm.DB
	storage  filestorage.FileStorage
	uploads  *uploads.Service
	sessions *sessions.Manager
	renderer *publish.Renderer
	cleaner  *maintenance.AssetsCleaner
}

var cfg *config.Config
var appVersion string

// ServerHeader middleware adds a `Server` header to the response.
func ServerHeader(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set(echo.HeaderServer, "Pencraft")
		return next(c)
	}
}

func NewServices(db *gorm.DB, storage filestorage.FileStorage, c *config.Config) (*Services, error) {
	cfg = c

	renderer, err := publish.NewRenderer(c.RenderCacheSize)
	if err != nil {
		return nil, err
	}

	s := &Services{
		db:       db,
		storage:  storage,
		uploads:  uploads.NewService(storage, dao.NewAssetStore(db)),
		renderer: renderer,
	}
	s.sessions = sessions.NewManager(db, s.uploads,
		sessions.WithAutosaveWindow(c.AutosaveWindow()),
		sessions.WithIdleTimeout(c.SessionIdleTimeout()),
		sessions.WithSystemClipboard(c.SystemClipboard),
	)
	s.cleaner = maintenance.NewAssetCleaner(db, storage, s.uploads, c.AssetsMinAge(), s.sessions.Contents)
	return s, nil
}

// Collectors метрики всех сервисов приложения.
func (s *Services) Collectors() []prometheus.Collector {
	var res []prometheus.Collector
	res = append(res, s.uploads.Collectors()...)
	res = append(res, autosave.Collectors()...)
	res = append(res, sessions.Collectors()...)
	res = append(res, publish.Collectors()...)
	res = append(res, maintenance.Collectors()...)
	return res
}

// JobRegistry периодические задачи обслуживания.
func (s *Services) JobRegistry() cronmanager.JobRegistry {
	return cronmanager.JobRegistry{
		"sessions_idle_close": cronmanager.Job{
			Func:     func() { s.sessions.CloseIdle(context.Background()) },
			Schedule: "* * * * *", // every minute
		},
		"assets_clean": cronmanager.Job{
			Func:     s.cleaner.CleanAssets,
			Schedule: cfg.AssetsCleanupCron,
		},
	}
}

// Router собирает echo с middleware и маршрутами API.
func (s *Services) Router(version string) *echo.Echo {
	appVersion = version

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
		}

		// Ignore 404
		if code == http.StatusNotFound {
			c.NoContent(http.StatusNotFound)
			return
		}
		slog.Error("Unhandled error in endpoint", "url", c.Request().URL, "err", err)
		EErrorMsgStatus(c, nil, code)
	}

	e.Use(ServerHeader)
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowCredentials: true,
	}))
	e.Use(middleware.BodyLimitWithConfig(middleware.BodyLimitConfig{
		Limit: bodyLimit,
		Skipper: func(c echo.Context) bool {
			return isUploadPath(c.Path())
		},
	}))
	e.Use(middleware.BodyLimitWithConfig(middleware.BodyLimitConfig{
		Limit: uploadBodyLimit,
		Skipper: func(c echo.Context) bool {
			return !isUploadPath(c.Path())
		},
	}))
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level:     9,
		MinLength: 2048,
		Skipper: func(c echo.Context) bool {
			return strings.HasSuffix(c.Path(), "/ws/")
		},
	}))
	if !cfg.MetricsDisabled {
		e.Use(echoprometheus.NewMiddleware("pencraft"))
	}
	e.Pre(middleware.AddTrailingSlash())

	e.Validator = NewRequestValidator()

	apiGroup := e.Group("/api/")
	s.AddWritingServices(apiGroup)
	s.AddUploadServices(apiGroup)
	s.AddSessionServices(apiGroup)

	apiGroup.GET("version/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"version": appVersion,
			"storage": cfg.StorageBackend,
		})
	})

	apiGroup.GET("_health/", func(c echo.Context) error {
		if db, err := s.db.DB(); err != nil || db.PingContext(c.Request().Context()) != nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})

	if cfg.StorageBackend == config.StorageLocal {
		e.Static("/uploads", cfg.LocalStoragePath)
	} else if cfg.AWSEndpoint != "" {
		uHttp, err := url.Parse(cfg.AWSEndpoint)
		if err == nil && uHttp.Scheme == "" {
			uHttp, err = url.Parse("http://" + cfg.AWSEndpoint)
		}
		if err != nil {
			slog.Error("Parse storage endpoint", "endpoint", cfg.AWSEndpoint, "err", err)
		} else {
			e.Group("/"+cfg.AWSBucketName,
				middleware.RemoveTrailingSlash(),
				middleware.Proxy(middleware.NewRoundRobinBalancer([]*middleware.ProxyTarget{{URL: uHttp}})))
		}
	}

	if cfg.FrontFilesPath != "" {
		slog.Info("Start front routing")
		e.Use(middleware.StaticWithConfig(middleware.StaticConfig{
			Root:  cfg.FrontFilesPath,
			HTML5: true,
			Skipper: func(c echo.Context) bool {
				return strings.HasPrefix(c.Request().URL.Path, "/api/")
			},
		}))
	}
	return e
}

func isUploadPath(path string) bool {
	return strings.HasSuffix(path, "/images/") ||
		strings.HasSuffix(path, "/covers/") ||
		strings.HasSuffix(path, "/paste/")
}

// PublicStorageURL базовый адрес, по которому клиенты получают загруженные файлы.
func PublicStorageURL(c *config.Config) string {
	base := strings.TrimSuffix(c.WebURL.String(), "/")
	if c.StorageBackend == config.StorageLocal {
		return base + "/uploads"
	}
	return base + "/" + c.AWSBucketName
}

// NewStorage создает хранилище изображений по конфигурации.
func NewStorage(ctx context.Context, c *config.Config) (filestorage.FileStorage, error) {
	publicURL := PublicStorageURL(c)
	switch c.StorageBackend {
	case config.StorageMinio:
		return filestorage.NewMinioStorage(ctx, c.AWSEndpoint, c.AWSAccessKey, c.AWSSecretKey, false, c.AWSBucketName, publicURL)
	case config.StorageS3:
		return filestorage.NewS3Storage(ctx, c.AWSEndpoint, c.AWSRegion, c.AWSAccessKey, c.AWSSecretKey, c.AWSBucketName, publicURL)
	default:
		return filestorage.NewLocalStorage(c.LocalStoragePath, publicURL)
	}
}

func Server(db *gorm.DB, c *config.Config, version string) {
	cfg = c

	storage, err := NewStorage(context.Background(), c)
	if err != nil {
		slog.Error("Fail init storage", "backend", c.StorageBackend, "err", err)
		os.Exit(1)
	}

	s, err := NewServices(db, storage, c)
	if err != nil {
		slog.Error("Fail init services", "err", err)
		os.Exit(1)
	}

	cronManager := cronmanager.NewCronManager(s.JobRegistry())
	if err := cronManager.LoadJobs(); err != nil {
		slog.Error("Failed to load cron jobs", "err", err)
		os.Exit(1)
	}
	cronManager.Start()

	e := s.Router(version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		slog.Info("Shutting down gracefully, press Ctrl+C again to force")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		cronManager.Stop()
		s.sessions.Shutdown(shutdownCtx)
		if err := e.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown", "err", err)
		}
	}()

	if !c.MetricsDisabled {
		go func() {
			bootTimeGauge := prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "pencraft",
				Name:      "boot_time",
				Help:      "Server startup time",
			})
			bootTimeGauge.Set(float64(time.Now().UnixMilli()))

			for _, collector := range append(s.Collectors(), bootTimeGauge) {
				if err := prometheus.Register(collector); err != nil {
					slog.Error("Register metrics collector", "err", err)
					os.Exit(1)
				}
			}

			metrics := echo.New()
			metrics.HideBanner = true
			metrics.GET("/metrics", echoprometheus.NewHandler())
			if err := metrics.Start(":2112"); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server fail", "err", err)
			}
		}()
	}

	slog.Info("Start server", "addr", ":8080", "url", fmt.Sprint(c.WebURL))
	if err := e.Start(":8080"); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server fail", "err", err)
	}
}
