// Package api contains all endpoints available
package api

import (
	"fmt"
	"time"

	"cloudbox/drive-api/aws"
	"cloudbox/drive-api/db"
	"cloudbox/drive-api/middleware"
	"cloudbox/drive-api/service"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	ginzap "github.com/gin-contrib/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

var store = persist.NewMemoryStore(time.Minute)

type API struct {
	Router  *gin.Engine
	Files   *db.FileStore
	Rec     *service.Reconciler
	Billing service.SessionCreator
	Sweeper *service.Sweeper
}

func NewRouter() (*API, error) {
	gdb, err := db.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}

	makeLogger()

	s3, err := aws.NewS3()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize S3 client, %w", err)
	}

	files := db.NewFileStore(gdb)

	a := newAPI(service.NewReconciler(s3, files), service.NewStripeBilling())
	a.Files = files

	if viper.GetBool("sweep.enabled") {
		a.Sweeper = service.NewSweeper(s3, files)
		if err := a.Sweeper.Start(); err != nil {
			return nil, fmt.Errorf("failed to schedule orphan sweep, %w", err)
		}
	}

	return a, nil
}

// newAPI wires the router around already-constructed collaborators.
// Split out so handler tests can inject fakes.
func newAPI(rec *service.Reconciler, billing service.SessionCreator) *API {
	a := &API{
		Rec:     rec,
		Billing: billing,
	}

	router := gin.New()
	a.Router = router

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     []string{viper.GetString("host.client_url")},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.MaxMultipartMemory = 5 << 20

	maxUploadSize := viper.GetInt64("upload.max_size")
	limiter := middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: 20,
		Burst:             40,
	})

	main := router.Group("/api")
	{
		// HEAD /api/heartbeat			-> Used to check if the server is alive
		main.HEAD("/heartbeat", a.Heartbeat)

		// POST /api/upload			-> Uploads a file and creates its record
		main.POST("/upload", limiter, middleware.BodySizeLimiter(maxUploadSize), a.FileUpload)

		// GET /api/list			-> Returns every file record
		main.GET("/list", a.FileList)

		// PUT /api/update/:id			-> Toggles the favorite/trash flags
		main.PUT("/update/:id", limiter, a.FileUpdate)

		// DELETE /api/delete/:id		-> Permanently deletes a file by record id
		main.DELETE("/delete/:id", limiter, a.FileDelete)

		// DELETE /api/delete?key=		-> Key-addressed permanent delete
		main.DELETE("/delete", limiter, a.FileDeleteByKey)

		// GET /api/download?key=		-> Returns a time-limited signed URL
		main.GET("/download", cacheFor(60), a.FileDownload)

		// POST /api/create-checkout-session	-> Starts a billing checkout
		main.POST("/create-checkout-session", limiter, a.CreateCheckoutSession)
	}

	return a
}

func makeLogger() {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	cfg.DisableStacktrace = true

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}

func cacheFor(sec int) gin.HandlerFunc {
	return cache.CacheByRequestURI(store, time.Second*time.Duration(sec))
}
