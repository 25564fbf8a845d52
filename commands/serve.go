package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"usercenter/auth"
	"usercenter/config"
	"usercenter/controllers"
	"usercenter/database"
	"usercenter/registry"
	"usercenter/repositories"
	"usercenter/services"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"github.com/go-openapi/spec"
	redislib "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	config.InitConfig()

	var logger *zap.Logger
	switch config.AppConfig.LogLevel {
	case "debug":
		logger, _ = zap.NewDevelopment()
	default:
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync() // Make sure the buffer is flushed before the program exits

	auth.SetSigningKey([]byte(config.AppConfig.JwtSecret))
	auth.SetTokenTTL(time.Duration(config.AppConfig.TokenTTLHours) * time.Hour)

	database.InitDB()

	if addr := config.AppConfig.Redis.Addr; addr != "" {
		client := redislib.NewClient(&redislib.Options{
			Addr:     addr,
			Password: config.AppConfig.Redis.Password,
			DB:       config.AppConfig.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			logger.Warn("Redis unavailable, token revocation at logout is disabled", zap.Error(err))
		} else {
			auth.SetDenylist(auth.NewTokenDenylist(client))
		}
	}

	userService := services.NewUserService(repositories.NewUserRepository(database.DB))
	userController := controllers.NewUserController(userService)

	container := restful.NewContainer()
	container.DoNotRecover(false)
	container.RecoverHandler(func(rec interface{}, w http.ResponseWriter) {
		logger.Error("Panic recovered in handler", zap.Any("panic", rec))
		w.WriteHeader(http.StatusInternalServerError)
	})
	container.Filter(requestLogFilter(logger))

	userWS := new(restful.WebService)
	userController.RegisterRoutes(userWS)
	container.Add(userWS)
	container.Add(auth.NewWebService())
	container.Add(controllers.NewHealthWebService())

	container.Add(restfulspec.NewOpenAPIService(restfulspec.Config{
		WebServices:                   container.RegisteredWebServices(),
		APIPath:                       "/apidocs.json",
		PostBuildSwaggerObjectHandler: enrichSwaggerObject,
	}))

	port := config.AppConfig.HTTPPort
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: container,
	}

	if config.AppConfig.Consul.Enabled {
		if deregister, err := registerWithConsul(logger, port); err != nil {
			logger.Warn("Consul registration failed", zap.Error(err))
		} else {
			defer deregister()
		}
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// registerWithConsul registers this instance and returns the matching
// deregistration func.
func registerWithConsul(logger *zap.Logger, port int) (func(), error) {
	reg, err := registry.NewConsulRegistry(logger.Sugar())
	if err != nil {
		return nil, err
	}

	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "localhost"
	}

	serviceName := config.AppConfig.ServiceName
	serviceID := fmt.Sprintf("%s-%s-%d", serviceName, host, port)
	check := registry.CreateHTTPCheck(serviceID, host, port, "/healthz", "10s", "1s")

	if err := reg.Register(serviceID, serviceName, host, port, []string{"http"}, check); err != nil {
		return nil, err
	}

	return func() { _ = reg.Deregister(serviceID) }, nil
}

// requestLogFilter logs one line per request after it completed.
func requestLogFilter(logger *zap.Logger) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		start := time.Now()

		chain.ProcessFilter(req, resp)

		logger.Info("Request",
			zap.String("client_ip", req.Request.RemoteAddr),
			zap.String("method", req.Request.Method),
			zap.String("path", req.Request.URL.Path),
			zap.Int("status_code", resp.StatusCode()),
			zap.Duration("latency", time.Since(start)),
			zap.String("user_agent", req.Request.UserAgent()),
		)
	}
}

func enrichSwaggerObject(swo *spec.Swagger) {
	swo.Info = &spec.Info{
		InfoProps: spec.InfoProps{
			Title:       "User Center API",
			Description: "User management starter: authentication, role-based user CRUD",
			Version:     "1.0.0",
		},
	}
	swo.Tags = []spec.Tag{
		{TagProps: spec.TagProps{Name: "auth", Description: "Login and logout"}},
		{TagProps: spec.TagProps{Name: "users", Description: "User management"}},
		{TagProps: spec.TagProps{Name: "health", Description: "Service health"}},
	}
}
