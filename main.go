package main

import (
	"crypto/tls"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/joho/godotenv"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"depot-api/api"
	"depot-api/storage"
)

func main() {
	_ = godotenv.Load()
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}
	users, err := storage.OpenUsers(filepath.Join(dataDir, "database.json"))
	if err != nil {
		log.Fatalf("users ledger: %v", err)
	}
	inv, err := storage.OpenInventory(filepath.Join(dataDir, "storage_db.json"))
	if err != nil {
		log.Fatalf("inventory ledger: %v", err)
	}
	if err := inv.InitStorages(envInt("STORAGE_COUNT", 24), envInt("STORAGE_CAPACITY", 1000)); err != nil {
		log.Fatalf("seed storages: %v", err)
	}
	tasks, err := storage.OpenTasks(filepath.Join(dataDir, "tasks_db.json"))
	if err != nil {
		log.Fatalf("tasks ledger: %v", err)
	}

	var auth *api.Auth
	if domain := os.Getenv("JWKS_DOMAIN"); domain != "" {
		jwksURL := fmt.Sprintf("https://%s/.well-known/jwks.json", domain)
		jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{})
		if err != nil {
			log.Fatalf("jwks: %v", err)
		}
		auth = api.NewJWKSAuth(jwks, os.Getenv("JWT_AUDIENCE"), "https://"+domain+"/")
	} else {
		secret := os.Getenv("AUTH_SECRET")
		if secret == "" {
			log.Fatal("missing AUTH_SECRET")
		}
		tokenTTL := 30 * time.Minute
		if v := os.Getenv("TOKEN_TTL"); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil || d <= 0 {
				log.Fatalf("invalid TOKEN_TTL: %v", err)
			}
			tokenTTL = d
		}
		auth = api.NewAuth([]byte(secret), tokenTTL)
	}

	var deduper api.Deduper = api.NewMemoryDeduper()
	if redisConn := os.Getenv("REDIS_CONNECTION_STRING"); redisConn != "" {
		redisOpts, err := redis.ParseURL(redisConn)
		if err != nil {
			parts := strings.Split(redisConn, ",")
			redisOpts = &redis.Options{Addr: parts[0]}
			for _, p := range parts[1:] {
				kv := strings.SplitN(p, "=", 2)
				if len(kv) != 2 {
					continue
				}
				switch strings.ToLower(kv[0]) {
				case "password":
					redisOpts.Password = kv[1]
				case "ssl":
					if strings.ToLower(kv[1]) == "true" {
						redisOpts.TLSConfig = &tls.Config{}
					}
				}
			}
		}
		ttl := 24 * time.Hour
		if v := os.Getenv("DEDUPER_TTL"); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil || d <= 0 {
				log.Fatalf("invalid DEDUPER_TTL: %v", err)
			}
			ttl = d
		}
		deduper = api.NewRedisDeduper(redis.NewClient(redisOpts), ttl)
	}

	e := echo.New()
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echoprometheus.NewMiddleware("depot"))
	e.GET("/metrics", echoprometheus.NewHandler())

	logger := log.New()
	api.Register(e, users, inv, tasks, auth, deduper, logger)

	listenAddr := ":8080"
	if val, ok := os.LookupEnv("PORT"); ok {
		listenAddr = ":" + val
	}

	e.Logger.Fatal(e.Start(listenAddr))
}

func envInt(name string, def int) int {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Fatalf("invalid %s: %q", name, v)
	}
	return n
}
