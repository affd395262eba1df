// arenacheck is a deployment probe: it checks the engine's HTTP health
// endpoint and, when REDIS_URL is set, the session store behind it.
// Exit code 0 means every configured check passed.
package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp"

	"github.com/park285/Baduk-Arena-Engine/internal/store"
)

func main() {
	baseURL := strings.TrimSpace(os.Getenv("ENGINE_BASE_URL"))
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8080"
	}

	ok := true
	if err := checkHTTP(baseURL); err != nil {
		log.Printf("healthz error: %v", err)
		ok = false
	} else {
		log.Printf("healthz ok: %s", baseURL)
	}

	if redisURL := strings.TrimSpace(os.Getenv("REDIS_URL")); redisURL != "" {
		if err := checkRedis(redisURL); err != nil {
			log.Printf("redis error: %v", err)
			ok = false
		} else {
			log.Print("redis ok")
		}
	}

	if !ok {
		os.Exit(1)
	}
}

func checkHTTP(baseURL string) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(strings.TrimRight(baseURL, "/") + "/healthz")
	req.Header.SetMethod(fasthttp.MethodGet)
	if err := fasthttp.DoDeadline(req, resp, time.Now().Add(5*time.Second)); err != nil {
		return err
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return &statusError{code: resp.StatusCode()}
	}
	return nil
}

func checkRedis(redisURL string) error {
	opts, err := store.ParseRedisURL(redisURL)
	if err != nil {
		return err
	}
	rdb := redis.NewClient(opts)
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return rdb.Ping(ctx).Err()
}

type statusError struct{ code int }

func (e *statusError) Error() string {
	return "unexpected status " + fasthttp.StatusMessage(e.code)
}
