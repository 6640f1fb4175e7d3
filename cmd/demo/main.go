// Command demo stands up a mock OAuth token endpoint and a mock data
// endpoint with gofiber, then drives forgehttp.AuthHandler against them to
// walk through the seed scenarios: a plain pass-through call, first-time
// token acquisition, refresh-on-401, and a 429 with a Retry-After hint.
package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/forgehttp/forgehttp/pkg/forgehttp"
	"github.com/forgehttp/forgehttp/pkg/forgelog"
)

const (
	demoClientID     = "demo-client"
	demoClientSecret = "demo-secret"
)

func main() {
	logger := forgelog.New(forgelog.Options{Level: "info"})

	addr, stop := startMockServer(logger)
	defer stop()

	config := &forgehttp.Config{
		ClientID:              demoClientID,
		ClientSecret:          demoClientSecret,
		AuthenticationAddress: "http://" + addr + "/oauth/token",
	}
	if err := config.Validate(); err != nil {
		logger.Error("invalid demo configuration", "error", err)
		return
	}

	handler := forgehttp.NewAuthHandler(config, forgehttp.WithLogger(logger))
	ctx := context.Background()
	dataURL := "http://" + addr + "/data/widgets"

	logger.Info("scenario 1: happy path, no auth")
	run(ctx, logger, handler, dataURL, forgehttp.RequestOptions{})

	logger.Info("scenario 2: first acquisition under a scope")
	run(ctx, logger, handler, dataURL, forgehttp.RequestOptions{Scope: "data:read"})

	logger.Info("scenario 3: server demands a fresh token mid-flight")
	run(ctx, logger, handler, addr401URL(addr), forgehttp.RequestOptions{Scope: "data:read"})

	logger.Info("scenario 4: server asks us to slow down")
	run(ctx, logger, handler, addr429URL(addr), forgehttp.RequestOptions{})
}

func addr401URL(addr string) string { return "http://" + addr + "/data/reauth-once" }
func addr429URL(addr string) string { return "http://" + addr + "/data/throttled-once" }

func run(ctx context.Context, logger interface {
	Info(string, ...any)
	Error(string, ...any)
}, handler *forgehttp.AuthHandler, url string, opts forgehttp.RequestOptions) {
	resp, err := handler.Send(ctx, &forgehttp.Request{Method: http.MethodGet, URL: url}, opts)
	if err != nil {
		logger.Error("call failed", "error", err)
		return
	}
	logger.Info("call completed", "status", resp.StatusCode, "body", string(resp.Body))
}

// startMockServer boots a fiber app implementing the mock OAuth token
// endpoint and three data endpoints exercising the seed scenarios, bound to
// an ephemeral local port. It returns the listener's address and a stop
// function.
func startMockServer(logger interface{ Info(string, ...any) }) (string, func()) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	var reauthSeen, throttledSeen bool

	app.Post("/oauth/token", func(c *fiber.Ctx) error {
		auth := c.Get("Authorization")
		expected := "Basic " + base64.StdEncoding.EncodeToString([]byte(demoClientID+":"+demoClientSecret))
		if auth != expected {
			return c.Status(http.StatusUnauthorized).SendString("bad client credentials")
		}
		return c.JSON(fiber.Map{
			"token_type":   "Bearer",
			"access_token": fmt.Sprintf("tok-%d", time.Now().UnixNano()),
			"expires_in":   3600,
		})
	})

	app.Get("/data/widgets", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).SendString("widgets")
	})

	app.Get("/data/reauth-once", func(c *fiber.Ctx) error {
		if !reauthSeen && strings.HasPrefix(c.Get("Authorization"), "Bearer") {
			reauthSeen = true
			return c.SendStatus(http.StatusUnauthorized)
		}
		return c.Status(http.StatusOK).SendString("reauthorized")
	})

	app.Get("/data/throttled-once", func(c *fiber.Ctx) error {
		if !throttledSeen {
			throttledSeen = true
			c.Set("Retry-After", "1")
			return c.SendStatus(http.StatusTooManyRequests)
		}
		return c.Status(http.StatusOK).SendString("unthrottled")
	})

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		panic(err)
	}

	go func() {
		if err := app.Listener(listener); err != nil {
			logger.Info("mock server stopped", "error", err)
		}
	}()

	return listener.Addr().String(), func() { _ = app.Shutdown() }
}
