package service

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/agentwire/a2a/pkg/a2a"
	"github.com/agentwire/a2a/pkg/auth"
	"github.com/agentwire/a2a/pkg/handler"
)

// ExtensionsHeader carries requested extension URIs on requests and the
// activated subset on responses.
const ExtensionsHeader = "X-A2A-Extensions"

/*
A2AServer exposes a RequestHandler over both wire transports: JSON-RPC 2.0
on POST /rpc and the REST mapping under /v1, plus the well-known agent
card document. Both transports are thin adapters; every protocol rule
lives in the handler.
*/
type A2AServer struct {
	app     *fiber.App
	handler handler.RequestHandler
	builder auth.UserBuilder
	addr    string
}

type ServerOption func(*A2AServer)

// WithAddr sets the listen address, ":3210" by default.
func WithAddr(addr string) ServerOption {
	return func(srv *A2AServer) {
		srv.addr = addr
	}
}

// WithUserBuilder installs credential verification for incoming calls.
func WithUserBuilder(builder auth.UserBuilder) ServerOption {
	return func(srv *A2AServer) {
		srv.builder = builder
	}
}

func NewA2AServer(requestHandler handler.RequestHandler, opts ...ServerOption) *A2AServer {
	srv := &A2AServer{
		app: fiber.New(fiber.Config{
			AppName:           requestHandler.Card().Name,
			ServerHeader:      "A2A-Agent-Server",
			StreamRequestBody: true,
		}),
		handler: requestHandler,
		builder: auth.NoopUserBuilder,
		addr:    ":3210",
	}

	for _, opt := range opts {
		opt(srv)
	}

	srv.app.Use(logger.New(logger.Config{
		// Skip logging for streaming endpoints to reduce noise
		Next: func(c fiber.Ctx) bool {
			return strings.HasSuffix(c.Path(), ":stream") || strings.HasSuffix(c.Path(), ":subscribe")
		},
	}), healthcheck.NewHealthChecker())

	srv.app.Get("/", srv.handleRoot)
	srv.app.Get(a2a.WellKnownCardPath, srv.handleAgentCard)
	srv.app.Post("/rpc", srv.handleRPC)
	srv.app.All("/v1/*", srv.handleREST)

	return srv
}

func (srv *A2AServer) Start() error {
	return srv.app.Listen(srv.addr, fiber.ListenConfig{DisableStartupMessage: true})
}

func (srv *A2AServer) Shutdown() error {
	return srv.app.Shutdown()
}

// App exposes the underlying fiber app, mostly for tests.
func (srv *A2AServer) App() *fiber.App {
	return srv.app
}

func (srv *A2AServer) handleRoot(ctx fiber.Ctx) error {
	return ctx.SendString("OK")
}

func (srv *A2AServer) handleAgentCard(ctx fiber.Ctx) error {
	return ctx.JSON(srv.handler.Card())
}

// callContext builds the per-call state from the transport headers:
// verified caller identity plus the requested extension URIs.
func (srv *A2AServer) callContext(ctx fiber.Ctx) *auth.ServerCallContext {
	call := auth.NewServerCallContext(srv.builder(ctx.Get("Authorization")))

	if raw := ctx.Get(ExtensionsHeader); raw != "" {
		for _, uri := range strings.Split(raw, ",") {
			if uri = strings.TrimSpace(uri); uri != "" {
				call.RequestedExtensions = append(call.RequestedExtensions, uri)
			}
		}
	}

	return call
}

// reflectExtensions echoes the activated extensions back to the caller.
func reflectExtensions(ctx fiber.Ctx, call *auth.ServerCallContext) {
	if len(call.ActivatedExtensions) > 0 {
		ctx.Set(ExtensionsHeader, strings.Join(call.ActivatedExtensions, ", "))
	}
}
