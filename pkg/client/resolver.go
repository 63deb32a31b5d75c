package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	fiberClient "github.com/gofiber/fiber/v3/client"

	"github.com/agentwire/a2a/pkg/a2a"
)

/*
CardResolver fetches an agent's card from its well-known location, the
first step of connecting to an agent one only knows the base URL of.
*/
type CardResolver struct {
	baseURL string
	path    string
	conn    *fiberClient.Client
}

type ResolverOption func(*CardResolver)

// WithCardPath overrides the well-known card path.
func WithCardPath(path string) ResolverOption {
	return func(resolver *CardResolver) {
		resolver.path = path
	}
}

func NewCardResolver(baseURL string, opts ...ResolverOption) *CardResolver {
	resolver := &CardResolver{
		baseURL: baseURL,
		path:    a2a.WellKnownCardPath,
		conn:    fiberClient.New().SetBaseURL(baseURL).SetTimeout(10 * time.Second),
	}

	for _, opt := range opts {
		opt(resolver)
	}

	return resolver
}

func (resolver *CardResolver) Resolve() (*a2a.AgentCard, error) {
	resp, err := resolver.conn.Get(resolver.path)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch agent card from %s%s: %w", resolver.baseURL, resolver.path, err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("agent card endpoint returned status %d", resp.StatusCode())
	}

	var card a2a.AgentCard
	if err := json.Unmarshal(resp.Body(), &card); err != nil {
		return nil, fmt.Errorf("failed to decode agent card: %w", err)
	}

	return &card, nil
}
