package client

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/agentwire/a2a/pkg/a2a"
)

/*
ClientFactory builds clients from agent cards, picking the transport both
sides can speak. Selection order: the factory's preferred transports
first, then the card's preferred transport, then any additional interface.
Transport names compare case-insensitively.
*/
type ClientFactory struct {
	preferred     []string
	transportOpts []TransportOption
	clientOpts    []ClientOption
}

type FactoryOption func(*ClientFactory)

// WithPreferredTransports sets the transports to try first, in order.
func WithPreferredTransports(names ...string) FactoryOption {
	return func(factory *ClientFactory) {
		factory.preferred = names
	}
}

// WithTransportOptions forwards options to whichever transport is built.
func WithTransportOptions(opts ...TransportOption) FactoryOption {
	return func(factory *ClientFactory) {
		factory.transportOpts = opts
	}
}

// WithClientOptions forwards options to every built client.
func WithClientOptions(opts ...ClientOption) FactoryOption {
	return func(factory *ClientFactory) {
		factory.clientOpts = opts
	}
}

func NewClientFactory(opts ...FactoryOption) *ClientFactory {
	factory := &ClientFactory{}

	for _, opt := range opts {
		opt(factory)
	}

	return factory
}

func (factory *ClientFactory) CreateClient(card a2a.AgentCard) (*Client, error) {
	transport, protocol, err := factory.selectTransport(card)
	if err != nil {
		return nil, err
	}

	log.Debug("selected transport for agent", "agent", card.Name, "transport", protocol)

	return NewClient(card, transport, factory.clientOpts...), nil
}

func (factory *ClientFactory) selectTransport(card a2a.AgentCard) (Transport, string, error) {
	interfaces := card.Interfaces()

	// Candidate protocol order, case-insensitive and deduplicated: the
	// factory's preferences first, then whatever the card declares.
	seen := map[string]bool{}
	var candidates []string

	for _, name := range factory.preferred {
		if key := strings.ToLower(name); !seen[key] {
			seen[key] = true
			candidates = append(candidates, name)
		}
	}
	for _, iface := range interfaces {
		if key := strings.ToLower(iface.Transport); !seen[key] {
			seen[key] = true
			candidates = append(candidates, iface.Transport)
		}
	}

	for _, candidate := range candidates {
		for _, iface := range interfaces {
			if !strings.EqualFold(candidate, iface.Transport) {
				continue
			}

			transport, err := factory.buildTransport(iface)
			if err != nil {
				return nil, "", err
			}
			if transport != nil {
				return transport, iface.Transport, nil
			}
		}
	}

	return nil, "", fmt.Errorf("no supported transport for agent %q", card.Name)
}

func (factory *ClientFactory) buildTransport(iface a2a.AgentInterface) (Transport, error) {
	switch {
	case strings.EqualFold(iface.Transport, a2a.TransportJSONRPC):
		return NewJSONRPCTransport(iface.URL, factory.transportOpts...), nil
	case strings.EqualFold(iface.Transport, a2a.TransportREST):
		return NewRESTTransport(iface.URL, factory.transportOpts...), nil
	default:
		// Unknown protocol names are skipped, not fatal: the card may
		// declare transports this library does not implement.
		return nil, nil
	}
}
