package a2a

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Transport protocol labels used in AgentCard interface declarations.
const (
	TransportJSONRPC = "JSONRPC"
	TransportREST    = "HTTP+JSON"
)

// WellKnownCardPath is the default location of an agent's card document
// relative to the service base URL.
const WellKnownCardPath = "/.well-known/agent-card.json"

type AgentAuthentication struct {
	// Schemes is a list of supported authentication schemes.
	Schemes []string `json:"schemes"`
	// Credentials for authentication. Can be a string (e.g. token) or null
	// if not required initially.
	Credentials *string `json:"credentials,omitempty"`
}

/*
AgentExtension declares a protocol extension the agent understands. Clients
request extensions by URI; the server activates the intersection of the
requested set and the declared set.
*/
type AgentExtension struct {
	URI         string         `json:"uri"`
	Description *string        `json:"description,omitempty"`
	Required    bool           `json:"required,omitempty"`
	Params      map[string]any `json:"params,omitempty"`
}

// AgentCapabilities describes the optional capabilities of an agent.
type AgentCapabilities struct {
	Streaming              bool             `json:"streaming,omitempty"`
	PushNotifications      bool             `json:"pushNotifications,omitempty"`
	StateTransitionHistory bool             `json:"stateTransitionHistory,omitempty"`
	Extensions             []AgentExtension `json:"extensions,omitempty"`
}

// AgentProvider represents the organization behind an agent.
type AgentProvider struct {
	Organization string  `json:"organization"`
	URL          *string `json:"url,omitempty"`
}

// AgentInterface pairs a transport protocol with the URL it is served on.
type AgentInterface struct {
	Transport string `json:"transport"`
	URL       string `json:"url"`
}

// AgentSkill defines a specific capability offered by an agent.
type AgentSkill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description *string  `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Examples    []string `json:"examples,omitempty"`
	InputModes  []string `json:"inputModes,omitempty"`
	OutputModes []string `json:"outputModes,omitempty"`
}

// AgentCard represents the metadata card for an agent.
type AgentCard struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	// URL is the base endpoint for the preferred transport.
	URL                string `json:"url"`
	PreferredTransport string `json:"preferredTransport,omitempty"`
	// AdditionalInterfaces lists further transport/URL pairs the agent serves.
	AdditionalInterfaces              []AgentInterface     `json:"additionalInterfaces,omitempty"`
	Provider                          *AgentProvider       `json:"provider,omitempty"`
	Version                           string               `json:"version"`
	DocumentationURL                  *string              `json:"documentationUrl,omitempty"`
	Capabilities                      AgentCapabilities    `json:"capabilities"`
	Authentication                    *AgentAuthentication `json:"authentication,omitempty"`
	DefaultInputModes                 []string             `json:"defaultInputModes,omitempty"`
	DefaultOutputModes                []string             `json:"defaultOutputModes,omitempty"`
	Skills                            []AgentSkill         `json:"skills"`
	SupportsAuthenticatedExtendedCard bool                 `json:"supportsAuthenticatedExtendedCard,omitempty"`
}

/*
SupportsExtension reports whether the card declares the extension URI.
*/
func (card *AgentCard) SupportsExtension(uri string) bool {
	for _, ext := range card.Capabilities.Extensions {
		if ext.URI == uri {
			return true
		}
	}
	return false
}

/*
Interfaces returns every transport/URL pair the agent serves, the preferred
one first.
*/
func (card *AgentCard) Interfaces() []AgentInterface {
	interfaces := make([]AgentInterface, 0, len(card.AdditionalInterfaces)+1)

	if card.URL != "" {
		preferred := card.PreferredTransport
		if preferred == "" {
			preferred = TransportJSONRPC
		}
		interfaces = append(interfaces, AgentInterface{Transport: preferred, URL: card.URL})
	}

	interfaces = append(interfaces, card.AdditionalInterfaces...)
	return interfaces
}

func (card *AgentCard) String() string {
	var sb strings.Builder

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("212")).
		Bold(true)

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("39")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252"))

	sectionStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("99")).
		Bold(true)

	indent := "   "
	bullet := "│ "

	sb.WriteString(headerStyle.Render("Agent Card") + "\n")
	sb.WriteString(bullet + labelStyle.Render("Name: ") + valueStyle.Render(card.Name) + "\n")
	if card.Description != nil {
		sb.WriteString(bullet + labelStyle.Render("Description: ") + valueStyle.Render(*card.Description) + "\n")
	}
	sb.WriteString(bullet + labelStyle.Render("URL: ") + valueStyle.Render(card.URL) + "\n")
	sb.WriteString(bullet + labelStyle.Render("Version: ") + valueStyle.Render(card.Version) + "\n")

	if card.Provider != nil {
		sb.WriteString("\n" + sectionStyle.Render("Provider") + "\n")
		sb.WriteString(bullet + labelStyle.Render("Organization: ") + valueStyle.Render(card.Provider.Organization) + "\n")
	}

	sb.WriteString("\n" + sectionStyle.Render("Capabilities") + "\n")
	sb.WriteString(bullet + labelStyle.Render("Streaming: ") + valueStyle.Render(fmt.Sprintf("%v", card.Capabilities.Streaming)) + "\n")
	sb.WriteString(bullet + labelStyle.Render("Push Notifications: ") + valueStyle.Render(fmt.Sprintf("%v", card.Capabilities.PushNotifications)) + "\n")
	if len(card.Capabilities.Extensions) > 0 {
		uris := make([]string, len(card.Capabilities.Extensions))
		for i, ext := range card.Capabilities.Extensions {
			uris[i] = ext.URI
		}
		sb.WriteString(bullet + labelStyle.Render("Extensions: ") + valueStyle.Render(strings.Join(uris, ", ")) + "\n")
	}

	if len(card.Skills) > 0 {
		sb.WriteString("\n" + sectionStyle.Render("Skills") + "\n")
		for i, skill := range card.Skills {
			sb.WriteString(bullet + labelStyle.Render(fmt.Sprintf("Skill %d", i+1)) + "\n")
			sb.WriteString(bullet + indent + labelStyle.Render("ID: ") + valueStyle.Render(skill.ID) + "\n")
			sb.WriteString(bullet + indent + labelStyle.Render("Name: ") + valueStyle.Render(skill.Name) + "\n")
			if skill.Description != nil {
				sb.WriteString(bullet + indent + labelStyle.Render("Description: ") + valueStyle.Render(*skill.Description) + "\n")
			}
		}
	}

	return sb.String()
}
