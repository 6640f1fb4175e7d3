package forgehttp

import "github.com/go-playground/validator/v10"

// DefaultAgent is the sentinel agent name meaning "use the top-level
// ClientID/ClientSecret" rather than an entry in Agents.
const DefaultAgent = ""

var configValidator = validator.New()

// AgentCredentials is an alternate client-credentials pair, addressable by
// name from RequestOptions.Agent.
type AgentCredentials struct {
	ClientID     string `validate:"required"`
	ClientSecret string `validate:"required"`
}

// Config is the Forge configuration injected once per process: default
// service credentials, any number of named alternate agents, and the OAuth2
// token endpoint every TokenFetcher call goes to. It is immutable after
// NewAuthHandler is constructed from it.
type Config struct {
	ClientID              string
	ClientSecret          string
	Agents                map[string]AgentCredentials
	AuthenticationAddress string `validate:"required,url"`
}

// Validate checks the shape of c: AuthenticationAddress must be a
// well-formed URL, and every named agent must carry both credential
// fields. It does not check that ClientID/ClientSecret are set at the top
// level -- a Config with only named agents and no default identity is
// valid, per §3 ("optional if every call specifies an agent").
func (c *Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return err
	}
	for name, creds := range c.Agents {
		if err := configValidator.Struct(creds); err != nil {
			return &InvalidConfigurationError{Field: "Agents[" + name + "]"}
		}
	}
	return nil
}

// resolveCredentials implements the §4.3 step 1 lookup: the empty agent name
// (or DefaultAgent) resolves to the top-level credentials, anything else is
// looked up in Agents.
func (c *Config) resolveCredentials(agent string) (clientID, clientSecret string, err error) {
	if agent == DefaultAgent {
		clientID, clientSecret = c.ClientID, c.ClientSecret
	} else if creds, ok := c.Agents[agent]; ok {
		clientID, clientSecret = creds.ClientID, creds.ClientSecret
	} else {
		return "", "", &InvalidConfigurationError{Field: "Agents[" + agent + "]"}
	}

	if clientID == "" {
		return "", "", &InvalidConfigurationError{Field: "ClientID"}
	}
	if clientSecret == "" {
		return "", "", &InvalidConfigurationError{Field: "ClientSecret"}
	}
	return clientID, clientSecret, nil
}
