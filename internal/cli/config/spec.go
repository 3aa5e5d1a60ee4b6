package config

// CLIConfig is the configuration for httpkom-cli.
type CLIConfig struct {
	DefaultOutput string `yaml:"default_output"` // table, json, yaml

	// Connections are saved gateway profiles by name.
	Connections map[string]ConnectionConfig `yaml:"connections"`

	// CurrentConnection names the profile used when --connection is not
	// given.
	CurrentConnection string `yaml:"current_connection"`
}

// ConnectionConfig stores one gateway profile.
type ConnectionConfig struct {
	URL      string `yaml:"url"`
	ServerID string `yaml:"server_id"`
	CAFile   string `yaml:"ca_file,omitempty"`
	Insecure bool   `yaml:"insecure,omitempty"`

	// Token is the session token from the last successful login.
	Token string `yaml:"token,omitempty"`
	// PersNo and PersName describe who Token belongs to.
	PersNo   int    `yaml:"pers_no,omitempty"`
	PersName string `yaml:"pers_name,omitempty"`
}

// DefaultConnectionName is the profile created on first use.
const DefaultConnectionName = "default"

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		DefaultOutput: "table",
		Connections: map[string]ConnectionConfig{
			DefaultConnectionName: {URL: "http://localhost:5001", ServerID: "lyslyskom"},
		},
		CurrentConnection: DefaultConnectionName,
	}
}

// Current returns the profile named by CurrentConnection, or an empty
// profile when it does not exist.
func (c *CLIConfig) Current() ConnectionConfig {
	return c.Connections[c.CurrentConnection]
}

// Update applies fn to the named profile, creating it if needed.
func (c *CLIConfig) Update(name string, fn func(*ConnectionConfig)) {
	if c.Connections == nil {
		c.Connections = make(map[string]ConnectionConfig)
	}
	conn := c.Connections[name]
	fn(&conn)
	c.Connections[name] = conn
}
