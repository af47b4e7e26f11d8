package config

import (
	"strings"

	"github.com/bigmler/bigmler/pkg/bigml"
	"github.com/spf13/viper"
)

var (
	BigMLEnvVarPrefix string = "bigml"
)

// NewViper returns a viper instance bound to the BIGML_* environment.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(BigMLEnvVarPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault("domain", bigml.DefaultDomain)
	v.SetDefault("protocol", bigml.DefaultProtocol)
	return v
}

// LoadConnection builds the API connection from the command line options,
// falling back to the environment for the values they leave empty.
func LoadConnection(v *viper.Viper, opts *Options) bigml.Connection {
	conn := bigml.Connection{
		Username:     v.GetString("username"),
		APIKey:       v.GetString("api_key"),
		Domain:       v.GetString("domain"),
		Protocol:     v.GetString("protocol"),
		Organization: v.GetString("organization"),
		DashboardURL: v.GetString("dashboard_url"),
	}
	if opts == nil {
		return conn
	}

	if opts.Username != "" {
		conn.Username = opts.Username
	}
	if opts.APIKey != "" {
		conn.APIKey = opts.APIKey
	}
	if opts.Domain != "" {
		conn.Domain = opts.Domain
	}
	if opts.Organization != "" {
		conn.Organization = opts.Organization
	}
	if opts.OrgProject != "" {
		conn.Project = opts.OrgProject
	}
	return conn
}

// MaxNodes is the node limit set through BIGML_MAX_NODES, or zero.
func MaxNodes(v *viper.Viper) int {
	return v.GetInt("max_nodes")
}
