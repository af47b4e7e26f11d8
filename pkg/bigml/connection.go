package bigml

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	DefaultDomain   = "bigml.io"
	DefaultProtocol = "https"
	apiVersion      = "andromeda"
)

// Connection holds the credentials and location of the API.
type Connection struct {
	Username     string `validate:"required"`
	APIKey       string `validate:"required"`
	Domain       string
	Protocol     string `validate:"omitempty,oneof=http https"`
	Organization string
	Project      string
	DashboardURL string
}

func (c Connection) HasCredentials() bool {
	return c.Username != "" && c.APIKey != ""
}

func (c Connection) BaseURL() string {
	domain := c.Domain
	if domain == "" {
		domain = DefaultDomain
	}
	protocol := c.Protocol
	if protocol == "" {
		protocol = DefaultProtocol
	}
	return fmt.Sprintf("%s://%s/%s/", protocol, strings.TrimSuffix(domain, "/"), apiVersion)
}

// AuthQuery is the query string that authenticates every request.
func (c Connection) AuthQuery() string {
	auth := fmt.Sprintf("username=%s;api_key=%s", url.QueryEscape(c.Username), url.QueryEscape(c.APIKey))
	if c.Organization != "" {
		auth += ";organization=" + url.QueryEscape(c.Organization)
		if c.Project != "" {
			auth += ";project=" + url.QueryEscape(c.Project)
		}
	}
	return auth
}

// DashboardBase is the dashboard url the resource ids are appended to.
func (c Connection) DashboardBase() string {
	if c.DashboardURL != "" {
		return strings.TrimSuffix(c.DashboardURL, "/") + "/"
	}
	domain := c.Domain
	if domain == "" {
		domain = DefaultDomain
	}
	var dashboard string
	if strings.HasSuffix(domain, ".io") {
		dashboard = strings.TrimSuffix(domain, ".io") + ".com"
	} else {
		dashboard = strings.Replace(domain, "-io.", ".", 1)
	}
	return fmt.Sprintf("https://%s/dashboard/", dashboard)
}

// ResourceURL returns the dashboard url of a resource.
func (c Connection) ResourceURL(id string) string {
	if id == "" {
		return ""
	}
	return c.DashboardBase() + id
}
