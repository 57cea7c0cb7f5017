// Package ldap looks up submitter identities in the site directory.
// The submit flow uses it to resolve notification mail addresses and the
// user module to enrich ledger users with directory attributes.
package ldap

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	gldap "github.com/go-ldap/ldap/v3"

	"lsfd/config"
)

// Client wraps an established LDAP connection.
type Client struct {
	Conn         *gldap.Conn
	BaseDN       string
	UsernameAttr string
}

// Close closes the underlying LDAP connection.
func (c *Client) Close() {
	if c != nil && c.Conn != nil {
		c.Conn.Close()
	}
}

// Package-level default client for convenience wiring across handlers.
var defaultClient *Client

// SetDefault sets the package-level default LDAP client.
func SetDefault(c *Client) { defaultClient = c }

// Default returns the package-level default LDAP client.
func Default() *Client { return defaultClient }

// ErrUserNotFound is returned when no directory entry matches the uid.
var ErrUserNotFound = errors.New("user not found in directory")

// New creates and binds an LDAP client connection based on the provided config.
// It supports plain LDAP, LDAPS, and STARTTLS, optional custom CAs and client certs,
// and connect/read timeouts.
func New(cfg config.LDAP) (*Client, error) {
	tlsCfg, err := buildTLSConfig(cfg)
	if err != nil {
		return nil, err
	}

	scheme := "ldap"
	if cfg.UseTLS {
		scheme = "ldaps"
	}
	addr := fmt.Sprintf("%s://%s:%d", scheme, cfg.Host, cfg.Port)

	var opts []gldap.DialOpt
	if tlsCfg != nil {
		opts = append(opts, gldap.DialWithTLSConfig(tlsCfg))
	}
	if d := connectDialer(cfg); d != nil {
		opts = append(opts, gldap.DialWithDialer(d))
	}

	conn, err := gldap.DialURL(addr, opts...)
	if err != nil {
		return nil, err
	}

	// STARTTLS upgrade is only meaningful on a plain connection.
	if cfg.StartTLS && !cfg.UseTLS {
		if err := conn.StartTLS(tlsCfg); err != nil {
			conn.Close()
			return nil, err
		}
	}

	if rt := parseDuration(cfg.ReadTimeout); rt > 0 {
		conn.SetTimeout(rt)
	}

	if cfg.BindDN != "" || cfg.BindPassword != "" {
		if err := conn.Bind(cfg.BindDN, cfg.BindPassword); err != nil {
			conn.Close()
			return nil, err
		}
	}

	return &Client{Conn: conn, BaseDN: cfg.BaseDN, UsernameAttr: "uid"}, nil
}

// buildTLSConfig constructs a tls.Config based on config.LDAP.
// Returns nil if no TLS options are needed and UseTLS/StartTLS are false.
func buildTLSConfig(cfg config.LDAP) (*tls.Config, error) {
	needsTLS := cfg.UseTLS || cfg.StartTLS || cfg.InsecureSkipVerify || cfg.RootCAFile != "" || cfg.ClientCertFile != "" || cfg.ClientKeyFile != "" || cfg.ServerName != ""
	if !needsTLS {
		return nil, nil
	}

	tlsCfg := &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // configurable for testing/non-prod
	}
	if cfg.ServerName != "" {
		tlsCfg.ServerName = cfg.ServerName
	}

	if cfg.RootCAFile != "" {
		pem, err := os.ReadFile(cfg.RootCAFile)
		if err != nil {
			return nil, err
		}
		pool, err := x509.SystemCertPool()
		if err != nil || pool == nil {
			pool = x509.NewCertPool()
		}
		if ok := pool.AppendCertsFromPEM(pem); !ok {
			return nil, fmt.Errorf("failed to append Root CA from %s", cfg.RootCAFile)
		}
		tlsCfg.RootCAs = pool
	}

	if cfg.ClientCertFile != "" && cfg.ClientKeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.ClientCertFile, cfg.ClientKeyFile)
		if err != nil {
			return nil, err
		}
		tlsCfg.Certificates = []tls.Certificate{cert}
	}

	return tlsCfg, nil
}

// connectDialer builds a net.Dialer with the configured timeout.
func connectDialer(cfg config.LDAP) *net.Dialer {
	to := parseDuration(cfg.ConnectTimeout)
	if to <= 0 {
		return nil
	}
	return &net.Dialer{Timeout: to}
}

// parseDuration returns 0 on empty or invalid duration strings.
func parseDuration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

// GetUserAttributesByUIDs fetches all attributes for the given uids in a
// single search. The result maps uid to attribute values; uids without a
// directory entry are simply absent.
func (c *Client) GetUserAttributesByUIDs(ctx context.Context, uids []string) (map[string]map[string][]string, error) {
	if c == nil || c.Conn == nil {
		return nil, fmt.Errorf("nil ldap client")
	}
	res := make(map[string]map[string][]string, len(uids))
	if len(uids) == 0 {
		return res, nil
	}

	var sb strings.Builder
	sb.WriteString("(|")
	for _, uid := range uids {
		if strings.TrimSpace(uid) == "" {
			continue
		}
		fmt.Fprintf(&sb, "(%s=%s)", c.UsernameAttr, gldap.EscapeFilter(uid))
	}
	sb.WriteString(")")

	req := gldap.NewSearchRequest(
		c.BaseDN,
		gldap.ScopeWholeSubtree, gldap.NeverDerefAliases, 0, 0, false,
		sb.String(),
		nil, // all attributes
		nil,
	)
	sr, err := c.Conn.Search(req)
	if err != nil {
		return nil, err
	}
	for _, e := range sr.Entries {
		name := e.GetAttributeValue(c.UsernameAttr)
		if name == "" {
			continue
		}
		attrs := make(map[string][]string, len(e.Attributes))
		for _, a := range e.Attributes {
			attrs[a.Name] = a.Values
		}
		res[name] = attrs
	}
	return res, nil
}

// GetUserMail resolves the mail attribute of a single uid.
func (c *Client) GetUserMail(ctx context.Context, uid string) (string, error) {
	if c == nil || c.Conn == nil {
		return "", fmt.Errorf("nil ldap client")
	}
	req := gldap.NewSearchRequest(
		c.BaseDN,
		gldap.ScopeWholeSubtree, gldap.NeverDerefAliases, 1, 0, false,
		fmt.Sprintf("(%s=%s)", c.UsernameAttr, gldap.EscapeFilter(uid)),
		[]string{"mail"},
		nil,
	)
	sr, err := c.Conn.Search(req)
	if err != nil {
		return "", err
	}
	if len(sr.Entries) == 0 {
		return "", fmt.Errorf("%w: %s", ErrUserNotFound, uid)
	}
	return sr.Entries[0].GetAttributeValue("mail"), nil
}
