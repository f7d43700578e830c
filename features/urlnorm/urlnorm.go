package urlnorm

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"
)

// Normalization errors. Both wrap ErrNormalization so callers can test
// for "invalid input" with a single errors.Is.
var (
	ErrNormalization = errors.New("url normalization failed")
	ErrEmpty         = fmt.Errorf("%w: empty url", ErrNormalization)
	ErrInvalidHost   = fmt.Errorf("%w: invalid host", ErrNormalization)
)

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

// URL is the canonical form of an input URL.
type URL struct {
	Scheme   string
	Host     string // lower-case ASCII, no port, no brackets
	Port     string // empty when it is the scheme's default
	Path     string // escaped; empty when the input path was "/"
	RawQuery string
}

// Normalize turns whatever a user typed into a comparable URL.
func Normalize(raw string) (URL, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return URL{}, ErrEmpty
	}

	if !hasScheme(s) {
		s = "http://" + strings.TrimPrefix(s, "//")
	}

	u, err := url.Parse(s)
	if err != nil {
		return URL{}, fmt.Errorf("%w: %v", ErrInvalidHost, err)
	}

	host, err := normalizeHost(u.Hostname())
	if err != nil {
		return URL{}, err
	}

	scheme := strings.ToLower(u.Scheme)
	port := u.Port()
	if port == defaultPorts[scheme] {
		port = ""
	}

	path := u.EscapedPath()
	if path == "/" {
		path = ""
	}

	return URL{
		Scheme:   scheme,
		Host:     host,
		Port:     port,
		Path:     path,
		RawQuery: u.RawQuery,
	}, nil
}

// HostPort returns the host with its non-default port, bracketing IPv6.
func (u URL) HostPort() string {
	if u.Port != "" {
		return net.JoinHostPort(u.Host, u.Port)
	}
	if strings.Contains(u.Host, ":") {
		return "[" + u.Host + "]"
	}
	return u.Host
}

// Key is the exact-match key: host[:port]+path[?query]. The scheme is not
// part of it, so http and https variants of a page share one entry.
func (u URL) Key() string {
	if u.RawQuery == "" {
		return u.HostPort() + u.Path
	}
	return u.HostPort() + u.Path + "?" + u.RawQuery
}

// KeyWithoutQuery is Key with the query dropped.
func (u URL) KeyWithoutQuery() string {
	return u.HostPort() + u.Path
}

// IsBareHost reports whether the URL is only a host: no path, query or port.
func (u URL) IsBareHost() bool {
	return u.Path == "" && u.RawQuery == "" && u.Port == ""
}

func (u URL) IsIP() bool {
	return net.ParseIP(u.Host) != nil
}

// Domains returns the ancestor chain of the host, most specific first:
// "a.b.evil.com" -> ["a.b.evil.com", "b.evil.com", "evil.com", "com"].
// An IP host has no ancestors.
func (u URL) Domains() []string {
	if u.IsIP() {
		return []string{u.Host}
	}

	domains := make([]string, 0, strings.Count(u.Host, ".")+1)
	host := u.Host
	for {
		domains = append(domains, host)
		i := strings.IndexByte(host, '.')
		if i == -1 {
			break
		}
		host = host[i+1:]
	}
	return domains
}

// Labels returns the host labels from the TLD inward:
// "sub.evil.com" -> ["com", "evil", "sub"].
func (u URL) Labels() []string {
	if u.IsIP() {
		return []string{u.Host}
	}
	labels := strings.Split(u.Host, ".")
	for i, j := 0, len(labels)-1; i < j; i, j = i+1, j-1 {
		labels[i], labels[j] = labels[j], labels[i]
	}
	return labels
}

// String renders the canonical URL. Normalize(u.String()) == u.
func (u URL) String() string {
	return u.Scheme + "://" + u.Key()
}

// PatternFor returns text that Normalize maps back to key. Keys drop the
// scheme, so a key still carrying ":80" came from a non-http scheme and
// needs one spelled out to keep its port.
func PatternFor(key string) string {
	if u, err := Normalize(key); err == nil && u.Key() == key {
		return key
	}
	if u, err := Normalize("https://" + key); err == nil && u.Key() == key {
		return "https://" + key
	}
	return key
}

// hasScheme reports whether s starts with "scheme://". Dots are not
// allowed in the scheme so "evil.com://x" reads as a host.
func hasScheme(s string) bool {
	i := strings.Index(s, "://")
	if i <= 0 {
		return false
	}
	for j := 0; j < i; j++ {
		c := s[j]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case j > 0 && (c >= '0' && c <= '9' || c == '+' || c == '-'):
		default:
			return false
		}
	}
	return true
}

func normalizeHost(host string) (string, error) {
	host = strings.TrimSuffix(strings.TrimSpace(host), ".")
	if host == "" {
		return "", fmt.Errorf("%w: empty host", ErrInvalidHost)
	}

	if ip := net.ParseIP(host); ip != nil {
		return ip.String(), nil
	}

	if !isASCII(host) {
		ascii, err := idna.Lookup.ToASCII(host)
		if err != nil {
			return "", fmt.Errorf("%w: idna: %v", ErrInvalidHost, err)
		}
		host = ascii
	}

	host = strings.ToLower(host)
	if !validHostname(host) {
		return "", fmt.Errorf("%w: %q", ErrInvalidHost, host)
	}
	return host, nil
}

// validHostname accepts letters, digits, '-' and '_' in non-empty
// dot-separated labels. Underscores are common in blocklist hosts.
func validHostname(host string) bool {
	for _, label := range strings.Split(host, ".") {
		if label == "" || len(label) > 63 {
			return false
		}
		for i := 0; i < len(label); i++ {
			c := label[i]
			switch {
			case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
			default:
				return false
			}
		}
	}
	return true
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
