// Package urlnorm parses raw history URLs into their parts and derives the
// canonical domain used for grouping.
package urlnorm

import (
	"database/sql"
	"regexp"
	"strconv"
	"strings"

	"github.com/runnerr0/trailscope/internal/config"
	"github.com/runnerr0/trailscope/internal/model"
)

// RFC 3986 appendix B. Matches every string.
var uriPattern = regexp.MustCompile(`^(([^:/?#]+):)?(//([^/?#]*))?([^?#]*)(\?([^#]*))?(#(.*))?$`)

var schemePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*$`)

// Schemes whose last path segment may carry ";params".
var paramSchemes = map[string]bool{
	"": true, "ftp": true, "hdl": true, "prospero": true, "http": true, "imap": true,
	"https": true, "shttp": true, "rtsp": true, "rtspu": true, "sip": true, "sips": true,
	"mms": true, "sftp": true, "tel": true,
}

// Normalizer turns raw URLs into model.URL values. It is immutable and safe
// for concurrent use.
type Normalizer struct {
	tlds       map[string]bool
	nonNetwork map[string]bool
}

// New returns a Normalizer that treats tlds as generic suffix labels and
// never assigns a domain to URLs in the nonNetwork schemes.
func New(tlds, nonNetwork []string) *Normalizer {
	n := &Normalizer{
		tlds:       make(map[string]bool, len(tlds)),
		nonNetwork: make(map[string]bool, len(nonNetwork)),
	}
	for _, t := range tlds {
		n.tlds[strings.ToLower(t)] = true
	}
	for _, s := range nonNetwork {
		n.nonNetwork[strings.ToLower(s)] = true
	}
	return n
}

// FromConfig builds a Normalizer from the ingest configuration.
func FromConfig(cfg config.IngestConfig) *Normalizer {
	return New(cfg.TopLevelDomains, cfg.NonNetworkSchemes)
}

// Normalize parses raw. It never fails: parts that cannot be read are left
// empty or null.
func (n *Normalizer) Normalize(raw string) model.URL {
	m := uriPattern.FindStringSubmatch(StripUser(raw))

	var u model.URL
	if m[2] != "" && schemePattern.MatchString(m[2]) {
		u.Scheme = strings.ToLower(m[2])
	} else if m[1] != "" {
		// Not a scheme after all; keep it as part of the path.
		m[5] = m[1] + m[3] + m[5]
		m[3], m[4] = "", ""
	}
	u.Netloc = m[4]
	u.Path = m[5]
	u.Query = m[7]
	u.Fragment = m[9]

	if paramSchemes[u.Scheme] {
		u.Path, u.Params = splitParams(u.Path)
	}

	if u.Netloc != "" {
		user, pass, host, port := splitNetloc(u.Netloc)
		u.Username = user
		u.Password = pass
		u.Hostname = host
		u.Port = port
	}

	if u.Hostname.Valid {
		if d, ok := n.Domain(u.Hostname.String, u.Scheme); ok {
			u.Domain = sql.NullString{String: d, Valid: true}
		}
	}
	return u
}

// StripUser drops a leading "user@" that some browser caches prepend to the
// real URL. An "@" that follows a "://" is part of the URL and kept.
func StripUser(raw string) string {
	before, after, found := strings.Cut(raw, "@")
	if !found || strings.Contains(before, "://") {
		return raw
	}
	return after
}

func splitParams(path string) (string, string) {
	start := strings.LastIndex(path, "/")
	if start < 0 {
		start = 0
	}
	i := strings.Index(path[start:], ";")
	if i < 0 {
		return path, ""
	}
	i += start
	return path[:i], path[i+1:]
}

func splitNetloc(netloc string) (user, pass, host sql.NullString, port sql.NullInt64) {
	hostport := netloc
	if i := strings.LastIndex(netloc, "@"); i >= 0 {
		info := netloc[:i]
		hostport = netloc[i+1:]
		name, secret, hasSecret := strings.Cut(info, ":")
		user = sql.NullString{String: name, Valid: true}
		if hasSecret {
			pass = sql.NullString{String: secret, Valid: true}
		}
	}

	var rawPort string
	switch {
	case strings.HasPrefix(hostport, "[") && strings.Contains(hostport, "]"):
		end := strings.Index(hostport, "]")
		host = sql.NullString{String: strings.ToLower(hostport[1:end]), Valid: true}
		rawPort = strings.TrimPrefix(hostport[end+1:], ":")
	case strings.Contains(hostport, ":"):
		h, p, _ := strings.Cut(hostport, ":")
		host = sql.NullString{String: strings.ToLower(h), Valid: h != ""}
		rawPort = p
	case hostport != "":
		host = sql.NullString{String: strings.ToLower(hostport), Valid: true}
	}

	if rawPort != "" {
		if p, err := strconv.ParseUint(rawPort, 10, 16); err == nil {
			port = sql.NullInt64{Int64: int64(p), Valid: true}
		}
	}
	return user, pass, host, port
}

// Domain derives the canonical domain of hostname: "www." is dropped, up to
// two trailing suffix labels (a known TLD or any two-letter code) are kept
// and the label before them becomes the domain. IP literals, empty hosts
// and non-network schemes have no domain. A fully-qualified trailing dot is
// ignored; any other empty label leaves the host without a domain.
func (n *Normalizer) Domain(hostname, scheme string) (string, bool) {
	if hostname == "" || n.nonNetwork[strings.ToLower(scheme)] {
		return "", false
	}
	if strings.Contains(hostname, ":") {
		return "", false
	}

	host := strings.TrimPrefix(strings.ToLower(hostname), "www.")
	host = strings.TrimSuffix(host, ".")
	labels := strings.Split(host, ".")
	if hasEmpty(labels) || allNumeric(labels) {
		return "", false
	}

	suffix := ""
	if n.isSuffix(labels[len(labels)-1]) {
		suffix = "." + labels[len(labels)-1]
		labels = labels[:len(labels)-1]
		if len(labels) > 1 && n.isSuffix(labels[len(labels)-1]) {
			suffix = "." + labels[len(labels)-1] + suffix
			labels = labels[:len(labels)-1]
		}
	}
	if len(labels) == 0 {
		return "", false
	}
	return labels[len(labels)-1] + suffix, true
}

func (n *Normalizer) isSuffix(label string) bool {
	return n.tlds[label] || len(label) == 2
}

func hasEmpty(labels []string) bool {
	for _, l := range labels {
		if l == "" {
			return true
		}
	}
	return false
}

func allNumeric(labels []string) bool {
	for _, l := range labels {
		if l == "" {
			return false
		}
		for _, r := range l {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}
