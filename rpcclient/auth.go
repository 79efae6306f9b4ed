// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package rpcclient

import (
	"crypto/md5" //nolint:gosec // required by RFC 7616 digest auth, not used for security
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
)

// Login holds optional daemon credentials (spec's daemon_login).
type Login struct {
	User     string
	Password string
}

// auth applies HTTP Basic auth eagerly, and upgrades to Digest auth
// transparently the first time the daemon challenges a request with a 401 +
// WWW-Authenticate header, matching monerod's default auth mode.
type auth struct {
	login Login

	mu     sync.Mutex
	digestParams *digestChallenge
	nc     atomic.Uint32
}

type digestChallenge struct {
	realm string
	nonce string
	qop   string
}

func newAuth(login Login) *auth {
	return &auth{login: login}
}

func (a *auth) apply(req *http.Request) {
	if a.login.User == "" {
		return
	}

	a.mu.Lock()
	challenge := a.digestParams
	a.mu.Unlock()

	if challenge == nil {
		req.SetBasicAuth(a.login.User, a.login.Password)
		return
	}

	nc := a.nc.Add(1)
	cnonce := fmt.Sprintf("%08x", nc)
	ha1 := md5Hex(a.login.User + ":" + challenge.realm + ":" + a.login.Password)
	ha2 := md5Hex(req.Method + ":" + req.URL.RequestURI())
	ncStr := fmt.Sprintf("%08x", nc)

	var response string
	if challenge.qop != "" {
		response = md5Hex(fmt.Sprintf("%s:%s:%s:%s:%s:%s", ha1, challenge.nonce, ncStr, cnonce, challenge.qop, ha2))
	} else {
		response = md5Hex(ha1 + ":" + challenge.nonce + ":" + ha2)
	}

	header := fmt.Sprintf(
		`Digest username="%s", realm="%s", nonce="%s", uri="%s", response="%s"`,
		a.login.User, challenge.realm, challenge.nonce, req.URL.RequestURI(), response,
	)
	if challenge.qop != "" {
		header += fmt.Sprintf(`, qop=%s, nc=%s, cnonce="%s"`, challenge.qop, ncStr, cnonce)
	}
	req.Header.Set("Authorization", header)
}

// digest parses a 401 response's WWW-Authenticate header and records the
// challenge for subsequent requests. Returns true if the caller should
// retry the request once with the upgraded auth applied.
func (a *auth) digest(resp *http.Response) bool {
	if a.login.User == "" {
		return false
	}
	hdr := resp.Header.Get("WWW-Authenticate")
	if hdr == "" {
		return false
	}

	params := parseAuthParams(hdr)
	if params["realm"] == "" || params["nonce"] == "" {
		return false
	}

	a.mu.Lock()
	a.digestParams = &digestChallenge{realm: params["realm"], nonce: params["nonce"], qop: params["qop"]}
	a.mu.Unlock()
	return true
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return fmt.Sprintf("%x", sum)
}

// parseAuthParams extracts key="value" pairs from a WWW-Authenticate header
// value. Minimal on purpose: monerod's digest challenge is a flat list with
// no nested quoting.
func parseAuthParams(hdr string) map[string]string {
	out := make(map[string]string)
	for _, part := range splitCommaOutsideQuotes(hdr) {
		kv := splitOnce(part, '=')
		if len(kv) != 2 {
			continue
		}
		key := trimSpace(kv[0])
		val := trimQuotes(trimSpace(kv[1]))
		out[key] = val
	}
	return out
}

func splitCommaOutsideQuotes(s string) []string {
	var out []string
	var cur []byte
	inQuotes := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			inQuotes = !inQuotes
			cur = append(cur, c)
		case c == ',' && !inQuotes:
			out = append(out, string(cur))
			cur = nil
		default:
			cur = append(cur, c)
		}
	}
	if len(cur) > 0 {
		out = append(out, string(cur))
	}
	return out
}

func splitOnce(s string, sep byte) []string {
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			return []string{s[:i], s[i+1:]}
		}
	}
	return []string{s}
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && (s[start] == ' ' || s[start] == '\t') {
		start++
	}
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t') {
		end--
	}
	return s[start:end]
}

func trimQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
