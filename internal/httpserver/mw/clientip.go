package mw

import (
	"net"
	"net/http"
	"strings"
)

// hostNoPort strips the port from "ip:port" and "[v6]:port"
func hostNoPort(s string) string {
	if s == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(s); err == nil {
		return h
	}
	return s
}

// firstForwardedFor returns the left-most X-Forwarded-For address
func firstForwardedFor(xff string) string {
	xff = strings.TrimSpace(xff)
	if xff == "" {
		return ""
	}
	if i := strings.IndexByte(xff, ','); i >= 0 {
		xff = xff[:i]
	}
	return strings.TrimSpace(xff)
}

// proxyHeaders are consulted in order when the proxy is trusted
var proxyHeaders = []string{"CF-Connecting-IP", "X-Forwarded-For", "X-Real-IP"}

// ClientIP resolves the caller address. Proxy headers count only when
// trustProxy is set; otherwise RemoteAddr is used.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		for _, h := range proxyHeaders {
			v := firstForwardedFor(r.Header.Get(h))
			if ip := hostNoPort(v); ip != "" {
				return ip
			}
		}
	}
	return hostNoPort(r.RemoteAddr)
}

// ipMatcher matches exact IPs and CIDRs
type ipMatcher struct {
	ips  []net.IP
	nets []*net.IPNet
}

func newIPMatcher(list []string) *ipMatcher {
	m := &ipMatcher{}
	for _, raw := range list {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		if _, ipnet, err := net.ParseCIDR(s); err == nil {
			m.nets = append(m.nets, ipnet)
			continue
		}
		if ip := net.ParseIP(s); ip != nil {
			m.ips = append(m.ips, ip)
		}
	}
	return m
}

func (m *ipMatcher) IsEmpty() bool {
	return len(m.ips) == 0 && len(m.nets) == 0
}

func (m *ipMatcher) Allow(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	for _, v := range m.ips {
		if v.Equal(ip) {
			return true
		}
	}
	for _, n := range m.nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
