package config

import (
	"fmt"
	"strings"

	"gitlab.bluewillows.net/root/siloddns/internal/reconciler"
)

// parseDomains parses the SILODDNS_DOMAINS environment variable.
//
// Format: "example.com:home,www;example.org:@". Domains are separated by
// ";", a domain and its hosts by ":", hosts by ",". "@" is the bare domain.
// A domain without hosts updates only the bare domain.
func parseDomains(s string) ([]reconciler.DomainConfig, []string) {
	var (
		domains []reconciler.DomainConfig
		errs    []string
	)

	for _, entry := range strings.Split(s, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		name, hostList, hasHosts := strings.Cut(entry, ":")
		name = strings.TrimSpace(name)
		if name == "" {
			errs = append(errs, fmt.Sprintf("SILODDNS_DOMAINS: entry %q has no domain", entry))
			continue
		}

		dc := reconciler.DomainConfig{Name: name}
		if hasHosts {
			dc.Hosts = splitHosts(hostList)
		}
		if len(dc.Hosts) == 0 {
			dc.Hosts = []string{reconciler.ApexLabel}
		}
		domains = append(domains, dc)
	}

	return domains, errs
}

// splitHosts splits a comma-separated host list, trimming whitespace and
// dropping empty entries.
func splitHosts(s string) []string {
	var hosts []string
	for _, h := range strings.Split(s, ",") {
		h = strings.TrimSpace(h)
		if h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}

// convertFileDomains converts the file's domain list to runtime types. An
// empty host list means the bare domain.
func convertFileDomains(fileDomains []FileDomainConfig) []reconciler.DomainConfig {
	if len(fileDomains) == 0 {
		return nil
	}

	out := make([]reconciler.DomainConfig, 0, len(fileDomains))
	for _, fd := range fileDomains {
		hosts := fd.Hosts
		if len(hosts) == 0 {
			hosts = []string{reconciler.ApexLabel}
		}
		out = append(out, reconciler.DomainConfig{
			Name:  strings.TrimSpace(fd.Name),
			Hosts: hosts,
		})
	}
	return out
}
