package sftpfs

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// hostConfig is the resolved connection configuration for one SSH host
// alias, read from the invoking user's SSH client configuration (spec.md
// §4.1, "SSH backend specifics": "Connection configuration ... is resolved
// from the host alias via the SSH client configuration of the invoking
// user").
type hostConfig struct {
	HostName     string
	User         string
	Port         int
	IdentityFile string
	ProxyJump    string
}

// parseSSHConfig parses path (default ~/.ssh/config) the way
// original_source/src/tfm_ssh_config.py's SSHConfigParser does: Host
// entries, recursive Include directives, and silent exclusion of wildcard
// Host patterns (Host * is never a resolvable alias). Returns an empty map
// rather than an error if the file is missing — a missing SSH config is
// not fatal, it just means aliases resolve to themselves.
func parseSSHConfig(path string) map[string]hostConfig {
	hosts := make(map[string]hostConfig)
	parseSSHConfigFile(path, hosts)
	return hosts
}

func parseSSHConfigFile(path string, hosts map[string]hostConfig) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	var currentHosts []string
	current := hostConfig{}
	flush := func() {
		for _, h := range currentHosts {
			if isWildcardHost(h) {
				continue
			}
			hosts[h] = current
		}
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value := splitConfigLine(line)
		if key == "" {
			continue
		}
		switch strings.ToLower(key) {
		case "host":
			flush()
			currentHosts = strings.Fields(value)
			current = hostConfig{}
		case "include":
			includePath := expandUser(value)
			if !filepath.IsAbs(includePath) {
				includePath = filepath.Join(filepath.Dir(path), includePath)
			}
			parseSSHConfigFile(includePath, hosts)
		case "hostname":
			if len(currentHosts) > 0 {
				current.HostName = value
			}
		case "user":
			if len(currentHosts) > 0 {
				current.User = value
			}
		case "port":
			if len(currentHosts) > 0 {
				if p, err := strconv.Atoi(value); err == nil {
					current.Port = p
				}
			}
		case "identityfile":
			if len(currentHosts) > 0 {
				current.IdentityFile = expandUser(value)
			}
		case "proxyjump":
			if len(currentHosts) > 0 {
				current.ProxyJump = value
			}
		}
	}
	flush()
}

func splitConfigLine(line string) (key, value string) {
	fields := strings.SplitN(line, " ", 2)
	if len(fields) == 0 {
		return "", ""
	}
	key = fields[0]
	if len(fields) == 2 {
		value = strings.TrimSpace(fields[1])
	}
	// SSH config also allows "Key=Value" syntax.
	if idx := strings.IndexByte(key, '='); idx >= 0 {
		value = key[idx+1:]
		key = key[:idx]
	}
	return key, value
}

func isWildcardHost(pattern string) bool {
	return strings.ContainsAny(pattern, "*?")
}

func expandUser(p string) string {
	if !strings.HasPrefix(p, "~") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// resolveHost looks up alias in the user's SSH config, falling back to
// treating alias itself as the hostname when there's no matching entry.
func resolveHost(alias string) hostConfig {
	home, _ := os.UserHomeDir()
	hosts := parseSSHConfig(filepath.Join(home, ".ssh", "config"))
	if cfg, ok := hosts[alias]; ok {
		if cfg.HostName == "" {
			cfg.HostName = alias
		}
		if cfg.Port == 0 {
			cfg.Port = 22
		}
		return cfg
	}
	return hostConfig{HostName: alias, Port: 22}
}
