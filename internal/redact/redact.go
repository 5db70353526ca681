// Copyright 2026 The BuildSignal Authors
// SPDX-License-Identifier: MIT

// Package redact strips sensitive values from strings before they appear in
// output, logs, or error messages. Xcode CI machines routinely carry signing
// and App Store Connect credentials in the environment, and tool stderr can
// echo them back.
package redact

import (
	"os"
	"strings"
	"sync"
)

// Placeholder replaces every redacted secret.
const Placeholder = "[REDACTED]"

// sensitiveEnvVars lists environment variable names whose values must never
// appear in output.
var sensitiveEnvVars = []string{
	"APP_STORE_CONNECT_API_KEY",
	"APP_STORE_CONNECT_API_KEY_CONTENT",
	"FASTLANE_PASSWORD",
	"FASTLANE_SESSION",
	"MATCH_PASSWORD",
	"MATCH_GIT_BASIC_AUTHORIZATION",
	"KEYCHAIN_PASSWORD",
	"GITHUB_TOKEN",
	"GH_TOKEN",
}

// minSecretLen keeps short values from redacting ordinary words.
const minSecretLen = 4

var (
	mu            sync.Mutex
	cachedSecrets []string
	cacheOnce     sync.Once
)

func loadSecrets() {
	cachedSecrets = nil
	for _, envVar := range sensitiveEnvVars {
		val := os.Getenv(envVar)
		if len(val) >= minSecretLen {
			cachedSecrets = append(cachedSecrets, val)
		}
	}
}

// ResetForTest drops the cached secrets so tests can change the environment
// with t.Setenv.
func ResetForTest() {
	mu.Lock()
	defer mu.Unlock()
	cacheOnce = sync.Once{}
}

func secrets() []string {
	mu.Lock()
	defer mu.Unlock()
	cacheOnce.Do(loadSecrets)
	return cachedSecrets
}

// String replaces any occurrence of a known sensitive environment variable
// value with Placeholder. Secret values are read once.
func String(s string) string {
	for _, secret := range secrets() {
		s = strings.ReplaceAll(s, secret, Placeholder)
	}
	return s
}

// HomePath rewrites a leading home directory as "~" so shared reports do not
// leak the local user name.
func HomePath(p string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" || home == "/" {
		return p
	}
	return homePath(p, home)
}

func homePath(p, home string) string {
	home = strings.TrimSuffix(home, "/")
	switch {
	case p == home:
		return "~"
	case strings.HasPrefix(p, home+"/"):
		return "~" + p[len(home):]
	}
	return p
}
