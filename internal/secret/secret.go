// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package secret

import "os"

// GetEnv returns the value of the environment variable named by the key,
// or fallback if the variable is not present.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// AntigravityClientID returns the OAuth client ID used for the refresh-token
// grant against Google's token endpoint.
func AntigravityClientID() string {
	return GetEnv("ANTIGRAVITY_CLIENT_ID", "")
}

// AntigravityClientSecret returns the OAuth client secret paired with
// AntigravityClientID.
func AntigravityClientSecret() string {
	return GetEnv("ANTIGRAVITY_CLIENT_SECRET", "")
}
