// Package config loads and merges prsentry configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (PRSENTRY_*, plus GITHUB_TOKEN/GH_TOKEN,
//     SLACK_WEBHOOK_URL, NVIDIA_API_KEY and TEST_COMMENT)
//  3. A .env file in the working directory
//  4. Config file ($XDG_CONFIG_HOME/prsentry/config.yaml)
//  5. Built-in defaults
//
// Credentials are read from the environment only and are never written back
// by [Save]. Use [Load] to obtain a merged [Config] and [Config.Validate] to
// check it.
package config
