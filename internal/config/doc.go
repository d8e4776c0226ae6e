// Package config handles configuration loading, parsing, and validation
// from environment variables and an optional config.yaml. Every setting can
// be supplied as CLARITY_<GROUP>_<KEY>, for example CLARITY_LLM_PROVIDER.
package config
