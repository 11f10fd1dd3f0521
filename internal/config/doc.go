// Package config manages user-level settings stored at
// ~/.updatewatch/config.yaml. Values can be overridden with UPDATEWATCH_*
// environment variables; Load resolves them into a typed Settings value.
package config
