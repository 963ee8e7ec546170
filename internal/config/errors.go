package config

import "errors"

// ErrLoadConfig wraps failures reading or decoding a source; ErrInvalidConfig
// wraps values rejected by Validate.
var (
	ErrLoadConfig    = errors.New("load config failed")
	ErrInvalidConfig = errors.New("invalid config")
)
