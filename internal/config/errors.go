package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrUnknownGormEngine error if config db.gormengine is not supported.
	ErrUnknownGormEngine = errors.New("toml config db.gormengine must be mysql, postgres or sqlite")

	// ErrUnknownSessionBackend error if config webserver.session.backend is not supported.
	ErrUnknownSessionBackend = errors.New("toml config webserver.session.backend must be db, mysql, postgres or redis")

	// ErrRedisAddrEmpty error if the redis session backend has no address.
	ErrRedisAddrEmpty = errors.New("toml config webserver.session.redisaddr can not be empty for the redis backend")
)
