package handler

const (
	// RootPath is the root path the route group.
	RootPath = "/"

	// APIPath prefixes the JSON admin API.
	APIPath = RootPath + "api"

	// ParamID is the route parameter holding numeric ids.
	ParamID = "id"

	// ErrNilDepsFatalLogMsg is used if app or a required dependency is nil.
	ErrNilDepsFatalLogMsg = "app or a handler dependency is nil"
)
