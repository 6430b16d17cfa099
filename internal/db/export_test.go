package db

var WithPragmas = withPragmas
