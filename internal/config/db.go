package config

// Supported values for DB.GormEngine.
const (
	EngineMySQL    = "mysql"
	EnginePostgres = "postgres"
	EngineSQLite   = "sqlite"
)

// DB holds the database configuration settings.
type DB struct {
	Extras     string
	Host       string
	Port       int
	User       string
	Password   string
	Name       string // database name, for sqlite the database file path
	GormEngine string // mysql, postgres or sqlite
	Debug      bool   // log every statement
}
