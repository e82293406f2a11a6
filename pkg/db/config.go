package db

// Config holds connection settings for the relay datastore. It is built by
// the application config layer and passed in explicitly; nothing in this
// package reads the environment.
type Config struct {
	Type            string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxIdleConn     int
	MaxOpenConn     int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}
