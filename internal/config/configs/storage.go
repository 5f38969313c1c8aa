package configs

// Storage selects the persistence backend. The postgres driver is the
// production default; memory keeps everything in process and is meant
// for local development and tests.
type Storage struct {
	// Driver is either "postgres" or "memory".
	Driver string `env:"DRIVER" envDefault:"postgres"`
}
