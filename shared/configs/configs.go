package configs

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	ListenAddr     string        `env:"LISTEN_ADDR" envDefault:":8080"`
	FrontendOrigin string        `env:"FRONTEND_ORIGIN" envDefault:"http://localhost:5173"`
	GinMode        string        `env:"GIN_MODE" envDefault:"release"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	PostgresURL    string        `env:"POSTGRES_URL,required"`
	JWTKey         string        `env:"JWT_KEY,required"`
	TokenMaxAge    time.Duration `env:"TOKEN_MAX_AGE" envDefault:"72h"`
}

func Load() (Config, error) {
	return env.ParseAs[Config]()
}
