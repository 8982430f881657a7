package envcfg

import (
	"fmt"
	"net"
	"time"
)

// Postgres - DB_* переменные
type Postgres struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (r *Reader) Postgres() Postgres {
	return Postgres{
		Host:     r.String("DB_HOST", "localhost"),
		Port:     r.String("DB_PORT", "5432"),
		User:     r.String("DB_USER", "postgres"),
		Password: r.String("DB_PASSWORD", "postgres"),
		DBName:   r.String("DB_NAME", "reviews_service"),
		SSLMode:  r.String("DB_SSLMODE", "disable"),
	}
}

// DSN в формате libpq key=value
func (p Postgres) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

type Mongo struct {
	URI      string
	Database string
}

func (r *Reader) Mongo() Mongo {
	return Mongo{
		URI:      r.String("MONGODB_URI", "mongodb://localhost:27017"),
		Database: r.String("MONGODB_DATABASE", "reviews_service"),
	}
}

// Redis - подключение и TTL снапшота распределения оценок
type Redis struct {
	Host     string
	Port     string
	Password string
	DB       int
	StatsTTL time.Duration
}

func (r *Reader) Redis() Redis {
	return Redis{
		Host:     r.String("REDIS_HOST", "localhost"),
		Port:     r.String("REDIS_PORT", "6379"),
		Password: r.String("REDIS_PASSWORD", ""),
		DB:       r.Int("REDIS_DB", 0),
		StatsTTL: r.Duration("REDIS_STATS_TTL", time.Hour),
	}
}

func (c Redis) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}
