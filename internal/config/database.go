package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres holds connection parameters assembled from POSTGRES_* variables.
type Postgres struct {
	User     string
	Password string
	Host     string
	Port     string
	DB       string
	SSLMode  string
}

func postgresPassword() (string, error) {
	if password, ok := os.LookupEnv("POSTGRES_PASSWORD"); ok {
		return password, nil
	}
	path, ok := os.LookupEnv("POSTGRES_PASSWORD_FILE")
	if !ok {
		return "", fmt.Errorf("no POSTGRES_PASSWORD or POSTGRES_PASSWORD_FILE env variable set")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("unable to read password file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func NewPostgres() (*Postgres, error) {
	password, err := postgresPassword()
	if err != nil {
		return nil, err
	}
	pg := &Postgres{Password: password, Port: "5432", SSLMode: "disable"}
	for key, dst := range map[string]*string{
		"POSTGRES_USER":    &pg.User,
		"POSTGRES_HOST":    &pg.Host,
		"POSTGRES_DB":      &pg.DB,
		"POSTGRES_PORT":    &pg.Port,
		"POSTGRES_SSLMODE": &pg.SSLMode,
	} {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	if pg.User == "" || pg.Host == "" || pg.DB == "" {
		return nil, fmt.Errorf("POSTGRES_USER, POSTGRES_HOST and POSTGRES_DB must be set")
	}
	return pg, nil
}

func (pg Postgres) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(pg.User, pg.Password),
		Host:     pg.Host + ":" + pg.Port,
		Path:     pg.DB,
		RawQuery: url.Values{"sslmode": {pg.SSLMode}}.Encode(),
	}
	return u.String()
}

// DatabaseURL prefers DATABASE_URL and falls back to POSTGRES_* variables.
func DatabaseURL() (string, error) {
	if dbURL, ok := os.LookupEnv("DATABASE_URL"); ok {
		return dbURL, nil
	}
	pg, err := NewPostgres()
	if err != nil {
		return "", fmt.Errorf("no DATABASE_URL set; %w", err)
	}
	return pg.URL(), nil
}

func NewPoolConfig() (*pgxpool.Config, error) {
	dbURL, err := DatabaseURL()
	if err != nil {
		return nil, err
	}
	return pgxpool.ParseConfig(dbURL)
}
