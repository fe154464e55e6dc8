package config

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// File mirrors the environment in YAML. Values from a file never override
// variables already present in the environment.
type File struct {
	Development  *bool   `yaml:"development"`
	Addr         string  `yaml:"addr"`
	Store        string  `yaml:"store"`
	BadgerPath   string  `yaml:"badger_path"`
	DatabaseURL  string  `yaml:"database_url"`
	LogFile      string  `yaml:"log_file"`
	AutoplayRate float64 `yaml:"autoplay_rate"`
	JWT          struct {
		PrivateKeyFile string `yaml:"private_key_file"`
		PublicKeyFile  string `yaml:"public_key_file"`
		TokenLifetime  string `yaml:"token_lifetime"`
	} `yaml:"jwt"`
	Cookies struct {
		Domain   string `yaml:"domain"`
		Secure   *bool  `yaml:"secure"`
		SameSite string `yaml:"same_site"`
	} `yaml:"cookies"`
}

func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("unable to parse config file %s: %w", path, err)
	}
	return &f, nil
}

func boolString(b *bool) string {
	if b == nil {
		return ""
	}
	if *b {
		return "true"
	}
	return "false"
}

func (f *File) env() map[string]string {
	env := map[string]string{
		"DEVELOPMENT":          boolString(f.Development),
		"APP_ADDR":             f.Addr,
		"STORE":                f.Store,
		"BADGER_PATH":          f.BadgerPath,
		"DATABASE_URL":         f.DatabaseURL,
		"LOG_FILE":             f.LogFile,
		"JWT_PRIVATE_KEY_FILE": f.JWT.PrivateKeyFile,
		"JWT_PUBLIC_KEY_FILE":  f.JWT.PublicKeyFile,
		"JWT_TOKEN_LIFETIME":   f.JWT.TokenLifetime,
		"COOKIES_DOMAIN":       f.Cookies.Domain,
		"COOKIES_SECURE":       boolString(f.Cookies.Secure),
		"COOKIES_SAMESITE":     f.Cookies.SameSite,
	}
	if f.AutoplayRate > 0 {
		env["AUTOPLAY_RATE"] = fmt.Sprint(f.AutoplayRate)
	}
	return env
}

// Apply exports every non-empty value whose key is not set yet.
func (f *File) Apply() error {
	for key, value := range f.env() {
		if value == "" {
			continue
		}
		if _, ok := os.LookupEnv(key); ok {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return err
		}
	}
	return nil
}

func (f *File) Fields() logrus.Fields {
	return logrus.Fields{
		"addr":        f.Addr,
		"store":       f.Store,
		"badger_path": f.BadgerPath,
		"log_file":    f.LogFile,
		"development": boolString(f.Development),
	}
}
