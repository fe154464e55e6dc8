package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

func Addr() string {
	addr, ok := os.LookupEnv("APP_ADDR")
	if !ok {
		return ":8080"
	}
	return addr
}

type StoreKind string

const (
	StorePostgres StoreKind = "postgres"
	StoreBadger   StoreKind = "badger"
)

func Store() (StoreKind, error) {
	store, ok := os.LookupEnv("STORE")
	if !ok {
		return StoreBadger, nil
	}
	switch kind := StoreKind(store); kind {
	case StorePostgres, StoreBadger:
		return kind, nil
	default:
		return "", fmt.Errorf("unknown STORE %q", store)
	}
}

// BadgerPath is the directory of the embedded store. Empty means in-memory.
func BadgerPath() string {
	return os.Getenv("BADGER_PATH")
}

// AutoplayRate is the number of moves per second the agent makes when
// playing over a websocket.
func AutoplayRate() (float64, error) {
	rateStr, ok := os.LookupEnv("AUTOPLAY_RATE")
	if !ok {
		return 4, nil
	}
	rate, err := strconv.ParseFloat(rateStr, 64)
	if err != nil || rate <= 0 {
		return 0, fmt.Errorf("AUTOPLAY_RATE must be a positive number, got %q", rateStr)
	}
	return rate, nil
}

func ShutdownTimeout() time.Duration {
	return 15 * time.Second
}
