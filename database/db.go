package database

import (
	"database/sql"
	"os"
	"strconv"
	"time"

	_ "github.com/lib/pq"
)

// DB pool de connexions partagé du service
var DB *sql.DB

// Init ouvre le pool PostgreSQL et vérifie la connexion. Les tailles du
// pool sont pilotables par DB_MAX_OPEN_CONNS et DB_MAX_IDLE_CONNS.
func Init(connStr string) error {
	var err error
	DB, err = sql.Open("postgres", connStr)
	if err != nil {
		return err
	}

	DB.SetMaxOpenConns(envInt("DB_MAX_OPEN_CONNS", 25))
	DB.SetMaxIdleConns(envInt("DB_MAX_IDLE_CONNS", 5))
	DB.SetConnMaxLifetime(5 * time.Minute)

	return DB.Ping()
}

// Close ferme le pool de connexions
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
