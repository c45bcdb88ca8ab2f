package database

import (
    "context"
    "database/sql"
    "fmt"
    "time"

    _ "github.com/go-sql-driver/mysql"
)

// Pool sizing for the users/posts workload: requests hold a connection only
// for the duration of one short query, so a small fixed pool is enough.
const (
    maxOpenConns    = 25
    maxIdleConns    = 25
    connMaxLifetime = 30 * time.Minute
    pingTimeout     = 5 * time.Second
)

// Open connects to the MySQL instance holding the users and posts tables
// and verifies the connection with a bounded ping.  parseTime is required
// so created_at/updated_at scan into time.Time; loc=UTC keeps those values
// consistent with the token and session timestamps, which are all UTC.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
    cred := user
    if pass != "" {
        cred = user + ":" + pass
    }
    dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
        cred, host, port, name)

    db, err := sql.Open("mysql", dsn)
    if err != nil {
        return nil, err
    }
    db.SetMaxOpenConns(maxOpenConns)
    db.SetMaxIdleConns(maxIdleConns)
    db.SetConnMaxLifetime(connMaxLifetime)

    ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
    defer cancel()
    if err := db.PingContext(ctx); err != nil {
        db.Close()
        return nil, err
    }
    return db, nil
}
