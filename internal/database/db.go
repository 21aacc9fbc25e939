package database

import (
	"context"
	"database/sql"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection.  The durable
// store holds seats, reservations, bookings, apps and users; the
// confirm transaction relies on its multi-record ACID guarantees.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	dcfg := mysql.NewConfig()
	dcfg.User = user
	dcfg.Passwd = pass
	dcfg.Net = "tcp"
	dcfg.Addr = net.JoinHostPort(host, port)
	dcfg.DBName = name
	dcfg.ParseTime = true // DATETIME columns scan into time.Time
	dcfg.Loc = time.UTC
	dcfg.Params = map[string]string{"charset": "utf8mb4"}

	db, err := sql.Open("mysql", dcfg.FormatDSN())
	if err != nil {
		return nil, err
	}

	// Confirm transactions hold a connection across two FOR UPDATE
	// reads plus three writes, so keep a reasonably deep pool but
	// recycle connections before MySQL's wait_timeout bites.
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
