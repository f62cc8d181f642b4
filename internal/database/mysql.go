package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"ticketdesk/entity"
	"ticketdesk/internal/config"
	"ticketdesk/lib/sl"
	"time"

	"github.com/go-sql-driver/mysql"
)

const errDuplicateEntry = 1062

type MySql struct {
	db     *sql.DB
	prefix string
	log    *slog.Logger
}

func NewSQLClient(ctx context.Context, conf *config.Config, log *slog.Logger) (*MySql, error) {
	connectionURI := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&loc=UTC",
		conf.MySql.UserName, conf.MySql.Password, conf.MySql.HostName, conf.MySql.Port, conf.MySql.Database)
	db, err := sql.Open("mysql", connectionURI)
	if err != nil {
		return nil, fmt.Errorf("sql connect: %w", err)
	}

	// try to ping three times with a 10-second interval; wait for a database to start
	for i := 0; i < 3; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		if i == 2 {
			_ = db.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, ctx.Err()
		case <-time.After(10 * time.Second):
		}
	}

	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	s := &MySql{
		db:     db,
		prefix: conf.MySql.Prefix,
		log:    log.With(sl.Module("database.mysql")),
	}
	if err = s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	s.log.Info("mysql connected", slog.String("database", conf.MySql.Database))
	return s, nil
}

func (s *MySql) table(name string) string {
	return s.prefix + name
}

func (s *MySql) createTables(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(64) NOT NULL PRIMARY KEY,
			current INT NOT NULL DEFAULT 0,
			total INT NOT NULL
		)`, s.table("counters")),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id CHAR(36) NOT NULL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NULL,
			phone VARCHAR(32) NOT NULL,
			ticket_number INT NOT NULL,
			ticket_code VARCHAR(32) NOT NULL,
			created_at DATETIME(3) NOT NULL,
			UNIQUE KEY uq_email (email),
			UNIQUE KEY uq_ticket_code (ticket_code)
		)`, s.table("registrants")),
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

func (s *MySql) Close(_ context.Context) error {
	return s.db.Close()
}

func isDuplicate(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == errDuplicateEntry
}

// isDuplicateEmail tells the email key apart by name, MySQL reports it as "for key '<table>.uq_email'".
func isDuplicateEmail(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && strings.Contains(mysqlErr.Message, "uq_email")
}

func (s *MySql) GetCounter(ctx context.Context, key string) (*entity.Counter, error) {
	query := fmt.Sprintf("SELECT id, current, total FROM %s WHERE id = ?", s.table("counters"))
	var counter entity.Counter
	err := s.db.QueryRowContext(ctx, query, key).Scan(&counter.Key, &counter.Current, &counter.Total)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select counter: %w", err)
	}
	return &counter, nil
}

func (s *MySql) EnsureCounter(ctx context.Context, key string, total int) (bool, error) {
	query := fmt.Sprintf("INSERT IGNORE INTO %s (id, current, total) VALUES (?, 0, ?)", s.table("counters"))
	result, err := s.db.ExecContext(ctx, query, key, total)
	if err != nil {
		return false, fmt.Errorf("insert counter: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert counter: %w", err)
	}
	return rows > 0, nil
}

// ClaimTicket relies on LAST_INSERT_ID(expr): the incremented value comes back in the
// OK packet of the same statement, so no second read and no transaction is needed.
func (s *MySql) ClaimTicket(ctx context.Context, key string) (int, error) {
	query := fmt.Sprintf("UPDATE %s SET current = LAST_INSERT_ID(current + 1) WHERE id = ? AND current < total",
		s.table("counters"))
	result, err := s.db.ExecContext(ctx, query, key)
	if err != nil {
		return 0, fmt.Errorf("claim ticket: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("claim ticket: %w", err)
	}
	if rows == 0 {
		return 0, ErrNotFound
	}
	number, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("claim ticket: %w", err)
	}
	return int(number), nil
}

func (s *MySql) SetCounterCurrent(ctx context.Context, key string, current, total int) error {
	query := fmt.Sprintf(`INSERT INTO %s (id, current, total) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE current = VALUES(current)`, s.table("counters"))
	if _, err := s.db.ExecContext(ctx, query, key, current, total); err != nil {
		return fmt.Errorf("set counter: %w", err)
	}
	return nil
}

func (s *MySql) CreateRegistrant(ctx context.Context, registrant *entity.Registrant) error {
	query := fmt.Sprintf(`INSERT INTO %s (id, name, email, phone, ticket_number, ticket_code, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, s.table("registrants"))
	var email sql.NullString
	if registrant.Email != "" {
		email = sql.NullString{String: registrant.Email, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, query,
		registrant.Id,
		registrant.Name,
		email,
		registrant.Phone,
		registrant.TicketNumber,
		registrant.TicketCode,
		registrant.CreatedAt,
	)
	if isDuplicate(err) {
		if isDuplicateEmail(err) {
			return fmt.Errorf("insert registrant: %w", ErrDuplicateEmail)
		}
		return fmt.Errorf("insert registrant: %w", ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("insert registrant: %w", err)
	}
	return nil
}

func (s *MySql) FindRegistrantByEmail(ctx context.Context, email string) (*entity.Registrant, error) {
	query := fmt.Sprintf(`SELECT id, name, email, phone, ticket_number, ticket_code, created_at
		FROM %s WHERE email = ?`, s.table("registrants"))
	var registrant entity.Registrant
	var storedEmail sql.NullString
	err := s.db.QueryRowContext(ctx, query, email).Scan(
		&registrant.Id,
		&registrant.Name,
		&storedEmail,
		&registrant.Phone,
		&registrant.TicketNumber,
		&registrant.TicketCode,
		&registrant.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select registrant: %w", err)
	}
	registrant.Email = storedEmail.String
	return &registrant, nil
}

func (s *MySql) CountRegistrants(ctx context.Context) (int64, error) {
	var count int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", s.table("registrants"))
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count registrants: %w", err)
	}
	return count, nil
}

func (s *MySql) DeleteRegistrants(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", s.table("registrants")))
	if err != nil {
		return 0, fmt.Errorf("delete registrants: %w", err)
	}
	return result.RowsAffected()
}
