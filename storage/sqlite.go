package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"aqar_pipeline/models"
)

// SQLiteStore reads the legacy prototype database. The pipeline never
// mutates it; raw rows are immutable inputs.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open source db: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// migrate creates the legacy-shaped tables when pointed at an empty file.
// The prototype schema has no constraints beyond the integer primary key;
// duplicates and junk rows are expected.
func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS properties (
		id INTEGER PRIMARY KEY,
		name TEXT,
		category TEXT,
		region TEXT,
		price TEXT,
		area TEXT,
		bedrooms TEXT,
		bathrooms TEXT,
		floor TEXT,
		finish TEXT,
		payment TEXT,
		offering TEXT,
		message TEXT,
		phone TEXT,
		whatsapp TEXT,
		email TEXT,
		created_at TEXT
	);

	CREATE TABLE IF NOT EXISTS whatsapp_messages (
		id INTEGER PRIMARY KEY,
		sender TEXT,
		message TEXT,
		timestamp TEXT,
		property_type TEXT,
		location TEXT,
		price TEXT,
		phone TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_properties_id ON properties(id);
	CREATE INDEX IF NOT EXISTS idx_messages_id ON whatsapp_messages(id);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) CountRawListings(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM properties`).Scan(&count)
	return count, err
}

func (s *SQLiteStore) CountRawMessages(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM whatsapp_messages`).Scan(&count)
	return count, err
}

// ListRawListingsAfter pages through properties above the watermark in id
// order. A zero afterID reads from the beginning.
func (s *SQLiteStore) ListRawListingsAfter(ctx context.Context, afterID int64, limit int) ([]models.RawListing, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category, region, price, area, bedrooms, bathrooms,
			floor, finish, payment, offering, message, phone, whatsapp, email, created_at
		FROM properties WHERE id > ? ORDER BY id LIMIT ?`, afterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []models.RawListing
	for rows.Next() {
		var l models.RawListing
		var name, category, region, price, area, bedrooms, bathrooms sql.NullString
		var floor, finish, payment, offering, message, phone, whatsapp, email, createdAt sql.NullString
		if err := rows.Scan(&l.ID, &name, &category, &region, &price, &area, &bedrooms, &bathrooms,
			&floor, &finish, &payment, &offering, &message, &phone, &whatsapp, &email, &createdAt); err != nil {
			return nil, err
		}
		l.Name = name.String
		l.Category = category.String
		l.Region = region.String
		l.Price = price.String
		l.Area = area.String
		l.Bedrooms = bedrooms.String
		l.Bathrooms = bathrooms.String
		l.Floor = floor.String
		l.Finish = finish.String
		l.Payment = payment.String
		l.Offering = offering.String
		l.Message = message.String
		l.Phone = phone.String
		l.WhatsApp = whatsapp.String
		l.Email = email.String
		l.CreatedAt = createdAt.String
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// ListRawMessagesAfter pages through the chat corpus above the watermark.
func (s *SQLiteStore) ListRawMessagesAfter(ctx context.Context, afterID int64, limit int) ([]models.RawChatMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sender, message, timestamp, property_type, location, price, phone
		FROM whatsapp_messages WHERE id > ? ORDER BY id LIMIT ?`, afterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.RawChatMessage
	for rows.Next() {
		var m models.RawChatMessage
		var sender, message, timestamp, propertyType, location, price, phone sql.NullString
		if err := rows.Scan(&m.ID, &sender, &message, &timestamp, &propertyType, &location, &price, &phone); err != nil {
			return nil, err
		}
		m.Sender = sender.String
		m.Message = message.String
		m.Timestamp = timestamp.String
		m.PropertyType = propertyType.String
		m.Location = location.String
		m.Price = price.String
		m.Phone = phone.String
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// InsertRawListing seeds a legacy row. Only used by fixtures and tests; the
// pipeline itself treats the source as read-only.
func (s *SQLiteStore) InsertRawListing(ctx context.Context, l *models.RawListing) error {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO properties (name, category, region, price, area, bedrooms, bathrooms,
			floor, finish, payment, offering, message, phone, whatsapp, email, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.Name, l.Category, l.Region, l.Price, l.Area, l.Bedrooms, l.Bathrooms,
		l.Floor, l.Finish, l.Payment, l.Offering, l.Message, l.Phone, l.WhatsApp, l.Email, l.CreatedAt)
	if err != nil {
		return err
	}
	l.ID, err = result.LastInsertId()
	return err
}

// InsertRawMessage seeds a legacy chat row. Fixtures and tests only.
func (s *SQLiteStore) InsertRawMessage(ctx context.Context, m *models.RawChatMessage) error {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO whatsapp_messages (sender, message, timestamp, property_type, location, price, phone)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.Sender, m.Message, m.Timestamp, m.PropertyType, m.Location, m.Price, m.Phone)
	if err != nil {
		return err
	}
	m.ID, err = result.LastInsertId()
	return err
}
