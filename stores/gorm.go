package stores

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/imgstash/imgstash/models"
)

// fileRecordRow is the relational shape of models.FileRecord. The explicit
// conversion keeps gorm column tags out of the wire/document model.
type fileRecordRow struct {
	ID             string `gorm:"primaryKey;size:36"`
	FieldName      string `gorm:"size:64"`
	OriginalName   string `gorm:"size:255"`
	Encoding       string `gorm:"size:32"`
	MimeType       string `gorm:"size:128"`
	StoredName     string `gorm:"size:512"`
	Path           string `gorm:"size:1024;index"`
	Size           int64
	OriginalSize   int64
	CompressedSize int64
	UploadedAt     time.Time
}

func (fileRecordRow) TableName() string { return "file_records" }

// GormStore persists file records through gorm: MySQL in production, any
// gorm dialect in tests.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an already opened gorm DB and ensures the table exists.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&fileRecordRow{}); err != nil {
		return nil, fmt.Errorf("migrate file_records: %w", err)
	}
	return &GormStore{db: db}, nil
}

// NewMySQLStore opens a MySQL backed store from a DSN.
func NewMySQLStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	// Ping at boot so network or credential problems do not hide until the
	// first insert.
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("mysql ping: %w", err)
	}

	return NewGormStore(db)
}

func (s *GormStore) Insert(ctx context.Context, record *models.FileRecord) error {
	row := fileRecordRow{
		ID:             record.ID,
		FieldName:      record.FieldName,
		OriginalName:   record.OriginalName,
		Encoding:       record.Encoding,
		MimeType:       record.MimeType,
		StoredName:     record.StoredName,
		Path:           record.Path,
		Size:           record.Size,
		OriginalSize:   record.OriginalSize,
		CompressedSize: record.CompressedSize,
		UploadedAt:     record.UploadedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert file record: %w", err)
	}
	return nil
}

func (s *GormStore) Totals(ctx context.Context) (Totals, error) {
	var t Totals
	err := s.db.WithContext(ctx).Model(&fileRecordRow{}).
		Select("COUNT(*) AS count, COALESCE(SUM(original_size),0) AS original_bytes, COALESCE(SUM(compressed_size),0) AS compressed_bytes").
		Scan(&t).Error
	if err != nil {
		return Totals{}, fmt.Errorf("aggregate totals: %w", err)
	}
	return t, nil
}

func (s *GormStore) HasPath(ctx context.Context, path string) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&fileRecordRow{}).Where("path = ?", path).Count(&n).Error; err != nil {
		return false, fmt.Errorf("count by path: %w", err)
	}
	return n > 0, nil
}
