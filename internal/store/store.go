package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	apperrors "github.com/atinylittleshell/perflog/internal/errors"
	"github.com/atinylittleshell/perflog/internal/sample"
)

// DefaultPath is the database file written when no path is configured.
const DefaultPath = "performance_data.db"

const createTableSQL = `CREATE TABLE IF NOT EXISTS Performance (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp TEXT,
	cpu_usage REAL,
	ram_usage REAL)`

// PerformanceEntry is one row of the Performance table.
type PerformanceEntry struct {
	ID        uint    `gorm:"column:id;primaryKey;autoIncrement"`
	Timestamp string  `gorm:"column:timestamp"`
	CPUUsage  float64 `gorm:"column:cpu_usage"`
	RAMUsage  float64 `gorm:"column:ram_usage"`
}

func (PerformanceEntry) TableName() string { return "Performance" }

// Sample converts the row back into the sample it was written from.
func (e PerformanceEntry) Sample() sample.Sample {
	return sample.Sample{Timestamp: e.Timestamp, CPUPercent: e.CPUUsage, RAMPercent: e.RAMUsage}
}

// Store is an open handle on a performance database file.
type Store struct {
	db   *gorm.DB
	path string
}

// Open opens dbFilePath, creating the file if needed, and makes sure the
// Performance table exists. Failures are returned as *apperrors.StoreError.
func Open(ctx context.Context, dbFilePath string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dbFilePath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, &apperrors.StoreError{Op: apperrors.OpOpen, Path: dbFilePath, Cause: err}
	}

	// One connection keeps ":memory:" databases coherent across calls.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, &apperrors.StoreError{Op: apperrors.OpOpen, Path: dbFilePath, Cause: err}
	}
	sqlDB.SetMaxOpenConns(1)

	s := &Store{db: db, path: dbFilePath}
	if err := db.WithContext(ctx).Exec(createTableSQL).Error; err != nil {
		_ = s.Close()
		return nil, &apperrors.StoreError{Op: apperrors.OpCreateTable, Path: dbFilePath, Cause: err}
	}

	return s, nil
}

// Path returns the file the store was opened on.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.Close(); err != nil {
		return &apperrors.StoreError{Op: apperrors.OpClose, Path: s.path, Cause: err}
	}
	return nil
}

// Append inserts one sample as a new row.
func (s *Store) Append(ctx context.Context, smp sample.Sample) (*PerformanceEntry, error) {
	entry := PerformanceEntry{
		Timestamp: smp.Timestamp,
		CPUUsage:  smp.CPUPercent,
		RAMUsage:  smp.RAMPercent,
	}

	result := s.db.WithContext(ctx).Create(&entry)
	if result.Error != nil {
		return nil, &apperrors.StoreError{Op: apperrors.OpInsert, Path: s.path, Cause: result.Error}
	}

	return &entry, nil
}

// Count returns the number of stored rows.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	result := s.db.WithContext(ctx).Model(&PerformanceEntry{}).Count(&count)
	if result.Error != nil {
		return 0, &apperrors.StoreError{Op: apperrors.OpQuery, Path: s.path, Cause: result.Error}
	}
	return count, nil
}

// Entries returns rows in insertion order. A limit <= 0 returns every row.
func (s *Store) Entries(ctx context.Context, limit int) ([]PerformanceEntry, error) {
	var entries []PerformanceEntry
	db := s.db.WithContext(ctx).Order("id asc")
	if limit > 0 {
		db = db.Limit(limit)
	}
	if result := db.Find(&entries); result.Error != nil {
		return nil, &apperrors.StoreError{Op: apperrors.OpQuery, Path: s.path, Cause: result.Error}
	}
	return entries, nil
}

// Recent returns the last limit rows, oldest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]PerformanceEntry, error) {
	var entries []PerformanceEntry
	result := s.db.WithContext(ctx).Order("id desc").Limit(limit).Find(&entries)
	if result.Error != nil {
		return nil, &apperrors.StoreError{Op: apperrors.OpQuery, Path: s.path, Cause: result.Error}
	}

	return lo.Reverse(entries), nil
}

// Column names a metric column of the Performance table.
type Column string

const (
	ColumnCPU Column = "cpu_usage"
	ColumnRAM Column = "ram_usage"
)

// ColumnStats aggregates one column. N, Min, Avg and Max cover rows holding a
// real reading; Failed counts sentinel rows.
type ColumnStats struct {
	N      int64
	Min    float64
	Avg    float64
	Max    float64
	Failed int64
}

// Stats aggregates col in SQL without loading the rows.
func (s *Store) Stats(ctx context.Context, col Column) (ColumnStats, error) {
	if !lo.Contains([]Column{ColumnCPU, ColumnRAM}, col) {
		return ColumnStats{}, fmt.Errorf("unknown column %q", col)
	}

	var agg struct {
		Readings int64
		MinValue sql.NullFloat64
		AvgValue sql.NullFloat64
		MaxValue sql.NullFloat64
	}
	name := string(col)
	result := s.db.WithContext(ctx).Model(&PerformanceEntry{}).
		Select(fmt.Sprintf("count(*) as readings, min(%[1]s) as min_value, avg(%[1]s) as avg_value, max(%[1]s) as max_value", name)).
		Where(name+" <> ?", sample.Sentinel).
		Scan(&agg)
	if result.Error != nil {
		return ColumnStats{}, &apperrors.StoreError{Op: apperrors.OpQuery, Path: s.path, Cause: result.Error}
	}

	var failed int64
	result = s.db.WithContext(ctx).Model(&PerformanceEntry{}).Where(name+" = ?", sample.Sentinel).Count(&failed)
	if result.Error != nil {
		return ColumnStats{}, &apperrors.StoreError{Op: apperrors.OpQuery, Path: s.path, Cause: result.Error}
	}

	return ColumnStats{
		N:      agg.Readings,
		Min:    agg.MinValue.Float64,
		Avg:    agg.AvgValue.Float64,
		Max:    agg.MaxValue.Float64,
		Failed: failed,
	}, nil
}

// Writer persists each sample with its own open, insert and close against
// Path. Failures are logged and returned; they are never fatal.
type Writer struct {
	Path   string
	Logger *zap.Logger
}

func NewWriter(path string, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{Path: path, Logger: logger}
}

// Save writes smp to the database file.
func (w *Writer) Save(ctx context.Context, smp sample.Sample) error {
	s, err := Open(ctx, w.Path)
	if err != nil {
		w.logFailure(err)
		return err
	}

	_, err = s.Append(ctx, smp)
	if err != nil {
		w.logFailure(err)
	}

	if closeErr := s.Close(); closeErr != nil {
		w.Logger.Warn("error closing database", zap.String("path", w.Path), zap.Error(closeErr))
	}
	return err
}

func (w *Writer) logFailure(err error) {
	msg := "error writing database"
	var storeErr *apperrors.StoreError
	if errors.As(err, &storeErr) {
		switch storeErr.Op {
		case apperrors.OpOpen:
			msg = "error opening database"
		case apperrors.OpCreateTable:
			msg = "error creating table"
		case apperrors.OpInsert:
			msg = "error inserting data"
		}
	}
	w.Logger.Error(msg, zap.String("path", w.Path), zap.Error(err))
}
