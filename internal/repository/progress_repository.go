package repository

import (
	"adaptive_learning_backend/internal/model"
	"adaptive_learning_backend/pkg/logger"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProgressStore 学生进度的持久化契约：整体加载、整体保存。
// 文件损坏或缺失时 Load 降级为空映射，绝不中断启动。
type ProgressStore interface {
	Load() (map[string]*model.StudentRecord, error)
	Save(records map[string]*model.StudentRecord) error
}

// FileProgressStore 默认实现：全部学生记录序列化为单个 JSON 文件
type FileProgressStore struct {
	Path string
}

func NewFileProgressStore(path string) *FileProgressStore {
	return &FileProgressStore{Path: path}
}

func (s *FileProgressStore) Load() (map[string]*model.StudentRecord, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Log.Warn("progress file unreadable, starting empty",
				zap.String("path", s.Path), zap.Error(err))
		}
		return map[string]*model.StudentRecord{}, nil
	}

	records := map[string]*model.StudentRecord{}
	if err := json.Unmarshal(data, &records); err != nil {
		logger.Log.Warn("progress file corrupt, starting empty",
			zap.String("path", s.Path), zap.Error(err))
		return map[string]*model.StudentRecord{}, nil
	}
	return records, nil
}

func (s *FileProgressStore) Save(records map[string]*model.StudentRecord) error {
	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}

	// 先写临时文件再改名，避免写一半的进度文件
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.Path)
}

// studentRecordRow MySQL 存储的行结构，每个学生一行，记录整体存为 JSON
type studentRecordRow struct {
	StudentID string    `gorm:"primaryKey;size:64"`
	Record    []byte    `gorm:"type:json"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (studentRecordRow) TableName() string {
	return "student_records"
}

// GormProgressStore 数据库实现，storage.type=mysql 时启用
type GormProgressStore struct {
	DB *gorm.DB
}

func NewGormProgressStore(db *gorm.DB) (*GormProgressStore, error) {
	if err := db.AutoMigrate(&studentRecordRow{}); err != nil {
		return nil, err
	}
	return &GormProgressStore{DB: db}, nil
}

func (s *GormProgressStore) Load() (map[string]*model.StudentRecord, error) {
	var rows []studentRecordRow
	if err := s.DB.Find(&rows).Error; err != nil {
		logger.Log.Warn("loading student records failed, starting empty", zap.Error(err))
		return map[string]*model.StudentRecord{}, nil
	}

	records := make(map[string]*model.StudentRecord, len(rows))
	for _, row := range rows {
		var rec model.StudentRecord
		if err := json.Unmarshal(row.Record, &rec); err != nil {
			logger.Log.Warn("skipping corrupt student record",
				zap.String("studentId", row.StudentID), zap.Error(err))
			continue
		}
		records[row.StudentID] = &rec
	}
	return records, nil
}

func (s *GormProgressStore) Save(records map[string]*model.StudentRecord) error {
	for id, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		row := studentRecordRow{StudentID: id, Record: data}
		if err := s.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"record", "updated_at"}),
		}).Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}
