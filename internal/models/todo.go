package models

import (
	"time"

	"gorm.io/gorm"
)

// SystemTag is the default created-by/updated-by tag for rows written by the service.
const SystemTag = "ToDo System"

// Todo is the persisted to-do item.
type Todo struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsComplete  bool      `json:"isComplete" gorm:"not null"`
	Username    string    `json:"username" gorm:"index;not null"`
	Created     time.Time `json:"created" gorm:"autoCreateTime"`
	CreatedBy   string    `json:"createdBy" gorm:"not null"`
	Updated     time.Time `json:"updated" gorm:"autoUpdateTime"`
	UpdatedBy   string    `json:"updatedBy" gorm:"not null"`
	Version     int64     `json:"-" gorm:"not null"`
}

func (t *Todo) GetID() int64   { return t.ID }
func (t *Todo) SetID(id int64) { t.ID = id }

// ConcurrencyToken implements the repository's optimistic-concurrency contract.
func (t *Todo) ConcurrencyToken() int64      { return t.Version }
func (t *Todo) SetConcurrencyToken(v int64) { t.Version = v }

// BeforeCreate fills the audit tags and the initial concurrency token.
func (t *Todo) BeforeCreate(tx *gorm.DB) error {
	if t.CreatedBy == "" {
		t.CreatedBy = SystemTag
	}
	if t.UpdatedBy == "" {
		t.UpdatedBy = SystemTag
	}
	if t.Version == 0 {
		t.Version = 1
	}
	return nil
}

// TodoViewModel is the transport shape of a Todo.
type TodoViewModel struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name" binding:"whitelist=DESC"`
	Description string    `json:"description" binding:"whitelist=DESC"`
	Username    string    `json:"username" binding:"required,whitelist=DESC"`
	IsComplete  bool      `json:"isComplete"`
	Updated     time.Time `json:"updated"`
}

func (m *TodoViewModel) GetID() int64   { return m.ID }
func (m *TodoViewModel) SetID(id int64) { m.ID = id }
