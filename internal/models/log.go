package models

import "time"

// LogEntry is a client-side error report.
type LogEntry struct {
	LogID     int64         `json:"logId"`
	Message   string        `json:"message" binding:"whitelist=DESC"`
	ExtraInfo []interface{} `json:"extraInfo"`
}

// LogMessage is the queue payload wrapping a LogEntry.
type LogMessage struct {
	Entry      LogEntry  `json:"entry"`
	RequestID  string    `json:"request_id,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}
