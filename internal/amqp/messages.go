package amqp

import (
	"encoding/json"
	"time"
)

// IngestCompletedMessage announces that a new dataset version replaced the
// previous one.
type IngestCompletedMessage struct {
	DatasetID string    `json:"dataset_id"`
	Source    string    `json:"source"`
	Sheets    int       `json:"sheets"`
	Records   int       `json:"records"`
	Months    []string  `json:"months"`
	Timestamp time.Time `json:"timestamp"`
}

// NewIngestCompletedMessage creates an ingest notification stamped now
func NewIngestCompletedMessage(datasetID, source string, sheets, records int, months []string) *IngestCompletedMessage {
	return &IngestCompletedMessage{
		DatasetID: datasetID,
		Source:    source,
		Sheets:    sheets,
		Records:   records,
		Months:    months,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *IngestCompletedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// IngestCompletedMessageFromJSON creates a message from JSON bytes
func IngestCompletedMessageFromJSON(data []byte) (*IngestCompletedMessage, error) {
	var msg IngestCompletedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ReloadRequest asks the server to re-read its workbook source. An empty
// Source means the configured default.
type ReloadRequest struct {
	Source      string    `json:"source,omitempty"`
	RequestedBy string    `json:"requested_by,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewReloadRequest creates a reload request stamped now
func NewReloadRequest(source, requestedBy string) *ReloadRequest {
	return &ReloadRequest{
		Source:      source,
		RequestedBy: requestedBy,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ReloadRequest) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReloadRequestFromJSON creates a message from JSON bytes
func ReloadRequestFromJSON(data []byte) (*ReloadRequest, error) {
	var msg ReloadRequest
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
