// Package tasks defines the structure for tasks that are sent to Kafka.
package tasks

// DocumentProcessingTask represents the payload of one document ingestion job.
// The consumer loads everything else (object key, owner, title) from the
// documents table, so the message stays minimal and replayable.
type DocumentProcessingTask struct {
	DocumentID uint `json:"document_id"`
}
