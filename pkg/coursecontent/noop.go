package coursecontent

import (
	"context"

	"github.com/google/uuid"
)

// NoopEventSink is an event sink that drops every event.
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-op event sink
func NewNoopEventSink() *NoopEventSink {
	return &NoopEventSink{}
}

func (NoopEventSink) CourseCreated(ctx context.Context, course *Course) error       { return nil }
func (NoopEventSink) CoursePublished(ctx context.Context, course *Course) error     { return nil }
func (NoopEventSink) CourseDeleted(ctx context.Context, courseID uuid.UUID) error   { return nil }
func (NoopEventSink) LectureCreated(ctx context.Context, lecture *Lecture) error    { return nil }
func (NoopEventSink) MaterialUploaded(ctx context.Context, material *Material) error { return nil }
func (NoopEventSink) MaterialDeleted(ctx context.Context, materialID uuid.UUID) error { return nil }
