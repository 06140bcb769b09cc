package metrics

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	studentsCreated    metric.Int64Counter
	studentsUpdated    metric.Int64Counter
	studentsDeleted    metric.Int64Counter
	studentsViewed     metric.Int64Counter
	studentsListViewed metric.Int64Counter
	imagesStored       metric.Int64Counter
}

func New(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.studentsCreated, err = meter.Int64Counter(
		"student_api.students.created",
		metric.WithDescription("Total number of students created"),
		metric.WithUnit("{student}"),
	)
	if err != nil {
		return nil, err
	}

	m.studentsUpdated, err = meter.Int64Counter(
		"student_api.students.updated",
		metric.WithDescription("Total number of students updated"),
		metric.WithUnit("{student}"),
	)
	if err != nil {
		return nil, err
	}

	m.studentsDeleted, err = meter.Int64Counter(
		"student_api.students.deleted",
		metric.WithDescription("Total number of students deleted"),
		metric.WithUnit("{student}"),
	)
	if err != nil {
		return nil, err
	}

	m.studentsViewed, err = meter.Int64Counter(
		"student_api.students.viewed",
		metric.WithDescription("Total number of single-student reads"),
		metric.WithUnit("{view}"),
	)
	if err != nil {
		return nil, err
	}

	m.studentsListViewed, err = meter.Int64Counter(
		"student_api.students.list_viewed",
		metric.WithDescription("Total number of times the student list was viewed"),
		metric.WithUnit("{view}"),
	)
	if err != nil {
		return nil, err
	}

	m.imagesStored, err = meter.Int64Counter(
		"student_api.images.stored",
		metric.WithDescription("Total number of profile images written to the blob store"),
		metric.WithUnit("{image}"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Metrics) RecordStudentCreated(ctx context.Context) {
	m.studentsCreated.Add(ctx, 1)
}

func (m *Metrics) RecordStudentUpdated(ctx context.Context) {
	m.studentsUpdated.Add(ctx, 1)
}

func (m *Metrics) RecordStudentDeleted(ctx context.Context) {
	m.studentsDeleted.Add(ctx, 1)
}

func (m *Metrics) RecordStudentViewed(ctx context.Context) {
	m.studentsViewed.Add(ctx, 1)
}

func (m *Metrics) RecordStudentsListViewed(ctx context.Context) {
	m.studentsListViewed.Add(ctx, 1)
}

func (m *Metrics) RecordImageStored(ctx context.Context) {
	m.imagesStored.Add(ctx, 1)
}
