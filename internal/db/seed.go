package db

import (
	"context"
	"fmt"
	"log/slog"

	"student-api/internal/student"

	"github.com/uptrace/bun"
)

var defaultMajors = []student.Major{
	{Code: "BA", Description: "Business Administration"},
	{Code: "CE", Description: "Civil Engineering"},
	{Code: "CS", Description: "Computer Science"},
	{Code: "IT", Description: "Information Technology"},
	{Code: "SE", Description: "Software Engineering"},
}

// SeedMajors populates the major lookup table when it is empty. The student
// surface only reads majors, so this is the one place rows get created.
func SeedMajors(ctx context.Context, db *bun.DB) error {
	count, err := db.NewSelect().Model((*student.Major)(nil)).Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count majors: %w", err)
	}
	if count > 0 {
		return nil
	}

	majors := defaultMajors
	if _, err := db.NewInsert().Model(&majors).Exec(ctx); err != nil {
		return fmt.Errorf("failed to seed majors: %w", err)
	}

	slog.Info("seeded major lookup table", "count", len(majors))
	return nil
}
