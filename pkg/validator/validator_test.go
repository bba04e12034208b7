package validator

import (
	"context"
	"testing"
	"time"
)

type datedRequest struct {
	Name      string    `validate:"required"`
	StartTime time.Time `validate:"required"`
	EndTime   time.Time `validate:"required,gtefield=StartTime"`
}

func TestValidate_EndBeforeStartRejected(t *testing.T) {
	start := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	req := datedRequest{
		Name:      "Demo",
		StartTime: start,
		EndTime:   start.Add(-24 * time.Hour),
	}

	if err := Validate(context.Background(), req); err == nil {
		t.Fatal("expected validation error for end before start")
	}
}

func TestValidate_EqualDatesAccepted(t *testing.T) {
	start := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	req := datedRequest{Name: "Demo", StartTime: start, EndTime: start}

	if err := Validate(context.Background(), req); err != nil {
		t.Fatalf("equal start/end should pass: %v", err)
	}
}

func TestValidate_EndAfterStartAccepted(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	req := datedRequest{Name: "Demo", StartTime: start, EndTime: start.Add(time.Hour)}

	if err := Validate(context.Background(), req); err != nil {
		t.Fatalf("end after start should pass: %v", err)
	}
}

func TestValidate_MissingRequiredField(t *testing.T) {
	req := datedRequest{
		StartTime: time.Now(),
		EndTime:   time.Now().Add(time.Hour),
	}

	err := Validate(context.Background(), req)
	if err == nil {
		t.Fatal("expected validation error for missing name")
	}
}

func TestValidate_FutureAndPositive(t *testing.T) {
	type extras struct {
		When  time.Time `validate:"future"`
		Count int       `validate:"positive"`
	}

	if err := Validate(context.Background(), extras{When: time.Now().Add(time.Hour), Count: 1}); err != nil {
		t.Fatalf("valid struct rejected: %v", err)
	}
	if err := Validate(context.Background(), extras{When: time.Now().Add(-time.Hour), Count: 1}); err == nil {
		t.Fatal("past date should fail the future rule")
	}
	if err := Validate(context.Background(), extras{When: time.Now().Add(time.Hour), Count: 0}); err == nil {
		t.Fatal("zero should fail the positive rule")
	}
}
