package model

import (
	"testing"
	"time"
)

func TestBatch_IsTerminal(t *testing.T) {
	tests := []struct {
		name     string
		status   BatchStatus
		terminal bool
	}{
		{name: "pending is active", status: BatchStatusPending, terminal: false},
		{name: "partial is active", status: BatchStatusPartial, terminal: false},
		{name: "completed is terminal", status: BatchStatusCompleted, terminal: true},
		{name: "picked_up is terminal", status: BatchStatusPickedUp, terminal: true},
		{name: "fulfilled is terminal", status: BatchStatusFulfilled, terminal: true},
		{name: "cancelled is not terminal", status: BatchStatusCancelled, terminal: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Batch{Status: tt.status}
			if got := b.IsTerminal(); got != tt.terminal {
				t.Errorf("IsTerminal() with status %s = %v, want %v", tt.status, got, tt.terminal)
			}
		})
	}
}

func TestBatch_SettledAt(t *testing.T) {
	created := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	completed := time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC)
	pickedUp := time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		batch Batch
		want  time.Time
	}{
		{
			name:  "pickup time wins",
			batch: Batch{CreatedAt: created, CompletedAt: &completed, PickedUpAt: &pickedUp},
			want:  pickedUp,
		},
		{
			name:  "completion time when never picked up",
			batch: Batch{CreatedAt: created, CompletedAt: &completed},
			want:  completed,
		},
		{
			name:  "creation time as last resort",
			batch: Batch{CreatedAt: created},
			want:  created,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.batch.SettledAt(); !got.Equal(tt.want) {
				t.Errorf("SettledAt() = %v, want %v", got, tt.want)
			}
		})
	}
}
