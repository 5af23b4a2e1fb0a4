package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestWrapErr(t *testing.T) {
	other := errors.New("boom")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "no documents", err: mongo.ErrNoDocuments, want: ErrNotFound},
		{name: "duplicate", err: mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000}}}, want: ErrDuplicate},
		{name: "deadline", err: context.DeadlineExceeded, want: ErrUnavailable},
		{name: "disconnected", err: mongo.ErrClientDisconnected, want: ErrUnavailable},
		{name: "other", err: other, want: other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapErr("op", tt.err)
			assert.ErrorIs(t, got, tt.want)
			assert.Contains(t, got.Error(), "op: ")
		})
	}

	assert.NoError(t, wrapErr("op", nil))
}
