package notify

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsEmptyResult(t *testing.T) {
	notFound := &GatewayError{Op: "list customers", Status: 404, Message: "No customers found!"}

	assert.True(t, IsEmptyResult(notFound, "No customers found!"))
	assert.True(t, IsEmptyResult(fmt.Errorf("fetch: %w", notFound), "No customers found!"))
	assert.False(t, IsEmptyResult(notFound, "Item not found"))
	assert.False(t, IsEmptyResult(errors.New("No customers found!"), "No customers found!"))
	assert.False(t, IsEmptyResult(nil, "No customers found!"))
	assert.False(t, IsEmptyResult(&GatewayError{Status: 404}, ""))
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		fallback string
		want     string
	}{
		{"server message wins", &GatewayError{Status: 400, Message: "Invoice number already exists"}, "Failed to create invoice", "Invoice number already exists"},
		{"fallback without message", &GatewayError{Status: 500}, "Failed to create invoice", "Failed to create invoice"},
		{"transport", fmt.Errorf("create invoice: %w", ErrTransport), "Failed to create invoice", "Network error"},
		{"required field", Required("Invoice number"), "", "Invoice number is required"},
		{"invalid email", &ValidationError{Err: ErrInvalidEmail, Field: "Email"}, "", "Please enter a valid email address"},
		{"unknown without fallback", errors.New("boom"), "", "Something went wrong"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Describe(tt.err, tt.fallback))
		})
	}
}

func TestValidationErrorUnwraps(t *testing.T) {
	err := fmt.Errorf("submit: %w", Required("Customer"))
	assert.ErrorIs(t, err, ErrRequired)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Customer", ve.Field)
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil, "x"))

	n := FromError(&GatewayError{Status: 500}, "Failed to load customers")
	require.NotNil(t, n)
	assert.Equal(t, LevelError, n.Level)
	assert.Equal(t, "Failed to load customers", n.Text)
}

func TestTray_ExpiresAfterLifetime(t *testing.T) {
	tray := NewTray(3)
	start := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)

	tray.Push(Success("Invoice created"), start)
	tray.Push(nil, start)
	tray.Push(&Notification{}, start)
	require.Equal(t, 1, tray.Len())

	assert.Len(t, tray.Active(start.Add(Lifetime-time.Millisecond)), 1)
	assert.Empty(t, tray.Active(start.Add(Lifetime)))

	assert.False(t, tray.Prune(start.Add(time.Second)))
	assert.True(t, tray.Prune(start.Add(Lifetime)))
	assert.Equal(t, 0, tray.Len())
}

func TestTray_DropsOldestBeyondMax(t *testing.T) {
	tray := NewTray(2)
	now := time.Now()
	tray.Push(Info("one"), now)
	tray.Push(Info("two"), now)
	tray.Push(Info("three"), now)

	active := tray.Active(now)
	require.Len(t, active, 2)
	assert.Equal(t, "two", active[0].Text)
	assert.Equal(t, "three", active[1].Text)
}
