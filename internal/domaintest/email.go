package domaintest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// NewEmail returns an address that no other test uses
func NewEmail(t *testing.T) string {
	id, err := uuid.NewRandom()
	require.NoError(t, err)
	return fmt.Sprintf("%s@example.com", id.String())
}
