package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestCloseStatus(t *testing.T) {
	due := d(2024, 1, 15)

	require.Equal(t, TxReturned, CloseStatus(d(2024, 1, 10), due))
	// equal dates classify as returned
	require.Equal(t, TxReturned, CloseStatus(d(2024, 1, 15), due))
	require.Equal(t, TxOverdue, CloseStatus(d(2024, 1, 16), due))
	require.Equal(t, TxOverdue, CloseStatus(d(2024, 1, 20), due))
}
