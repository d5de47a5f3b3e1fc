package funnel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatLongDate(t *testing.T) {
	assert.Equal(t, "lunes, 2 de junio de 2025", formatLongDate("2025-06-02"))
	assert.Equal(t, "domingo, 8 de junio de 2025", formatLongDate("2025-06-08"))
	assert.Equal(t, "miércoles, 31 de diciembre de 2025", formatLongDate("2025-12-31"))
}

func TestFormatLongDate_Unparseable(t *testing.T) {
	assert.Equal(t, "mañana", formatLongDate("mañana"))
}

func TestFormatShortDate(t *testing.T) {
	assert.Equal(t, "sábado, 7 de junio", formatShortDate("2025-06-07"))
}

func TestSplitClock(t *testing.T) {
	h, m, ok := splitClock("09:30")
	assert.True(t, ok)
	assert.Equal(t, 9, h)
	assert.Equal(t, 30, m)

	_, _, ok = splitClock("nueve")
	assert.False(t, ok)
}
