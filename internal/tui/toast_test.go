package tui

import (
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/mark3labs/barberia/internal/booking"
	"github.com/stretchr/testify/assert"
)

func TestToast_ShowAndDismiss(t *testing.T) {
	toast := NewToast()
	assert.Empty(t, toast.View(80), "hidden toast renders nothing")

	cmd := toast.Show(booking.FeedbackSuccess, "Barber selected: Ana")
	assert.NotNil(t, cmd, "transient toasts schedule their dismissal")
	assert.True(t, toast.IsVisible())
	assert.Contains(t, ansi.Strip(toast.View(80)), "Barber selected: Ana")

	toast.Update(ToastDismissMsg{Seq: toast.seq})
	assert.False(t, toast.IsVisible())
	assert.Empty(t, toast.Message())
}

func TestToast_StaleDismissKeepsNewerMessage(t *testing.T) {
	toast := NewToast()
	toast.Show(booking.FeedbackWarning, "first")
	stale := ToastDismissMsg{Seq: toast.seq}
	toast.Show(booking.FeedbackInfo, "second")

	toast.Update(stale)
	assert.Equal(t, "second", toast.Message())
}

func TestToast_ConfirmationPersists(t *testing.T) {
	toast := NewToast()
	cmd := toast.Show(booking.FeedbackConfirmed, "Booking confirmed!")
	assert.Nil(t, cmd)
	assert.Equal(t, booking.FeedbackConfirmed, toast.Kind())

	toast.Clear()
	assert.False(t, toast.IsVisible())
}

func TestToast_NarrowWidthWraps(t *testing.T) {
	toast := NewToast()
	toast.Show(booking.FeedbackInfo, "a message that is much longer than the room available")
	view := toast.View(20)
	for _, line := range splitLines(view) {
		assert.LessOrEqual(t, ansi.StringWidth(line), 20)
	}
}
