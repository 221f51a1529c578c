package email

import (
	"context"
	"fmt"

	"github.com/sportease/sportease/internal/kafka"
)

type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	fmt.Printf("notify user %s: %s for booking %s at venue %s (%.2f)\n",
		event.UserID, event.Type, event.BookingID, event.VenueID, event.TotalAmount)
	return nil
}
