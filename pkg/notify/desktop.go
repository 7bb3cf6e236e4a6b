package notify

import (
	"log"

	"github.com/markusbegerow/feeddeck/pkg/domain"
)

// Desktop is the default desktop notifier. Actual OS delivery belongs to the
// shell integration layer; this implementation records the notification in
// the log so headless runs stay observable. Errors are swallowed by contract.
type Desktop struct{}

// Send logs the notification.
func (Desktop) Send(n domain.Notification) {
	log.Printf("[INFO] notification: %s - %s (%s)", n.Title, n.Message, n.Link)
}
