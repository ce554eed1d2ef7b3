package events

import (
	"errors"
	"fmt"
)

// PublishError reports the events that were not accepted by the publisher.
// Every event is attempted; Errs holds one entry per failure in event order.
type PublishError struct {
	Failed int
	Total  int
	Errs   []error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish error: %d of %d change events failed: %v", e.Failed, e.Total, errors.Join(e.Errs...))
}

func (e *PublishError) Unwrap() []error {
	return e.Errs
}
