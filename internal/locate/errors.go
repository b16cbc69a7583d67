package locate

import "fmt"

// NotFoundError is returned when no heuristic finds a record list.
// It ends the run: the capture cannot be retaken from here.
type NotFoundError struct {
	ForestSize int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no company list found in %d captured entries", e.ForestSize)
}
