package feed

import "fmt"

// StructuralError reports a feed document whose shape doesn't match the
// expected positional layout.
type StructuralError struct {
	Section string
	Row     int
	Field   string
	Reason  string
}

func (e *StructuralError) Error() string {
	switch {
	case e.Field != "":
		return fmt.Sprintf("feed: %s[%d].%s: %s", e.Section, e.Row, e.Field, e.Reason)
	case e.Row >= 0:
		return fmt.Sprintf("feed: %s[%d]: %s", e.Section, e.Row, e.Reason)
	default:
		return fmt.Sprintf("feed: %s: %s", e.Section, e.Reason)
	}
}
