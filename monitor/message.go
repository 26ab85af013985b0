package monitor

import (
	"fmt"

	"hostwatch/monitor/alert"
	"hostwatch/monitor/transfer"
)

func percentMessage(label string, ev *alert.Event) string {
	return fmt.Sprintf("Warning: %s usage reached %.1f%%\nThreshold: %.1f%%\nExceeded for: %d seconds",
		label, ev.Reading, ev.Threshold, int(ev.Elapsed.Seconds()))
}

// transferMessage reports bytes in TB.
func transferMessage(ev *alert.Event) string {
	return fmt.Sprintf("Warning: Transfer usage reached %.2f TB\nThreshold: %.2f TB\nExceeded for: %d seconds",
		ev.Reading/transfer.BytesPerTB, ev.Threshold/transfer.BytesPerTB, int(ev.Elapsed.Seconds()))
}
