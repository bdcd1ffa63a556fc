// Package icron answers when a cron expression last fired and when it will
// fire next, relative to a reference time.
package icron

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

type TriggerInfo struct {
	Next       time.Time
	Last       time.Time
	Expression string

	TimeSinceLast time.Duration
	TimeUntilNext time.Duration
}

// GetTriggerInfo parses a standard five-field cron expression (descriptors
// like @daily work too) and computes its surrounding trigger times. Last is
// zero when no trigger occurred within the past year.
func GetTriggerInfo(cronExpr string, refTime time.Time) (*TriggerInfo, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour |
		cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	schedule, err := parser.Parse(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}

	nextTime := schedule.Next(refTime)

	// Walk back in hour steps until a window containing a trigger is found,
	// then roll forward to the latest trigger at or before refTime.
	var lastTime time.Time
	probe := refTime.Add(-time.Hour)
	for i := 0; i < 366*24; i++ {
		if candidate := schedule.Next(probe); !candidate.After(refTime) {
			lastTime = candidate
			break
		}
		probe = probe.Add(-time.Hour)
	}
	if !lastTime.IsZero() {
		for {
			candidate := schedule.Next(lastTime)
			if candidate.After(refTime) {
				break
			}
			lastTime = candidate
		}
	}

	info := &TriggerInfo{
		Expression: cronExpr,
		Next:       nextTime,
		Last:       lastTime,
	}
	if !lastTime.IsZero() {
		info.TimeSinceLast = refTime.Sub(lastTime)
	}
	info.TimeUntilNext = nextTime.Sub(refTime)

	return info, nil
}
