package rules

import "time"

// clockNow is overridden in tests to make date_age evaluation deterministic.
var clockNow = time.Now

func nowUnix() int64 { return clockNow().Unix() }
