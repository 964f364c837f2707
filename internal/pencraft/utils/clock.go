package utils

import "time"

// Timer отложенный вызов, который можно отменить.
type Timer interface {
	Stop() bool
}

// Clock источник времени и отложенных вызовов. В тестах подменяется управляемой реализацией.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock системные часы.
var RealClock Clock = realClock{}
