// Package framework provides the control loop and worker runner the
// sensor station is assembled on.
//
// Controllers run once per iteration ordered by priority level: samplers
// at PrLvSense start sensor reads, their completions post messages into
// the loop, fusion at PrLvControl consumes them and publishers at
// PrLvPostProc emit the result.
package framework
