// Package station runs the sensor board in a control loop: sensors are
// sampled at fx.PrLvSense, motion readings are fused into an attitude at
// fx.PrLvControl and the resulting Reading is handed to the sinks at
// fx.PrLvPostProc.
package station
