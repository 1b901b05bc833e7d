// Package fusion estimates attitude from accelerometer, gyroscope and
// magnetometer readings with a complementary filter over a direction
// cosine matrix.
package fusion
