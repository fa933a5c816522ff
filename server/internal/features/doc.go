// Package features turns a raw sensor reading into the ordered numeric vector
// the failure classifier was trained on.
//
// The column order in Columns is fixed at training time. The scaler and
// classifier artifacts declare the same list and model.Load* rejects any
// artifact whose list differs, so a reorder here requires retraining both.
//
// Build is pure. Division by zero in temp_power (rpm × torque == 0) follows
// IEEE-754 and yields ±Inf or NaN; callers decide what to do with a vector
// that is not Finite.
package features
