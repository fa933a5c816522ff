// Package recommend turns a failure probability and a few raw readings into
// an ordered list of maintenance actions.
//
// The list always starts with the baseline actions for the probability's risk
// band, followed by feature-triggered add-ons checked in a fixed order:
// tool wear, torque, temperature difference. Output is deterministic.
package recommend
