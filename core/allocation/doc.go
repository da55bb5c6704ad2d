// Package allocation decides which driver, if any, serves a ride request.
//
// A Strategy scans a snapshot of the driver pool and returns a Result. The
// built-in "nearest" strategy filters drivers through ordered eligibility
// predicates (liveness, category, EV range, pickup radius) and keeps the
// closest survivor. Strategies never mutate drivers: liveness transitions
// found during the scan are returned for the caller to apply.
package allocation
