// Package readiness provides the polling primitive and the readiness
// predicates used to gate staged rollouts.
//
// Poll degrades to a TimedOut outcome instead of failing; callers decide
// whether a timeout is fatal. Predicate evaluation errors are treated as
// "not ready yet" and retried.
package readiness
