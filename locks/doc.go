// Package locks provides email-scoped mutual exclusion for account flows.
//
// [Memory] serializes callers inside one process. [Redis] serializes callers
// across processes sharing a Redis deployment using SET NX PX with a random
// owner token and a compare-and-delete release, so a holder whose lease
// expired can never release a lock taken by someone else.
//
// Both return an unlock function that is safe to call more than once.
package locks
