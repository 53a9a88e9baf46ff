// Package expiry runs the time-to-live sweep over a subscription's backlog.
//
// A Monitor owns one subscription. TriggerExpiry starts at most one sweep at
// a time: it asks the cursor for the newest position whose entries are all
// older than the TTL, then mark-deletes up to that position and records the
// number of messages that left the backlog. Both steps are asynchronous and
// complete on the cursor's executor; TriggerExpiry never blocks.
//
// Every sweep ends through a single finalizer that clears the in-progress
// guard and flushes the expiry rate. With a sweep timeout configured, the
// finalizer also runs when the timeout fires first. In that case a find that
// completes late is discarded and its delete is never issued, while a delete
// that completes late still lands and still counts toward the rate. The next
// sweep may then rescan a region that a late delete is about to remove, and a
// timeout shorter than a healthy sweep starves every sweep. Timeouts are off
// by default.
//
// Scheduler drives registered monitors on a fixed sweep interval and flushes
// their rates on a slower rate interval.
package expiry
