// Package billing holds the debit note aggregate and its supporting
// domain services.
//
// A debit note collects a client's billable shipments for a period,
// prices them through the FeeAggregator (freight, local and
// pay-on-behalf buckets, VAT on local charges, USD to VND conversion
// by truncation) and moves through a DRAFT -> PENDING_REVIEW ->
// APPROVED/REJECTED workflow with a full event trail. Export records
// track every generated spreadsheet artifact.
package billing
