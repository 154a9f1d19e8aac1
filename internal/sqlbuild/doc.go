// Package sqlbuild assembles MySQL-flavoured SQL from builder state: the
// SELECT and browse queries, UPDATE/INSERT/DELETE, CREATE TABLE and batched
// ALTER TABLE operations.
//
// Every builder is a pure function of the value it is called on, so it can
// be re-run on each edit. Builders return a *ValidationError when a required
// field is missing and never emit partial SQL. The interactive UPDATE and
// CREATE TABLE builders return a sentinel comment instead while their state
// is still incomplete.
package sqlbuild
