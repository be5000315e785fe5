// Package models defines the core domain models for stakebank.
//
// # Entities
//
//   - Plan: a purchasable lease offering (price, staked resources, duration)
//   - Creditor: an account whose capital backs resource delegation
//   - Lease: an open, time-boxed delegation funded by one creditor
//   - Freelock: a temporary hold limiting a beneficiary to one free lease
//   - Dividend: a per-creditor override of the income percentage
//   - HistoryRecord: an archived summary of a matured lease
//   - Operator: an administrative account allowed to manage the bank
//
// # Conventions
//
// All monetary and resource amounts are int64 in the smallest unit of
// account (4 implied decimals). Timestamps are unix seconds. Plan durations
// are seconds, so a lease expiry is always CreatedAt + Duration exactly.
//
// Lease and HistoryRecord ids are sequential integers assigned by storage;
// every other entity is keyed by its account name or price.
package models
