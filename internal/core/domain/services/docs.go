// Package services provides domain services that work on transport orders
// but do not belong to the aggregate itself.
//
// The package includes:
//   - RedirectVote: a request to approve a new target for an order
//   - Voter, LocationVoter, LocationGroupVoter: judges for one kind of target
//   - VoterChain: an explicit, ordered list of voters evaluated in turn
//
// The chain stops at the first voter that approves the proposed target.
// Rejections of blocked targets are collected on the vote so the caller can
// file them as order problems.
package services
