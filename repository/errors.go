package repository

import "errors"

var (
	// ErrBountyNotFound is returned when no bounty exists for a contract address.
	ErrBountyNotFound = errors.New("bounty not found")

	// ErrDuplicateContract is returned when a create collides with an existing
	// contract address. Detected at the insert itself, never by a pre-check.
	ErrDuplicateContract = errors.New("bounty with this contract address already exists")

	// ErrDuplicateHunter is returned when a wallet already has a roster entry
	// on the target bounty.
	ErrDuplicateHunter = errors.New("wallet already joined this bounty")

	// ErrHunterNotFound is returned when a submission references a wallet with
	// no roster entry on the bounty.
	ErrHunterNotFound = errors.New("no roster entry for wallet on this bounty")

	// ErrAlreadySubmitted is returned when a roster entry is already SUBMITTED.
	ErrAlreadySubmitted = errors.New("hunter has already submitted for this bounty")

	// ErrIllegalState is returned when the bounty's current status does not
	// permit the requested operation.
	ErrIllegalState = errors.New("operation not allowed in current bounty status")

	// ErrWinnerConflict is returned when a resolve targets an already-resolved
	// bounty with a different winner.
	ErrWinnerConflict = errors.New("bounty already resolved with a different winner")

	// ErrWinnerNotEligible is returned when the proposed winner has no
	// SUBMITTED roster entry.
	ErrWinnerNotEligible = errors.New("winner has no submitted entry on this bounty")
)
