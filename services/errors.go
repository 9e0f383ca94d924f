package services

import "errors"

// Shared error taxonomy for the service layer. Validation and conflict
// errors are handled at the boundary that detected them and never bubble
// past the immediate operation.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Conflict errors: user-facing, no retry.
	ErrDuplicateTeamName  = errors.New("a team with this name already exists in this tournament")
	ErrAlreadyCaptain     = errors.New("user already captains a team in this tournament")
	ErrAlreadyParticipant = errors.New("user is already a participant in this tournament")
	ErrAlreadyMember      = errors.New("user is already a member of a team in this tournament")
	ErrTeamFull           = errors.New("the team is already full")

	// Not-found errors with more context than ErrNotFound.
	ErrScrimNotFound      = errors.New("scrim not found")
	ErrTeamNotFound       = errors.New("team not found")
	ErrInvalidJoinCode    = errors.New("no team found with this join code in this tournament")
	ErrNotAMember         = errors.New("user is not a member of any team in this tournament")
	ErrNotRegisterChannel = errors.New("channel is not a tournament registration channel")

	ErrCaptainCannotLeave = errors.New("the captain cannot leave the team")
	ErrLeaveNotConfirmed  = errors.New("leave was not confirmed, no action taken")

	// Provisioning failures are fatal for scrim creation: no record is
	// persisted when the platform rejects role or channel setup.
	ErrProvisioningFailed = errors.New("failed to provision tournament resources")
)
