package redis

import (
	"fmt"

	"github.com/mcoot/athletearena/internal/model"
)

// Key prefix for all application data
const keyPrefix = "arena"

// userKey returns the Redis key for a User
func userKey(id model.UserID) string {
	return fmt.Sprintf("%s:user:%s", keyPrefix, id)
}

// emailIndexKey returns the Redis key for the email -> user_id index
func emailIndexKey(email string) string {
	return fmt.Sprintf("%s:idx:email:%s", keyPrefix, email)
}

// tournamentKey returns the Redis key for a Tournament
func tournamentKey(id model.TournamentID) string {
	return fmt.Sprintf("%s:tournament:%s", keyPrefix, id)
}

// tournamentsIndexKey returns the Redis key for the ZSET of all tournaments, scored by creation time
func tournamentsIndexKey() string {
	return fmt.Sprintf("%s:idx:tournaments", keyPrefix)
}

// organizerIndexKey returns the Redis key for the ZSET of tournaments run by an organizer
func organizerIndexKey(organizerID model.UserID) string {
	return fmt.Sprintf("%s:idx:tournaments_by_organizer:%s", keyPrefix, organizerID)
}

// registrationKey returns the Redis key for a Registration
func registrationKey(id model.RegistrationID) string {
	return fmt.Sprintf("%s:registration:%s", keyPrefix, id)
}

// pairIndexKey returns the Redis key for the (user, tournament) -> registration_id index
func pairIndexKey(userID model.UserID, tournamentID model.TournamentID) string {
	return fmt.Sprintf("%s:idx:registration:%s:%s", keyPrefix, userID, tournamentID)
}

// userRegistrationsKey returns the Redis key for the LIST of a user's registration IDs
func userRegistrationsKey(userID model.UserID) string {
	return fmt.Sprintf("%s:idx:registrations_by_user:%s", keyPrefix, userID)
}
