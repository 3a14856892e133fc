package store

import "github.com/rs/zerolog/log"

// Local persistence is best-effort: a failed write never fails the operation
// that produced the data, it is only logged.
func logPersistErr(what string, err error) {
	log.Warn().Err(err).Str("slice", what).Msg("local persistence write failed")
}
