// Package logging provides leveled logging for the media catalog service.
//
// The level is resolved once from the environment: DEBUG=1 (or true/yes/on)
// forces debug output, otherwise LOG_LEVEL selects debug, info, warn, or
// error. The default level is info.
package logging
