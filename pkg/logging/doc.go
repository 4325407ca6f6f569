// Package logging configures the log/slog loggers used across stubd.
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelDebug,
//	    Format: logging.FormatJSON,
//	})
//	logger.Info("stub server listening", "addr", ln.Addr())
//
// Components accept a *slog.Logger through an option or setter and fall back
// to Nop when none is given.
package logging
