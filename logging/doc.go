/*
Package logging sends log entries from Tarmac WebAssembly functions to the
host runtime.

Client offers one method per host log level (Info, Warn, Error, Debug, Trace).
Handler adapts the same capability to log/slog, so a crossdb connection
running in a guest logs through the host:

	h, _ := logging.NewHandler(logging.Config{Level: slog.LevelDebug})
	conn, err := crossdb.Open(crossdb.Config{
		Engine: eng,
		Logger: slog.New(h),
	})

Records below slog.LevelDebug go to the host Trace function.
*/
package logging
