// Package logx provides a thin structured logging layer over zerolog.
//
// It supports live reconfiguration (level/sinks swap via Service.Apply),
// console, file, and in-memory ring sinks, and a slog-like Field API
// without depending on slog.
package logx
