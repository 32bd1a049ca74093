// Package audit records admin mutations.
//
// # Contract
//
// ActionLogger.LogAction is best-effort: at most once, fire-and-forget. It
// resolves the caller again, builds a Record and hands it to a Sink. When the
// caller cannot be resolved, a value cannot be serialized, the sink fails or
// anything panics, the record is dropped. Drops are counted by reason
// (identity, serialization, sink, panic) and logged at debug; they are never
// returned to the caller.
//
// # Sinks
//
//   - LogrusSink: one structured log line per record (default)
//   - FileSink: newline-delimited JSON with size based rotation
//   - DBSink: PostgreSQL table admin_audit_log
//   - MultiSink: fan-out, first error wins
//
// FileSink and DBSink also implement Reader for operator inspection.
//
// # Usage
//
//	logger := audit.NewActionLogger(resolver, sink, audit.WithRecorder(metrics))
//	logger.LogAction(ctx, audit.Entry{
//		Action:     "game.update",
//		EntityType: "game",
//		EntityID:   game.ID,
//		OldValue:   before,
//		NewValue:   after,
//	})
package audit
