// Package audithook is an extension that bridges run lifecycle events
// to an immutable audit trail backend.
//
// Every lifecycle hook emits a structured audit event through the
// [Recorder] interface. The extension assigns appropriate severity
// levels (info for normal progress, warning for cancellations, critical
// for failures) and rich metadata (invoice reference, stage, match
// score, elapsed time, errors).
//
// # Usage
//
//	hooks.Register(audithook.New(audithook.RecorderFunc(
//	    func(ctx context.Context, evt *audithook.AuditEvent) error {
//	        return trail.Append(ctx, evt.Action, evt.ResourceID, evt.Metadata)
//	    },
//	)))
//
// # Selective filtering
//
//	audithook.New(recorder,
//	    audithook.WithActions(
//	        audithook.ActionRunFailed,
//	        audithook.ActionRunCancelled,
//	    ),
//	)
package audithook
