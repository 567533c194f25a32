// Package engine sequences a randomiser run over many scheduler ticks.
//
// A run is a fixed list of stages (see Stages). Each call to Run.Step
// gives the current stage one tick's worth of work: a bounded number of
// objects listed, rides probed, map tiles scanned or objects loaded. A
// stage that reports itself finished hands over to the next on the
// following tick.
//
// ERRORS:
//
// Only load failures and exhausted iteration budgets stop a run. The
// first such error is kept on the Run, every later Step returns Fatal
// without doing anything, and the engine accepts a new run. Nothing the
// failed run changed in the host is rolled back.
//
// ONE RUN AT A TIME:
//
// Engine.Start refuses to begin while another run is active. The check
// is guarded by a mutex; stepping itself is single-threaded.
//
// JOURNAL:
//
// With a Recorder, every finished stage and every host load or unload is
// appended to the journal, stamped with a logical tick and a per-run
// sequence number from Clock. Classification probes are not journaled.
package engine
