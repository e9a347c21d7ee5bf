// Command av1ify queues video files for AV1 conversion, runs the
// sequential encode worker, and inspects the conversion history.
package main
