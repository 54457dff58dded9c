package redis

// Redis key naming conventions for invoiceflow data.
// All keys are prefixed with "invoiceflow:" to avoid collisions.

const keyPrefix = "invoiceflow:"

// checkpointKey returns the key for a run's checkpoint:
// invoiceflow:checkpoint:{runID}
func checkpointKey(runID string) string { return keyPrefix + "checkpoint:" + runID }

// runIDsKey is the Set tracking all run IDs for enumeration.
const runIDsKey = keyPrefix + "run_ids"
