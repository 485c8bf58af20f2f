// Package fleet owns the device collection and the single cloud
// session.
//
// The manager is the only holder of a Session and the only mutator of
// Device instances: refreshes, polls and commands all run under its
// lock, so devices themselves stay lock-free and polls hit the cloud
// strictly sequentially against the shared rate limit.
//
// RefreshDevices makes the local set a materialised view of the
// cloud's device list: records gain a stable id (cid, else macID,
// else uuid; none means the record is dropped with a warning), new
// ids are instantiated through the variant registry, known ids are
// left untouched, and ids missing from the latest list are removed.
// Update throttles itself against the interval since the last
// successful refresh, then polls each device in turn; one device's
// failure never aborts the rest of the fleet.
package fleet
