// Package resource implements the Controller that enforces kdvec's
// resource limits.
//
// The Controller manages three resource types:
//
//   - Memory: track (and optionally cap) the bytes held by stored records
//   - Concurrency: limit the number of searches running at once
//   - Query rate: token-bucket limit on searches per second
//
// Memory acquisition is fail-fast through TryAcquireMemory, or blocking
// through AcquireMemory:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 1 << 30, // 1GB limit
//	})
//
//	if !rc.TryAcquireMemory(rec.SizeBytes()) {
//	    // limit exceeded - caller decides what to do
//	}
//
// A nil *Controller is valid and imposes no limits.
package resource
