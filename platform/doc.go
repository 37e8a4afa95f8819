// Package platform holds the account and post types shared by the birdcall engines, and the
// error kinds reported by platform mutations.
//
// Types here are populated by a platform adapter (see the twitter package) and consumed by the
// reply resolver, action sequencer, author sampler and the follower snapshot store. None of them
// are cached across runs: posts are fetched fresh by every query.
package platform
