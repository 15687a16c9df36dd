// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package login implements the state pipeline behind a login screen.
//
// The screen dispatches [Action]s to a [ViewModel]. Each request action is
// picked up by the pipeline for its kind, which emits [Loading], calls the
// authentication service in the background and then emits either the result
// ([Logged], [Registered]) or [Failed]. Changes from every pipeline are merged
// in the order they are emitted and folded with [Reduce] into a [State]:
//
//	actions -> pipelines -> changes -> Reduce -> state
//
// A failed request never stops its pipeline. Overlapping requests of the same
// kind are neither cancelled nor serialized, so their changes interleave in
// completion order.
package login
